// Package completion derives how far along a title is from the progress
// recorded by every watch partner.
package completion

import "github.com/amaumene/animetrack/internal/models"

// Tier is the overall completion status of a title. Higher is further along.
type Tier int

const (
	TierNotStarted Tier = iota
	TierStarted
	TierAdvanced
	TierCaughtUp
	TierComplete
)

// DefaultPrimaryPartnerID is the watch partner whose force-complete flag
// completes a title outright. It is the first partner row of the store.
const DefaultPrimaryPartnerID uint64 = 1

// String returns a human readable tier name
func (t Tier) String() string {
	switch t {
	case TierNotStarted:
		return "Not started"
	case TierStarted:
		return "Started"
	case TierAdvanced:
		return "Advanced"
	case TierCaughtUp:
		return "Caught up"
	case TierComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is one of the five tiers
func (t Tier) Valid() bool {
	return t >= TierNotStarted && t <= TierComplete
}

// Key packs a position into a single ordering value. Seasons and episodes
// must stay below 1000 or they spill into the next digit group.
func Key(season, episode int, forceComplete bool) int {
	f := 0
	if forceComplete {
		f = 1
	}
	return f*1_000_000 + season*1_000 + episode
}

// Resolver computes completion tiers
type Resolver struct {
	PrimaryPartnerID uint64
}

// NewResolver creates a resolver. A zero partner id falls back to DefaultPrimaryPartnerID.
func NewResolver(primaryPartnerID uint64) Resolver {
	if primaryPartnerID == 0 {
		primaryPartnerID = DefaultPrimaryPartnerID
	}
	return Resolver{PrimaryPartnerID: primaryPartnerID}
}

// Resolve returns the tier of title given every watchthrough recorded for it,
// the ids of its extras and the extra completion marks of those watchthroughs.
// Records and marks belonging to other titles must be filtered out by the caller.
func (r Resolver) Resolve(title *models.Title, records []*models.Watchthrough, extraIDs []uint64, marks []*models.ExtraCompletion) Tier {
	for _, rec := range records {
		if r.qualifiesComplete(title, rec, records, extraIDs, marks) {
			return TierComplete
		}
	}

	// Without records there is no best position to compare with the final one
	if len(records) == 0 {
		return TierNotStarted
	}

	var season, episode int
	best := -1
	for _, rec := range records {
		if k := Key(rec.Season, rec.Episode, false); k > best {
			best = k
			season, episode = rec.Season, rec.Episode
		}
	}

	switch {
	case season == title.FinalSeason && episode == title.FinalEpisode:
		return TierCaughtUp
	case season > 1:
		return TierAdvanced
	case season > 0 || episode > 0:
		return TierStarted
	default:
		return TierNotStarted
	}
}

func (r Resolver) qualifiesComplete(title *models.Title, rec *models.Watchthrough, records []*models.Watchthrough, extraIDs []uint64, marks []*models.ExtraCompletion) bool {
	if rec.ForceComplete && rec.PartnerID == r.PrimaryPartnerID {
		return true
	}

	// Both sides are scaled by rec's own force-complete flag.
	own := Key(rec.Season, rec.Episode, rec.ForceComplete)
	for _, other := range records {
		if Key(other.Season, other.Episode, rec.ForceComplete) > own {
			return false
		}
	}

	if rec.Season < title.FinalSeason || rec.Episode < title.FinalEpisode {
		return false
	}

	return allExtrasWatched(rec.ID, extraIDs, marks)
}

func allExtrasWatched(watchthroughID uint64, extraIDs []uint64, marks []*models.ExtraCompletion) bool {
	attached := make(map[uint64]bool, len(extraIDs))
	for _, id := range extraIDs {
		attached[id] = true
	}

	watched := make(map[uint64]bool, len(attached))
	for _, mark := range marks {
		if mark.WatchthroughID == watchthroughID && attached[mark.ExtraID] {
			watched[mark.ExtraID] = true
		}
	}
	return len(watched) == len(attached)
}
