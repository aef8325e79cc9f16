package completion

import (
	"testing"

	"github.com/amaumene/animetrack/internal/models"
)

func watch(id, partner uint64, season, episode int) *models.Watchthrough {
	return &models.Watchthrough{ID: id, TitleID: 1, PartnerID: partner, Season: season, Episode: episode, IsActive: true}
}

func mark(watchthroughID, extraID uint64) *models.ExtraCompletion {
	return &models.ExtraCompletion{WatchthroughID: watchthroughID, ExtraID: extraID}
}

func TestKey(t *testing.T) {
	if got := Key(2, 12, false); got != 2012 {
		t.Errorf("Key(2, 12, false) = %d, want 2012", got)
	}
	if got := Key(2, 12, true); got != 1002012 {
		t.Errorf("Key(2, 12, true) = %d, want 1002012", got)
	}
	if Key(1, 999, false) >= Key(2, 0, false) {
		t.Error("season must dominate episode below 1000 episodes")
	}
}

func TestResolve(t *testing.T) {
	resolver := NewResolver(DefaultPrimaryPartnerID)

	tests := []struct {
		name     string
		title    *models.Title
		records  []*models.Watchthrough
		extraIDs []uint64
		marks    []*models.ExtraCompletion
		want     Tier
	}{
		{
			name:  "no records",
			title: &models.Title{FinalSeason: 1, FinalEpisode: 1},
			want:  TierNotStarted,
		},
		{
			name:  "no records with final position at zero",
			title: &models.Title{FinalSeason: 0, FinalEpisode: 0},
			want:  TierNotStarted,
		},
		{
			name:    "record at zero",
			title:   &models.Title{FinalSeason: 2, FinalEpisode: 12},
			records: []*models.Watchthrough{watch(1, 2, 0, 0)},
			want:    TierNotStarted,
		},
		{
			name:    "season one episode zero",
			title:   &models.Title{FinalSeason: 1, FinalEpisode: 1},
			records: []*models.Watchthrough{watch(1, 2, 1, 0)},
			want:    TierStarted,
		},
		{
			name:    "final position without extras",
			title:   &models.Title{FinalSeason: 1, FinalEpisode: 1},
			records: []*models.Watchthrough{watch(1, 2, 1, 1)},
			want:    TierComplete,
		},
		{
			name:     "final position with unwatched extra",
			title:    &models.Title{FinalSeason: 2, FinalEpisode: 12},
			records:  []*models.Watchthrough{watch(1, 2, 2, 12)},
			extraIDs: []uint64{7},
			want:     TierCaughtUp,
		},
		{
			name:     "final position with watched extra",
			title:    &models.Title{FinalSeason: 2, FinalEpisode: 12},
			records:  []*models.Watchthrough{watch(1, 2, 2, 12)},
			extraIDs: []uint64{7},
			marks:    []*models.ExtraCompletion{mark(1, 7)},
			want:     TierComplete,
		},
		{
			name:     "extra watched by another watchthrough",
			title:    &models.Title{FinalSeason: 2, FinalEpisode: 12},
			records:  []*models.Watchthrough{watch(1, 2, 2, 12), watch(2, 3, 1, 4)},
			extraIDs: []uint64{7},
			marks:    []*models.ExtraCompletion{mark(2, 7)},
			want:     TierCaughtUp,
		},
		{
			name:     "mark for detached extra does not count",
			title:    &models.Title{FinalSeason: 2, FinalEpisode: 12},
			records:  []*models.Watchthrough{watch(1, 2, 2, 12)},
			extraIDs: []uint64{7},
			marks:    []*models.ExtraCompletion{mark(1, 8)},
			want:     TierCaughtUp,
		},
		{
			name:    "second season in progress",
			title:   &models.Title{FinalSeason: 3, FinalEpisode: 10},
			records: []*models.Watchthrough{watch(1, 2, 2, 3)},
			want:    TierAdvanced,
		},
		{
			name:    "first season finished but more to come",
			title:   &models.Title{FinalSeason: 2, FinalEpisode: 12},
			records: []*models.Watchthrough{watch(1, 2, 1, 12)},
			want:    TierStarted,
		},
		{
			name:    "best record wins across partners",
			title:   &models.Title{FinalSeason: 3, FinalEpisode: 10},
			records: []*models.Watchthrough{watch(1, 2, 1, 5), watch(2, 3, 2, 1)},
			want:    TierAdvanced,
		},
		{
			name:     "primary partner force complete",
			title:    &models.Title{FinalSeason: 3, FinalEpisode: 10},
			records:  []*models.Watchthrough{{ID: 1, PartnerID: DefaultPrimaryPartnerID, ForceComplete: true}},
			extraIDs: []uint64{7, 8},
			want:     TierComplete,
		},
		{
			name:  "primary partner force complete behind other partner",
			title: &models.Title{FinalSeason: 3, FinalEpisode: 10},
			records: []*models.Watchthrough{
				{ID: 1, PartnerID: DefaultPrimaryPartnerID, ForceComplete: true},
				watch(2, 2, 2, 4),
			},
			want: TierComplete,
		},
		{
			name:    "other partner force complete is ignored",
			title:   &models.Title{FinalSeason: 3, FinalEpisode: 10},
			records: []*models.Watchthrough{{ID: 1, PartnerID: 2, Season: 1, Episode: 2, ForceComplete: true}},
			want:    TierStarted,
		},
		{
			name:    "past final position",
			title:   &models.Title{FinalSeason: 1, FinalEpisode: 12},
			records: []*models.Watchthrough{watch(1, 2, 1, 13)},
			want:    TierComplete,
		},
		{
			name:  "final season reached with lower episode is not local max",
			title: &models.Title{FinalSeason: 2, FinalEpisode: 5},
			records: []*models.Watchthrough{
				watch(1, 2, 2, 5),
				watch(2, 3, 3, 0),
			},
			want: TierAdvanced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.Resolve(tt.title, tt.records, tt.extraIDs, tt.marks)
			if got != tt.want {
				t.Errorf("Resolve() = %v (%d), want %v (%d)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestResolveCompleteRegardlessOfOtherPartners(t *testing.T) {
	resolver := NewResolver(0)
	title := &models.Title{FinalSeason: 2, FinalEpisode: 12}
	records := []*models.Watchthrough{
		watch(1, 2, 2, 12),
		watch(2, 3, 0, 0),
		watch(3, 4, 1, 6),
	}
	extras := []uint64{10, 11}
	marks := []*models.ExtraCompletion{mark(1, 10), mark(1, 11), mark(3, 10)}

	if got := resolver.Resolve(title, records, extras, marks); got != TierComplete {
		t.Errorf("Resolve() = %v, want %v", got, TierComplete)
	}
}

func TestResolveDegradesToCaughtUp(t *testing.T) {
	resolver := NewResolver(DefaultPrimaryPartnerID)
	title := &models.Title{FinalSeason: 4, FinalEpisode: 24}
	records := []*models.Watchthrough{watch(1, 2, 4, 24)}
	extras := []uint64{1, 2}

	complete := resolver.Resolve(title, records, extras, []*models.ExtraCompletion{mark(1, 1), mark(1, 2)})
	if complete != TierComplete {
		t.Fatalf("Resolve() with all extras = %v, want %v", complete, TierComplete)
	}

	degraded := resolver.Resolve(title, records, extras, []*models.ExtraCompletion{mark(1, 1)})
	if degraded != TierCaughtUp {
		t.Errorf("Resolve() with one extra unmarked = %v, want %v", degraded, TierCaughtUp)
	}
}

func TestResolveConfiguredPrimaryPartner(t *testing.T) {
	resolver := NewResolver(5)
	title := &models.Title{FinalSeason: 1, FinalEpisode: 12}

	forcedByOne := []*models.Watchthrough{{ID: 1, PartnerID: 1, ForceComplete: true}}
	if got := resolver.Resolve(title, forcedByOne, nil, nil); got != TierNotStarted {
		t.Errorf("partner 1 force complete = %v, want %v", got, TierNotStarted)
	}

	forcedByFive := []*models.Watchthrough{{ID: 1, PartnerID: 5, ForceComplete: true}}
	if got := resolver.Resolve(title, forcedByFive, nil, nil); got != TierComplete {
		t.Errorf("partner 5 force complete = %v, want %v", got, TierComplete)
	}
}

func TestTierString(t *testing.T) {
	if TierCaughtUp.String() != "Caught up" {
		t.Errorf("TierCaughtUp.String() = %q", TierCaughtUp.String())
	}
	if Tier(9).Valid() {
		t.Error("Tier(9) should not be valid")
	}
}
