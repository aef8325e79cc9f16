package controllers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/amaumene/animetrack/internal/completion"
	"github.com/amaumene/animetrack/internal/models"
	"github.com/amaumene/animetrack/internal/utils"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sirupsen/logrus"
)

// Store is the transactional record store the controllers work against
type Store interface {
	View(fn func(tx *models.Tx) error) error
	Update(fn func(tx *models.Tx) error) error
}

// TitleSummary is one row of the title listing
type TitleSummary struct {
	ID                  uint64          `json:"animeId"`
	Title               string          `json:"title"`
	Review              string          `json:"review"`
	Notes               string          `json:"notes"`
	Rating              *int            `json:"rating"`
	ReleaseDate         string          `json:"releaseDate"`
	LastEpisode         string          `json:"lastEpisode"`
	Source              string          `json:"source"`
	SourceID            uint64          `json:"sourceId"`
	Priority            int             `json:"priority"`
	WatchPartners       []uint64        `json:"watchPartners"`
	ActiveWatchPartners []uint64        `json:"watchPartnersActive"`
	TagIDs              []uint64        `json:"tagIds"`
	Completion          completion.Tier `json:"completion"`
}

// TitleDetail is a single title with its associations and tier
type TitleDetail struct {
	Title      *models.Title   `json:"anime"`
	Tags       []*models.Tag   `json:"tags"`
	Extras     []*models.Extra `json:"extras"`
	Completion completion.Tier `json:"completion"`
}

// ListOptions narrows a title listing
type ListOptions struct {
	Query string           // fuzzy match against the title name
	Tier  *completion.Tier // only titles at this tier
}

// CompletionController resolves completion tiers from the store
type CompletionController struct {
	db       Store
	resolver completion.Resolver
	logger   *logrus.Logger
}

// NewCompletionController creates a new completion controller
func NewCompletionController(db Store, resolver completion.Resolver, logger *logrus.Logger) *CompletionController {
	return &CompletionController{
		db:       db,
		resolver: resolver,
		logger:   logger,
	}
}

// ResolveTier computes the tier of a single title
func (c *CompletionController) ResolveTier(ctx context.Context, titleID uint64) (completion.Tier, error) {
	if err := ctx.Err(); err != nil {
		return completion.TierNotStarted, err
	}

	var tier completion.Tier
	err := c.db.View(func(tx *models.Tx) error {
		title, err := tx.GetTitle(titleID)
		if err != nil {
			return err
		}
		tier, err = c.resolveInTx(tx, title)
		return err
	})
	return tier, err
}

// TitleDetail loads a title with its tags, extras and tier
func (c *CompletionController) TitleDetail(ctx context.Context, titleID uint64) (*TitleDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detail := &TitleDetail{}
	err := c.db.View(func(tx *models.Tx) error {
		title, err := tx.GetTitle(titleID)
		if err != nil {
			return err
		}
		detail.Title = title

		links, err := tx.FindTitleTags(titleID)
		if err != nil {
			return err
		}
		detail.Tags = make([]*models.Tag, 0, len(links))
		for _, link := range links {
			tag, err := tx.GetTag(link.TagID)
			if err != nil {
				return err
			}
			detail.Tags = append(detail.Tags, tag)
		}

		detail.Extras, err = tx.FindExtras(titleID)
		if err != nil {
			return err
		}
		if detail.Extras == nil {
			detail.Extras = []*models.Extra{}
		}

		detail.Completion, err = c.resolveInTx(tx, title)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (c *CompletionController) resolveInTx(tx *models.Tx, title *models.Title) (completion.Tier, error) {
	records, err := tx.FindWatchthroughs(title.ID)
	if err != nil {
		return completion.TierNotStarted, err
	}

	extras, err := tx.FindExtras(title.ID)
	if err != nil {
		return completion.TierNotStarted, err
	}
	extraIDs := make([]uint64, 0, len(extras))
	for _, extra := range extras {
		extraIDs = append(extraIDs, extra.ID)
	}

	var marks []*models.ExtraCompletion
	for _, rec := range records {
		recMarks, err := tx.FindExtraCompletions(rec.ID)
		if err != nil {
			return completion.TierNotStarted, err
		}
		marks = append(marks, recMarks...)
	}

	return c.resolver.Resolve(title, records, extraIDs, marks), nil
}

// ResolveAll computes the tier of every title from one consistent snapshot of
// the store and returns them in display order.
func (c *CompletionController) ResolveAll(ctx context.Context, opts ListOptions) ([]TitleSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var summaries []TitleSummary
	err := c.db.View(func(tx *models.Tx) error {
		snap, err := loadSnapshot(tx)
		if err != nil {
			return err
		}

		summaries = make([]TitleSummary, 0, len(snap.titles))
		for _, title := range snap.titles {
			if opts.Query != "" && !fuzzy.MatchNormalizedFold(opts.Query, title.Name) {
				continue
			}

			records := snap.watchthroughs[title.ID]
			var marks []*models.ExtraCompletion
			for _, rec := range records {
				marks = append(marks, snap.marks[rec.ID]...)
			}
			tier := c.resolver.Resolve(title, records, snap.extraIDs[title.ID], marks)
			if opts.Tier != nil && tier != *opts.Tier {
				continue
			}

			summaries = append(summaries, snap.summarize(title, tier))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve completion: %w", err)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		ki, kj := utils.SortKey(summaries[i].Title), utils.SortKey(summaries[j].Title)
		if ki != kj {
			return ki < kj
		}
		return summaries[i].ID < summaries[j].ID
	})

	c.logger.WithFields(logrus.Fields{
		"count": len(summaries),
		"query": opts.Query,
	}).Debug("Resolved completion for titles")

	return summaries, nil
}

// RandomUnstarted picks a random title nobody has started yet
func (c *CompletionController) RandomUnstarted(ctx context.Context) (uint64, error) {
	tier := completion.TierNotStarted
	candidates, err := c.ResolveAll(ctx, ListOptions{Tier: &tier})
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, fmt.Errorf("no unstarted titles: %w", models.ErrNotFound)
	}
	return candidates[rand.IntN(len(candidates))].ID, nil
}

// snapshot groups every record of the store by title
type snapshot struct {
	titles        []*models.Title
	sources       map[uint64]string
	watchthroughs map[uint64][]*models.Watchthrough
	extraIDs      map[uint64][]uint64
	marks         map[uint64][]*models.ExtraCompletion
	tagIDs        map[uint64][]uint64
}

func loadSnapshot(tx *models.Tx) (*snapshot, error) {
	snap := &snapshot{
		sources:       make(map[uint64]string),
		watchthroughs: make(map[uint64][]*models.Watchthrough),
		extraIDs:      make(map[uint64][]uint64),
		marks:         make(map[uint64][]*models.ExtraCompletion),
		tagIDs:        make(map[uint64][]uint64),
	}

	var err error
	if snap.titles, err = tx.FindTitles(); err != nil {
		return nil, err
	}

	sources, err := tx.FindSources()
	if err != nil {
		return nil, err
	}
	for _, source := range sources {
		snap.sources[source.ID] = source.Name
	}

	watchthroughs, err := tx.FindAllWatchthroughs()
	if err != nil {
		return nil, err
	}
	for _, w := range watchthroughs {
		snap.watchthroughs[w.TitleID] = append(snap.watchthroughs[w.TitleID], w)
	}

	extras, err := tx.FindAllExtras()
	if err != nil {
		return nil, err
	}
	for _, extra := range extras {
		snap.extraIDs[extra.TitleID] = append(snap.extraIDs[extra.TitleID], extra.ID)
	}

	marks, err := tx.FindAllExtraCompletions()
	if err != nil {
		return nil, err
	}
	for _, mark := range marks {
		snap.marks[mark.WatchthroughID] = append(snap.marks[mark.WatchthroughID], mark)
	}

	links, err := tx.FindAllTitleTags()
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		snap.tagIDs[link.TitleID] = append(snap.tagIDs[link.TitleID], link.TagID)
	}

	return snap, nil
}

func (s *snapshot) summarize(title *models.Title, tier completion.Tier) TitleSummary {
	partners := []uint64{}
	active := []uint64{}
	for _, w := range s.watchthroughs[title.ID] {
		partners = appendUnique(partners, w.PartnerID)
		if w.IsActive {
			active = appendUnique(active, w.PartnerID)
		}
	}

	tags := s.tagIDs[title.ID]
	if tags == nil {
		tags = []uint64{}
	}

	return TitleSummary{
		ID:                  title.ID,
		Title:               title.Name,
		Review:              title.Review,
		Notes:               title.Notes,
		Rating:              title.Rating,
		ReleaseDate:         title.ReleaseDate,
		LastEpisode:         utils.FormatPosition(title.FinalSeason, title.FinalEpisode),
		Source:              s.sources[title.SourceID],
		SourceID:            title.SourceID,
		Priority:            title.Priority,
		WatchPartners:       partners,
		ActiveWatchPartners: active,
		TagIDs:              tags,
		Completion:          tier,
	}
}

func appendUnique(ids []uint64, id uint64) []uint64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
