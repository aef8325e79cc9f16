package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amaumene/animetrack/internal/models"
	"github.com/amaumene/animetrack/internal/reconcile"
	"github.com/sirupsen/logrus"
)

// ExtraInput is one desired extra of a title. ID is zero for new extras.
type ExtraInput struct {
	ID          uint64 `json:"animeExtraId"`
	Description string `json:"description"`
}

// SaveTitleRequest carries the complete desired state of a title.
// Tags and Extras replace whatever is currently attached.
type SaveTitleRequest struct {
	ID          uint64       `json:"animeId"`
	Title       string       `json:"title"`
	Notes       string       `json:"notes"`
	Review      string       `json:"review"`
	Rating      *int         `json:"rating"`
	ReleaseDate string       `json:"releaseDate"`
	LastSeason  int          `json:"lastSeason"`
	LastEpisode int          `json:"lastEpisode"`
	Source      uint64       `json:"source"`
	Priority    int          `json:"priority"`
	SeriesID    uint64       `json:"seriesId"`
	Tags        []uint64     `json:"tags"`
	Extras      []ExtraInput `json:"extras"`
}

// Validate checks the request fields that do not need the store
func (r *SaveTitleRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required: %w", models.ErrInvalidInput)
	}
	if r.ReleaseDate != "" {
		if _, err := time.Parse(time.DateOnly, r.ReleaseDate); err != nil {
			return fmt.Errorf("release date %q: %w", r.ReleaseDate, models.ErrInvalidInput)
		}
	}
	return models.ValidatePosition(r.LastSeason, r.LastEpisode)
}

type extraFields struct {
	Description string
}

// TitleController saves titles and their tag/extra collections
type TitleController struct {
	db     Store
	logger *logrus.Logger
}

// NewTitleController creates a new title controller
func NewTitleController(db Store, logger *logrus.Logger) *TitleController {
	return &TitleController{
		db:     db,
		logger: logger,
	}
}

// Save inserts or updates a title and reconciles its tags and extras in one
// transaction. It returns the title id.
func (c *TitleController) Save(ctx context.Context, req SaveTitleRequest) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := req.Validate(); err != nil {
		return 0, err
	}

	var titleID uint64
	var tagPlan reconcile.SetPlan
	var extraPlan reconcile.Plan[extraFields]

	err := c.db.Update(func(tx *models.Tx) error {
		if err := checkReferences(tx, req); err != nil {
			return err
		}

		title, err := c.upsertTitle(tx, req)
		if err != nil {
			return err
		}
		titleID = title.ID

		tagPlan, err = c.syncTags(tx, titleID, req.Tags)
		if err != nil {
			return err
		}

		extraPlan, err = c.syncExtras(tx, titleID, req.Extras)
		return err
	})
	if err != nil {
		return 0, err
	}

	c.logger.WithFields(logrus.Fields{
		"anime_id":       titleID,
		"title":          req.Title,
		"tags_added":     len(tagPlan.Insert),
		"tags_removed":   len(tagPlan.Delete),
		"extras_added":   len(extraPlan.Insert),
		"extras_updated": len(extraPlan.Update),
		"extras_removed": len(extraPlan.Delete),
	}).Info("Saved title")

	return titleID, nil
}

func checkReferences(tx *models.Tx, req SaveTitleRequest) error {
	if _, err := tx.GetSource(req.Source); err != nil {
		return invalidReference(err)
	}
	if req.SeriesID != 0 {
		if _, err := tx.GetSeries(req.SeriesID); err != nil {
			return invalidReference(err)
		}
	}
	for _, tagID := range req.Tags {
		if _, err := tx.GetTag(tagID); err != nil {
			return invalidReference(err)
		}
	}
	return nil
}

// invalidReference turns a missing referenced record into a bad request
func invalidReference(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return err
}

func (c *TitleController) upsertTitle(tx *models.Tx, req SaveTitleRequest) (*models.Title, error) {
	title := &models.Title{}
	if req.ID != 0 {
		existing, err := tx.GetTitle(req.ID)
		if err != nil {
			return nil, err
		}
		title = existing
	}

	title.Name = strings.TrimSpace(req.Title)
	title.Notes = req.Notes
	title.Review = req.Review
	title.Rating = req.Rating
	title.ReleaseDate = req.ReleaseDate
	title.FinalSeason = req.LastSeason
	title.FinalEpisode = req.LastEpisode
	title.SourceID = req.Source
	title.Priority = req.Priority
	title.SeriesID = req.SeriesID

	if title.ID == 0 {
		if err := tx.InsertTitle(title); err != nil {
			return nil, err
		}
		return title, nil
	}
	if err := tx.UpdateTitle(title); err != nil {
		return nil, err
	}
	return title, nil
}

func (c *TitleController) syncTags(tx *models.Tx, titleID uint64, desired []uint64) (reconcile.SetPlan, error) {
	links, err := tx.FindTitleTags(titleID)
	if err != nil {
		return reconcile.SetPlan{}, err
	}
	existing := make([]uint64, 0, len(links))
	for _, link := range links {
		existing = append(existing, link.TagID)
	}

	plan := reconcile.Sync(existing, desired)
	for _, tagID := range plan.Delete {
		if err := tx.DeleteTitleTag(titleID, tagID); err != nil {
			return plan, err
		}
	}
	for _, tagID := range plan.Insert {
		if err := tx.InsertTitleTag(titleID, tagID); err != nil {
			return plan, err
		}
	}
	return plan, nil
}

func (c *TitleController) syncExtras(tx *models.Tx, titleID uint64, desired []ExtraInput) (reconcile.Plan[extraFields], error) {
	extras, err := tx.FindExtras(titleID)
	if err != nil {
		return reconcile.Plan[extraFields]{}, err
	}

	existing := make([]reconcile.Entry[extraFields], 0, len(extras))
	for _, extra := range extras {
		existing = append(existing, reconcile.Entry[extraFields]{ID: extra.ID, Fields: extraFields{extra.Description}})
	}
	wanted := make([]reconcile.Entry[extraFields], 0, len(desired))
	for _, extra := range desired {
		wanted = append(wanted, reconcile.Entry[extraFields]{ID: extra.ID, Fields: extraFields{extra.Description}})
	}

	plan := reconcile.Diff(titleID, existing, wanted)
	if len(plan.Unknown) > 0 {
		return plan, fmt.Errorf("extras %v of title %d: %w", plan.Unknown, titleID, models.ErrInvalidExtra)
	}

	for _, id := range plan.Delete {
		if err := tx.DeleteExtra(id); err != nil {
			return plan, err
		}
	}
	for _, entry := range plan.Update {
		extra := &models.Extra{ID: entry.ID, TitleID: titleID, Description: entry.Fields.Description}
		if err := tx.UpdateExtra(extra); err != nil {
			return plan, err
		}
	}
	for _, fields := range plan.Insert {
		extra := &models.Extra{TitleID: titleID, Description: fields.Description}
		if err := tx.InsertExtra(extra); err != nil {
			return plan, err
		}
	}
	return plan, nil
}
