package controllers

import (
	"context"
	"fmt"

	"github.com/amaumene/animetrack/internal/models"
	"github.com/amaumene/animetrack/internal/reconcile"
	"github.com/sirupsen/logrus"
)

// ExtraView is an extra of the title as seen from one watchthrough
type ExtraView struct {
	ExtraID     uint64 `json:"animeExtraId"`
	Description string `json:"animeExtra"`
	Watched     bool   `json:"extraWatched"`
}

// WatchthroughView is a watchthrough joined with its partner, title and extras
type WatchthroughView struct {
	models.Watchthrough
	PartnerName string      `json:"watchPartner"`
	TitleName   string      `json:"animeTitle"`
	Extras      []ExtraView `json:"extras"`
}

// UpdateWatchthroughRequest carries the new state of a watchthrough.
// CompletedExtras replaces the set of extras marked as watched.
type UpdateWatchthroughRequest struct {
	ID              uint64   `json:"watchthroughId"`
	IsActive        bool     `json:"isActive"`
	Season          int      `json:"season"`
	Episode         int      `json:"episode"`
	ForceComplete   bool     `json:"forceComplete"`
	CompletedExtras []uint64 `json:"completedExtras"`
}

// WatchthroughController manages per-partner progress records
type WatchthroughController struct {
	db     Store
	logger *logrus.Logger
}

// NewWatchthroughController creates a new watchthrough controller
func NewWatchthroughController(db Store, logger *logrus.Logger) *WatchthroughController {
	return &WatchthroughController{
		db:     db,
		logger: logger,
	}
}

// GetOrCreate returns every watchthrough of partnerID for titleID, creating a
// fresh one at S0E0 when there is none. The lookup and the insert share one
// write transaction, so concurrent callers cannot both create a record.
func (c *WatchthroughController) GetOrCreate(ctx context.Context, titleID, partnerID uint64) ([]WatchthroughView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var views []WatchthroughView
	created := false
	err := c.db.Update(func(tx *models.Tx) error {
		title, err := tx.GetTitle(titleID)
		if err != nil {
			return err
		}
		partner, err := tx.GetWatchPartner(partnerID)
		if err != nil {
			return err
		}

		records, err := tx.FindPartnerWatchthroughs(titleID, partnerID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			record := newWatchthrough(titleID, partnerID)
			if err := tx.InsertWatchthrough(record); err != nil {
				return err
			}
			records = []*models.Watchthrough{record}
			created = true
		}

		views, err = buildViews(tx, title, partner, records)
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		c.logger.WithFields(logrus.Fields{
			"anime_id":   titleID,
			"partner_id": partnerID,
		}).Info("Created watchthrough on first access")
	}

	return views, nil
}

// Create always starts a new watchthrough, e.g. for a rewatch. Unknown title
// or partner ids are invalid input, like any other reference in a request body.
func (c *WatchthroughController) Create(ctx context.Context, titleID, partnerID uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	record := newWatchthrough(titleID, partnerID)
	err := c.db.Update(func(tx *models.Tx) error {
		if _, err := tx.GetTitle(titleID); err != nil {
			return invalidReference(err)
		}
		if _, err := tx.GetWatchPartner(partnerID); err != nil {
			return invalidReference(err)
		}
		return tx.InsertWatchthrough(record)
	})
	if err != nil {
		return 0, err
	}

	c.logger.WithFields(logrus.Fields{
		"watchthrough_id": record.ID,
		"anime_id":        titleID,
		"partner_id":      partnerID,
	}).Info("Created watchthrough")

	return record.ID, nil
}

// Update stores the position and flags of a watchthrough and replaces its
// watched extras. Every completed extra must belong to the watchthrough's title.
func (c *WatchthroughController) Update(ctx context.Context, req UpdateWatchthroughRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := models.ValidatePosition(req.Season, req.Episode); err != nil {
		return err
	}

	var plan reconcile.SetPlan
	err := c.db.Update(func(tx *models.Tx) error {
		record, err := tx.GetWatchthrough(req.ID)
		if err != nil {
			return err
		}

		extras, err := tx.FindExtras(record.TitleID)
		if err != nil {
			return err
		}
		owned := make(map[uint64]bool, len(extras))
		for _, extra := range extras {
			owned[extra.ID] = true
		}
		for _, extraID := range req.CompletedExtras {
			if !owned[extraID] {
				return fmt.Errorf("extra %d for title %d: %w", extraID, record.TitleID, models.ErrInvalidExtra)
			}
		}

		record.IsActive = req.IsActive
		record.Season = req.Season
		record.Episode = req.Episode
		record.ForceComplete = req.ForceComplete
		if err := tx.UpdateWatchthrough(record); err != nil {
			return err
		}

		marks, err := tx.FindExtraCompletions(record.ID)
		if err != nil {
			return err
		}
		existing := make([]uint64, 0, len(marks))
		for _, mark := range marks {
			existing = append(existing, mark.ExtraID)
		}

		plan = reconcile.Sync(existing, req.CompletedExtras)
		for _, extraID := range plan.Delete {
			if err := tx.DeleteExtraCompletion(record.ID, extraID); err != nil {
				return err
			}
		}
		for _, extraID := range plan.Insert {
			if err := tx.InsertExtraCompletion(record.ID, extraID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"watchthrough_id": req.ID,
		"season":          req.Season,
		"episode":         req.Episode,
		"force_complete":  req.ForceComplete,
		"extras_marked":   len(plan.Insert),
		"extras_unmarked": len(plan.Delete),
	}).Info("Updated watchthrough")

	return nil
}

func newWatchthrough(titleID, partnerID uint64) *models.Watchthrough {
	return &models.Watchthrough{
		TitleID:   titleID,
		PartnerID: partnerID,
		IsActive:  true,
	}
}

func buildViews(tx *models.Tx, title *models.Title, partner *models.WatchPartner, records []*models.Watchthrough) ([]WatchthroughView, error) {
	extras, err := tx.FindExtras(title.ID)
	if err != nil {
		return nil, err
	}

	views := make([]WatchthroughView, 0, len(records))
	for _, record := range records {
		marks, err := tx.FindExtraCompletions(record.ID)
		if err != nil {
			return nil, err
		}
		watched := make(map[uint64]bool, len(marks))
		for _, mark := range marks {
			watched[mark.ExtraID] = true
		}

		view := WatchthroughView{
			Watchthrough: *record,
			PartnerName:  partner.Name,
			TitleName:    title.Name,
			Extras:       make([]ExtraView, 0, len(extras)),
		}
		for _, extra := range extras {
			view.Extras = append(view.Extras, ExtraView{
				ExtraID:     extra.ID,
				Description: extra.Description,
				Watched:     watched[extra.ID],
			})
		}
		views = append(views, view)
	}
	return views, nil
}
