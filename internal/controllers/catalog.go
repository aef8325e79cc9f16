package controllers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/amaumene/animetrack/internal/models"
	"github.com/sirupsen/logrus"
)

// SaveSeriesRequest carries a series to insert (ID 0) or update
type SaveSeriesRequest struct {
	ID    uint64 `json:"seriesId"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// SaveNamedRequest carries a tag, source or watch partner to insert (ID 0) or update
type SaveNamedRequest struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// SeriesTitle is a title listed under its series
type SeriesTitle struct {
	ID          uint64 `json:"animeId"`
	Title       string `json:"title"`
	ReleaseDate string `json:"releaseDate"`
}

// SeriesDetail is a series with its titles ordered by release date
type SeriesDetail struct {
	*models.Series
	Titles []SeriesTitle `json:"anime"`
}

// CatalogController manages the flat lookup records: series, tags, sources and partners
type CatalogController struct {
	db     Store
	logger *logrus.Logger
}

// NewCatalogController creates a new catalog controller
func NewCatalogController(db Store, logger *logrus.Logger) *CatalogController {
	return &CatalogController{
		db:     db,
		logger: logger,
	}
}

// SaveSeries inserts or updates a series and returns its id
func (c *CatalogController) SaveSeries(ctx context.Context, req SaveSeriesRequest) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return 0, fmt.Errorf("series name is required: %w", models.ErrInvalidInput)
	}

	series := &models.Series{ID: req.ID, Name: name, Notes: req.Notes}
	err := c.db.Update(func(tx *models.Tx) error {
		if series.ID == 0 {
			return tx.InsertSeries(series)
		}
		return tx.UpdateSeries(series)
	})
	if err != nil {
		return 0, err
	}

	c.logger.WithFields(logrus.Fields{
		"series_id": series.ID,
		"name":      series.Name,
	}).Info("Saved series")

	return series.ID, nil
}

// SaveTag inserts or updates a tag and returns its id
func (c *CatalogController) SaveTag(ctx context.Context, req SaveNamedRequest) (uint64, error) {
	tag := &models.Tag{ID: req.ID}
	return c.saveNamed(ctx, models.KindTag, req.Name, &tag.Name, &tag.ID, func(tx *models.Tx) error {
		if tag.ID == 0 {
			return tx.InsertTag(tag)
		}
		return tx.UpdateTag(tag)
	})
}

// SaveSource inserts or updates a source and returns its id
func (c *CatalogController) SaveSource(ctx context.Context, req SaveNamedRequest) (uint64, error) {
	source := &models.Source{ID: req.ID}
	return c.saveNamed(ctx, models.KindSource, req.Name, &source.Name, &source.ID, func(tx *models.Tx) error {
		if source.ID == 0 {
			return tx.InsertSource(source)
		}
		return tx.UpdateSource(source)
	})
}

// SaveWatchPartner inserts or updates a watch partner and returns its id
func (c *CatalogController) SaveWatchPartner(ctx context.Context, req SaveNamedRequest) (uint64, error) {
	partner := &models.WatchPartner{ID: req.ID}
	return c.saveNamed(ctx, models.KindWatchPartner, req.Name, &partner.Name, &partner.ID, func(tx *models.Tx) error {
		if partner.ID == 0 {
			return tx.InsertWatchPartner(partner)
		}
		return tx.UpdateWatchPartner(partner)
	})
}

func (c *CatalogController) saveNamed(ctx context.Context, kind models.Kind, name string, dst *string, id *uint64, save func(tx *models.Tx) error) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	*dst = strings.TrimSpace(name)
	if *dst == "" {
		return 0, fmt.Errorf("%s name is required: %w", kind, models.ErrInvalidInput)
	}

	if err := c.db.Update(save); err != nil {
		return 0, err
	}

	c.logger.WithFields(logrus.Fields{
		"kind": kind,
		"id":   *id,
		"name": *dst,
	}).Info("Saved record")

	return *id, nil
}

// SeriesDetail loads a series and its titles in release order
func (c *CatalogController) SeriesDetail(ctx context.Context, seriesID uint64) (*SeriesDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detail := &SeriesDetail{}
	err := c.db.View(func(tx *models.Tx) error {
		series, err := tx.GetSeries(seriesID)
		if err != nil {
			return err
		}
		detail.Series = series

		titles, err := tx.FindTitlesBySeries(seriesID)
		if err != nil {
			return err
		}
		sort.SliceStable(titles, func(i, j int) bool {
			return titles[i].ReleaseDate < titles[j].ReleaseDate
		})

		detail.Titles = make([]SeriesTitle, 0, len(titles))
		for _, title := range titles {
			detail.Titles = append(detail.Titles, SeriesTitle{
				ID:          title.ID,
				Title:       title.Name,
				ReleaseDate: title.ReleaseDate,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// ListTags returns every tag
func (c *CatalogController) ListTags(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := c.view(ctx, func(tx *models.Tx) (err error) {
		tags, err = tx.FindTags()
		return err
	})
	return tags, err
}

// ListSources returns every source
func (c *CatalogController) ListSources(ctx context.Context) ([]*models.Source, error) {
	var sources []*models.Source
	err := c.view(ctx, func(tx *models.Tx) (err error) {
		sources, err = tx.FindSources()
		return err
	})
	return sources, err
}

// ListSeries returns every series
func (c *CatalogController) ListSeries(ctx context.Context) ([]*models.Series, error) {
	var series []*models.Series
	err := c.view(ctx, func(tx *models.Tx) (err error) {
		series, err = tx.FindSeries()
		return err
	})
	return series, err
}

// ListWatchPartners returns every watch partner
func (c *CatalogController) ListWatchPartners(ctx context.Context) ([]*models.WatchPartner, error) {
	var partners []*models.WatchPartner
	err := c.view(ctx, func(tx *models.Tx) (err error) {
		partners, err = tx.FindWatchPartners()
		return err
	})
	return partners, err
}

// TitleTags returns the tags attached to a title
func (c *CatalogController) TitleTags(ctx context.Context, titleID uint64) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := c.view(ctx, func(tx *models.Tx) error {
		if _, err := tx.GetTitle(titleID); err != nil {
			return err
		}
		links, err := tx.FindTitleTags(titleID)
		if err != nil {
			return err
		}
		tags = make([]*models.Tag, 0, len(links))
		for _, link := range links {
			tag, err := tx.GetTag(link.TagID)
			if err != nil {
				return err
			}
			tags = append(tags, tag)
		}
		return nil
	})
	return tags, err
}

// TitleExtras returns the extras attached to a title
func (c *CatalogController) TitleExtras(ctx context.Context, titleID uint64) ([]*models.Extra, error) {
	var extras []*models.Extra
	err := c.view(ctx, func(tx *models.Tx) error {
		if _, err := tx.GetTitle(titleID); err != nil {
			return err
		}
		var err error
		extras, err = tx.FindExtras(titleID)
		return err
	})
	return extras, err
}

func (c *CatalogController) view(ctx context.Context, fn func(tx *models.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.View(fn)
}
