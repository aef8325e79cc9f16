package handlers

import (
	"context"
	"net/http"

	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/sirupsen/logrus"
)

// CatalogHandler serves series, tags, sources and watch partners
type CatalogHandler struct {
	catalogCtrl *controllers.CatalogController
	logger      *logrus.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogCtrl *controllers.CatalogController, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogCtrl: catalogCtrl,
		logger:      logger,
	}
}

// ListTags handles GET /tags
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.logger, func(ctx context.Context) (any, error) {
		return h.catalogCtrl.ListTags(ctx)
	})
}

// ListSources handles GET /sources
func (h *CatalogHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.logger, func(ctx context.Context) (any, error) {
		return h.catalogCtrl.ListSources(ctx)
	})
}

// ListSeries handles GET /series
func (h *CatalogHandler) ListSeries(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.logger, func(ctx context.Context) (any, error) {
		return h.catalogCtrl.ListSeries(ctx)
	})
}

// ListWatchPartners handles GET /watchpartners
func (h *CatalogHandler) ListWatchPartners(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.logger, func(ctx context.Context) (any, error) {
		return h.catalogCtrl.ListWatchPartners(ctx)
	})
}

// SeriesDetail handles GET /series/{id}
func (h *CatalogHandler) SeriesDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond(w, r, h.logger, func(ctx context.Context) (any, error) {
		return h.catalogCtrl.SeriesDetail(ctx, id)
	})
}

// TitleTags handles GET /tags/{id}
func (h *CatalogHandler) TitleTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond(w, r, h.logger, func(ctx context.Context) (any, error) {
		return h.catalogCtrl.TitleTags(ctx, id)
	})
}

// TitleExtras handles GET /extras/{id}
func (h *CatalogHandler) TitleExtras(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond(w, r, h.logger, func(ctx context.Context) (any, error) {
		return h.catalogCtrl.TitleExtras(ctx, id)
	})
}

// SaveSeries handles POST /saveseries
func (h *CatalogHandler) SaveSeries(w http.ResponseWriter, r *http.Request) {
	var req controllers.SaveSeriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond(w, r, h.logger, func(ctx context.Context) (any, error) {
		return h.catalogCtrl.SaveSeries(ctx, req)
	})
}

// SaveTag handles POST /savetag
func (h *CatalogHandler) SaveTag(w http.ResponseWriter, r *http.Request) {
	h.saveNamed(w, r, h.catalogCtrl.SaveTag)
}

// SaveSource handles POST /savesource
func (h *CatalogHandler) SaveSource(w http.ResponseWriter, r *http.Request) {
	h.saveNamed(w, r, h.catalogCtrl.SaveSource)
}

// SaveWatchPartner handles POST /savewatchpartner
func (h *CatalogHandler) SaveWatchPartner(w http.ResponseWriter, r *http.Request) {
	h.saveNamed(w, r, h.catalogCtrl.SaveWatchPartner)
}

func (h *CatalogHandler) saveNamed(w http.ResponseWriter, r *http.Request, save func(context.Context, controllers.SaveNamedRequest) (uint64, error)) {
	var req controllers.SaveNamedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond(w, r, h.logger, func(ctx context.Context) (any, error) {
		return save(ctx, req)
	})
}

// respond runs fn with the request context and writes its result
func respond(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, fn func(ctx context.Context) (any, error)) {
	result, err := fn(r.Context())
	if err != nil {
		writeError(w, r, logger, err)
		return
	}
	writeMessage(w, http.StatusOK, result)
}
