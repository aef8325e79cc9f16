package handlers

import (
	"net/http"

	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/sirupsen/logrus"
)

// CreateWatchthroughRequest is the body of POST /createwatchthrough
type CreateWatchthroughRequest struct {
	AnimeID        uint64 `json:"animeId"`
	WatchPartnerID uint64 `json:"watchPartnerId"`
}

// WatchthroughHandler serves per-partner progress records
type WatchthroughHandler struct {
	watchthroughCtrl *controllers.WatchthroughController
	logger           *logrus.Logger
}

// NewWatchthroughHandler creates a new watchthrough handler
func NewWatchthroughHandler(watchthroughCtrl *controllers.WatchthroughController, logger *logrus.Logger) *WatchthroughHandler {
	return &WatchthroughHandler{
		watchthroughCtrl: watchthroughCtrl,
		logger:           logger,
	}
}

// Get handles GET /watchthrough/{animeId}/{partnerId}
func (h *WatchthroughHandler) Get(w http.ResponseWriter, r *http.Request) {
	titleID, err := pathID(r, "animeId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	partnerID, err := pathID(r, "partnerId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	views, err := h.watchthroughCtrl.GetOrCreate(r.Context(), titleID, partnerID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, views)
}

// Create handles POST /createwatchthrough
func (h *WatchthroughHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWatchthroughRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id, err := h.watchthroughCtrl.Create(r.Context(), req.AnimeID, req.WatchPartnerID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, id)
}

// Update handles POST /updatewatchthrough
func (h *WatchthroughHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req controllers.UpdateWatchthroughRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.watchthroughCtrl.Update(r.Context(), req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, req.ID)
}
