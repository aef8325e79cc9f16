package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/amaumene/animetrack/internal/completion"
	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/amaumene/animetrack/internal/models"
	"github.com/sirupsen/logrus"
)

// AnimeHandler serves the title listing, title detail and title saves
type AnimeHandler struct {
	completionCtrl *controllers.CompletionController
	titleCtrl      *controllers.TitleController
	logger         *logrus.Logger
}

// NewAnimeHandler creates a new anime handler
func NewAnimeHandler(completionCtrl *controllers.CompletionController, titleCtrl *controllers.TitleController, logger *logrus.Logger) *AnimeHandler {
	return &AnimeHandler{
		completionCtrl: completionCtrl,
		titleCtrl:      titleCtrl,
		logger:         logger,
	}
}

// List handles GET /allanime
func (h *AnimeHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	summaries, err := h.completionCtrl.ResolveAll(r.Context(), opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, summaries)
}

// listOptions reads the ?q= and ?tier= filters of a listing request
func listOptions(r *http.Request) (controllers.ListOptions, error) {
	opts := controllers.ListOptions{Query: r.URL.Query().Get("q")}

	if raw := r.URL.Query().Get("tier"); raw != "" {
		n, err := strconv.Atoi(raw)
		tier := completion.Tier(n)
		if err != nil || !tier.Valid() {
			return opts, fmt.Errorf("invalid tier %q: %w", raw, models.ErrInvalidInput)
		}
		opts.Tier = &tier
	}
	return opts, nil
}

// Get handles GET /anime/{id}
func (h *AnimeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	detail, err := h.completionCtrl.TitleDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, detail)
}

// Random handles GET /randomanime
func (h *AnimeHandler) Random(w http.ResponseWriter, r *http.Request) {
	id, err := h.completionCtrl.RandomUnstarted(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, id)
}

// Save handles POST /saveanime
func (h *AnimeHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req controllers.SaveTitleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id, err := h.titleCtrl.Save(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, id)
}
