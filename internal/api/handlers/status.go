package handlers

import (
	"net/http"

	"github.com/amaumene/animetrack/internal/completion"
	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/sirupsen/logrus"
)

// StatusHandler reports how many titles sit in each completion tier
type StatusHandler struct {
	completionCtrl *controllers.CompletionController
	logger         *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(completionCtrl *controllers.CompletionController, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		completionCtrl: completionCtrl,
		logger:         logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalAnime int            `json:"totalAnime"`
	NotStarted int            `json:"notStarted"`
	Started    int            `json:"started"`
	Advanced   int            `json:"advanced"`
	CaughtUp   int            `json:"caughtUp"`
	Complete   int            `json:"complete"`
	BySource   map[string]int `json:"bySource"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.completionCtrl.ResolveAll(r.Context(), controllers.ListOptions{})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response := StatusResponse{
		TotalAnime: len(summaries),
		BySource:   make(map[string]int),
	}

	for _, summary := range summaries {
		// Count by tier
		switch summary.Completion {
		case completion.TierNotStarted:
			response.NotStarted++
		case completion.TierStarted:
			response.Started++
		case completion.TierAdvanced:
			response.Advanced++
		case completion.TierCaughtUp:
			response.CaughtUp++
		case completion.TierComplete:
			response.Complete++
		}

		// Count by source
		response.BySource[summary.Source]++
	}

	writeMessage(w, http.StatusOK, response)
}
