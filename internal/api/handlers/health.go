package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db     Snapshotter
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Snapshotter, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// ServeHTTP handles the health check endpoint. The store is healthy when a
// read transaction can be opened.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	size, err := h.db.BackupSize()
	if err != nil {
		h.logger.WithError(err).Error("Health check failed")
		writeMessage(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}

	writeMessage(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"databaseBytes": size,
	})
}
