package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/amaumene/animetrack/internal/models"
	"github.com/sirupsen/logrus"
)

// envelope is the body of every JSON response
type envelope struct {
	Message any `json:"message"`
}

func writeMessage(w http.ResponseWriter, status int, message any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Message: message})
}

// writeError maps store and validation errors to a status code. Unexpected
// errors are logged and reported as 500 without their details.
func writeError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidPosition),
		errors.Is(err, models.ErrInvalidExtra):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, models.ErrInvalidInput)
	}
	return nil
}

func pathID(r *http.Request, name string) (uint64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, models.ErrInvalidInput)
	}
	return id, nil
}
