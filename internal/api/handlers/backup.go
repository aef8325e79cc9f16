package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/amaumene/animetrack/internal/export"
	"github.com/sirupsen/logrus"
)

// Snapshotter produces consistent copies of the store file
type Snapshotter interface {
	Backup(w io.Writer) (int64, error)
	BackupSize() (int64, error)
}

// BackupHandler streams the store file and the spreadsheet export
type BackupHandler struct {
	db             Snapshotter
	completionCtrl *controllers.CompletionController
	logger         *logrus.Logger
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(db Snapshotter, completionCtrl *controllers.CompletionController, logger *logrus.Logger) *BackupHandler {
	return &BackupHandler{
		db:             db,
		completionCtrl: completionCtrl,
		logger:         logger,
	}
}

// Backup handles GET /backup
func (h *BackupHandler) Backup(w http.ResponseWriter, r *http.Request) {
	size, err := h.db.BackupSize()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", attachment("animetrack", "db"))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))

	// Headers are gone once the copy starts, so failures can only be logged
	n, err := h.db.Backup(w)
	if err != nil {
		h.logger.WithError(err).WithField("bytes_written", n).Error("Backup stream failed")
		return
	}

	h.logger.WithField("bytes", n).Info("Served database backup")
}

// Export handles GET /export
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
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

	var buf bytes.Buffer
	if err := export.WriteTitles(&buf, summaries); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", attachment("animetrack", "xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

func attachment(name, ext string) string {
	return fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s-%s.%s", name, time.Now().Format("20060102-150405"), ext))
}
