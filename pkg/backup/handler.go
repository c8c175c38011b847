package backup

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ratiobudget/ratiobudget/internal/rest"
	log "github.com/sirupsen/logrus"
)

const maxBackupSize = 32 << 20

type Handler struct {
	service Service
}

func NewBackupHandler(service Service) *Handler {
	return &Handler{service}
}

// Export godoc
// @Summary Download a backup of all data
// @Tags Backup
// @Produce json
// @Success 200 {file} file
// @Router /api/backup [get]
func (handler *Handler) Export(w http.ResponseWriter, r *http.Request) {
	log.Debug("Exporting backup")
	data, filename, err := handler.service.Export()
	if err != nil {
		log.Errorf("failed to export backup: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to export backup", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Errorf("failed to write backup: %v", err)
	}
}

// Preview godoc
// @Summary Stage a backup import
// @Description Parses the uploaded backup and returns a preview to confirm or cancel. Nothing changes until confirmed.
// @Tags Backup
// @Accept json
// @Produce json
// @Success 201 {object} Preview
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/backup/preview [post]
func (handler *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	log.Debug("Staging backup import")
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupSize))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	preview, err := handler.service.Stage(data)
	if err != nil {
		if errors.Is(err, ErrInvalidBackup) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid backup file.", err.Error())
			return
		}
		rest.WriteError(w, http.StatusInternalServerError, "Failed to stage backup", err.Error())
		return
	}
	rest.WriteJSON(w, http.StatusCreated, preview)
}

// Confirm godoc
// @Summary Import a staged backup
// @Tags Backup
// @Produce json
// @Param token path string true "Preview token"
// @Success 200 {object} budget.AppState
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/backup/preview/{token}/confirm [post]
func (handler *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	log.Debugf("Confirming backup import %s", token)
	state, err := handler.service.Confirm(r.Context(), token)
	if err != nil {
		writePreviewError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, state)
}

// Cancel godoc
// @Summary Discard a staged backup
// @Tags Backup
// @Param token path string true "Preview token"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/backup/preview/{token} [delete]
func (handler *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	log.Debugf("Cancelling backup import %s", token)
	if err := handler.service.Cancel(token); err != nil {
		writePreviewError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writePreviewError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrPreviewNotFound) {
		rest.WriteError(w, http.StatusNotFound, "Import preview not found", err.Error())
		return
	}
	rest.WriteError(w, http.StatusInternalServerError, "Failed to import backup", err.Error())
}
