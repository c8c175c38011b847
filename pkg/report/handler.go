package report

import (
	"fmt"
	"net/http"

	"github.com/ratiobudget/ratiobudget/internal/rest"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service Service
}

func NewReportHandler(service Service) *Handler {
	return &Handler{service}
}

// Download godoc
// @Summary Download the multi-sheet spreadsheet report
// @Tags Report
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 500 {object} rest.ErrorResponse
// @Router /api/report [get]
func (handler *Handler) Download(w http.ResponseWriter, r *http.Request) {
	log.Debug("Rendering report")
	data, filename, err := handler.service.Workbook()
	if err != nil {
		log.Errorf("failed to render report: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to render report", err.Error())
		return
	}
	w.Header().Set("Content-Type", ContentTypeXlsx)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Errorf("failed to write report: %v", err)
	}
}
