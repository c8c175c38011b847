package report

import (
	"fmt"
	"time"

	"github.com/ratiobudget/ratiobudget/internal/utils"
	"github.com/ratiobudget/ratiobudget/pkg/budget"
)

const ContentTypeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StateReader interface {
	Snapshot() budget.AppState
}

type WorkbookRenderer interface {
	RenderWorkbook(sheets []Sheet) ([]byte, error)
}

type Service interface {
	// Workbook renders the full report and the file name to offer it under.
	Workbook() ([]byte, string, error)
}

type ServiceImpl struct {
	state    StateReader
	renderer WorkbookRenderer
	clock    utils.Clock
}

func NewReportService(state StateReader, renderer WorkbookRenderer, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{state: state, renderer: renderer, clock: clock}
}

func Filename(now time.Time) string {
	return fmt.Sprintf("Finance_Report_%s.xlsx", now.Format(time.DateOnly))
}

func (s *ServiceImpl) Workbook() ([]byte, string, error) {
	now := s.clock.Now()
	data, err := s.renderer.RenderWorkbook(BuildSheets(s.state.Snapshot(), now))
	if err != nil {
		return nil, "", fmt.Errorf("failed to render report: %w", err)
	}
	return data, Filename(now), nil
}
