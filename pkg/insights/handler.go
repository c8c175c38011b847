package insights

import (
	"net/http"
	"strconv"

	"github.com/ratiobudget/ratiobudget/internal/rest"
	"github.com/ratiobudget/ratiobudget/pkg/metrics"
	log "github.com/sirupsen/logrus"
)

// TrendRenderer turns the monthly trend into a non-JSON representation.
type TrendRenderer interface {
	RenderTrend(trend []metrics.MonthTotals) (string, error)
}

type Handler struct {
	service          Service
	csvTrendRenderer TrendRenderer
}

func NewInsightsHandler(service Service, csvTrendRenderer TrendRenderer) *Handler {
	return &Handler{service, csvTrendRenderer}
}

// GetSummary godoc
// @Summary Dashboard figures of a month
// @Tags Insights
// @Produce json
// @Param month query string false "YYYY-MM; the viewed month when empty"
// @Success 200 {object} Summary
// @Router /api/insights/summary [get]
func (handler *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	log.Debugf("Getting summary of %q", month)
	rest.WriteJSON(w, http.StatusOK, handler.service.Summary(month))
}

// GetExpenseUtilization godoc
// @Summary Expense categories ranked by limit utilization
// @Tags Insights
// @Produce json
// @Param month query string false "YYYY-MM"
// @Success 200 {object} ExpenseUtilization
// @Router /api/insights/expenses [get]
func (handler *Handler) GetExpenseUtilization(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, handler.service.ExpenseUtilization(r.URL.Query().Get("month")))
}

// GetSavingsProgress godoc
// @Summary Savings categories ranked by completion
// @Tags Insights
// @Produce json
// @Param month query string false "YYYY-MM"
// @Success 200 {object} SavingsProgress
// @Router /api/insights/savings [get]
func (handler *Handler) GetSavingsProgress(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, handler.service.SavingsProgress(r.URL.Query().Get("month")))
}

// GetRecommendations godoc
// @Summary Recommendations for a month
// @Tags Insights
// @Produce json
// @Param month query string false "YYYY-MM"
// @Success 200 {array} Alert
// @Router /api/insights/recommendations [get]
func (handler *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, handler.service.Recommendations(r.URL.Query().Get("month")))
}

// GetUpcomingSubscriptions godoc
// @Summary Subscriptions due soon
// @Tags Insights
// @Produce json
// @Success 200 {object} SubscriptionOverview
// @Router /api/insights/subscriptions [get]
func (handler *Handler) GetUpcomingSubscriptions(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, handler.service.UpcomingSubscriptions())
}

// GetTrend godoc
// @Summary Monthly totals per type
// @Description Responds with CSV when the Accept header is text/csv
// @Tags Insights
// @Produce json
// @Produce text/csv
// @Param last query int false "Number of months, 6 by default"
// @Success 200 {array} metrics.MonthTotals
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/insights/trend [get]
func (handler *Handler) GetTrend(w http.ResponseWriter, r *http.Request) {
	lastN := metrics.DefaultTrendMonths
	if last := r.URL.Query().Get("last"); last != "" {
		parsed, err := strconv.Atoi(last)
		if err != nil || parsed < 1 {
			rest.WriteError(w, http.StatusBadRequest, "Invalid last parameter", "last must be a positive number of months")
			return
		}
		lastN = parsed
	}
	trend := handler.service.Trend(lastN)

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := handler.csvTrendRenderer.RenderTrend(trend)
		if err != nil {
			log.Errorf("failed to render trend: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write trend: %v", err)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, trend)
}
