package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// State
	r.HandleFunc("/api/state", deps.StateHandler.GetState).Methods("GET")
	r.HandleFunc("/api/state", deps.StateHandler.ClearState).Methods("DELETE")
	r.HandleFunc("/api/totals", deps.StateHandler.GetTotals).Methods("GET")
	r.HandleFunc("/api/month", deps.StateHandler.SetMonth).Methods("PUT")

	// Configuration collections
	r.HandleFunc("/api/income-sources", deps.StateHandler.SetIncomeSources).Methods("PUT")
	r.HandleFunc("/api/categories/{kind}", deps.StateHandler.SetCategories).Methods("PUT")
	r.HandleFunc("/api/subscriptions", deps.StateHandler.SetSubscriptions).Methods("PUT")
	r.HandleFunc("/api/goals", deps.StateHandler.SetSavingsGoals).Methods("PUT")

	// Ratio
	r.HandleFunc("/api/ratio", deps.StateHandler.GetRatio).Methods("GET")
	r.HandleFunc("/api/ratio", deps.StateHandler.SetRatio).Methods("PUT")
	r.HandleFunc("/api/ratio/reset", deps.StateHandler.ResetRatio).Methods("POST")

	// Transactions
	r.HandleFunc("/api/transactions", deps.StateHandler.ListTransactions).Methods("GET")
	r.HandleFunc("/api/transactions", deps.StateHandler.AddTransaction).Methods("POST")
	r.HandleFunc("/api/transactions/{id}", deps.StateHandler.UpdateTransaction).Methods("PUT")
	r.HandleFunc("/api/transactions/{id}", deps.StateHandler.DeleteTransaction).Methods("DELETE")
	r.HandleFunc("/api/monthly/{monthKey}", deps.StateHandler.UpdateMonthlySnapshot).Methods("PATCH")

	// Insights
	r.HandleFunc("/api/insights/summary", deps.InsightsHandler.GetSummary).Methods("GET")
	r.HandleFunc("/api/insights/expenses", deps.InsightsHandler.GetExpenseUtilization).Methods("GET")
	r.HandleFunc("/api/insights/savings", deps.InsightsHandler.GetSavingsProgress).Methods("GET")
	r.HandleFunc("/api/insights/recommendations", deps.InsightsHandler.GetRecommendations).Methods("GET")
	r.HandleFunc("/api/insights/subscriptions", deps.InsightsHandler.GetUpcomingSubscriptions).Methods("GET")
	r.HandleFunc("/api/insights/trend", deps.InsightsHandler.GetTrend).Methods("GET")

	// Backup
	r.HandleFunc("/api/backup", deps.BackupHandler.Export).Methods("GET")
	r.HandleFunc("/api/backup/preview", deps.BackupHandler.Preview).Methods("POST")
	r.HandleFunc("/api/backup/preview/{token}/confirm", deps.BackupHandler.Confirm).Methods("POST")
	r.HandleFunc("/api/backup/preview/{token}", deps.BackupHandler.Cancel).Methods("DELETE")

	// Report
	r.HandleFunc("/api/report", deps.ReportHandler.Download).Methods("GET")
}
