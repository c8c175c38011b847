package insights

import (
	"github.com/ratiobudget/ratiobudget/pkg/metrics"
	"github.com/ratiobudget/ratiobudget/pkg/money"
)

const (
	KindDanger  = "danger"
	KindWarning = "warning"
	KindSuccess = "success"
	KindInfo    = "info"
)

// Alert is a short finding shown next to a dashboard. Recommendations use the
// same shape.
type Alert struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Summary struct {
	MonthKey    string      `json:"monthKey"`
	TotalIncome money.Money `json:"totalIncome"`

	SavingsTarget  money.Money `json:"savingsTarget"`
	ExpensesTarget money.Money `json:"expensesTarget"`
	BufferTarget   money.Money `json:"bufferTarget"`

	SavingsActual  money.Money `json:"savingsActual"`
	ExpensesActual money.Money `json:"expensesActual"`
	BufferUsed     money.Money `json:"bufferUsed"`

	SavingsVariance  money.Money `json:"savingsVariance"`
	ExpensesVariance money.Money `json:"expensesVariance"`
	BufferVariance   money.Money `json:"bufferVariance"`

	// Achievements are actual as a percentage of target.
	SavingsAchievement  int `json:"savingsAchievement"`
	ExpensesAchievement int `json:"expensesAchievement"`
	BufferAchievement   int `json:"bufferAchievement"`

	// NetBalance is total income minus everything spent or put aside this month.
	NetBalance      money.Money `json:"netBalance"`
	EfficiencyScore float64     `json:"efficiencyScore"`

	ExpensesByCategory []metrics.CategoryAmount `json:"expensesByCategory"`
	SavingsByCategory  []metrics.CategoryAmount `json:"savingsByCategory"`

	Alerts     []Alert                  `json:"alerts"`
	RatioCheck metrics.RatioCheckResult `json:"ratioCheck"`
}

type CategoryUtilization struct {
	CategoryId  string      `json:"categoryId"`
	Name        string      `json:"name"`
	Limit       money.Money `json:"limit"`
	Actual      money.Money `json:"actual"`
	Remaining   money.Money `json:"remaining"`
	Utilization int         `json:"utilization"`
	Status      string      `json:"status"`
}

type ExpenseUtilization struct {
	MonthKey       string                `json:"monthKey"`
	ExpensesTarget money.Money           `json:"expensesTarget"`
	ExpensesActual money.Money           `json:"expensesActual"`
	Utilization    int                   `json:"utilization"`
	Status         string                `json:"status"`
	Categories     []CategoryUtilization `json:"categories"`
}

type CategoryProgress struct {
	CategoryId  string      `json:"categoryId"`
	Name        string      `json:"name"`
	Target      money.Money `json:"target"`
	Actual      money.Money `json:"actual"`
	Variance    money.Money `json:"variance"`
	Achievement int         `json:"achievement"`
	OnTrack     bool        `json:"onTrack"`
}

type SavingsProgress struct {
	MonthKey          string             `json:"monthKey"`
	SavingsTarget     money.Money        `json:"savingsTarget"`
	SavingsActual     money.Money        `json:"savingsActual"`
	AverageCompletion int                `json:"averageCompletion"`
	OnTrackCount      int                `json:"onTrackCount"`
	Categories        []CategoryProgress `json:"categories"`
}

type SubscriptionReminder struct {
	SubscriptionId string      `json:"subscriptionId"`
	Name           string      `json:"name"`
	Amount         money.Money `json:"amount"`
	DueDay         int         `json:"dueDay"`
	CategoryName   string      `json:"categoryName"`
	Alert          string      `json:"alert"`
}

type SubscriptionOverview struct {
	ActiveCount  int                    `json:"activeCount"`
	MonthlyTotal money.Money            `json:"monthlyTotal"`
	Reminders    []SubscriptionReminder `json:"reminders"`
}
