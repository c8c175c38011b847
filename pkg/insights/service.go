package insights

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/ratiobudget/ratiobudget/internal/utils"
	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/metrics"
	"github.com/ratiobudget/ratiobudget/pkg/money"
	"github.com/ratiobudget/ratiobudget/pkg/state"
)

// efficientSpendingRate is the expense rate under which spending is praised.
const efficientSpendingRate = 30

// StateReader is the read side of state.Service.
type StateReader interface {
	Snapshot() budget.AppState
}

type Service interface {
	Summary(monthKey string) Summary
	ExpenseUtilization(monthKey string) ExpenseUtilization
	SavingsProgress(monthKey string) SavingsProgress
	Recommendations(monthKey string) []Alert
	UpcomingSubscriptions() SubscriptionOverview
	Trend(lastN int) []metrics.MonthTotals
}

type ServiceImpl struct {
	state StateReader
	clock utils.Clock
}

func NewInsightsService(state StateReader, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{state: state, clock: clock}
}

// monthView is one month of one snapshot, shared by every figure below.
type monthView struct {
	state        budget.AppState
	totals       state.Totals
	monthKey     string
	transactions []budget.Transaction
}

func (s *ServiceImpl) view(monthKey string) monthView {
	snapshot := s.state.Snapshot()
	if monthKey == "" {
		monthKey = snapshot.CurrentMonthKey
	}
	return monthView{
		state:        snapshot,
		totals:       state.TotalsOf(snapshot),
		monthKey:     monthKey,
		transactions: metrics.FilterByMonth(snapshot.Transactions, monthKey, s.clock.Now()),
	}
}

func (v monthView) actual(transactionType budget.TransactionType) money.Money {
	return metrics.SumByType(v.transactions, transactionType)
}

// byCategory sums this month's transactions of one type per category id.
func (v monthView) byCategory(transactionType budget.TransactionType) map[string]money.Money {
	sums := map[string]money.Money{}
	for _, tx := range v.transactions {
		if tx.Type.Normalize() == transactionType && tx.CategoryId != "" {
			sums[tx.CategoryId] = sums[tx.CategoryId].Add(tx.Amount)
		}
	}
	return sums
}

// Summary gathers the dashboard figures of a month; an empty monthKey means
// the month currently being viewed.
func (s *ServiceImpl) Summary(monthKey string) Summary {
	v := s.view(monthKey)
	totals := v.totals

	savingsActual := v.actual(budget.Savings)
	expensesActual := v.actual(budget.Expense)
	bufferUsed := v.actual(budget.Buffer)

	savingsVariance := metrics.Variance(savingsActual, totals.SavingsTarget)
	expensesVariance := metrics.Variance(expensesActual, totals.ExpensesTarget)
	bufferVariance := metrics.Variance(bufferUsed, totals.BufferTarget)

	return Summary{
		MonthKey:            v.monthKey,
		TotalIncome:         totals.TotalIncome,
		SavingsTarget:       totals.SavingsTarget,
		ExpensesTarget:      totals.ExpensesTarget,
		BufferTarget:        totals.BufferTarget,
		SavingsActual:       savingsActual,
		ExpensesActual:      expensesActual,
		BufferUsed:          bufferUsed,
		SavingsVariance:     savingsVariance,
		ExpensesVariance:    expensesVariance,
		BufferVariance:      bufferVariance,
		SavingsAchievement:  metrics.PercentageOf(savingsActual, totals.SavingsTarget),
		ExpensesAchievement: metrics.PercentageOf(expensesActual, totals.ExpensesTarget),
		BufferAchievement:   metrics.PercentageOf(bufferUsed, totals.BufferTarget),
		NetBalance:          totals.TotalIncome.Sub(money.Sum(savingsActual, expensesActual, bufferUsed)),
		EfficiencyScore:     metrics.EfficiencyScore(savingsVariance, expensesVariance, bufferVariance, totals.TotalIncome),
		ExpensesByCategory:  metrics.GroupByCategory(v.transactions, v.state.CategoryRefs(budget.Expense), budget.Expense),
		SavingsByCategory:   metrics.GroupByCategory(v.transactions, v.state.CategoryRefs(budget.Savings), budget.Savings),
		Alerts:              s.alerts(totals, savingsActual, expensesActual),
		RatioCheck:          totals.RatioCheck,
	}
}

func (s *ServiceImpl) alerts(totals state.Totals, savingsActual, expensesActual money.Money) []Alert {
	var alerts []Alert
	overspending := totals.ExpensesTarget.IsPositive() && expensesActual.GreaterThan(totals.ExpensesTarget)
	underSaving := totals.SavingsTarget.IsPositive() && savingsActual.LessThan(totals.SavingsTarget)

	if overspending {
		alerts = append(alerts, Alert{
			Kind:    KindDanger,
			Title:   "Overspending Alert",
			Message: fmt.Sprintf("Expenses exceed budget by %s", expensesActual.Sub(totals.ExpensesTarget)),
		})
	}
	if underSaving {
		alerts = append(alerts, Alert{
			Kind:    KindWarning,
			Title:   "Savings Gap",
			Message: fmt.Sprintf("Behind savings target by %s", totals.SavingsTarget.Sub(savingsActual)),
		})
	}
	if !overspending && !underSaving {
		alerts = append(alerts, Alert{
			Kind:    KindSuccess,
			Title:   "On Track",
			Message: "Your budget allocation is healthy. Keep up the good work!",
		})
	}

	now := s.clock.Now()
	daysInMonth := daysIn(now)
	daysElapsed := now.Day() - 1
	progress := int(math.Round(float64(daysElapsed) / float64(daysInMonth) * 100))
	alerts = append(alerts, Alert{
		Kind:    KindInfo,
		Title:   "Month Timeline",
		Message: fmt.Sprintf("%d%% through the month with %d days remaining", progress, daysInMonth-daysElapsed),
	})
	return alerts
}

// ExpenseUtilization ranks expense categories by how much of their limit the
// month has used.
func (s *ServiceImpl) ExpenseUtilization(monthKey string) ExpenseUtilization {
	v := s.view(monthKey)
	actuals := v.byCategory(budget.Expense)

	categories := make([]CategoryUtilization, 0, len(v.state.ExpenseCategories))
	for _, category := range v.state.ExpenseCategories {
		actual := actuals[category.Id]
		utilization := metrics.PercentageOf(actual, category.Limit)
		categories = append(categories, CategoryUtilization{
			CategoryId:  category.Id,
			Name:        category.Name,
			Limit:       category.Limit,
			Actual:      actual,
			Remaining:   category.Limit.Sub(actual),
			Utilization: utilization,
			Status:      metrics.UtilizationStatus(utilization),
		})
	}
	slices.SortStableFunc(categories, func(a, b CategoryUtilization) int {
		return cmp.Compare(b.Utilization, a.Utilization)
	})

	expensesActual := v.actual(budget.Expense)
	utilization := metrics.PercentageOf(expensesActual, v.totals.ExpensesTarget)
	return ExpenseUtilization{
		MonthKey:       v.monthKey,
		ExpensesTarget: v.totals.ExpensesTarget,
		ExpensesActual: expensesActual,
		Utilization:    utilization,
		Status:         metrics.UtilizationStatus(utilization),
		Categories:     categories,
	}
}

// SavingsProgress ranks savings categories by completion. A category is on
// track once its month actual reaches the target.
func (s *ServiceImpl) SavingsProgress(monthKey string) SavingsProgress {
	v := s.view(monthKey)
	actuals := v.byCategory(budget.Savings)

	progress := SavingsProgress{
		MonthKey:      v.monthKey,
		SavingsTarget: v.totals.SavingsTarget,
		SavingsActual: v.actual(budget.Savings),
		Categories:    make([]CategoryProgress, 0, len(v.state.SavingsCategories)),
	}
	completion := 0
	for _, category := range v.state.SavingsCategories {
		actual := actuals[category.Id]
		achievement := metrics.PercentageOf(actual, category.Target)
		onTrack := achievement >= 100
		if onTrack {
			progress.OnTrackCount++
		}
		completion += achievement
		progress.Categories = append(progress.Categories, CategoryProgress{
			CategoryId:  category.Id,
			Name:        category.Name,
			Target:      category.Target,
			Actual:      actual,
			Variance:    metrics.Variance(actual, category.Target),
			Achievement: achievement,
			OnTrack:     onTrack,
		})
	}
	if n := len(progress.Categories); n > 0 {
		progress.AverageCompletion = int(math.Round(float64(completion) / float64(n)))
	}
	slices.SortStableFunc(progress.Categories, func(a, b CategoryProgress) int {
		return cmp.Compare(b.Achievement, a.Achievement)
	})
	return progress
}

// Recommendations compares the month's savings and expense rates with the
// configured ratio.
func (s *ServiceImpl) Recommendations(monthKey string) []Alert {
	v := s.view(monthKey)
	totalIncome := v.totals.TotalIncome
	ratio := v.state.Ratio

	totalSavings := v.actual(budget.Savings)
	totalExpenses := v.actual(budget.Expense)
	totalBuffer := v.actual(budget.Buffer)
	savingsRate := metrics.PercentageOf(totalSavings, totalIncome)
	expenseRate := metrics.PercentageOf(totalExpenses, totalIncome)

	recommendations := make([]Alert, 0)
	if float64(savingsRate) < float64(ratio.Savings) {
		gap := v.totals.SavingsTarget.Sub(totalSavings).NonNegative()
		recommendations = append(recommendations, Alert{
			Kind:  KindWarning,
			Title: "Savings Below Target",
			Message: fmt.Sprintf("You're saving %d%% of income. Target is %g%%. Increase savings by %s to meet your goal.",
				savingsRate, float64(ratio.Savings), gap),
		})
	}
	if float64(expenseRate) > float64(ratio.Expenses) {
		recommendations = append(recommendations, Alert{
			Kind:    KindDanger,
			Title:   "Expenses Exceeding Budget",
			Message: fmt.Sprintf("Expenses are %d%% of income (limit: %g%%). Review spending to reduce costs.", expenseRate, float64(ratio.Expenses)),
		})
	}
	if float64(savingsRate) >= float64(ratio.Savings) {
		recommendations = append(recommendations, Alert{
			Kind:    KindSuccess,
			Title:   "Savings Goal Met!",
			Message: fmt.Sprintf("Excellent! You've saved %s this month. Keep it up!", totalSavings),
		})
	}
	if totalBuffer.IsZero() {
		recommendations = append(recommendations, Alert{
			Kind:  KindInfo,
			Title: "Build Your Buffer",
			Message: fmt.Sprintf("No buffer savings this month. Allocate %g%% of income (%s) for emergencies.",
				float64(ratio.Buffer), v.totals.BufferTarget),
		})
	}
	if expenseRate < efficientSpendingRate {
		recommendations = append(recommendations, Alert{
			Kind:    KindSuccess,
			Title:   "Efficient Spending",
			Message: fmt.Sprintf("Your expenses are only %d%% of income. Well managed!", expenseRate),
		})
	}
	return recommendations
}

// UpcomingSubscriptions lists active subscriptions due today, tomorrow or in
// three days. Due days are compared within the current month only.
func (s *ServiceImpl) UpcomingSubscriptions() SubscriptionOverview {
	snapshot := s.state.Snapshot()
	today := s.clock.Now().Day()

	overview := SubscriptionOverview{Reminders: make([]SubscriptionReminder, 0)}
	for _, subscription := range snapshot.Subscriptions {
		if !subscription.Active {
			continue
		}
		overview.ActiveCount++
		overview.MonthlyTotal = overview.MonthlyTotal.Add(subscription.Amount)

		alert := dueAlert(int(subscription.DueDay) - today)
		if alert == "" {
			continue
		}
		overview.Reminders = append(overview.Reminders, SubscriptionReminder{
			SubscriptionId: subscription.Id,
			Name:           subscription.Name,
			Amount:         subscription.Amount,
			DueDay:         int(subscription.DueDay),
			CategoryName:   metrics.SubscriptionCategory(snapshot, subscription.CategoryId),
			Alert:          alert,
		})
	}
	return overview
}

func dueAlert(daysUntilDue int) string {
	switch daysUntilDue {
	case 0:
		return "Due today"
	case 1:
		return "Due tomorrow"
	case 3:
		return "Due in 3 days"
	}
	return ""
}

func (s *ServiceImpl) Trend(lastN int) []metrics.MonthTotals {
	return metrics.MonthlyTrend(s.state.Snapshot().Transactions, lastN, s.clock.Now())
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
