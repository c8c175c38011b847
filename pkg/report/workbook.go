package report

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/metrics"
	"github.com/ratiobudget/ratiobudget/pkg/money"
	"github.com/ratiobudget/ratiobudget/pkg/state"
)

const (
	SheetExecutiveSummary = "Executive Summary"
	SheetMonthlyOverview  = "Monthly Overview"
	SheetIncomeAnalysis   = "Income Analysis"
	SheetExpenses         = "Expenses Breakdown"
	SheetSavings          = "Savings Breakdown"
	SheetTransactions     = "Transactions"
	SheetSubscriptions    = "Subscriptions"
	SheetMetrics          = "Financial Metrics"
	SheetGoals            = "Goals & Targets"
	SheetDataIntegrity    = "Data Integrity"
)

// Sheet is one worksheet as plain rows. Cells hold strings, ints or float64.
type Sheet struct {
	Name string
	Rows [][]any
	// Headings are the 1-based rows rendered bold.
	Headings []int
}

func (s *Sheet) heading(cells ...any) {
	s.Rows = append(s.Rows, cells)
	s.Headings = append(s.Headings, len(s.Rows))
}

func (s *Sheet) row(cells ...any) {
	s.Rows = append(s.Rows, cells)
}

func (s *Sheet) blank() {
	s.Rows = append(s.Rows, []any{})
}

// Cell returns the value at the 1-based row and column, or nil.
func (s Sheet) Cell(row, col int) any {
	if row < 1 || row > len(s.Rows) || col < 1 || col > len(s.Rows[row-1]) {
		return nil
	}
	return s.Rows[row-1][col-1]
}

// monthFigures are the current month's actuals every sheet agrees on.
type monthFigures struct {
	monthKey     string
	totals       state.Totals
	snapshot     budget.MonthlySnapshot
	transactions []budget.Transaction
}

func figuresOf(appState budget.AppState, now time.Time) monthFigures {
	totals := state.TotalsOf(appState)
	snapshot, ok := appState.MonthlyData[appState.CurrentMonthKey]
	if !ok {
		snapshot = budget.MonthlySnapshot{Income: totals.TotalIncome}
	}
	return monthFigures{
		monthKey:     appState.CurrentMonthKey,
		totals:       totals,
		snapshot:     snapshot,
		transactions: metrics.FilterByMonth(appState.Transactions, appState.CurrentMonthKey, now),
	}
}

func (m monthFigures) netBalance() money.Money {
	return m.snapshot.Income.Sub(money.Sum(m.snapshot.SavingsActual, m.snapshot.ExpensesActual, m.snapshot.BufferUsed))
}

// categoryActual sums the month's transactions of the given type per category id.
func (m monthFigures) categoryActual(transactionType budget.TransactionType) map[string]money.Money {
	sums := map[string]money.Money{}
	wanted := transactionType.Normalize()
	for _, tx := range m.transactions {
		if tx.Type.Normalize() == wanted {
			sums[tx.CategoryId] = sums[tx.CategoryId].Add(tx.Amount)
		}
	}
	return sums
}

// BuildSheets lays out the whole report. All figures are scoped to the
// state's current month.
func BuildSheets(appState budget.AppState, now time.Time) []Sheet {
	figures := figuresOf(appState, now)
	return []Sheet{
		executiveSummary(appState, figures, now),
		monthlyOverview(appState),
		incomeAnalysis(appState, figures),
		expensesBreakdown(appState, figures),
		savingsBreakdown(appState, figures),
		transactionHistory(appState),
		subscriptions(appState),
		financialMetrics(figures),
		goals(appState),
		dataIntegrity(appState, now),
	}
}

func executiveSummary(appState budget.AppState, m monthFigures, now time.Time) Sheet {
	sheet := Sheet{Name: SheetExecutiveSummary}
	ratio := appState.Ratio
	savingsVariance := metrics.Variance(m.snapshot.SavingsActual, m.totals.SavingsTarget)
	expensesVariance := metrics.Variance(m.snapshot.ExpensesActual, m.totals.ExpensesTarget)
	bufferVariance := metrics.Variance(m.snapshot.BufferUsed, m.totals.BufferTarget)

	sheet.heading("55-40-5 FINANCIAL MANAGEMENT SYSTEM")
	sheet.row("Generated on", now.Format(time.DateOnly))
	sheet.row("Report Period", m.monthKey)
	sheet.blank()
	sheet.heading("INCOME ANALYSIS", "Amount")
	sheet.row("Total Monthly Income", amount(m.totals.TotalIncome))
	sheet.row("Income This Month", amount(m.snapshot.Income))
	sheet.blank()
	sheet.heading("ALLOCATION TARGETS vs ACTUAL", "Target", "Actual", "Variance", "Status")
	sheet.row(fmt.Sprintf("Savings (%g%%)", float64(ratio.Savings)), amount(m.totals.SavingsTarget), amount(m.snapshot.SavingsActual), amount(savingsVariance),
		status(!savingsVariance.IsNegative(), "On Track", "Below Target"))
	sheet.row(fmt.Sprintf("Expenses (%g%%)", float64(ratio.Expenses)), amount(m.totals.ExpensesTarget), amount(m.snapshot.ExpensesActual), amount(expensesVariance),
		status(!expensesVariance.IsPositive(), "On Track", "Over Budget"))
	sheet.row(fmt.Sprintf("Buffer (%g%%)", float64(ratio.Buffer)), amount(m.totals.BufferTarget), amount(m.snapshot.BufferUsed), amount(bufferVariance),
		status(!bufferVariance.IsPositive(), "Safe", "Exceeded"))
	sheet.blank()
	sheet.row("NET BALANCE", amount(m.netBalance()))
	sheet.blank()
	sheet.heading("BUDGET ALLOCATION RATIO", "Percentage")
	sheet.row("Savings", fmt.Sprintf("%g%%", float64(ratio.Savings)))
	sheet.row("Expenses", fmt.Sprintf("%g%%", float64(ratio.Expenses)))
	sheet.row("Buffer", fmt.Sprintf("%g%%", float64(ratio.Buffer)))
	sheet.row("Ratio Check", m.totals.RatioCheck.Message)
	return sheet
}

func monthlyOverview(appState budget.AppState) Sheet {
	sheet := Sheet{Name: SheetMonthlyOverview}
	sheet.heading("Month", "Income", "Savings Target", "Savings Actual", "Expense Target", "Expense Actual", "Buffer Target", "Buffer Used", "Net Balance")

	ratio := appState.Ratio
	for _, month := range slices.Sorted(maps.Keys(appState.MonthlyData)) {
		snapshot := appState.MonthlyData[month]
		net := snapshot.Income.Sub(money.Sum(snapshot.SavingsActual, snapshot.ExpensesActual, snapshot.BufferUsed))
		sheet.row(
			month,
			amount(snapshot.Income),
			amount(snapshot.Income.MulPercent(float64(ratio.Savings)).Round()),
			amount(snapshot.SavingsActual),
			amount(snapshot.Income.MulPercent(float64(ratio.Expenses)).Round()),
			amount(snapshot.ExpensesActual),
			amount(snapshot.Income.MulPercent(float64(ratio.Buffer)).Round()),
			amount(snapshot.BufferUsed),
			amount(net),
		)
	}
	return sheet
}

func incomeAnalysis(appState budget.AppState, m monthFigures) Sheet {
	sheet := Sheet{Name: SheetIncomeAnalysis}
	sheet.heading("INCOME SOURCES ANALYSIS")
	sheet.heading("Income Source", "Amount")
	for _, source := range appState.IncomeSources {
		sheet.row(source.Name, amount(source.Amount))
	}
	sheet.blank()
	sheet.row("TOTAL MONTHLY INCOME", amount(m.totals.TotalIncome))
	sheet.blank()
	sheet.heading("PERCENTAGE BREAKDOWN", "Percentage")
	for _, source := range appState.IncomeSources {
		sheet.row(source.Name, percent(source.Amount, m.totals.TotalIncome))
	}
	return sheet
}

func expensesBreakdown(appState budget.AppState, m monthFigures) Sheet {
	sheet := Sheet{Name: SheetExpenses}
	sheet.heading("EXPENSES BREAKDOWN")
	sheet.heading("Category", "Limit", "Actual", "Remaining", "Utilization %", "Status")

	actuals := m.categoryActual(budget.Expense)
	var totalLimit, totalActual money.Money
	for _, category := range appState.ExpenseCategories {
		actual := actuals[category.Id]
		sheet.row(category.Name, amount(category.Limit), amount(actual), amount(category.Limit.Sub(actual)),
			percent(actual, category.Limit), status(!actual.GreaterThan(category.Limit), "OK", "Over"))
		totalLimit = totalLimit.Add(category.Limit)
		totalActual = totalActual.Add(actual)
	}
	sheet.blank()
	sheet.heading("TOTAL", amount(totalLimit), amount(totalActual), amount(totalLimit.Sub(totalActual)),
		percent(totalActual, totalLimit), status(!totalActual.GreaterThan(totalLimit), "Within Budget", "Over Budget"))
	return sheet
}

func savingsBreakdown(appState budget.AppState, m monthFigures) Sheet {
	sheet := Sheet{Name: SheetSavings}
	sheet.heading("SAVINGS BREAKDOWN")
	sheet.heading("Category", "Target", "Actual", "Variance", "Achievement %", "Status")

	actuals := m.categoryActual(budget.Savings)
	var totalTarget, totalActual money.Money
	for _, category := range appState.SavingsCategories {
		actual := actuals[category.Id]
		sheet.row(category.Name, amount(category.Target), amount(actual), amount(metrics.Variance(actual, category.Target)),
			percent(actual, category.Target), status(!actual.LessThan(category.Target), "Achieved", "Below Target"))
		totalTarget = totalTarget.Add(category.Target)
		totalActual = totalActual.Add(actual)
	}
	sheet.blank()
	sheet.heading("TOTAL", amount(totalTarget), amount(totalActual), amount(metrics.Variance(totalActual, totalTarget)),
		percent(totalActual, totalTarget), status(!totalActual.LessThan(totalTarget), "On Track", "Behind Target"))
	return sheet
}

// transactionHistory lists every transaction, newest date first. Undated
// records sort last.
func transactionHistory(appState budget.AppState) Sheet {
	sheet := Sheet{Name: SheetTransactions}
	sheet.heading("TRANSACTION HISTORY")
	sheet.heading("Date", "Type", "Category", "Amount", "Description", "Month")

	transactions := slices.Clone(appState.Transactions)
	slices.SortStableFunc(transactions, func(a, b budget.Transaction) int {
		return cmp.Compare(b.Date, a.Date)
	})
	for _, tx := range transactions {
		sheet.row(tx.Date, typeLabel(tx.Type), metrics.ResolveCategory(appState, tx.CategoryId), amount(tx.Amount), tx.Description, tx.MonthKey)
	}
	return sheet
}

func subscriptions(appState budget.AppState) Sheet {
	sheet := Sheet{Name: SheetSubscriptions}
	sheet.heading("RECURRING PAYMENTS & SUBSCRIPTIONS")
	sheet.heading("Subscription Name", "Amount", "Due Day", "Category", "Status", "Monthly Impact")

	var monthly money.Money
	for _, sub := range appState.Subscriptions {
		impact := money.Zero
		if sub.Active {
			impact = sub.Amount
			monthly = monthly.Add(sub.Amount)
		}
		sheet.row(sub.Name, amount(sub.Amount), int(sub.DueDay), metrics.SubscriptionCategory(appState, sub.CategoryId),
			status(sub.Active, "Active", "Inactive"), amount(impact))
	}
	sheet.blank()
	sheet.heading("TOTAL MONTHLY RECURRING", amount(monthly))
	return sheet
}

func financialMetrics(m monthFigures) Sheet {
	sheet := Sheet{Name: SheetMetrics}
	income := m.totals.TotalIncome
	net := m.netBalance()

	sheet.heading("KEY FINANCIAL METRICS")
	sheet.heading("Metric", "Value")
	sheet.blank()
	sheet.heading("INCOME & ALLOCATION")
	sheet.row("Gross Monthly Income", amount(income))
	sheet.row("Savings Rate (%)", percent(m.snapshot.SavingsActual, income))
	sheet.row("Expense Rate (%)", percent(m.snapshot.ExpensesActual, income))
	sheet.row("Buffer Rate (%)", percent(m.snapshot.BufferUsed, income))
	sheet.blank()
	sheet.heading("PERFORMANCE vs TARGETS")
	sheet.row("Savings Surplus/Deficit", signed(m.snapshot.SavingsActual.Sub(m.totals.SavingsTarget)))
	sheet.row("Expenses Under/Over", signed(m.totals.ExpensesTarget.Sub(m.snapshot.ExpensesActual)))
	sheet.row("Net Monthly Balance", amount(net))
	sheet.blank()
	sheet.heading("BUDGET HEALTH INDICATORS")
	sheet.row("Savings Achievement", percent(m.snapshot.SavingsActual, m.totals.SavingsTarget))
	sheet.row("Expense Control", percent(m.snapshot.ExpensesActual, m.totals.ExpensesTarget))
	sheet.row("Buffer Utilization", percent(m.snapshot.BufferUsed, m.totals.BufferTarget))
	sheet.blank()
	sheet.heading("RECOMMENDATIONS")
	sheet.row("Overall Status", status(net.IsPositive(), "Positive Balance - Good savings discipline", "Negative Balance - Review spending"))
	sheet.row("Action Items", status(m.snapshot.SavingsActual.LessThan(m.totals.SavingsTarget), "Increase savings contributions", "Consider increasing savings targets"))
	return sheet
}

func goals(appState budget.AppState) Sheet {
	sheet := Sheet{Name: SheetGoals}
	sheet.heading("SAVINGS GOALS & TARGETS")
	sheet.heading("Goal", "Target Amount", "Saved Amount", "Remaining", "Progress %")
	for _, goal := range appState.SavingsGoals {
		sheet.row(goal.Name, amount(goal.TargetAmount), amount(goal.SavedAmount), amount(goal.TargetAmount.Sub(goal.SavedAmount)),
			percent(goal.SavedAmount, goal.TargetAmount))
	}
	return sheet
}

func dataIntegrity(appState budget.AppState, now time.Time) Sheet {
	sheet := Sheet{Name: SheetDataIntegrity}
	months := slices.Sorted(maps.Keys(appState.MonthlyData))
	ratio := appState.Ratio

	sheet.heading("DATA INTEGRITY")
	sheet.heading("Check Item", "Count/Status", "Details")
	sheet.blank()
	sheet.heading("MASTER DATA")
	sheet.row("Income Sources", len(appState.IncomeSources), "Configured income streams")
	sheet.row("Expense Categories", len(appState.ExpenseCategories), "Configured expense buckets")
	sheet.row("Savings Categories", len(appState.SavingsCategories), "Configured savings allocations")
	sheet.row("Buffer Categories", len(appState.BufferCategories), "Configured buffer reserves")
	sheet.row("Savings Goals", len(appState.SavingsGoals), "Financial goals")
	sheet.row("Subscriptions/Recurring", len(appState.Subscriptions), "Recurring payments")
	sheet.blank()
	sheet.heading("TRANSACTION DATA")
	sheet.row("Total Transactions", len(appState.Transactions), "All recorded transactions")
	sheet.row("Months with Data", len(months), strings.Join(months, ", "))
	sheet.blank()
	sheet.heading("FINANCIAL COHERENCE")
	sheet.row("Budget Allocation", fmt.Sprintf("%g/%g/%g", float64(ratio.Savings), float64(ratio.Expenses), float64(ratio.Buffer)),
		metrics.RatioCheck(ratio).Message)
	sheet.row("Current Month", appState.CurrentMonthKey, "Active tracking period")
	sheet.row("Report Generated", now.Format(time.DateOnly), "Report generation date")
	sheet.blank()
	sheet.heading("DATA VALIDATION CHECKLIST")
	sheet.row("Income Sources Complete", status(len(appState.IncomeSources) > 0, "Yes", "No"))
	sheet.row("Expense Categories Set", status(len(appState.ExpenseCategories) > 0, "Yes", "No"))
	sheet.row("Transactions Recorded", status(len(appState.Transactions) > 0, "Yes", "No"))
	sheet.row("Uncategorized Transactions", uncategorized(appState))
	return sheet
}

func uncategorized(appState budget.AppState) int {
	index := metrics.NewCategoryIndex(appState.AllCategoryRefs())
	count := 0
	for _, tx := range appState.Transactions {
		if index.Name(tx.CategoryId) == metrics.Uncategorized {
			count++
		}
	}
	return count
}

func typeLabel(t budget.TransactionType) string {
	switch t.Normalize() {
	case budget.Savings:
		return "Savings"
	case budget.Expense:
		return "Expense"
	case budget.Buffer:
		return "Buffer"
	}
	return string(t)
}

func amount(m money.Money) float64 {
	return m.Float64()
}

// percent formats value / base with two decimals. A zero base reads 0.00%.
func percent(value, base money.Money) string {
	return fmt.Sprintf("%.2f%%", value.Ratio(base)*100)
}

func signed(m money.Money) string {
	if m.IsNegative() {
		return m.String()
	}
	return "+" + m.String()
}

func status(ok bool, good, bad string) string {
	if ok {
		return good
	}
	return bad
}
