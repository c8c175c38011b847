package state

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ratiobudget/ratiobudget/internal/rest"
	"github.com/ratiobudget/ratiobudget/pkg/budget"
	"github.com/ratiobudget/ratiobudget/pkg/metrics"
	"github.com/ratiobudget/ratiobudget/pkg/money"
	log "github.com/sirupsen/logrus"
)

type StateDTO struct {
	State  budget.AppState `json:"state"`
	Totals Totals          `json:"totals"`
}

type TransactionDTO struct {
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
	CategoryId  string      `json:"categoryId"`
	Type        string      `json:"type"`
	MonthKey    string      `json:"monthKey"`
}

type TransactionUpdateDTO struct {
	Date        *string      `json:"date"`
	Description *string      `json:"description"`
	Amount      *money.Money `json:"amount"`
	CategoryId  *string      `json:"categoryId"`
}

type MonthDTO struct {
	MonthKey string `json:"monthKey"`
}

type RatioDTO struct {
	Ratio      budget.Ratio             `json:"ratio"`
	RatioCheck metrics.RatioCheckResult `json:"ratioCheck"`
}

func DTOToTransaction(dto TransactionDTO) budget.Transaction {
	return budget.Transaction{
		Date:        dto.Date,
		Description: dto.Description,
		Amount:      dto.Amount,
		CategoryId:  dto.CategoryId,
		Type:        budget.ParseTransactionType(dto.Type),
		MonthKey:    dto.MonthKey,
	}
}

func DTOToTransactionUpdate(dto TransactionUpdateDTO) TransactionUpdate {
	return TransactionUpdate{
		Date:        dto.Date,
		Description: dto.Description,
		Amount:      dto.Amount,
		CategoryId:  dto.CategoryId,
	}
}

type Handler struct {
	service Service
}

func NewStateHandler(service Service) *Handler {
	return &Handler{service}
}

// GetState godoc
// @Summary Get the whole application state
// @Tags State
// @Produce json
// @Success 200 {object} StateDTO
// @Router /api/state [get]
func (handler *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	log.Debug("Getting application state")
	rest.WriteJSON(w, http.StatusOK, StateDTO{
		State:  handler.service.Snapshot(),
		Totals: handler.service.Totals(),
	})
}

// ClearState godoc
// @Summary Clear all data
// @Description Resets the state to defaults and removes the stored document
// @Tags State
// @Produce json
// @Success 200 {object} StateDTO
// @Router /api/state [delete]
func (handler *Handler) ClearState(w http.ResponseWriter, r *http.Request) {
	log.Debug("Clearing application state")
	state := handler.service.ClearAll(r.Context())
	rest.WriteJSON(w, http.StatusOK, StateDTO{State: state, Totals: TotalsOf(state)})
}

// GetTotals godoc
// @Summary Get total income and targets
// @Tags State
// @Produce json
// @Success 200 {object} Totals
// @Router /api/totals [get]
func (handler *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, handler.service.Totals())
}

// SetIncomeSources godoc
// @Summary Replace income sources
// @Tags Setup
// @Accept json
// @Produce json
// @Param sources body []budget.IncomeSource true "Income sources"
// @Success 200 {array} budget.IncomeSource
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/income-sources [put]
func (handler *Handler) SetIncomeSources(w http.ResponseWriter, r *http.Request) {
	log.Debug("Setting income sources")
	var sources []budget.IncomeSource
	if !rest.DecodeJSON(w, r, &sources) {
		return
	}
	rest.WriteJSON(w, http.StatusOK, handler.service.SetIncomeSources(r.Context(), sources))
}

// SetCategories godoc
// @Summary Replace the categories of one kind
// @Tags Setup
// @Accept json
// @Produce json
// @Param kind path string true "savings, expense or buffer"
// @Success 200 {array} object
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/categories/{kind} [put]
func (handler *Handler) SetCategories(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	log.Debugf("Setting %s categories", kind)
	switch budget.ParseTransactionType(kind) {
	case budget.Savings:
		var categories []budget.SavingsCategory
		if !rest.DecodeJSON(w, r, &categories) {
			return
		}
		rest.WriteJSON(w, http.StatusOK, handler.service.SetSavingsCategories(r.Context(), categories))
	case budget.Expense:
		var categories []budget.ExpenseCategory
		if !rest.DecodeJSON(w, r, &categories) {
			return
		}
		rest.WriteJSON(w, http.StatusOK, handler.service.SetExpenseCategories(r.Context(), categories))
	case budget.Buffer:
		var categories []budget.BufferCategory
		if !rest.DecodeJSON(w, r, &categories) {
			return
		}
		rest.WriteJSON(w, http.StatusOK, handler.service.SetBufferCategories(r.Context(), categories))
	default:
		rest.WriteError(w, http.StatusNotFound, "Unknown category kind", "kind must be savings, expense or buffer")
	}
}

// SetSubscriptions godoc
// @Summary Replace subscriptions
// @Tags Setup
// @Accept json
// @Produce json
// @Success 200 {array} budget.Subscription
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/subscriptions [put]
func (handler *Handler) SetSubscriptions(w http.ResponseWriter, r *http.Request) {
	log.Debug("Setting subscriptions")
	var subscriptions []budget.Subscription
	if !rest.DecodeJSON(w, r, &subscriptions) {
		return
	}
	rest.WriteJSON(w, http.StatusOK, handler.service.SetSubscriptions(r.Context(), subscriptions))
}

// SetSavingsGoals godoc
// @Summary Replace savings goals
// @Tags Setup
// @Accept json
// @Produce json
// @Success 200 {array} budget.SavingsGoal
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/goals [put]
func (handler *Handler) SetSavingsGoals(w http.ResponseWriter, r *http.Request) {
	log.Debug("Setting savings goals")
	var goals []budget.SavingsGoal
	if !rest.DecodeJSON(w, r, &goals) {
		return
	}
	rest.WriteJSON(w, http.StatusOK, handler.service.SetSavingsGoals(r.Context(), goals))
}

// GetRatio godoc
// @Summary Get the allocation ratio and its balance check
// @Tags Ratio
// @Produce json
// @Success 200 {object} RatioDTO
// @Router /api/ratio [get]
func (handler *Handler) GetRatio(w http.ResponseWriter, r *http.Request) {
	ratio := handler.service.Snapshot().Ratio
	rest.WriteJSON(w, http.StatusOK, ratioToDTO(ratio))
}

// SetRatio godoc
// @Summary Set the allocation ratio
// @Description Components need not add up to 100; the imbalance is reported, not rejected
// @Tags Ratio
// @Accept json
// @Produce json
// @Param ratio body budget.Ratio true "Ratio"
// @Success 200 {object} RatioDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/ratio [put]
func (handler *Handler) SetRatio(w http.ResponseWriter, r *http.Request) {
	log.Debug("Setting ratio")
	var ratio budget.Ratio
	if !rest.DecodeJSON(w, r, &ratio) {
		return
	}
	rest.WriteJSON(w, http.StatusOK, ratioToDTO(handler.service.SetRatio(r.Context(), ratio)))
}

// ResetRatio godoc
// @Summary Reset the ratio to 55/40/5
// @Tags Ratio
// @Produce json
// @Success 200 {object} RatioDTO
// @Router /api/ratio/reset [post]
func (handler *Handler) ResetRatio(w http.ResponseWriter, r *http.Request) {
	log.Debug("Resetting ratio")
	rest.WriteJSON(w, http.StatusOK, ratioToDTO(handler.service.ResetRatioToDefault(r.Context())))
}

// SetMonth godoc
// @Summary Select the month being viewed
// @Tags State
// @Accept json
// @Produce json
// @Param month body MonthDTO true "Month"
// @Success 200 {object} MonthDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/month [put]
func (handler *Handler) SetMonth(w http.ResponseWriter, r *http.Request) {
	var month MonthDTO
	if !rest.DecodeJSON(w, r, &month) {
		return
	}
	log.Debugf("Setting current month to %s", month.MonthKey)
	rest.WriteJSON(w, http.StatusOK, MonthDTO{MonthKey: handler.service.SetCurrentMonthKey(r.Context(), month.MonthKey)})
}

// ListTransactions godoc
// @Summary List transactions
// @Tags Transactions
// @Produce json
// @Param month query string false "YYYY-MM; all months when empty"
// @Success 200 {array} budget.Transaction
// @Router /api/transactions [get]
func (handler *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	rest.WriteJSON(w, http.StatusOK, handler.service.Transactions(month))
}

// AddTransaction godoc
// @Summary Record a transaction
// @Tags Transactions
// @Accept json
// @Produce json
// @Param transaction body TransactionDTO true "Transaction"
// @Success 201 {object} budget.Transaction
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/transactions [post]
func (handler *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	log.Debug("Adding transaction")
	var dto TransactionDTO
	if !rest.DecodeJSON(w, r, &dto) {
		return
	}
	tx := DTOToTransaction(dto)
	if !tx.Type.IsKnown() {
		rest.WriteError(w, http.StatusBadRequest, "Invalid transaction type", "type must be savings, expense or buffer")
		return
	}
	rest.WriteJSON(w, http.StatusCreated, handler.service.AddTransaction(r.Context(), tx))
}

// UpdateTransaction godoc
// @Summary Edit a transaction
// @Description Only date, description, amount and categoryId can change
// @Tags Transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param transaction body TransactionUpdateDTO true "Fields to change"
// @Success 200 {object} budget.Transaction
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/transactions/{id} [put]
func (handler *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Debugf("Updating transaction %s", id)
	var dto TransactionUpdateDTO
	if !rest.DecodeJSON(w, r, &dto) {
		return
	}
	updated, found := handler.service.UpdateTransaction(r.Context(), id, DTOToTransactionUpdate(dto))
	if !found {
		rest.WriteError(w, http.StatusNotFound, ErrTransactionNotFound.Error(), fmt.Sprintf("no transaction with id %s", id))
		return
	}
	rest.WriteJSON(w, http.StatusOK, updated)
}

// DeleteTransaction godoc
// @Summary Delete a transaction
// @Tags Transactions
// @Param id path string true "Transaction ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/transactions/{id} [delete]
func (handler *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Debugf("Deleting transaction %s", id)
	if !handler.service.DeleteTransaction(r.Context(), id) {
		rest.WriteError(w, http.StatusNotFound, ErrTransactionNotFound.Error(), fmt.Sprintf("no transaction with id %s", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateMonthlySnapshot godoc
// @Summary Override figures of one month
// @Description Provided fields replace the figures derived from transactions
// @Tags Monthly
// @Accept json
// @Produce json
// @Param monthKey path string true "YYYY-MM"
// @Param snapshot body budget.SnapshotOverride true "Fields to override"
// @Success 200 {object} budget.MonthlySnapshot
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/monthly/{monthKey} [patch]
func (handler *Handler) UpdateMonthlySnapshot(w http.ResponseWriter, r *http.Request) {
	monthKey := mux.Vars(r)["monthKey"]
	log.Debugf("Updating monthly snapshot %s", monthKey)
	var override budget.SnapshotOverride
	if !rest.DecodeJSON(w, r, &override) {
		return
	}
	rest.WriteJSON(w, http.StatusOK, handler.service.UpdateMonthlySnapshot(r.Context(), monthKey, override))
}

func ratioToDTO(ratio budget.Ratio) RatioDTO {
	return RatioDTO{Ratio: ratio, RatioCheck: metrics.RatioCheck(ratio)}
}
