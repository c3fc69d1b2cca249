package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
	"expensetracker/internal/pagination"
	"expensetracker/internal/report"
	"expensetracker/internal/store"
)

// ExpenseHandler handles the expense list and the add-expense screen.
type ExpenseHandler struct{}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler() *ExpenseHandler {
	return &ExpenseHandler{}
}

// CreateExpenseRequest represents the add-expense form. Date defaults to
// today.
type CreateExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Category    models.Category `json:"category" binding:"required,expense_category"`
	Date        models.Date     `json:"date" binding:"omitempty,not_future"`
	Description string          `json:"description" binding:"max=500"`
}

// ListExpensesQuery filters the expense list.
type ListExpensesQuery struct {
	pagination.PageRequest
	Month    string `form:"month" binding:"omitempty,year_month"`
	Category string `form:"category" binding:"omitempty,expense_category"`
}

// ExpenseResponse wraps a single expense.
type ExpenseResponse struct {
	Expense models.Expense `json:"expense"`
}

// List handles the expense list
// @Summary     List expenses
// @Description Paginated list of the user's expenses, newest date first
// @Tags        expenses
// @Produce     json
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       month     query string false "Only this month (YYYY-MM)"
// @Param       category  query string false "Only this category"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Router      /expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListExpensesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	expenses := w.Store.State().Expenses
	if query.Month != "" {
		month, err := report.ParseMonth(query.Month)
		if err != nil {
			respondWithError(c, bindError(err))
			return
		}
		expenses = report.InMonth(expenses, month)
	}
	if query.Category != "" {
		filtered := expenses[:0:0]
		for _, e := range expenses {
			if e.Category == models.Category(query.Category) {
				filtered = append(filtered, e)
			}
		}
		expenses = filtered
	}

	c.JSON(http.StatusOK, pagination.Paginate(report.SortByDateDesc(expenses), query.PageRequest))
}

// Create handles the add-expense form
// @Summary     Add an expense
// @Description Record an expense. Requires a complete profile.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Param       request body CreateExpenseRequest true "Expense"
// @Success     201 {object} ExpenseResponse "Expense added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     403 {object} ErrorResponse "Profile incomplete"
// @Failure     502 {object} ErrorResponse "Gateway error"
// @Router      /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	if req.Date.IsZero() {
		req.Date = models.Today(w.Store.Now())
	}

	expense, err := w.Store.AddExpense(c.Request.Context(), store.ExpenseInput{
		Amount:      req.Amount,
		Category:    req.Category,
		Date:        req.Date,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ExpenseResponse{Expense: *expense})
}

// Delete handles expense deletion
// @Summary     Delete an expense
// @Tags        expenses
// @Produce     json
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     502 {object} ErrorResponse "Gateway error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := w.Store.DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Expense deleted successfully!"})
}
