package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"expensetracker/internal/models"
	"expensetracker/internal/report"
)

const completeProfilePrompt = "Please complete your profile to get started."

// HomeHandler serves the home screen.
type HomeHandler struct{}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// HomeResponse is the home screen. Until the profile is complete only the
// prompt and the theme are set.
type HomeResponse struct {
	ProfileComplete bool             `json:"profile_complete"`
	Prompt          string           `json:"prompt,omitempty"`
	Greeting        string           `json:"greeting,omitempty"`
	Summary         *report.Summary  `json:"summary,omitempty"`
	Insights        *report.Insights `json:"insights,omitempty"`
	Ledger          *report.Ledger   `json:"ledger,omitempty"`
	Theme           models.Theme     `json:"theme"`
}

// Get handles the home screen
// @Summary     Home screen
// @Description Budget summary, this month's expenses and every earlier month of the past year
// @Tags        home
// @Produce     json
// @Success     200 {object} HomeResponse "Home screen"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Router      /home [get]
func (h *HomeHandler) Get(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	st := w.Store.State()
	if !st.IsProfileComplete() {
		c.JSON(http.StatusOK, HomeResponse{
			Prompt: completeProfilePrompt,
			Theme:  w.Theme(),
		})
		return
	}

	now := w.Store.Now()
	summary := report.BudgetSummary(st.Profile, st.TotalExpenses(now))
	insights := report.MonthInsights(st.Expenses, now)
	ledger := report.BuildLedger(st.Expenses, now)

	c.JSON(http.StatusOK, HomeResponse{
		ProfileComplete: true,
		Greeting:        "Hi, " + st.Profile.Name,
		Summary:         &summary,
		Insights:        &insights,
		Ledger:          &ledger,
		Theme:           w.Theme(),
	})
}
