package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"expensetracker/internal/models"
	"expensetracker/internal/report"
)

// StatisticsHandler serves the statistics screen.
type StatisticsHandler struct{}

// NewStatisticsHandler creates a new StatisticsHandler
func NewStatisticsHandler() *StatisticsHandler {
	return &StatisticsHandler{}
}

// StatisticsQuery selects the time range.
type StatisticsQuery struct {
	Range string `form:"range" binding:"omitempty,stats_range"`
}

// StatisticsResponse is the statistics screen.
type StatisticsResponse struct {
	Statistics report.Stats `json:"statistics"`
	Currency   string       `json:"currency"`
	Theme      models.Theme `json:"theme"`
}

// Get handles the statistics screen
// @Summary     Statistics
// @Description Totals, category breakdown and time buckets for the week, month or year ending today. Requires a complete profile.
// @Tags        statistics
// @Produce     json
// @Param       range query string false "week, month (default) or year"
// @Success     200 {object} StatisticsResponse "Statistics"
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     403 {object} ErrorResponse "Profile incomplete"
// @Router      /statistics [get]
func (h *StatisticsHandler) Get(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query StatisticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	r, err := report.ParseRange(query.Range)
	if err != nil {
		respondWithError(c, bindError(err))
		return
	}

	st := w.Store.State()
	c.JSON(http.StatusOK, StatisticsResponse{
		Statistics: report.Statistics(r, st.Expenses, w.Store.Now()),
		Currency:   st.Profile.Currency,
		Theme:      w.Theme(),
	})
}
