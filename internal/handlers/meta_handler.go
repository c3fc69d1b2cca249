package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"expensetracker/internal/models"
	"expensetracker/internal/report"
)

// Tab is an entry of the bottom navigation.
type Tab struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var tabs = []Tab{
	{ID: "home", Label: "Home", Icon: "home"},
	{ID: "add", Label: "Add", Icon: "plus-circle"},
	{ID: "stats", Label: "Stats", Icon: "bar-chart-3"},
	{ID: "profile", Label: "Profile", Icon: "user"},
}

// CategoriesResponse lists the category badges.
type CategoriesResponse struct {
	Categories []models.CategoryStyle `json:"categories"`
}

// MetaResponse is the static data a client needs to render its screens.
type MetaResponse struct {
	Categories []models.CategoryStyle `json:"categories"`
	Currencies []models.Currency      `json:"currencies"`
	Ranges     []report.Range         `json:"ranges"`
	Formats    []report.Format        `json:"formats"`
	Tabs       []Tab                  `json:"tabs"`
}

// MetaHandler serves static presentation data.
type MetaHandler struct{}

// NewMetaHandler creates a new MetaHandler
func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

func categoryStyles() []models.CategoryStyle {
	categories := models.Categories()
	styles := make([]models.CategoryStyle, 0, len(categories))
	for _, c := range categories {
		styles = append(styles, c.Style())
	}
	return styles
}

// Categories lists the expense categories
// @Summary     Expense categories
// @Description Every category with its badge icon and colour, in display order
// @Tags        meta
// @Produce     json
// @Success     200 {object} CategoriesResponse "Categories"
// @Router      /categories [get]
func (h *MetaHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, CategoriesResponse{Categories: categoryStyles()})
}

// Get returns the static presentation data
// @Summary     Presentation metadata
// @Tags        meta
// @Produce     json
// @Success     200 {object} MetaResponse "Metadata"
// @Router      /meta [get]
func (h *MetaHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, MetaResponse{
		Categories: categoryStyles(),
		Currencies: models.SupportedCurrencies(),
		Ranges:     report.Ranges(),
		Formats:    report.Formats(),
		Tabs:       tabs,
	})
}
