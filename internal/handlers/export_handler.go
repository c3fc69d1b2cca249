package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/report"
)

// ExportHandler serves month reports as downloads.
type ExportHandler struct{}

// NewExportHandler creates a new ExportHandler
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// ExportQuery selects the month and the file format.
type ExportQuery struct {
	Month  string `form:"month" binding:"omitempty,year_month"`
	Format string `form:"format" binding:"omitempty,export_format"`
}

// Download handles the export buttons
// @Summary     Export a month
// @Description Download one month of expenses as a spreadsheet, PDF or CSV
// @Tags        export
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce     application/pdf
// @Produce     text/csv
// @Param       month  query string false "Month (YYYY-MM), default current month"
// @Param       format query string false "xlsx (default), pdf or csv"
// @Success     200 {file} file "Report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Router      /export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	month := models.Today(w.Store.Now()).FirstOfMonth()
	if query.Month != "" {
		if month, err = report.ParseMonth(query.Month); err != nil {
			respondWithError(c, bindError(err))
			return
		}
	}
	format := report.FormatXLSX
	if query.Format != "" {
		format = report.Format(query.Format)
	}

	st := w.Store.State()
	export := report.ExportMonth(st.Expenses, month, st.Profile.Currency)

	var buf bytes.Buffer
	if err := export.Write(&buf, format); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(format)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
