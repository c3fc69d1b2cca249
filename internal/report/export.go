package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"expensetracker/internal/models"
)

// Format is an export document type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
)

// Formats returns the supported export formats.
func Formats() []Format {
	return []Format{FormatXLSX, FormatPDF, FormatCSV}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// exportHeader is the column order of every export.
var exportHeader = []string{"Date", "Category", "Description", "Amount"}

const exportSheet = "Expenses"

// ExportRow is one formatted line of a report.
type ExportRow struct {
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

func (r ExportRow) cells() []string {
	return []string{r.Date, r.Category, r.Description, r.Amount}
}

// Export is a month's report ready to be written in any format.
type Export struct {
	Month    string      `json:"month"`
	Currency string      `json:"currency"`
	Total    string      `json:"total"`
	Rows     []ExportRow `json:"rows"`
}

// FormatAmount renders an amount as "USD 12.50".
func FormatAmount(currency string, e models.Expense) string {
	return fmt.Sprintf("%s %s", currency, e.Amount.StringFixed(2))
}

// ExportMonth builds the report of the calendar month containing month,
// newest date first.
func ExportMonth(expenses []models.Expense, month models.Date, currency string) Export {
	group := Month(expenses, month)

	rows := make([]ExportRow, 0, len(group.Expenses))
	for _, e := range group.Expenses {
		description := e.Description
		if strings.TrimSpace(description) == "" {
			description = "-"
		}
		rows = append(rows, ExportRow{
			Date:        e.Date.Format("02/01/2006"),
			Category:    string(e.Category),
			Description: description,
			Amount:      FormatAmount(currency, e),
		})
	}

	return Export{
		Month:    group.Month,
		Currency: currency,
		Total:    fmt.Sprintf("%s %s", currency, group.Total.StringFixed(2)),
		Rows:     rows,
	}
}

// FileName returns the download name, e.g. "expense-report-march 2026.pdf".
func (e Export) FileName(f Format) string {
	return fmt.Sprintf("expense-report-%s.%s", strings.ToLower(e.Month), f)
}

// Write renders the report in format f.
func (e Export) Write(w io.Writer, f Format) error {
	switch f {
	case FormatXLSX:
		return e.WriteXLSX(w)
	case FormatPDF:
		return e.WritePDF(w)
	case FormatCSV:
		return e.WriteCSV(w)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteXLSX writes a workbook with a single "Expenses" sheet.
func (e Export) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, header := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, row := range e.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &[]interface{}{row.Date, row.Category, row.Description, row.Amount}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "C", "C", 40); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WritePDF writes an A4 document with a title, the month's total and a table
// of rows.
func (e Export) WritePDF(w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Expense Report - "+e.Month, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(14, 20, tr("Expense Report - "+e.Month))

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(14, 30, tr("Total: "+e.Total))

	widths := []float64{30, 35, 80, 37}
	pdf.SetXY(14, 40)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(41, 128, 185)
	pdf.SetTextColor(255, 255, 255)
	for i, header := range exportHeader {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range e.Rows {
		pdf.SetX(14)
		for i, cell := range row.cells() {
			pdf.CellFormat(widths[i], 7, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// WriteCSV writes the rows with a header line.
func (e Export) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, row := range e.Rows {
		cells := row.cells()
		for i, cell := range cells {
			cells[i] = csvText(cell)
		}
		if err := cw.Write(cells); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvText keeps spreadsheet programs from evaluating a cell as a formula by
// prefixing a quote when it starts with a formula character. The lone "-"
// placeholder is left as is.
func csvText(cell string) string {
	if len(cell) < 2 || !strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
		return cell
	}
	return "'" + cell
}
