package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceLine is one billed item on a coach invoice.
type InvoiceLine struct {
	Description string
	Hours       string
	Rate        string
	Amount      string
}

// Invoice describes a monthly coach invoice to be rendered as PDF.
type Invoice struct {
	AcademyName string
	CoachName   string
	Month       string
	Lines       []InvoiceLine
	Adjustments []InvoiceLine
	NetTotal    string
}

// InvoicePDFExporter renders monthly coach invoices.
type InvoicePDFExporter struct{}

// NewInvoicePDFExporter constructs a PDF invoice exporter.
func NewInvoicePDFExporter() *InvoicePDFExporter {
	return &InvoicePDFExporter{}
}

// Render creates the PDF document for a single invoice.
func (e *InvoicePDFExporter) Render(inv Invoice) ([]byte, error) {
	if inv.CoachName == "" || inv.Month == "" {
		return nil, fmt.Errorf("invoice requires coach name and month")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, inv.AcademyName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Invoice for %s - %s", inv.CoachName, inv.Month), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	widths := []float64{90, 30, 30, 40}
	headers := []string{"Description", "Hours", "Rate", "Amount"}

	pdf.SetFont("Arial", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	writeLines := func(lines []InvoiceLine) {
		for _, line := range lines {
			pdf.CellFormat(widths[0], 7, line.Description, "1", 0, "", false, 0, "")
			pdf.CellFormat(widths[1], 7, line.Hours, "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[2], 7, line.Rate, "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[3], 7, line.Amount, "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}
	writeLines(inv.Lines)
	writeLines(inv.Adjustments)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Net total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, inv.NetTotal, "1", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
