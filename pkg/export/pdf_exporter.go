package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// landscapeColumns is the column count from which pages are laid out landscape.
const landscapeColumns = 6

// PDFExporter renders datasets into a tabular statement.
type PDFExporter struct {
	organisation string
	now          func() time.Time
}

// NewPDFExporter constructs a PDF exporter. organisation is printed in the page header.
func NewPDFExporter(organisation string) *PDFExporter {
	return &PDFExporter{organisation: organisation, now: time.Now}
}

// Render creates a PDF document with the dataset title, table body and footer.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation, width := "P", 190.0
	if len(data.Headers) >= landscapeColumns {
		orientation, width = "L", 277.0
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	generated := e.now().UTC().Format("2006-01-02 15:04 MST")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Generated %s - page %d", generated, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if e.organisation != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 6, e.organisation, "", 1, "L", false, 0, "")
	}
	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, data.Title, "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	colWidth := width / float64(len(data.Headers))
	header := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		if pdf.GetY() > pageHeight-25 {
			pdf.AddPage()
			header()
			pdf.SetFont("Arial", "", 9)
		}
		for _, value := range data.record(row) {
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(data.Footer) > 0 {
		pdf.SetFont("Arial", "B", 9)
		for _, value := range data.record(data.Footer) {
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
