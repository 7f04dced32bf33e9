package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const pdfBodyWidth = 190.0

// PDFExporter lays a dataset out as a single bordered table on A4 pages.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) Extension() string { return "pdf" }

// Render writes the title, a header row and the records. The first column is
// left aligned, the rest are right aligned counts.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(10, 15, 10)
	doc.SetTitle(data.Title, true)
	doc.AddPage()

	if data.Title != "" {
		doc.SetFont("Arial", "B", 14)
		doc.CellFormat(0, 10, strings.ToUpper(data.Title), "", 1, "C", false, 0, "")
		doc.Ln(5)
	}

	width := pdfBodyWidth / float64(len(data.Headers))
	doc.SetFont("Arial", "B", 10)
	writePDFRow(doc, width, 8, data.Headers, "C")

	doc.SetFont("Arial", "", 9)
	records := data.Records()
	if len(records) == 0 && data.Placeholder != "" {
		doc.CellFormat(pdfBodyWidth, 7, data.Placeholder, "1", 1, "C", false, 0, "")
	}
	for _, record := range records {
		writePDFRow(doc, width, 7, record, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// writePDFRow draws one table row. An empty align keeps the first column left
// and right aligns the others.
func writePDFRow(doc *gofpdf.Fpdf, width, height float64, cells []string, align string) {
	for i, cell := range cells {
		a := align
		if a == "" && i > 0 {
			a = "R"
		}
		doc.CellFormat(width, height, cell, "1", 0, a, false, 0, "")
	}
	doc.Ln(-1)
}
