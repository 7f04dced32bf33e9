package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter writes a header line followed by one record per row.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Extension() string { return "csv" }

// Render leaves out Title and Placeholder so the file stays machine readable.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("csv"); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := csv.NewWriter(&buf).WriteAll(append([][]string{data.Headers}, data.Records()...)); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
