package export

import (
	"bytes"
	"fmt"
)

// TextExporter renders one "Header: value, Header: value" line per row.
type TextExporter struct{}

// NewTextExporter builds a text exporter.
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

func (e *TextExporter) Extension() string { return "txt" }

// Render produces newline separated rows, or the placeholder line when empty.
func (e *TextExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("text"); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if len(data.Rows) == 0 && data.Placeholder != "" {
		buf.WriteString(data.Placeholder + "\n")
		return buf.Bytes(), nil
	}
	for _, record := range data.Records() {
		for i, value := range record {
			if i > 0 {
				buf.WriteString(", ")
			}
			fmt.Fprintf(&buf, "%s: %s", data.Headers[i], value)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
