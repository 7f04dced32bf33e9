package export

import (
	"fmt"
	"strconv"

	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/models"
)

// Formats accepted by New.
const (
	FormatText = "text"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

// Column headers of the inventory dataset.
const (
	HeaderTable = "Table"
	HeaderRows  = "Rows"
)

// Dataset defines tabular export content. Placeholder is shown by human
// readable formats when there are no rows.
type Dataset struct {
	Title       string
	Headers     []string
	Rows        []map[string]string
	Placeholder string
}

// Records returns the rows as string slices in header order.
func (d Dataset) Records() [][]string {
	records := make([][]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		record := make([]string, len(d.Headers))
		for i, header := range d.Headers {
			record[i] = row[header]
		}
		records = append(records, record)
	}
	return records
}

func (d Dataset) validate(format string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", format)
	}
	return nil
}

// Renderer turns a dataset into bytes in a single output format.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	Extension() string
}

// New returns the renderer for format.
func New(format string) (Renderer, error) {
	switch format {
	case FormatText, "":
		return NewTextExporter(), nil
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// InventoryDataset converts an inventory into a two-column dataset.
func InventoryDataset(inv *models.Inventory) Dataset {
	data := Dataset{Headers: []string{HeaderTable, HeaderRows}, Placeholder: "No tables found."}
	if inv == nil {
		return data
	}
	data.Title = fmt.Sprintf("%s schema inventory", inv.Schema)
	data.Rows = make([]map[string]string, 0, len(inv.Tables))
	for _, t := range inv.Tables {
		data.Rows = append(data.Rows, map[string]string{
			HeaderTable: t.Name,
			HeaderRows:  strconv.FormatInt(t.RowCount, 10),
		})
	}
	return data
}
