package models

import "time"

// DomainTables are the tables created by the schema migrations.
var DomainTables = []string{
	"audit_logs",
	"nfc_links",
	"profiles",
	"rate_limits",
	"roles",
	"session_tokens",
	"users",
}

// TableInventory is a base table name and its current row count.
type TableInventory struct {
	Name     string `db:"table_name" json:"table_name"`
	RowCount int64  `db:"row_count" json:"row_count"`
}

// Inventory is the ordered table listing produced by the inventory reporter.
type Inventory struct {
	Schema      string           `json:"schema"`
	Tables      []TableInventory `json:"tables"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Empty reports whether no tables were found.
func (i *Inventory) Empty() bool {
	return i == nil || len(i.Tables) == 0
}

// TotalRows sums row counts across all tables.
func (i *Inventory) TotalRows() int64 {
	if i == nil {
		return 0
	}
	var total int64
	for _, t := range i.Tables {
		total += t.RowCount
	}
	return total
}
