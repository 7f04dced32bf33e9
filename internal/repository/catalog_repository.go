package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CatalogRepository reads table metadata and row counts. It never writes.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListBaseTables returns base table names in schema, alphabetically.
func (r *CatalogRepository) ListBaseTables(ctx context.Context, schema string) ([]string, error) {
	const query = `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name`
	var tables []string
	if err := r.db.SelectContext(ctx, &tables, query, schema); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// CountRows returns the current number of rows in schema.table.
func (r *CatalogRepository) CountRows(ctx context.Context, schema, table string) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, pq.QuoteIdentifier(schema)+"."+pq.QuoteIdentifier(table))
	var count int64
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return count, nil
}
