package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/models"
	appErrors "github.com/DefinetlyNotAI/WESMUN-NFC/pkg/errors"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/metrics"
)

// JobInventory labels metrics emitted by the inventory reporter.
const JobInventory = "inventory"

type catalogRepository interface {
	ListBaseTables(ctx context.Context, schema string) ([]string, error)
	CountRows(ctx context.Context, schema, table string) (int64, error)
}

// InventoryServiceConfig selects the schema to walk and tables to leave out.
// Excluded names may be schema qualified; those in another schema are ignored.
type InventoryServiceConfig struct {
	Schema        string
	ExcludeTables []string
}

// InventoryService lists tables and their row counts. It is read-only.
type InventoryService struct {
	repo    catalogRepository
	schema  string
	exclude map[string]struct{}
	logger  *zap.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewInventoryService constructs the inventory reporter.
func NewInventoryService(repo catalogRepository, logger *zap.Logger, recorder *metrics.Recorder, cfg InventoryServiceConfig) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	exclude := make(map[string]struct{}, len(cfg.ExcludeTables))
	for _, t := range cfg.ExcludeTables {
		if name, ok := tableInSchema(t, schema); ok {
			exclude[name] = struct{}{}
		}
	}
	return &InventoryService{
		repo:    repo,
		schema:  schema,
		exclude: exclude,
		logger:  logger,
		metrics: recorder,
		now:     time.Now,
	}
}

// Report returns base tables in alphabetical order with their row counts. When
// no tables exist it returns an empty inventory without counting anything.
func (s *InventoryService) Report(ctx context.Context) (*models.Inventory, error) {
	inv := &models.Inventory{Schema: s.schema, GeneratedAt: s.now().UTC()}

	s.logger.Info("fetching tables", zap.String("schema", s.schema))
	tables, err := s.repo.ListBaseTables(ctx, s.schema)
	if err != nil {
		s.metrics.Failure(JobInventory, appErrors.ErrInventoryFailed.Code)
		return nil, appErrors.WrapAs(err, appErrors.ErrInventoryFailed, "list tables")
	}

	for _, table := range tables {
		if _, skip := s.exclude[table]; skip {
			continue
		}
		count, err := s.repo.CountRows(ctx, s.schema, table)
		if err != nil {
			s.metrics.Failure(JobInventory, appErrors.ErrInventoryFailed.Code)
			return nil, appErrors.WrapAs(err, appErrors.ErrInventoryFailed, "count rows")
		}
		inv.Tables = append(inv.Tables, models.TableInventory{Name: table, RowCount: count})
		s.metrics.TableRows(table, count)
	}

	if inv.Empty() {
		s.logger.Info("no tables found", zap.String("schema", s.schema))
	}
	s.metrics.Success(JobInventory, s.now())
	return inv, nil
}

// Verify returns the domain tables absent from inv, in alphabetical order.
func (s *InventoryService) Verify(inv *models.Inventory) []string {
	present := make(map[string]struct{})
	if inv != nil {
		for _, t := range inv.Tables {
			present[t.Name] = struct{}{}
		}
	}
	var missing []string
	for _, name := range models.DomainTables {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// tableInSchema returns the bare table name of a possibly qualified name when
// it belongs to schema.
func tableInSchema(name, schema string) (string, bool) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return name, true
	}
	return name[i+1:], name[:i] == schema
}
