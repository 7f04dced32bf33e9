package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/models"
	appErrors "github.com/DefinetlyNotAI/WESMUN-NFC/pkg/errors"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/metrics"
)

// JobMigrate labels metrics emitted by the migration applier.
const JobMigrate = "migrate"

// sqlStateUndefinedTable is returned when the tracking table does not exist yet.
const sqlStateUndefinedTable = "42P01"

type migrationRepository interface {
	EnsureTable(ctx context.Context) error
	ListApplied(ctx context.Context) ([]models.AppliedMigration, error)
	Apply(ctx context.Context, m models.Migration) (bool, time.Duration, error)
}

// RunOptions tunes a single migration run.
type RunOptions struct {
	DryRun bool
}

// MigrationService applies the versioned schema migrations in order.
type MigrationService struct {
	repo       migrationRepository
	migrations []models.Migration
	logger     *zap.Logger
	metrics    *metrics.Recorder
	now        func() time.Time
}

// NewMigrationService constructs the migration applier. migrations must be sorted by ID.
func NewMigrationService(repo migrationRepository, migrations []models.Migration, logger *zap.Logger, recorder *metrics.Recorder) *MigrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationService{
		repo:       repo,
		migrations: migrations,
		logger:     logger,
		metrics:    recorder,
		now:        time.Now,
	}
}

// Status lists every known migration with its applied record. It does not
// create the tracking table; a missing table means nothing is applied.
func (s *MigrationService) Status(ctx context.Context) ([]models.MigrationStatus, error) {
	applied, err := s.repo.ListApplied(ctx)
	if err != nil {
		if appErrors.SQLState(err) != sqlStateUndefinedTable {
			return nil, appErrors.WrapAs(err, appErrors.ErrMigrationFailed, "read migration history")
		}
		applied = nil
	}

	byID := make(map[string]models.AppliedMigration, len(applied))
	for _, a := range applied {
		byID[a.ID] = a
	}

	statuses := make([]models.MigrationStatus, 0, len(s.migrations))
	for _, m := range s.migrations {
		st := models.MigrationStatus{Migration: m}
		if a, ok := byID[m.ID]; ok {
			a := a
			st.Applied = &a
			delete(byID, m.ID)
		}
		statuses = append(statuses, st)
	}

	for id, a := range byID {
		s.logger.Warn("recorded migration has no matching file", zap.String("id", id), zap.String("name", a.Name))
	}
	return statuses, nil
}

// Run applies every pending migration in ID order. The first failure stops the
// run; steps applied before it stay recorded.
func (s *MigrationService) Run(ctx context.Context, opts RunOptions) (*models.MigrationReport, error) {
	start := s.now()
	report := &models.MigrationReport{RunID: uuid.NewString(), DryRun: opts.DryRun}
	log := s.logger.With(zap.String("run_id", report.RunID))

	report, err := s.run(ctx, log, report, opts)
	report.Duration = s.now().Sub(start)
	if err != nil {
		s.metrics.Failure(JobMigrate, appErrors.FromError(err).Code)
		return report, err
	}

	if !opts.DryRun {
		s.metrics.Success(JobMigrate, s.now())
	}
	log.Info("migrations complete",
		zap.Int("applied", len(report.Applied)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("pending", len(report.Pending)),
		zap.Bool("dry_run", report.DryRun),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (s *MigrationService) run(ctx context.Context, log *zap.Logger, report *models.MigrationReport, opts RunOptions) (*models.MigrationReport, error) {
	if !opts.DryRun {
		if err := s.repo.EnsureTable(ctx); err != nil {
			log.Error("cannot prepare migration history", appErrors.Describe(err)...)
			return report, appErrors.WrapAs(err, appErrors.ErrMigrationFailed, "prepare migration history")
		}
	}

	statuses, err := s.Status(ctx)
	if err != nil {
		log.Error("cannot read migration history", appErrors.Describe(err)...)
		return report, err
	}

	if modified := modifiedMigrations(statuses); len(modified) > 0 {
		log.Error("applied migrations were modified", zap.Strings("migrations", modified))
		return report, appErrors.Clone(appErrors.ErrChecksumMismatch,
			fmt.Sprintf("applied migrations were modified: %s", strings.Join(modified, ", ")))
	}

	for _, st := range statuses {
		label := st.Migration.Label()
		if !st.Pending() {
			report.Skipped = append(report.Skipped, label)
			s.metrics.MigrationSkipped()
			log.Debug("migration already applied", zap.String("migration", label))
			continue
		}

		if opts.DryRun {
			report.Pending = append(report.Pending, label)
			log.Info("migration pending", zap.String("migration", label))
			continue
		}

		log.Info("applying migration", zap.String("migration", label))
		applied, elapsed, err := s.repo.Apply(ctx, st.Migration)
		if err != nil {
			log.Error("migration failed", append(appErrors.Describe(err), zap.String("migration", label))...)
			return report, appErrors.WrapAs(err, appErrors.ErrMigrationFailed, "apply "+label)
		}
		if !applied {
			report.Skipped = append(report.Skipped, label)
			s.metrics.MigrationSkipped()
			log.Info("migration applied concurrently", zap.String("migration", label))
			continue
		}
		report.Applied = append(report.Applied, label)
		s.metrics.MigrationApplied(label, elapsed)
		log.Info("migration applied", zap.String("migration", label), zap.Duration("elapsed", elapsed))
	}
	return report, nil
}

func modifiedMigrations(statuses []models.MigrationStatus) []string {
	var modified []string
	for _, st := range statuses {
		if st.Modified() {
			modified = append(modified, st.Migration.Label())
		}
	}
	return modified
}
