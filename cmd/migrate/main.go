package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/repository"
	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/schema"
	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/service"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/config"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/database"
	appErrors "github.com/DefinetlyNotAI/WESMUN-NFC/pkg/errors"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/logger"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/metrics"
)

func main() {
	var (
		dryRun bool
		status bool
	)
	flag.BoolVar(&dryRun, "dry-run", false, "List pending migrations without applying them")
	flag.BoolVar(&status, "status", false, "Print the applied state of every migration and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		os.Exit(appErrors.ExitConfig)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Printf("failed to init logger: %v", err)
		os.Exit(appErrors.ExitConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, logr, dryRun, status)
	stop()
	_ = logr.Sync()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger, dryRun, status bool) int {
	migrations, err := schema.Load()
	if err != nil {
		err = appErrors.WrapAs(err, appErrors.ErrMigrationLoadFailed, "load migrations")
		logr.Error("cannot load migrations", appErrors.Describe(err)...)
		return appErrors.ExitCode(err)
	}

	recorder := metrics.NewRecorder()
	defer pushMetrics(cfg, logr, recorder)

	logr.Info("connecting to database", zap.String("driver", cfg.Database.Driver))
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		err = appErrors.WrapAs(err, appErrors.ErrConnectionFailed, "connect to database")
		recorder.Failure(service.JobMigrate, appErrors.ErrConnectionFailed.Code)
		logr.Error("cannot connect to database", appErrors.Describe(err)...)
		return appErrors.ExitCode(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logr.Warn("closing connection failed", zap.Error(err))
			return
		}
		logr.Info("connection closed")
	}()

	repo := repository.NewMigrationRepository(db, cfg.Migrations.Table)
	svc := service.NewMigrationService(repo, migrations, logr, recorder)

	if status {
		statuses, err := svc.Status(ctx)
		if err != nil {
			logr.Error("cannot read migration status", appErrors.Describe(err)...)
			return appErrors.ExitCode(err)
		}
		for _, st := range statuses {
			state := "pending"
			switch {
			case st.Modified():
				state = "modified"
			case !st.Pending():
				state = "applied " + st.Applied.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%s\t%s\n", st.Migration.Label(), state)
		}
		return appErrors.ExitOK
	}

	logr.Info("running migrations", zap.Int("known", len(migrations)), zap.Bool("dry_run", dryRun))
	report, err := svc.Run(ctx, service.RunOptions{DryRun: dryRun})
	if err != nil {
		logr.Error("database initialization failed", appErrors.Describe(err)...)
		return appErrors.ExitCode(err)
	}

	if dryRun {
		for _, label := range report.Pending {
			fmt.Println(label)
		}
		return appErrors.ExitOK
	}
	logr.Info("database initialized", zap.String("run_id", report.RunID), zap.Int("applied", len(report.Applied)))
	return appErrors.ExitOK
}

func pushMetrics(cfg *config.Config, logr *zap.Logger, recorder *metrics.Recorder) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := recorder.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, map[string]string{"command": service.JobMigrate}); err != nil {
		logr.Warn("pushing metrics failed", zap.Error(err))
	}
}
