package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/repository"
	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/service"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/config"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/database"
	appErrors "github.com/DefinetlyNotAI/WESMUN-NFC/pkg/errors"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/export"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/logger"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/metrics"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/storage"
)

type options struct {
	format string
	out    string
	verify bool
}

func main() {
	var opts options
	flag.StringVar(&opts.format, "format", export.FormatText, "Output format: text, csv or pdf")
	flag.StringVar(&opts.out, "out", "", "Report file name for csv/pdf output, relative to REPORTS_STORAGE_DIR")
	flag.BoolVar(&opts.verify, "verify", false, "Fail when an expected table is missing")
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
	code := run(ctx, cfg, logr, opts)
	stop()
	_ = logr.Sync()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger, opts options) int {
	renderer, err := export.New(strings.ToLower(opts.format))
	if err != nil {
		err = appErrors.WrapAs(err, appErrors.ErrConfigInvalid, "select output format")
		logr.Error("invalid output format", appErrors.Describe(err)...)
		return appErrors.ExitCode(err)
	}

	recorder := metrics.NewRecorder()
	defer pushMetrics(cfg, logr, recorder)

	logr.Info("connecting to database", zap.String("driver", cfg.Database.Driver))
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		err = appErrors.WrapAs(err, appErrors.ErrConnectionFailed, "connect to database")
		recorder.Failure(service.JobInventory, appErrors.ErrConnectionFailed.Code)
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

	var exclude []string
	if !cfg.Inventory.IncludeTracking {
		exclude = append(exclude, cfg.Migrations.Table)
	}
	svc := service.NewInventoryService(repository.NewCatalogRepository(db), logr, recorder, service.InventoryServiceConfig{
		Schema:        cfg.Inventory.Schema,
		ExcludeTables: exclude,
	})

	inv, err := svc.Report(ctx)
	if err != nil {
		logr.Error("inventory failed", appErrors.Describe(err)...)
		return appErrors.ExitCode(err)
	}

	if err := write(cfg, logr, renderer, opts, export.InventoryDataset(inv)); err != nil {
		err = appErrors.WrapAs(err, appErrors.ErrExportFailed, "write inventory report")
		logr.Error("cannot write report", appErrors.Describe(err)...)
		return appErrors.ExitCode(err)
	}

	if opts.verify {
		if missing := svc.Verify(inv); len(missing) > 0 {
			err := appErrors.Clone(appErrors.ErrInventoryFailed, "missing tables: "+strings.Join(missing, ", "))
			logr.Error("schema incomplete", zap.Strings("missing", missing))
			return appErrors.ExitCode(err)
		}
	}
	return appErrors.ExitOK
}

func write(cfg *config.Config, logr *zap.Logger, renderer export.Renderer, opts options, data export.Dataset) error {
	body, err := renderer.Render(data)
	if err != nil {
		return err
	}
	if _, ok := renderer.(*export.TextExporter); ok && opts.out == "" {
		_, err = os.Stdout.Write(body)
		return err
	}

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return err
	}
	name := opts.out
	if name == "" {
		name = fmt.Sprintf("inventory_%s.%s", time.Now().UTC().Format("20060102T150405Z"), renderer.Extension())
	}
	path, err := store.Save(name, body)
	if err != nil {
		return err
	}
	logr.Info("report written", zap.String("path", path), zap.Int("bytes", len(body)))
	return nil
}

func pushMetrics(cfg *config.Config, logr *zap.Logger, recorder *metrics.Recorder) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := recorder.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, map[string]string{"command": service.JobInventory}); err != nil {
		logr.Warn("pushing metrics failed", zap.Error(err))
	}
}
