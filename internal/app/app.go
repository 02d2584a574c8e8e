// Package app builds the long-lived services of the watcher from configuration
// and runs them.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/league-watcher/internal/api"
	"github.com/JakeFAU/league-watcher/internal/clock/system"
	"github.com/JakeFAU/league-watcher/internal/config"
	collyfetcher "github.com/JakeFAU/league-watcher/internal/fetcher/colly"
	"github.com/JakeFAU/league-watcher/internal/fetcher/retry"
	"github.com/JakeFAU/league-watcher/internal/id/uuid"
	"github.com/JakeFAU/league-watcher/internal/league"
	"github.com/JakeFAU/league-watcher/internal/logging"
	"github.com/JakeFAU/league-watcher/internal/metrics"
	"github.com/JakeFAU/league-watcher/internal/notifier"
	"github.com/JakeFAU/league-watcher/internal/notifier/console"
	pubsubnotifier "github.com/JakeFAU/league-watcher/internal/notifier/pubsub"
	"github.com/JakeFAU/league-watcher/internal/notifier/telegram"
	gcppublisher "github.com/JakeFAU/league-watcher/internal/publisher/pubsub"
	"github.com/JakeFAU/league-watcher/internal/scheduler"
	"github.com/JakeFAU/league-watcher/internal/storage"
	gcsstorage "github.com/JakeFAU/league-watcher/internal/storage/gcs"
	localstorage "github.com/JakeFAU/league-watcher/internal/storage/local"
	memorystorage "github.com/JakeFAU/league-watcher/internal/storage/memory"
	pgstore "github.com/JakeFAU/league-watcher/internal/storage/postgres"
	"github.com/JakeFAU/league-watcher/internal/watcher"
)

// Mode selects which services Build wires.
type Mode int

const (
	// ModeCheck runs a single console cycle. No chat bot, no ops server.
	ModeCheck Mode = iota
	// ModeWatch runs the scheduler, the chat bot, and the ops server.
	ModeWatch
)

// Option customizes Build.
type Option func(*options)

type options struct {
	logger *zap.Logger
	stdout io.Writer
}

// WithLogger uses logger instead of building one from configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStdout redirects console announcements.
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// App contains the application's dependencies.
type App struct {
	cfg    config.Config
	mode   Mode
	logger *zap.Logger
	clock  *system.Clock

	watcher   *watcher.Watcher
	scheduler *scheduler.Runner
	apiServer *api.Server
	telegram  *telegram.Notifier

	pubsubClient    *pubsub.Client
	pubsubPublisher *gcppublisher.Publisher
	storageClient   *gcstorage.Client
	snapshots       *pgstore.SnapshotStore
}

// Build creates the application's dependencies. On error every service that
// was already opened is closed.
func Build(ctx context.Context, cfg config.Config, mode Mode, opts ...Option) (*App, error) {
	o := options{stdout: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(cfg.Logging.Development)
		if err != nil {
			return nil, fmt.Errorf("logger init failed: %w", err)
		}
		zap.ReplaceGlobals(logger)
	}

	a := &App{
		cfg:    cfg,
		mode:   mode,
		logger: logger,
		clock:  system.New(),
	}
	a.logger.Info("building application dependencies",
		zap.String("store", cfg.Store.Driver),
		zap.String("play_level", cfg.League.PlayLevel),
		zap.String("day", cfg.League.Day),
		zap.Bool("watch", mode == ModeWatch),
	)

	if err := a.build(ctx, o); err != nil {
		_ = a.Close(context.Background()) //nolint:errcheck // Close only logs
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, o options) error {
	recorder := metrics.NewRecorder()

	store, err := a.setupStore(ctx)
	if err != nil {
		return err
	}
	notify, err := a.setupNotifiers(ctx, o.stdout)
	if err != nil {
		return err
	}

	client := collyfetcher.New(collyfetcher.Config{
		APIBaseURL: a.cfg.League.APIBaseURL,
		SportCode:  a.cfg.League.SportCode,
		Status:     a.cfg.League.Status,
		PageSize:   a.cfg.League.PageSize,
		Location:   a.cfg.Location(),
		UserAgent:  a.cfg.HTTP.UserAgent,
		Timeout:    a.cfg.RequestTimeout(),
	}, a.clock, a.logger)
	fetcher := retry.New(
		client,
		retry.NewExponentialPolicy(a.cfg.HTTP.MaxAttempts, a.cfg.RetryBackoff()),
		a.clock,
		recorder,
		a.logger,
	)

	a.watcher, err = watcher.New(watcher.Deps{
		Fetcher:  fetcher,
		Store:    store,
		Notifier: notify,
		Clock:    a.clock,
		IDs:      uuid.New(),
		Observer: recorder,
	}, watcher.Config{
		SignupBaseURL: a.cfg.League.SignupBaseURL,
		Criteria:      a.cfg.Criteria(),
		OpenStatus:    a.cfg.League.Status,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("watcher init failed: %w", err)
	}

	if a.mode != ModeWatch {
		return nil
	}
	a.scheduler, err = scheduler.New(scheduler.Config{
		Interval: a.cfg.Scheduler.Interval,
		Cron:     a.cfg.Scheduler.Cron,
		Warmup:   a.cfg.Scheduler.Warmup,
		Location: a.cfg.Location(),
	}, a.clock, a.logger)
	if err != nil {
		return fmt.Errorf("scheduler init failed: %w", err)
	}
	if a.cfg.Server.Enabled {
		a.apiServer = api.NewServer(a.watcher, a.ready, api.Config{
			AuthEnabled: a.cfg.Auth.Enabled,
			APIKey:      a.cfg.Auth.APIKey,
		}, a.logger)
	}
	return nil
}

func (a *App) setupStore(ctx context.Context) (league.ResultStore, error) {
	var blobs storage.BlobStore
	var err error
	switch a.cfg.Store.Driver {
	case config.StorePostgres:
		a.snapshots, err = pgstore.NewSnapshotStore(ctx, pgstore.Config{
			DSN:      a.cfg.DB.DSN,
			Table:    a.cfg.DB.Table,
			Key:      a.cfg.Store.ObjectName,
			MaxConns: a.cfg.DB.MaxConns,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("snapshot store init failed: %w", err)
		}
		a.logger.Info("using postgres result store", zap.String("table", a.cfg.DB.Table))
		return a.snapshots, nil
	case config.StoreGCS:
		a.storageClient, err = gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		blobs, err = gcsstorage.New(a.storageClient, gcsstorage.Config{Bucket: a.cfg.Store.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		a.logger.Info("using GCS result store", zap.String("bucket", a.cfg.Store.GCSBucket))
	case config.StoreMemory:
		a.logger.Info("using in-memory result store")
		blobs = memorystorage.NewBlobStore()
	default:
		blobs, err = localstorage.New(localstorage.Config{BaseDir: a.cfg.Store.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		a.logger.Info("using local result store", zap.String("path", a.cfg.Store.BaseDir))
	}
	store, err := storage.NewResultStore(blobs, a.cfg.Store.ObjectName, a.logger)
	if err != nil {
		return nil, fmt.Errorf("result store init failed: %w", err)
	}
	return store, nil
}

func (a *App) setupNotifiers(ctx context.Context, stdout io.Writer) (*notifier.Multi, error) {
	var targets []notifier.Named
	if a.cfg.Notifier.Console || a.mode == ModeCheck {
		targets = append(targets, notifier.Named{Name: "console", Notifier: console.New(stdout)})
	}
	if a.mode == ModeWatch && a.cfg.Telegram.Enabled {
		var err error
		a.telegram, err = telegram.New(telegram.Config{
			Token:       a.cfg.Telegram.Token,
			ChatID:      a.cfg.Telegram.ChatID,
			ThreadID:    a.cfg.Telegram.ThreadID,
			PollTimeout: time.Duration(a.cfg.Telegram.PollTimeoutSeconds) * time.Second,
			RatePerSec:  a.cfg.Telegram.RatePerSec,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("telegram init failed: %w", err)
		}
		targets = append(targets, notifier.Named{Name: "telegram", Notifier: a.telegram})
	}
	if a.cfg.PubSub.ProjectID != "" && a.cfg.PubSub.TopicName != "" {
		var err error
		a.pubsubClient, err = pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client init failed: %w", err)
		}
		a.pubsubPublisher = gcppublisher.New(a.pubsubClient.Topic(a.cfg.PubSub.TopicName))
		a.logger.Info("Pub/Sub publisher initialized",
			zap.String("project", a.cfg.PubSub.ProjectID),
			zap.String("topic", a.cfg.PubSub.TopicName),
		)
		targets = append(targets, notifier.Named{
			Name:     "pubsub",
			Notifier: pubsubnotifier.New(a.pubsubPublisher, a.clock, a.logger),
		})
	}
	if len(targets) == 0 {
		a.logger.Warn("no notifiers configured; open leagues will only be persisted")
	}
	return notifier.NewMulti(a.logger, targets...), nil
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Watcher returns the cycle runner.
func (a *App) Watcher() *watcher.Watcher { return a.watcher }

// Handler returns the ops HTTP handler, or nil when the server is disabled.
func (a *App) Handler() http.Handler {
	if a.apiServer == nil {
		return nil
	}
	return a.apiServer.Handler()
}

func (a *App) ready() bool {
	if a.telegram == nil {
		return true
	}
	select {
	case <-a.telegram.Ready():
		return true
	default:
		return false
	}
}

// Check runs one cycle and returns its report.
func (a *App) Check(ctx context.Context) (watcher.Report, error) {
	rep, err := a.watcher.RunCycle(ctx)
	if err != nil {
		return rep, fmt.Errorf("run cycle: %w", err)
	}
	return rep, nil
}

// Run starts the chat bot, the ops server, and the scheduler, and blocks until
// the context is canceled, a signal arrives, or the chat connection ends.
func (a *App) Run(ctx context.Context) error {
	if a.scheduler == nil {
		return errors.New("app was not built for watch mode")
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ready <-chan struct{}
	if a.telegram != nil {
		a.telegram.Start(ctx)
		ready = a.telegram.Ready()
		go func() {
			select {
			case <-a.telegram.Done():
				a.logger.Info("chat connection closed")
				stop()
			case <-ctx.Done():
			}
		}()
	}

	var srv *http.Server
	if a.apiServer != nil {
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
			Handler:           a.apiServer.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("http server error", zap.Error(err))
				stop()
			}
		}()
	}

	a.logger.Info("application started")
	err := a.scheduler.Run(ctx, ready, func(ctx context.Context) {
		// Failures are already logged and counted by the watcher.
		_, _ = a.watcher.RunCycle(ctx) //nolint:errcheck // next cycle retries
	})
	a.logger.Info("shutdown initiated")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			a.logger.Error("server shutdown error", zap.Error(serr))
		}
	}
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}

// Close gracefully shuts down the application.
func (a *App) Close(_ context.Context) error {
	if a.telegram != nil {
		a.telegram.Stop()
	}
	if a.pubsubPublisher != nil {
		a.pubsubPublisher.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.storageClient != nil {
		if err := a.storageClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.snapshots != nil {
		a.snapshots.Close()
	}
	a.logger.Info("shutdown complete")
	_ = a.logger.Sync() //nolint:errcheck // stderr sync fails on some terminals
	return nil
}
