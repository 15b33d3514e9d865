package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/statuses"
	"github.com/mrlokans/bookshelf/internal/database/users"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/media"
	"github.com/mrlokans/bookshelf/internal/readonly"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// Background holds the workers that run next to the HTTP server.
// Either field may be nil.
type Background struct {
	Tasks      *tasks.Client
	CoverSweep *scheduler.CoverSweepScheduler
	Limiter    *auth.RateLimiter
}

// Serve runs the server until ctx is cancelled, then shuts everything down
// within the configured timeout.
func Serve(ctx context.Context, router *gin.Engine, cfg *config.Config, bg Background) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Task workers outlive ctx so in-flight jobs can finish during shutdown.
	taskCtx, taskCancel := context.WithCancel(context.Background())
	defer taskCancel()
	if bg.Tasks != nil {
		go bg.Tasks.Start(taskCtx)
	}
	if bg.CoverSweep != nil {
		if err := bg.CoverSweep.Start(ctx); err != nil {
			return fmt.Errorf("start cover sweep scheduler: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server", "timeout", timeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if bg.CoverSweep != nil {
			bg.CoverSweep.Stop()
		}
		if bg.Tasks != nil {
			bg.Tasks.Stop(shutdownCtx)
			taskCancel()
		}
		if bg.Limiter != nil {
			bg.Limiter.Stop()
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		slog.Info("server exiting")
		return nil
	})

	return g.Wait()
}

// Run wires every component from cfg and serves until SIGINT or SIGTERM.
func Run(cfg *config.Config, version string) error {
	slog.Info("starting bookshelf", "version", version)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	statusRepo := statuses.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)

	store, err := media.Open(ctx, cfg.Media, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("initialize media store: %w", err)
	}
	slog.Info("media store ready", "backend", cfg.Media.Backend)

	var bg Background
	var discarder media.Discarder = media.ImmediateDiscarder{Store: store}

	if cfg.Tasks.Enabled {
		bg.Tasks, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("initialize task queue: %w", err)
		}
		defer func() {
			if err := bg.Tasks.Close(); err != nil {
				slog.Error("error closing task client", "error", err)
			}
		}()

		bg.Tasks.Register(
			tasks.NewDeleteCoverQueue(store),
			tasks.NewSweepOrphanCoversQueue(store, bookRepo.CoverKeys, cfg.CoverSweep.MinAge),
		)
		discarder = tasks.NewQueuedDiscarder(bg.Tasks)
	}

	if cfg.CoverSweep.Enabled {
		bg.CoverSweep = scheduler.NewCoverSweepScheduler(cfg.CoverSweep.Schedule, sweepFunc(bg.Tasks, store, bookRepo, cfg.CoverSweep.MinAge))
	}

	// Authentication
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("get SQL DB for sessions: %w", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		return fmt.Errorf("initialize session manager: %w", err)
	}
	csrfSecret, err := resolveSecret(cfg.Auth.SessionSecret)
	if err != nil {
		return err
	}

	limiter, err := newLoginLimiter(ctx, cfg.Auth, &bg)
	if err != nil {
		return err
	}

	var metrics *http_controllers.Metrics
	if cfg.Metrics.Enabled {
		metrics = http_controllers.NewMetrics()
		metrics.RegisterGauge("books", "Books in the catalog.", bookRepo.Count)
	}

	var templates fs.FS
	if cfg.UI.TemplatesPath != "" {
		slog.Info("using templates from disk", "path", cfg.UI.TemplatesPath)
		templates = os.DirFS(cfg.UI.TemplatesPath)
	}

	readOnly := readonly.NewMiddleware(cfg.ReadOnly.Enabled)
	if readOnly.IsEnabled() {
		slog.Warn("read-only mode enabled, write operations will be blocked")
	}

	var sweepStatus http_controllers.SweepStatus
	if bg.CoverSweep != nil {
		sweepStatus = bg.CoverSweep
	}

	router, err := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		Books:          bookRepo,
		Statuses:       statusRepo,
		Users:          userRepo,
		AuthService:    auth.NewService(userRepo, cfg.Auth),
		SessionManager: sessionManager,
		AuthMiddleware: auth.NewMiddleware(userRepo, sessionManager),
		LoginLimiter:   limiter,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Media:          store,
		Discarder:      discarder,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		Templates:      templates,
		ReadOnly:       readOnly,
		WriteRPS:       cfg.HTTP.WriteRPS,
		WriteBurst:     cfg.HTTP.WriteBurst,
		CoverSweep:     sweepStatus,
		Metrics:        metrics,
		Version:        version,
	})
	if err != nil {
		return err
	}

	return Serve(ctx, router, cfg, bg)
}

// sweepFunc queues the sweep when the task queue runs, otherwise sweeps in place.
func sweepFunc(client *tasks.Client, store media.Store, bookRepo *books.Repository, minAge time.Duration) scheduler.SweepFunc {
	if client != nil {
		return func(context.Context) error {
			_, err := client.Add(tasks.SweepOrphanCoversTask{}).Save()
			return err
		}
	}
	return func(ctx context.Context) error {
		_, err := media.Sweep(ctx, store, bookRepo.CoverKeys, media.SweepOptions{MinAge: minAge})
		return err
	}
}

// resolveSecret decodes the configured secret or generates one for this run.
func resolveSecret(configured string) ([]byte, error) {
	if configured != "" {
		secret, err := hex.DecodeString(configured)
		if err != nil {
			// Not hex, use as raw bytes
			secret = []byte(configured)
		}
		return secret, nil
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("generate CSRF secret: %w", err)
	}
	slog.Warn("generated session secret, set AUTH_SESSION_SECRET to keep forms valid across restarts")
	return hex.DecodeString(generated)
}

// newLoginLimiter uses Redis when an address is configured so every
// instance shares the counters. The in-memory limiter is recorded in bg
// so its cleanup loop stops on shutdown.
func newLoginLimiter(ctx context.Context, cfg config.Auth, bg *Background) (auth.LoginLimiter, error) {
	rlCfg := auth.RateLimitConfigFrom(cfg)

	if cfg.RateLimitRedis == "" {
		bg.Limiter = auth.NewRateLimiter(rlCfg)
		return bg.Limiter, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RateLimitRedis})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// The limiter fails open, so a late Redis only delays throttling.
		slog.Warn("redis unreachable at startup", "addr", cfg.RateLimitRedis, "error", err)
	}
	slog.Info("login rate limiter backed by redis", "addr", cfg.RateLimitRedis)
	return auth.NewRedisRateLimiter(client, rlCfg), nil
}
