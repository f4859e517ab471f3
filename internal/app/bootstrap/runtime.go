package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"

	cacheadapter "github.com/viralforge/storefront/internal/adapters/cache"
	emailadapter "github.com/viralforge/storefront/internal/adapters/email"
	eventadapter "github.com/viralforge/storefront/internal/adapters/events"
	grpcadapter "github.com/viralforge/storefront/internal/adapters/grpc"
	httpadapter "github.com/viralforge/storefront/internal/adapters/http"
	"github.com/viralforge/storefront/internal/adapters/payments"
	"github.com/viralforge/storefront/internal/adapters/postgres"
	"github.com/viralforge/storefront/internal/adapters/storage"
	"github.com/viralforge/storefront/internal/application"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	outbox     *eventadapter.EmailDispatcher
	sweeper    *eventadapter.ExpirySweepWorker
	cleanupFn  func(context.Context)
}

// NewLogger installs the JSON logger used by every command as the process default.
func NewLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	return logger
}

func NewRuntime(ctx context.Context, cfg Config) (*Runtime, error) {
	if err := cfg.validateServing(); err != nil {
		return nil, err
	}
	logger := NewLogger()
	logger.Info("bootstrapping storefront service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	db, sqlClose, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		sqlClose()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	var limiter ports.RateLimiter
	redisClose := func() {}
	redisPing := func(context.Context) error { return nil }
	if cfg.RedisURL != "" {
		redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			sqlClose()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		limiter = cacheadapter.NewRedisRateLimiter(redisClient)
		redisClose = func() { _ = redisClient.Close() }
		redisPing = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		logger.Warn("REDIS_URL not set, using in-process rate limiter")
		limiter = cacheadapter.NewMemoryRateLimiter()
	}

	closeAll := func() {
		redisClose()
		sqlClose()
	}

	store, err := storage.NewLocalStore(cfg.FilesDir, cfg.AppURL, cfg.FilesSigningKey)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init file store: %w", err)
	}
	stripeProvider, err := payments.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init stripe: %w", err)
	}
	mailer, err := emailadapter.NewMailer(cfg.ResendAPIKey, cfg.EmailFrom, logger)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	repos := postgres.NewRepositories(db)
	svc := application.NewService(application.Dependencies{
		Config:        cfg.serviceConfig(),
		Products:      repos.Products,
		Purchases:     repos.Purchases,
		Downloads:     repos.Downloads,
		LoginTokens:   repos.LoginTokens,
		Sessions:      repos.Sessions,
		Newsletter:    repos.Newsletter,
		Contacts:      repos.Contacts,
		WebhookEvents: repos.WebhookEvents,
		Outbox:        repos.Outbox,
		RateLimiter:   limiter,
		Payments:      stripeProvider,
		Objects:       store,
	})

	handler := httpadapter.NewHandler(svc, httpadapter.CookieConfig{
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
		MaxAge: svc.SessionTTL(),
	})
	router := httpadapter.NewRouter(handler, httpadapter.RouterConfig{
		Files:             storage.FileHandler(store, logger),
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		Ready: func(ctx context.Context) error {
			if err := postgres.Ping(ctx, db); err != nil {
				return err
			}
			return redisPing(ctx)
		},
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewStorefrontInternalServer(svc))

	outbox := eventadapter.NewEmailDispatcher(logger, repos.Outbox, eventadapter.NewEmailPublisher(logger, mailer), eventadapter.EmailDispatcherConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		ClaimTTL:     cfg.OutboxClaimTTL,
		MaxAttempts:  cfg.OutboxMaxRetries,
	})
	sweeper := eventadapter.NewExpirySweepWorker(logger, svc, cfg.ExpirySweepInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		outbox:     outbox,
		sweeper:    sweeper,
		cleanupFn: func(context.Context) {
			closeAll()
		},
	}, nil
}

func (c Config) serviceConfig() application.Config {
	return application.Config{
		AppURL:              c.AppURL,
		MaxDownloads:        c.MaxDownloads,
		PurchaseTTL:         c.PurchaseTTL,
		LoginTokenTTL:       c.LoginTokenTTL,
		SessionTTL:          c.SessionTTL,
		SignedURLTTL:        c.SignedURLTTL,
		ContactInbox:        c.ContactInbox,
		LoginRateLimit:      application.RateLimitRule{Limit: c.LoginRateLimit, Window: c.LoginRateWindow},
		ContactRateLimit:    application.RateLimitRule{Limit: c.ContactRateLimit, Window: c.ContactRateWindow},
		NewsletterRateLimit: application.RateLimitRule{Limit: c.NewsletterRateLimit, Window: c.NewsletterRateWindow},
	}
}

// RunAPI serves HTTP and gRPC until a signal arrives. Workers run alongside when WorkersInline is set.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.cleanupFn(ctx)
		return fmt.Errorf("listen gRPC: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", lis.Addr().String())
		if err := r.grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	var workers sync.WaitGroup
	if r.cfg.WorkersInline {
		r.startWorkers(workerCtx, &workers)
	}

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	cancelWorkers()
	workers.Wait()
	r.cleanupFn(shutdownCtx)
	return runErr
}

// RunWorker runs the outbox and expiry workers without serving traffic.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var workers sync.WaitGroup
	r.startWorkers(ctx, &workers)
	<-ctx.Done()
	workers.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) startWorkers(ctx context.Context, wg *sync.WaitGroup) {
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.logger.Info("worker started", "worker", name)
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("worker stopped", "worker", name, "error", err)
			}
		}()
	}
	run("outbox", r.outbox.Run)
	run("expiry_sweep", r.sweeper.Run)
}

// Migrate applies the embedded schema and exits.
func Migrate(ctx context.Context, cfg Config) error {
	NewLogger()
	db, closeFn, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return postgres.RunMigrations(ctx, db)
}

// SeedProducts upserts the default catalog and returns the stored rows.
func SeedProducts(ctx context.Context, cfg Config) ([]domain.Product, error) {
	NewLogger()
	db, closeFn, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	if err := postgres.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	repos := postgres.NewRepositories(db)
	svc := application.NewService(application.Dependencies{
		Config:   cfg.serviceConfig(),
		Products: repos.Products,
	})
	return svc.SeedProducts(ctx)
}

func openDatabase(ctx context.Context, cfg Config) (*gorm.DB, func(), error) {
	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("gorm sql db: %w", err)
	}
	return db, func() { _ = sqlDB.Close() }, nil
}
