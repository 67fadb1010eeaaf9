package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/shop-portal/internal/api/http"
	"github.com/spec-kit/shop-portal/internal/api/http/handlers"
	"github.com/spec-kit/shop-portal/internal/auth"
	"github.com/spec-kit/shop-portal/internal/config"
	"github.com/spec-kit/shop-portal/internal/events"
	"github.com/spec-kit/shop-portal/internal/filter"
	"github.com/spec-kit/shop-portal/internal/observability"
	"github.com/spec-kit/shop-portal/internal/persistence"
	"github.com/spec-kit/shop-portal/internal/reference"
	"github.com/spec-kit/shop-portal/internal/repository"
	"github.com/spec-kit/shop-portal/internal/repository/memory"
	"github.com/spec-kit/shop-portal/internal/service"
	"github.com/spec-kit/shop-portal/internal/worker"
)

// repositories is the record store selected by STORE_DRIVER.
type repositories struct {
	orders     repository.OrderRepository
	quotes     repository.QuoteRepository
	tickets    repository.TicketRepository
	audit      repository.AuditRepository
	accounts   repository.AccountRepository
	references repository.ReferenceRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probes := map[string]handlers.Pinger{}
	var repos repositories
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		store := memory.NewStore()
		if cfg.Store.SeedFile != "" {
			if err := seedStore(store, cfg.Store.SeedFile, cfg.Auth.BcryptCost); err != nil {
				logger.Fatal("failed to seed memory store", zap.String("file", cfg.Store.SeedFile), zap.Error(err))
			}
		}
		repos = repositories{
			orders:     store.Orders(),
			quotes:     store.Quotes(),
			tickets:    store.Tickets(),
			audit:      store.Audit(),
			accounts:   store.Accounts(),
			references: store.References(),
		}
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		probes["postgres"] = pg
		pool := pg.Pool
		repos = repositories{
			orders:     repository.NewOrderRepository(pool),
			quotes:     repository.NewQuoteRepository(pool),
			tickets:    repository.NewTicketRepository(pool),
			audit:      repository.NewAuditRepository(pool),
			accounts:   repository.NewAccountRepository(pool),
			references: repository.NewReferenceRepository(pool),
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	if redis != nil {
		defer redis.Close()
		probes["redis"] = redis
	}
	references := reference.NewValidator(repos.references, reference.NewRedisCache(redis.Handle()), cfg.Redis.ReferenceCacheTTL, logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := worker.NewNotificationWorker(logger, 256, nil)
	notifications.Start(ctx)

	auditService := service.NewAuditService(dispatcher, repos.audit)
	auditService.RegisterHandlers()
	service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Logger:     logger,
		Config:     cfg.Notification,
		Queue:      notifications,
		Recipients: repos.accounts,
	}).RegisterHandlers()

	rt := service.Runtime{
		Dispatcher: dispatcher,
		Logger:     logger,
		Limits:     filter.Limits{DefaultPageSize: cfg.Query.DefaultPageSize, MaxPageSize: cfg.Query.MaxPageSize},
	}
	orderService := service.NewOrderService(service.OrderDependencies{OrderRepo: repos.orders, References: references, Runtime: rt})
	quoteService := service.NewQuoteService(service.QuoteDependencies{QuoteRepo: repos.quotes, References: references, Runtime: rt})
	ticketService := service.NewTicketService(service.TicketDependencies{TicketRepo: repos.tickets, References: references, Runtime: rt})
	authService := service.NewAuthService(*cfg, repos.accounts)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.accounts)

	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		worker.RunQuoteExpiry(ctx, quoteService, cfg.Worker.QuoteExpiryInterval, logger)
	}()

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, time.Duration(cfg.App.RequestTimeoutSeconds)*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, probes, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Orders:         handlers.NewOrdersHandler(orderService, auditService),
		Quotes:         handlers.NewQuotesHandler(quoteService, auditService),
		Tickets:        handlers.NewTicketsHandler(ticketService, auditService),
		OrderService:   orderService,
		QuoteService:   quoteService,
		TicketService:  ticketService,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	background.Wait()
	notifications.Wait()
}

func seedStore(store *memory.Store, path string, cost int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return store.LoadSeed(f, func(password string) (string, error) {
		return auth.HashPassword(password, cost)
	})
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
