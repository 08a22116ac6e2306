package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/ai"
	httptransport "github.com/goldenticket/goldenticket/internal/api/http"
	"github.com/goldenticket/goldenticket/internal/api/http/handlers"
	"github.com/goldenticket/goldenticket/internal/api/ws"
	"github.com/goldenticket/goldenticket/internal/auth"
	"github.com/goldenticket/goldenticket/internal/config"
	"github.com/goldenticket/goldenticket/internal/domain"
	"github.com/goldenticket/goldenticket/internal/observability"
	"github.com/goldenticket/goldenticket/internal/persistence"
	"github.com/goldenticket/goldenticket/internal/presence"
	"github.com/goldenticket/goldenticket/internal/realtime"
	"github.com/goldenticket/goldenticket/internal/repository"
	"github.com/goldenticket/goldenticket/internal/service"
	"github.com/goldenticket/goldenticket/internal/worker"
)

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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	chatroomRepo := repository.NewChatroomRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	tagRepo := repository.NewTagRepository(pool)
	faqRepo := repository.NewFAQRepository(pool)

	// The AI agent identity must exist before its first reply is
	// persisted with a sender foreign key.
	if err := userRepo.Upsert(ctx, &domain.User{
		ID:   cfg.Chat.AgentUserID,
		Name: "Golden Agent",
		Role: domain.RoleAgent,
	}); err != nil {
		logger.Fatal("failed to seed agent identity", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	registry := presence.NewRegistry()

	// The gateway is the dispatcher's sender, and the services the
	// gateway routes to need the dispatcher, so services bind last.
	gateway := ws.NewGateway(logger, metrics)
	dispatcher := realtime.NewDispatcher(registry, userRepo, gateway, logger, metrics)

	chatService := service.NewChatService(service.ChatDependencies{
		ChatroomRepo:     chatroomRepo,
		MessageRepo:      messageRepo,
		UserRepo:         userRepo,
		Dispatcher:       dispatcher,
		Logger:           logger,
		MaxOpenChatrooms: cfg.Chat.MaxOpenChatrooms,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		ChatroomRepo: chatroomRepo,
		UserRepo:     userRepo,
		Chat:         chatService,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	triageService := service.NewTriageService(service.TriageDependencies{
		MessageRepo:  messageRepo,
		ChatroomRepo: chatroomRepo,
		UserRepo:     userRepo,
		Chat:         chatService,
		Tickets:      ticketService,
		Assistant:    ai.NewClient(cfg.AI, logger),
		Dispatcher:   dispatcher,
		Logger:       logger,
		AgentUserID:  cfg.Chat.AgentUserID,
	})
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		TagRepo:    tagRepo,
		FAQRepo:    faqRepo,
		Cache:      redis,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	sessionService := service.NewSessionService(service.SessionDependencies{
		Registry:     registry,
		ChatroomRepo: chatroomRepo,
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		Catalog:      catalogService,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	gateway.BindServices(ws.Services{
		Session: sessionService,
		Chat:    chatService,
		Triage:  triageService,
		Tickets: ticketService,
		Catalog: catalogService,
	})

	var tokens *auth.TokenManager
	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	} else {
		logger.Warn("AUTH_JWT_SECRET unset, websocket identity is unverified")
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, registry),
		Gateway:   gateway,
		Handshake: auth.NewHandshakeGuard(tokens),
	})

	go worker.NewStatsReporter(registry, metrics, logger, time.Minute).Run(ctx)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
