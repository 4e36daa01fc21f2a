package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/moddy-app/moddysystems/internal/api/http"
	"github.com/moddy-app/moddysystems/internal/api/http/handlers"
	"github.com/moddy-app/moddysystems/internal/bot"
	"github.com/moddy-app/moddysystems/internal/config"
	"github.com/moddy-app/moddysystems/internal/events"
	"github.com/moddy-app/moddysystems/internal/flow"
	"github.com/moddy-app/moddysystems/internal/observability"
	"github.com/moddy-app/moddysystems/internal/permission"
	"github.com/moddy-app/moddysystems/internal/persistence"
	discordplatform "github.com/moddy-app/moddysystems/internal/platform/discord"
	"github.com/moddy-app/moddysystems/internal/repository"
	"github.com/moddy-app/moddysystems/internal/service"
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

	moddyPG, err := persistence.NewPostgres(ctx, "moddy", cfg.Moddy, logger)
	if err != nil {
		logger.Fatal("failed to connect moddy postgres", zap.Error(err))
	}
	defer moddyPG.Close()

	systemsPG, err := persistence.NewPostgres(ctx, "systems", cfg.Systems, logger)
	if err != nil {
		logger.Fatal("failed to connect systems postgres", zap.Error(err))
	}
	defer systemsPG.Close()

	if err := systemsPG.EnsureTicketsTable(ctx, logger); err != nil {
		logger.Fatal("failed to prepare tickets table", zap.Error(err))
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}
	client := discordplatform.NewClient(session)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(logger, cfg.Notify.WebhookURL).Register(dispatcher)

	ticketRepo := repository.NewTicketRepository(systemsPG.PoolHandle())
	moddyRepo := repository.NewModdyRepository(moddyPG.PoolHandle())
	reportStore := repository.NewFileReportStore(cfg.Status.IncidentsFile)

	ticketSvc := service.NewTicketService(ticketRepo, moddyRepo,
		permission.NewResolver(nil), dispatcher, logger)
	statusSvc := service.NewStatusService(service.StatusDependencies{
		Store:      reportStore,
		Messenger:  client,
		Pinner:     client,
		Dispatcher: dispatcher,
		Logger:     logger,
		ChannelID:  cfg.Status.ChannelID,
	})

	flows := flow.NewStore(redis.Client, cfg.App.FlowIdleTimeout())

	b := bot.New(session, bot.Dependencies{
		Client:  client,
		Config:  cfg,
		Tickets: ticketSvc,
		Status:  statusSvc,
		Flows:   flows,
		Logger:  logger,
	})
	if err := b.Start(ctx); err != nil {
		logger.Fatal("failed to start bot", zap.Error(err))
	}
	defer b.Stop()

	if err := statusSvc.Reconcile(ctx); err != nil {
		logger.Warn("startup reconcile failed", zap.Error(err))
	}
	go refreshLoop(ctx, statusSvc, cfg.App.RefreshInterval())

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, moddyPG, systemsPG, redis),
	})
	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// refreshLoop keeps active incident displays current so relative
// timestamps do not go stale.
func refreshLoop(ctx context.Context, statusSvc *service.StatusService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			statusSvc.RefreshActive(ctx)
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
