package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"clippost-server/services/assistant-api/internal/config"
	"clippost-server/services/assistant-api/internal/domain/chat"
	"clippost-server/services/assistant-api/internal/domain/confirmation"
	"clippost-server/services/assistant-api/internal/domain/conversation"
	"clippost-server/services/assistant-api/internal/domain/credential"
	"clippost-server/services/assistant-api/internal/domain/tool"
	"clippost-server/services/assistant-api/internal/infrastructure/auth"
	"clippost-server/services/assistant-api/internal/infrastructure/database"
	"clippost-server/services/assistant-api/internal/infrastructure/llmprovider"
	"clippost-server/services/assistant-api/internal/infrastructure/logger"
	"clippost-server/services/assistant-api/internal/infrastructure/notifier"
	"clippost-server/services/assistant-api/internal/infrastructure/observability"
	catalogrepo "clippost-server/services/assistant-api/internal/infrastructure/repository/catalog"
	confirmationrepo "clippost-server/services/assistant-api/internal/infrastructure/repository/confirmation"
	conversationrepo "clippost-server/services/assistant-api/internal/infrastructure/repository/conversation"
	credentialrepo "clippost-server/services/assistant-api/internal/infrastructure/repository/credential"
	"clippost-server/services/assistant-api/internal/interfaces/httpserver"
	"clippost-server/services/assistant-api/internal/interfaces/httpserver/handlers"
)

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	conversationRepository := conversationrepo.NewRepository(db)
	catalogRepository := catalogrepo.NewRepository(db)
	confirmationRepository := confirmationrepo.NewRepository(db)
	credentialRepository := credentialrepo.NewRepository(db)
	transactor := database.NewTransactor(db)

	postNotifier := notifier.NewWebhook(cfg.NotifyWebhookURL, cfg.NotifyTimeout, log)
	broker := confirmation.NewBroker(
		confirmationRepository,
		catalogRepository,
		transactor,
		postNotifier,
		cfg.ConfirmationTTL,
		log,
	)

	toolRegistry := tool.NewRegistry()
	toolExecutor := tool.NewExecutor(catalogRepository, broker, log)

	conversationService := conversation.NewService(conversationRepository)
	credentialService := credential.NewService(credentialRepository, cfg.CredentialSecret)
	adapterRegistry := llmprovider.NewRegistry(cfg)
	log.Info().Strs("providers", adapterRegistry.IDs()).Msg("provider adapters registered")

	chatService := chat.NewService(
		conversationService,
		credentialService,
		adapterRegistry,
		toolRegistry,
		toolExecutor,
		chat.Options{
			MaxToolRounds:   cfg.MaxToolRounds,
			ChunkSize:       cfg.StreamChunkSize,
			DefaultProvider: cfg.DefaultProvider,
		},
		log,
	)

	handlerProvider := handlers.NewProvider(
		chatService,
		broker,
		conversationService,
		credentialService,
		adapterRegistry,
		log,
	)

	httpServer := httpserver.New(cfg, log, handlerProvider, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
