package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/adapters/cache"
	"github.com/zatekoja/careline/internal/adapters/database"
	"github.com/zatekoja/careline/internal/adapters/events"
	"github.com/zatekoja/careline/internal/api/handlers"
	"github.com/zatekoja/careline/internal/api/routes"
	"github.com/zatekoja/careline/internal/application/agent"
	"github.com/zatekoja/careline/internal/application/membercache"
	"github.com/zatekoja/careline/internal/application/services"
	"github.com/zatekoja/careline/internal/application/tools"
	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/internal/domain/repositories"
	"github.com/zatekoja/careline/internal/infrastructure/clients/llm"
	"github.com/zatekoja/careline/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/careline/internal/infrastructure/clients/redis"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	"github.com/zatekoja/careline/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Logging.Environment, cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if cfg.Database.AutoMigrate {
		if err := pgClient.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	// Redis carries cache invalidation between replicas; a single replica
	// runs fine on the in-process bus.
	var eventBus providers.EventBus
	var sharedCache providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, falling back to in-process event bus")
		} else {
			defer redisClient.Close()
			eventBus = events.NewRedisEventBus(redisClient)
			sharedCache = cache.NewRedisAdapter(redisClient)
		}
	}
	if eventBus == nil {
		eventBus = events.NewMemoryEventBus()
	}

	instanceID := uuid.NewString()

	// Initialize adapters
	memberAdapter := database.NewMemberAdapter(pgClient, metrics)
	var providerAdapter repositories.ProviderRepository = database.NewProviderAdapter(pgClient, metrics)
	if sharedCache != nil {
		providerAdapter = database.NewCachedProviderAdapter(providerAdapter, sharedCache, metrics)
	}
	escalationAdapter := database.NewEscalationAdapter(pgClient, metrics)
	appointmentAdapter := database.NewAppointmentAdapter(pgClient, metrics)

	memberCache := membercache.New(memberAdapter, appointmentAdapter, metrics)

	model, closeModel, err := llm.NewProvider(ctx, cfg, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize language model")
	}
	defer closeModel()
	log.Info().Str("provider", model.Name()).Msg("language model initialized")

	// Initialize services
	appointmentService := services.NewAppointmentService(appointmentAdapter, memberCache, eventBus, instanceID)
	escalationService := services.NewEscalationService(escalationAdapter, eventBus, instanceID)
	instructionService := services.NewInstructionService(model, memberAdapter, memberCache, eventBus, instanceID)

	cacheInvalidationService := services.NewCacheInvalidationService(memberCache, eventBus, instanceID)
	if err := cacheInvalidationService.Start(); err != nil {
		log.Warn().Err(err).Msg("failed to start cache invalidation service")
	}

	registry := tools.NewRegistry(metrics,
		tools.NewMemberInfoTool(memberCache),
		tools.NewProviderInfoTool(providerAdapter),
		tools.NewScheduleTool(appointmentService),
		tools.NewCancelTool(appointmentService),
		tools.NewEscalationTool(escalationService),
		tools.NewInstructionTool(instructionService),
	)

	location, err := cfg.Agent.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid agent timezone")
	}

	orchestrator := agent.NewOrchestrator(model, registry, memberCache, agent.Options{
		MaxIterations: cfg.Agent.MaxIterations,
		Organization:  cfg.Agent.Organization,
		Location:      location,
	}, metrics)
	turnService := agent.NewTurnService(orchestrator, cfg.Agent.TurnTimeout, metrics)

	// Initialize handlers
	turnHandler := handlers.NewTurnHandler(turnService)
	callHandler := handlers.NewCallHandler(turnService, cfg.Agent.Greeting)

	router := routes.NewRouter(turnHandler, callHandler, cfg.Server.AllowedOrigins, metrics)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Strs("tools", registry.Names()).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	cacheInvalidationService.Stop()
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	log.Info().Msg("server stopped")
}
