package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/adapters/database"
	"github.com/zatekoja/careline/internal/adapters/events"
	"github.com/zatekoja/careline/internal/application/membercache"
	"github.com/zatekoja/careline/internal/application/services"
	"github.com/zatekoja/careline/internal/application/tools"
	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/internal/infrastructure/clients/llm"
	"github.com/zatekoja/careline/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/careline/internal/infrastructure/clients/redis"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	"github.com/zatekoja/careline/pkg/config"
)

const instructions = `Member service tools for the call center. Every member-bearing tool ` +
	`takes a phone_number formatted as XXX-XXX-XXXX. Appointment dates use YYYY-MM-DD and times use HH:MM.`

// Exposes the agent's tool set over MCP stdio so other assistants and
// operators can drive the same operations. Logs go to stderr; stdout
// carries the protocol.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-mcp", cfg.Logging.Environment, cfg.Logging.Level)

	ctx := context.Background()

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Publishing to Redis keeps api replicas' member caches in step with
	// changes made here.
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, member changes will not reach api replicas")
		} else {
			defer redisClient.Close()
			eventBus = events.NewRedisEventBus(redisClient)
		}
	}
	if eventBus == nil {
		eventBus = events.NewMemoryEventBus()
	}
	defer eventBus.Close()

	instanceID := uuid.NewString()

	memberAdapter := database.NewMemberAdapter(pgClient, metrics)
	appointmentAdapter := database.NewAppointmentAdapter(pgClient, metrics)
	memberCache := membercache.New(memberAdapter, appointmentAdapter, metrics)

	model, closeModel, err := llm.NewProvider(ctx, cfg, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize language model")
	}
	defer closeModel()

	appointmentService := services.NewAppointmentService(appointmentAdapter, memberCache, eventBus, instanceID)

	registry := tools.NewRegistry(metrics,
		tools.NewMemberInfoTool(memberCache),
		tools.NewProviderInfoTool(database.NewProviderAdapter(pgClient, metrics)),
		tools.NewScheduleTool(appointmentService),
		tools.NewCancelTool(appointmentService),
		tools.NewEscalationTool(services.NewEscalationService(database.NewEscalationAdapter(pgClient, metrics), eventBus, instanceID)),
		tools.NewInstructionTool(services.NewInstructionService(model, memberAdapter, memberCache, eventBus, instanceID)),
	)

	s := server.NewMCPServer("careline", cfg.OTEL.ServiceVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	registry.Register(s)

	log.Info().Strs("tools", registry.Names()).Msg("serving MCP over stdio")
	if err := server.ServeStdio(s); err != nil {
		log.Error().Err(err).Msg("MCP server stopped")
	}
}
