package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/adapters/database"
	"github.com/zatekoja/careline/internal/adapters/events"
	"github.com/zatekoja/careline/internal/application/agent"
	"github.com/zatekoja/careline/internal/application/membercache"
	"github.com/zatekoja/careline/internal/application/services"
	"github.com/zatekoja/careline/internal/application/tools"
	"github.com/zatekoja/careline/internal/evaluation"
	"github.com/zatekoja/careline/internal/infrastructure/clients/llm"
	"github.com/zatekoja/careline/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	"github.com/zatekoja/careline/pkg/config"
)

// Replays golden conversations against a seeded database and the configured
// language model, then prints the summary as JSON.
func main() {
	goldenPath := flag.String("golden", "config/golden_conversations.json", "golden conversation file")
	minPassRate := flag.Float64("min-pass-rate", 0, "exit non-zero below this pass rate")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-evaluate", cfg.Logging.Environment, cfg.Logging.Level)

	conversations, err := evaluation.LoadGoldenConversations(*goldenPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load golden conversations")
	}
	if err := evaluation.ValidateGoldenConversations(conversations); err != nil {
		log.Fatal().Err(err).Msg("invalid golden conversations")
	}

	ctx := context.Background()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	model, closeModel, err := llm.NewProvider(ctx, cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize language model")
	}
	defer closeModel()

	// Evaluation writes (bookings, escalations) stay local to this process.
	eventBus := events.NewMemoryEventBus()
	defer eventBus.Close()
	instanceID := uuid.NewString()

	memberAdapter := database.NewMemberAdapter(pgClient, nil)
	appointmentAdapter := database.NewAppointmentAdapter(pgClient, nil)
	memberCache := membercache.New(memberAdapter, appointmentAdapter, nil)
	appointmentService := services.NewAppointmentService(appointmentAdapter, memberCache, eventBus, instanceID)

	registry := tools.NewRegistry(nil,
		tools.NewMemberInfoTool(memberCache),
		tools.NewProviderInfoTool(database.NewProviderAdapter(pgClient, nil)),
		tools.NewScheduleTool(appointmentService),
		tools.NewCancelTool(appointmentService),
		tools.NewEscalationTool(services.NewEscalationService(database.NewEscalationAdapter(pgClient, nil), eventBus, instanceID)),
		tools.NewInstructionTool(services.NewInstructionService(model, memberAdapter, memberCache, eventBus, instanceID)),
	)

	location, err := cfg.Agent.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid agent timezone")
	}
	orchestrator := agent.NewOrchestrator(model, registry, memberCache, agent.Options{
		MaxIterations: cfg.Agent.MaxIterations,
		Organization:  cfg.Agent.Organization,
		Location:      location,
	}, nil)

	runner := evaluation.NewRunner(orchestrator, nil)
	summary, err := runner.Run(ctx, conversations)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	if summary.PassRate < *minPassRate {
		log.Error().Float64("pass_rate", summary.PassRate).Float64("min_pass_rate", *minPassRate).Msg("pass rate below threshold")
		os.Exit(1)
	}
}
