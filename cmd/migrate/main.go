package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	"github.com/zatekoja/careline/pkg/config"
)

const usage = "usage: migrate [up|down|status]"

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-migrate", cfg.Logging.Environment, cfg.Logging.Level)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if err := run(context.Background(), pgClient, command); err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}
	log.Info().Str("command", command).Msg("migration finished")
}

func run(ctx context.Context, pgClient *postgres.Client, command string) error {
	switch command {
	case "up":
		return pgClient.Migrate(ctx)
	case "down":
		return pgClient.Rollback(ctx)
	case "status":
		return pgClient.MigrationStatus(ctx)
	default:
		return fmt.Errorf("unknown command %q; %s", command, usage)
	}
}
