package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/repositories"
	"github.com/zatekoja/careline/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

// EscalationAdapter implements the EscalationRepository interface
type EscalationAdapter struct {
	client  *postgres.Client
	metrics *observability.Metrics
}

// NewEscalationAdapter creates a new escalation adapter
func NewEscalationAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.EscalationRepository {
	return &EscalationAdapter{client: client, metrics: metrics}
}

// Create appends an escalation row. Repeated escalations for the same
// number are independent rows.
func (a *EscalationAdapter) Create(ctx context.Context, escalation *entities.Escalation) error {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "escalation.create", time.Since(start)) }()

	if escalation.Status == "" {
		escalation.Status = entities.EscalationStatusEscalated
	}

	query, args, err := dialect.Insert("escalations").
		Rows(goqu.Record{
			"phone_number": escalation.PhoneNumber,
			"status":       string(escalation.Status),
			"description":  escalation.Description,
		}).
		Returning("id", "created_at").
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&escalation.ID, &escalation.CreatedAt)
	if err != nil {
		return apperrors.NewInternalError("failed to create escalation", err)
	}
	return nil
}
