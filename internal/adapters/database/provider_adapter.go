package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/repositories"
	"github.com/zatekoja/careline/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

// ProviderAdapter implements the ProviderRepository interface
type ProviderAdapter struct {
	client  *postgres.Client
	metrics *observability.Metrics
}

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.ProviderRepository {
	return &ProviderAdapter{client: client, metrics: metrics}
}

// GetByID retrieves a provider by ID
func (a *ProviderAdapter) GetByID(ctx context.Context, id int64) (*entities.Provider, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "provider.get_by_id", time.Since(start)) }()

	query, args, err := dialect.From("providers").
		Select(
			"id", "first_name", "last_name", "phone_number", "email",
			"street_address", "city", "state", "zip_code", "degree", "procedures",
		).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	p := &entities.Provider{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.PhoneNumber,
		&p.Email,
		&p.StreetAddress,
		&p.City,
		&p.State,
		&p.ZipCode,
		&p.Degree,
		pq.Array(&p.Procedures),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %d not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get provider", err)
	}
	return p, nil
}
