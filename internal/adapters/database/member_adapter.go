package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/repositories"
	"github.com/zatekoja/careline/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

var memberColumns = []interface{}{
	"id", "first_name", "last_name", "phone_number", "date_of_birth", "gender",
	"street_address", "city", "state", "zip_code", "email", "created_at",
}

// MemberAdapter implements the MemberRepository interface
type MemberAdapter struct {
	client  *postgres.Client
	metrics *observability.Metrics
}

// NewMemberAdapter creates a new member adapter
func NewMemberAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.MemberRepository {
	return &MemberAdapter{client: client, metrics: metrics}
}

// GetByPhone retrieves a member by canonical phone number
func (a *MemberAdapter) GetByPhone(ctx context.Context, phone string) (*entities.Member, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "member.get_by_phone", time.Since(start)) }()

	query, args, err := dialect.From("members").
		Select(memberColumns...).
		Where(goqu.Ex{"phone_number": phone}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	member, err := scanMember(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("member with phone number %s not found", phone))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get member", err)
	}
	return member, nil
}

// Update applies the non-nil fields of update to the member with the given phone
func (a *MemberAdapter) Update(ctx context.Context, phone string, update *entities.MemberUpdate) (*entities.Member, error) {
	if update.IsEmpty() {
		return nil, apperrors.NewValidationError("no member fields to update")
	}

	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "member.update", time.Since(start)) }()

	record := goqu.Record{}
	for col, val := range update.Columns() {
		record[col] = val
	}

	query, args, err := dialect.Update("members").
		Set(record).
		Where(goqu.Ex{"phone_number": phone}).
		Returning(memberColumns...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer rollback(tx, "member.update")

	member, err := scanMember(tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("member with phone number %s not found", phone))
	}
	if isUniqueViolation(err) {
		return nil, apperrors.NewConflictError("that email address is already registered to another member")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update member", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternalError("failed to commit member update", err)
	}
	return member, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row rowScanner) (*entities.Member, error) {
	m := &entities.Member{}
	err := row.Scan(
		&m.ID,
		&m.FirstName,
		&m.LastName,
		&m.PhoneNumber,
		&m.DateOfBirth,
		&m.Gender,
		&m.StreetAddress,
		&m.City,
		&m.State,
		&m.ZipCode,
		&m.Email,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
