package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/repositories"
	"github.com/zatekoja/careline/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

// Messages surfaced to the caller through the scheduling tools
const (
	MsgMemberNotFound       = "member not found"
	MsgNoProviderAvailable  = "No provider available at the specified date and time."
	MsgAvailabilityLostRace = "failed to update availability"
	MsgNotFoundOrCancelled  = "not found or already cancelled"
)

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client  *postgres.Client
	metrics *observability.Metrics
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.AppointmentRepository {
	return &AppointmentAdapter{client: client, metrics: metrics}
}

// ListByPhone retrieves every appointment for a member phone, newest first
func (a *AppointmentAdapter) ListByPhone(ctx context.Context, phone string) ([]*entities.AppointmentDetail, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "appointment.list_by_phone", time.Since(start)) }()

	query, args, err := dialect.From(goqu.T("appointments").As("a")).
		Join(goqu.T("providers").As("p"), goqu.On(goqu.Ex{"a.provider_id": goqu.I("p.id")})).
		Select(
			"a.id", "a.member_id", "a.provider_id", "a.member_phone", "a.date", "a.time",
			"a.street_address", "a.city", "a.state", "a.zip_code", "a.status", "a.created_at",
			"p.first_name", "p.last_name", "p.degree",
		).
		Where(goqu.Ex{"a.member_phone": phone}).
		Order(goqu.I("a.date").Desc(), goqu.I("a.time").Desc(), goqu.I("a.id").Desc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	var appointments []*entities.AppointmentDetail
	for rows.Next() {
		d := &entities.AppointmentDetail{}
		if err := rows.Scan(
			&d.ID,
			&d.MemberID,
			&d.ProviderID,
			&d.MemberPhone,
			&d.Date,
			&d.Time,
			&d.StreetAddress,
			&d.City,
			&d.State,
			&d.ZipCode,
			&d.Status,
			&d.CreatedAt,
			&d.ProviderFirstName,
			&d.ProviderLastName,
			&d.ProviderDegree,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate appointments", err)
	}

	return appointments, nil
}

// Book resolves the member, claims the first available slot covering the
// requested time (lowest provider id, then earliest window) and inserts a
// scheduled appointment with the member's current address. The conditional
// slot update is the race guard: a concurrent booking that already flipped
// the slot leaves zero rows affected and this booking rolls back.
func (a *AppointmentAdapter) Book(ctx context.Context, req entities.BookingRequest) (*entities.Appointment, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "appointment.book", time.Since(start)) }()

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer rollback(tx, "appointment.book")

	memberQuery, memberArgs, err := dialect.From("members").
		Select("id", "street_address", "city", "state", "zip_code").
		Where(goqu.Ex{"phone_number": req.MemberPhone}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build member query", err)
	}

	appt := &entities.Appointment{
		MemberPhone: req.MemberPhone,
		Date:        req.Date,
		Time:        req.Time,
		Status:      entities.AppointmentStatusScheduled,
	}
	err = tx.QueryRowContext(ctx, memberQuery, memberArgs...).Scan(
		&appt.MemberID, &appt.StreetAddress, &appt.City, &appt.State, &appt.ZipCode,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(MsgMemberNotFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up member", err)
	}

	slotQuery, slotArgs, err := dialect.From("availability").
		Select("id", "provider_id").
		Where(
			goqu.C("date").Eq(req.DateString()),
			goqu.C("start_time").Lte(req.TimeString()),
			goqu.C("end_time").Gt(req.TimeString()),
			goqu.C("status").Eq(string(entities.SlotStatusAvailable)),
		).
		Order(goqu.C("provider_id").Asc(), goqu.C("start_time").Asc(), goqu.C("id").Asc()).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build availability query", err)
	}

	var slotID int64
	err = tx.QueryRowContext(ctx, slotQuery, slotArgs...).Scan(&slotID, &appt.ProviderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewConflictError(MsgNoProviderAvailable)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up availability", err)
	}

	claimQuery, claimArgs, err := dialect.Update("availability").
		Set(goqu.Record{"status": string(entities.SlotStatusUnavailable)}).
		Where(goqu.Ex{"id": slotID, "status": string(entities.SlotStatusAvailable)}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build availability update", err)
	}

	result, err := tx.ExecContext(ctx, claimQuery, claimArgs...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update availability", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, apperrors.NewConflictError(MsgAvailabilityLostRace)
	}

	insertQuery, insertArgs, err := dialect.Insert("appointments").
		Rows(goqu.Record{
			"member_id":      appt.MemberID,
			"provider_id":    appt.ProviderID,
			"member_phone":   appt.MemberPhone,
			"date":           req.DateString(),
			"time":           req.TimeString(),
			"street_address": appt.StreetAddress,
			"city":           appt.City,
			"state":          appt.State,
			"zip_code":       appt.ZipCode,
			"status":         string(appt.Status),
		}).
		Returning("id", "created_at").
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build insert query", err)
	}

	if err := tx.QueryRowContext(ctx, insertQuery, insertArgs...).Scan(&appt.ID, &appt.CreatedAt); err != nil {
		return nil, apperrors.NewInternalError("failed to create appointment", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternalError("failed to commit appointment", err)
	}

	return appt, nil
}

// Cancel cancels a scheduled appointment owned by phone and releases the
// availability window it occupied. A missing window does not undo the
// cancellation; it is reported through SlotRestored.
func (a *AppointmentAdapter) Cancel(ctx context.Context, id int64, phone string) (*entities.CancellationResult, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "appointment.cancel", time.Since(start)) }()

	notFound := apperrors.NewNotFoundError(fmt.Sprintf("appointment %d %s", id, MsgNotFoundOrCancelled))

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer rollback(tx, "appointment.cancel")

	lookupQuery, lookupArgs, err := dialect.From("appointments").
		Select("provider_id", "date", "time").
		Where(goqu.Ex{
			"id":           id,
			"member_phone": phone,
			"status":       string(entities.AppointmentStatusScheduled),
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var providerID int64
	var date, clock time.Time
	err = tx.QueryRowContext(ctx, lookupQuery, lookupArgs...).Scan(&providerID, &date, &clock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up appointment", err)
	}

	cancelQuery, cancelArgs, err := dialect.Update("appointments").
		Set(goqu.Record{"status": string(entities.AppointmentStatusCancelled)}).
		Where(goqu.Ex{"id": id, "status": string(entities.AppointmentStatusScheduled)}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build cancel query", err)
	}

	result, err := tx.ExecContext(ctx, cancelQuery, cancelArgs...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to cancel appointment", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, notFound
	}

	res := &entities.CancellationResult{AppointmentID: id, ProviderID: providerID}

	restored, err := a.releaseSlot(ctx, tx, providerID, date, clock)
	if err != nil {
		return nil, err
	}
	res.SlotRestored = restored
	if !restored {
		log.Warn().
			Int64("appointment_id", id).
			Int64("provider_id", providerID).
			Str("date", date.Format(entities.DateLayout)).
			Msg("cancelled appointment had no unavailable slot to restore")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternalError("failed to commit cancellation", err)
	}

	return res, nil
}

func (a *AppointmentAdapter) releaseSlot(ctx context.Context, tx *sql.Tx, providerID int64, date, clock time.Time) (bool, error) {
	timeStr := clock.Format("15:04:05")

	slotQuery, slotArgs, err := dialect.From("availability").
		Select("id").
		Where(
			goqu.C("provider_id").Eq(providerID),
			goqu.C("date").Eq(date.Format(entities.DateLayout)),
			goqu.C("start_time").Lte(timeStr),
			goqu.C("end_time").Gt(timeStr),
			goqu.C("status").Eq(string(entities.SlotStatusUnavailable)),
		).
		Order(goqu.C("start_time").Asc(), goqu.C("id").Asc()).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build availability query", err)
	}

	var slotID int64
	err = tx.QueryRowContext(ctx, slotQuery, slotArgs...).Scan(&slotID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewInternalError("failed to look up availability", err)
	}

	releaseQuery, releaseArgs, err := dialect.Update("availability").
		Set(goqu.Record{"status": string(entities.SlotStatusAvailable)}).
		Where(goqu.Ex{"id": slotID, "status": string(entities.SlotStatusUnavailable)}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build availability update", err)
	}

	result, err := tx.ExecContext(ctx, releaseQuery, releaseArgs...)
	if err != nil {
		return false, apperrors.NewInternalError("failed to restore availability", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return rowsAffected > 0, nil
}
