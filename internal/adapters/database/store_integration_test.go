//go:build integration

package database

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/repositories"
	"github.com/zatekoja/careline/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/careline/pkg/config"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

type StoreIntegrationTestSuite struct {
	suite.Suite
	client       *postgres.Client
	appointments repositories.AppointmentRepository
	members      repositories.MemberRepository
	providerID   int64
}

func (s *StoreIntegrationTestSuite) SetupSuite() {
	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "careline_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	client, err := postgres.NewClient(cfg)
	s.Require().NoError(err)
	s.Require().NoError(client.Migrate(context.Background()))

	s.client = client
	s.appointments = NewAppointmentAdapter(client, nil)
	s.members = NewMemberAdapter(client, nil)
}

func (s *StoreIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *StoreIntegrationTestSuite) SetupTest() {
	ctx := context.Background()
	db := s.client.DB()

	_, err := db.ExecContext(ctx, `TRUNCATE escalations, appointments, availability, providers, members RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO members (first_name, last_name, phone_number, date_of_birth, gender, street_address, city, state, zip_code, email)
		VALUES ('David', 'Jones', '215-932-4488', '1950-06-14', 'Male', '742 Evergreen Terrace', 'Philadelphia', 'PA', '19103', 'david.jones@example.com'),
		       ('Maria', 'Lopez', '267-555-0199', '1948-02-02', 'Female', '12 Spruce St', 'Philadelphia', 'PA', '19106', 'maria.lopez@example.com')`)
	s.Require().NoError(err)

	err = db.QueryRowContext(ctx, `
		INSERT INTO providers (first_name, last_name, phone_number, date_of_birth, gender, street_address, city, state, zip_code, email, degree, procedures)
		VALUES ('Jane', 'Smith', '267-555-0101', '1980-01-01', 'Female', '1 Health Way', 'Philadelphia', 'PA', '19104', 'jane.smith@example.com', 'MD', '{"Physical Exam"}')
		RETURNING id`).Scan(&s.providerID)
	s.Require().NoError(err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO availability (provider_id, date, start_time, end_time, status)
		VALUES ($1, '2025-03-10', '12:00', '17:00', 'available')`, s.providerID)
	s.Require().NoError(err)
}

func (s *StoreIntegrationTestSuite) request(phone string) entities.BookingRequest {
	date, _ := time.Parse(entities.DateLayout, "2025-03-10")
	clock, _ := time.Parse(entities.TimeLayout, "14:00")
	return entities.BookingRequest{MemberPhone: phone, Date: date, Time: clock}
}

func (s *StoreIntegrationTestSuite) slotStatus() string {
	var status string
	err := s.client.DB().QueryRow(`SELECT status FROM availability WHERE provider_id = $1`, s.providerID).Scan(&status)
	s.Require().NoError(err)
	return status
}

func (s *StoreIntegrationTestSuite) TestBookThenCancelRoundTrip() {
	ctx := context.Background()

	appt, err := s.appointments.Book(ctx, s.request("215-932-4488"))
	s.Require().NoError(err)
	s.Equal(s.providerID, appt.ProviderID)
	s.Equal("unavailable", s.slotStatus())

	list, err := s.appointments.ListByPhone(ctx, "215-932-4488")
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(entities.AppointmentStatusScheduled, list[0].Status)

	res, err := s.appointments.Cancel(ctx, appt.ID, "215-932-4488")
	s.Require().NoError(err)
	s.True(res.SlotRestored)
	s.Equal("available", s.slotStatus())

	_, err = s.appointments.Cancel(ctx, appt.ID, "215-932-4488")
	s.True(apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func (s *StoreIntegrationTestSuite) TestConcurrentBookingsClaimSlotOnce() {
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, phone := range []string{"215-932-4488", "267-555-0199"} {
		wg.Add(1)
		go func(i int, phone string) {
			defer wg.Done()
			_, errs[i] = s.appointments.Book(ctx, s.request(phone))
		}(i, phone)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case apperrors.IsType(err, apperrors.ErrorTypeConflict):
			conflicts++
		}
	}
	s.Equal(1, successes)
	s.Equal(1, conflicts)

	var active int
	err := s.client.DB().QueryRow(`SELECT COUNT(*) FROM appointments WHERE status = 'scheduled'`).Scan(&active)
	s.Require().NoError(err)
	s.Equal(1, active)
}

func TestStoreIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(StoreIntegrationTestSuite))
}
