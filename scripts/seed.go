package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
	"github.com/zatekoja/careline/pkg/config"
)

// demoPhone is the member used by the call simulator
const demoPhone = "215-932-4488"

type person struct {
	first, last, gender, dob string
	city, state, zip         string
}

var members = []person{
	{"John", "Smith", "Male", "1971-04-12", "New York", "NY", "10001"},
	{"Jane", "Johnson", "Female", "1985-09-30", "Los Angeles", "CA", "90001"},
	{"Michael", "Williams", "Male", "1962-01-18", "Chicago", "IL", "60601"},
	{"Emily", "Brown", "Female", "1990-06-05", "Houston", "TX", "77001"},
	{"David", "Jones", "Male", "1978-11-23", "Philadelphia", "PA", "19101"},
	{"Sarah", "Garcia", "Female", "1995-03-14", "Phoenix", "AZ", "85001"},
	{"Robert", "Miller", "Male", "1958-07-02", "San Antonio", "TX", "78201"},
	{"Lisa", "Davis", "Female", "1982-12-09", "San Diego", "CA", "92101"},
	{"William", "Rodriguez", "Male", "1969-05-27", "Dallas", "TX", "75201"},
	{"Emma", "Martinez", "Female", "2000-08-16", "San Jose", "CA", "95101"},
}

var providers = []person{
	{"Emma", "Johnson", "Female", "1975-02-11", "Boston", "MA", "02108"},
	{"Liam", "Smith", "Male", "1968-10-04", "Seattle", "WA", "98101"},
	{"Olivia", "Brown", "Female", "1980-07-21", "Miami", "FL", "33101"},
	{"Noah", "Davis", "Male", "1972-03-15", "Denver", "CO", "80201"},
	{"Ava", "Wilson", "Female", "1984-12-01", "Atlanta", "GA", "30301"},
	{"Ethan", "Moore", "Male", "1966-06-19", "Portland", "OR", "97201"},
	{"Sophia", "Taylor", "Female", "1979-09-08", "Austin", "TX", "78701"},
	{"Mason", "Anderson", "Male", "1988-01-26", "Nashville", "TN", "37201"},
	{"Isabella", "Thomas", "Female", "1970-04-30", "Minneapolis", "MN", "55401"},
	{"William", "Jackson", "Male", "1963-11-13", "San Francisco", "CA", "94101"},
}

var procedureSets = [][]string{
	{"blood_work", "vision_test"},
	{"mental_health_eval"},
	{"blood_work", "vision_test", "mental_health_eval"},
	{},
	{"vision_test"},
	{"blood_work"},
	{"mental_health_eval", "blood_work"},
	{"vision_test", "mental_health_eval"},
	{},
	{"blood_work", "mental_health_eval"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("careline-seed", cfg.Logging.Environment, cfg.Logging.Level)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	ctx := context.Background()
	if err := pgClient.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	db := goqu.New("postgres", pgClient.DB())

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := db.ExecContext(ctx, `
			TRUNCATE TABLE escalations, appointments, availability, providers, members
			RESTART IDENTITY CASCADE
		`); err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	today := time.Now().Truncate(24 * time.Hour)

	steps := []struct {
		name string
		run  func(context.Context, *goqu.Database, time.Time) (int64, error)
	}{
		{"members", seedMembers},
		{"providers", seedProviders},
		{"availability", seedAvailability},
		{"appointments", seedAppointments},
		{"escalations", seedEscalations},
	}
	for _, step := range steps {
		n, err := step.run(ctx, db, today)
		if err != nil {
			log.Fatal().Err(err).Str("table", step.name).Msg("seeding failed")
		}
		log.Info().Str("table", step.name).Int64("rows", n).Msg("seeded")
	}

	log.Info().Str("demo_phone", demoPhone).Msg("seeding completed")
}

func memberPhone(i int) string {
	if members[i].first == "David" && members[i].last == "Jones" {
		return demoPhone
	}
	return fmt.Sprintf("555-%03d-%04d", 200+i, 1000+i*37)
}

func seedMembers(ctx context.Context, db *goqu.Database, _ time.Time) (int64, error) {
	rows := make([]interface{}, 0, len(members))
	for i, m := range members {
		rows = append(rows, goqu.Record{
			"first_name":     m.first,
			"last_name":      m.last,
			"phone_number":   memberPhone(i),
			"date_of_birth":  m.dob,
			"gender":         m.gender,
			"street_address": fmt.Sprintf("%d Main St", 100+i*73),
			"city":           m.city,
			"state":          m.state,
			"zip_code":       m.zip,
			"email":          fmt.Sprintf("%s.%s@example.com", strings.ToLower(m.first), strings.ToLower(m.last)),
		})
	}
	return insert(ctx, db.Insert("members").Rows(rows...).OnConflict(goqu.DoNothing()))
}

func seedProviders(ctx context.Context, db *goqu.Database, _ time.Time) (int64, error) {
	rows := make([]interface{}, 0, len(providers))
	for i, p := range providers {
		degree := "MD"
		if i%3 == 1 {
			degree = "NP"
		}
		rows = append(rows, goqu.Record{
			"first_name":     p.first,
			"last_name":      p.last,
			"phone_number":   fmt.Sprintf("555-%03d-%04d", 600+i, 2000+i*41),
			"date_of_birth":  p.dob,
			"gender":         p.gender,
			"street_address": fmt.Sprintf("%d Medical Ave", 200+i*51),
			"city":           p.city,
			"state":          p.state,
			"zip_code":       p.zip,
			"email":          fmt.Sprintf("%s.%s@medprovider.com", strings.ToLower(p.first), strings.ToLower(p.last)),
			"degree":         degree,
			"procedures":     pq.Array(procedureSets[i]),
		})
	}
	return insert(ctx, db.Insert("providers").Rows(rows...).OnConflict(goqu.DoNothing()))
}

// seedAvailability opens a morning and an afternoon block per provider for
// the next two weeks
func seedAvailability(ctx context.Context, db *goqu.Database, today time.Time) (int64, error) {
	var ids []int64
	if err := db.From("providers").Select("id").Order(goqu.C("id").Asc()).ScanValsContext(ctx, &ids); err != nil {
		return 0, err
	}

	var rows []interface{}
	for _, id := range ids {
		for day := 0; day < 14; day++ {
			date := today.AddDate(0, 0, day).Format("2006-01-02")
			rows = append(rows,
				goqu.Record{"provider_id": id, "date": date, "start_time": "09:00:00", "end_time": "12:00:00", "status": "available"},
				goqu.Record{"provider_id": id, "date": date, "start_time": "12:00:00", "end_time": "17:00:00", "status": "available"},
			)
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return insert(ctx, db.Insert("availability").Rows(rows...))
}

func seedAppointments(ctx context.Context, db *goqu.Database, today time.Time) (int64, error) {
	type memberRow struct {
		ID            int64  `db:"id"`
		Phone         string `db:"phone_number"`
		StreetAddress string `db:"street_address"`
		City          string `db:"city"`
		State         string `db:"state"`
		ZipCode       string `db:"zip_code"`
	}
	var rows []memberRow
	if err := db.From("members").
		Select("id", "phone_number", "street_address", "city", "state", "zip_code").
		Order(goqu.C("id").Asc()).
		ScanStructsContext(ctx, &rows); err != nil {
		return 0, err
	}
	var providerIDs []int64
	if err := db.From("providers").Select("id").Order(goqu.C("id").Asc()).ScanValsContext(ctx, &providerIDs); err != nil {
		return 0, err
	}
	if len(providerIDs) == 0 {
		return 0, nil
	}

	var records []interface{}
	for i, m := range rows {
		offset := (i%5)*6 - 12
		status := "scheduled"
		switch {
		case offset < 0 && i%2 == 0:
			status = "completed"
		case offset < 0 || i%4 == 3:
			status = "cancelled"
		}
		records = append(records, goqu.Record{
			"member_id":      m.ID,
			"provider_id":    providerIDs[i%len(providerIDs)],
			"member_phone":   m.Phone,
			"date":           today.AddDate(0, 0, offset).Format("2006-01-02"),
			"time":           fmt.Sprintf("%02d:%s:00", 9+i%8, []string{"00", "30"}[i%2]),
			"street_address": m.StreetAddress,
			"city":           m.City,
			"state":          m.State,
			"zip_code":       m.ZipCode,
			"status":         status,
		})
	}
	if len(records) == 0 {
		return 0, nil
	}
	return insert(ctx, db.Insert("appointments").Rows(records...))
}

func seedEscalations(ctx context.Context, db *goqu.Database, _ time.Time) (int64, error) {
	return insert(ctx, db.Insert("escalations").Rows(
		goqu.Record{"phone_number": "555-932-4455", "status": "escalated", "description": "Member requested supervisor to call back."},
		goqu.Record{"phone_number": "215-999-2234", "status": "de_escalated", "description": "Issue resolved after follow-up."},
		goqu.Record{"phone_number": "848-321-4456", "status": "escalated", "description": "Member expressed dissatisfaction with service."},
	))
}

func insert(ctx context.Context, ds *goqu.InsertDataset) (int64, error) {
	res, err := ds.Prepared(true).Executor().ExecContext(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
