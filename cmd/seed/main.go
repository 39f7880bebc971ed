package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeffgoval/estetic-sub001/internal/db"
	"github.com/jeffgoval/estetic-sub001/internal/scheduling"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	tenantID := uuid.New()
	if raw := os.Getenv("TENANT_ID"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			log.Fatalf("invalid TENANT_ID: %v", err)
		}
		tenantID = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	bg := context.Background()

	if err := ensureSchema(bg, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	providers, err := seedProviders(bg, pool, tenantID, 5)
	if err != nil {
		log.Fatalf("seed providers: %v", err)
	}
	patients, err := seedPatients(bg, pool, tenantID, 200)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(bg, pool, tenantID, providers, patients); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}
	if err := seedWaitlist(bg, pool, tenantID, providers, patients, 40); err != nil {
		log.Fatalf("seed waitlist: %v", err)
	}

	log.Printf("seed complete, tenant_id=%s", tenantID)
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE EXTENSION IF NOT EXISTS btree_gist;

		CREATE TABLE IF NOT EXISTS providers (
			id            uuid PRIMARY KEY,
			tenant_id     uuid NOT NULL,
			name          text NOT NULL,
			active        boolean NOT NULL DEFAULT true,
			working_hours jsonb,
			created_at    timestamptz NOT NULL DEFAULT now(),
			updated_at    timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS patients (
			id         uuid PRIMARY KEY,
			tenant_id  uuid NOT NULL,
			name       text NOT NULL,
			email      text,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS appointments (
			id          uuid PRIMARY KEY,
			tenant_id   uuid NOT NULL,
			provider_id uuid NOT NULL REFERENCES providers (id),
			patient_id  uuid NOT NULL REFERENCES patients (id),
			start_time  timestamptz NOT NULL,
			end_time    timestamptz NOT NULL,
			status      text NOT NULL,
			created_at  timestamptz NOT NULL DEFAULT now(),
			updated_at  timestamptz NOT NULL DEFAULT now(),
			CHECK (start_time < end_time),
			CONSTRAINT appointments_no_overlap EXCLUDE USING gist (
				tenant_id WITH =,
				provider_id WITH =,
				tstzrange(start_time, end_time) WITH &&
			) WHERE (status <> 'cancelled')
		);

		CREATE TABLE IF NOT EXISTS waitlist_entries (
			id                    uuid PRIMARY KEY,
			tenant_id             uuid NOT NULL,
			patient_id            uuid NOT NULL REFERENCES patients (id),
			preferred_provider_id uuid REFERENCES providers (id),
			preferred_date        date,
			preferred_start_min   int,
			preferred_end_min     int,
			priority              int NOT NULL DEFAULT 0,
			status                text NOT NULL DEFAULT 'waiting',
			created_at            timestamptz NOT NULL DEFAULT now(),
			updated_at            timestamptz NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_appointments_provider_time
			ON appointments (tenant_id, provider_id, start_time);
		CREATE INDEX IF NOT EXISTS idx_waitlist_waiting
			ON waitlist_entries (tenant_id, priority DESC, created_at ASC)
			WHERE status = 'waiting';
	`)
	return err
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, tenantID uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d providers", count)

	hours := map[string]scheduling.DayHours{
		"monday":    {Open: "08:00", Close: "18:00"},
		"tuesday":   {Open: "08:00", Close: "18:00"},
		"wednesday": {Open: "08:00", Close: "18:00"},
		"thursday":  {Open: "08:00", Close: "18:00"},
		"friday":    {Open: "08:00", Close: "17:00"},
	}
	hoursJSON, err := json.Marshal(hours)
	if err != nil {
		return nil, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()

		_, err := tx.Exec(ctx, `
			INSERT INTO providers (id, tenant_id, name, active, working_hours, created_at, updated_at)
			VALUES ($1, $2, $3, true, $4, now(), now())
		`, id, tenantID, name, hoursJSON)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("providers seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, tenantID uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		email := gofakeit.Email()

		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, tenant_id, name, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, tenantID, name, email)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("patients seeded")
	return ids, nil
}

// seedAppointments books a few hours per provider over the next days so the
// conflict filter has something to work against.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, tenantID uuid.UUID, providers, patients []uuid.UUID) error {
	log.Println("seeding appointments")

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	total := 0
	for _, providerID := range providers {
		for day := 0; day < 3; day++ {
			bookings := gofakeit.Number(1, 4)
			used := map[int]bool{}
			for i := 0; i < bookings; i++ {
				hour := gofakeit.Number(8, 17)
				if used[hour] {
					continue
				}
				used[hour] = true

				start := today.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
				patientID := patients[gofakeit.Number(0, len(patients)-1)]

				_, err := tx.Exec(ctx, `
					INSERT INTO appointments (id, tenant_id, provider_id, patient_id, start_time, end_time, status, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, 'scheduled', now(), now())
				`, uuid.New(), tenantID, providerID, patientID, start, start.Add(time.Hour))
				if err != nil {
					return err
				}
				total++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("appointments seeded: %d", total)
	return nil
}

func seedWaitlist(ctx context.Context, pool *pgxpool.Pool, tenantID uuid.UUID, providers, patients []uuid.UUID, count int) error {
	log.Printf("seeding %d waitlist entries", count)

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		patientID := patients[gofakeit.Number(0, len(patients)-1)]
		priority := gofakeit.Number(0, 5)

		var preferredProvider *uuid.UUID
		if gofakeit.Bool() {
			p := providers[gofakeit.Number(0, len(providers)-1)]
			preferredProvider = &p
		}

		var preferredDate *time.Time
		if gofakeit.Bool() {
			d := today.AddDate(0, 0, gofakeit.Number(0, 6))
			preferredDate = &d
		}

		var startMin, endMin *int
		if gofakeit.Bool() {
			from := gofakeit.Number(8, 15) * 60
			to := from + gofakeit.Number(2, 4)*60
			startMin, endMin = &from, &to
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO waitlist_entries
				(id, tenant_id, patient_id, preferred_provider_id, preferred_date,
				 preferred_start_min, preferred_end_min, priority, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'waiting', now(), now())
		`, uuid.New(), tenantID, patientID, preferredProvider, preferredDate, startMin, endMin, priority)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("waitlist entries seeded")
	return nil
}
