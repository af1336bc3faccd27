package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-lifecycle/internal/appointment"
	"github.com/hackgods/appointment-lifecycle/internal/config"
	"github.com/hackgods/appointment-lifecycle/internal/db"
	"github.com/hackgods/appointment-lifecycle/internal/identity"
	"github.com/hackgods/appointment-lifecycle/internal/logging"
	"github.com/hackgods/appointment-lifecycle/internal/profile"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

// weeklyHours is published for every seeded clinician, Monday to Saturday.
var weeklyHours = []appointment.Slot{
	{Start: 9 * 60, End: 13 * 60},
	{Start: 14 * 60, End: 18 * 60},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic("logger init error: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	cancel()
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	faker := gofakeit.New(0)
	s := &seeder{pool: pool, faker: faker, logger: logger}

	clinicians, err := s.seedClinicians(context.Background(), envInt("SEED_CLINICIANS", 100))
	if err != nil {
		logger.Fatal("seed clinicians", zap.Error(err))
	}
	patients, err := s.seedPatients(context.Background(), envInt("SEED_PATIENTS", 9000))
	if err != nil {
		logger.Fatal("seed patients", zap.Error(err))
	}

	printSampleTokens(identity.NewVerifier(cfg.JWTSecret, ""), clinicians, patients, logger)

	logger.Info("seed complete")
}

type seeder struct {
	pool   *pgxpool.Pool
	faker  *gofakeit.Faker
	logger *zap.Logger
}

func (s *seeder) seedClinicians(ctx context.Context, count int) ([]profile.Clinician, error) {
	s.logger.Info("seeding clinicians", zap.Int("count", count))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	store := profile.NewPgStore(tx)
	out := make([]profile.Clinician, 0, count)

	for i := 0; i < count; i++ {
		c := profile.Clinician{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			Name:      "Dr. " + s.faker.Name(),
			Specialty: specialties[s.faker.Number(0, len(specialties)-1)],
			// 500.00 to 2500.00 in steps of 50.00
			ConsultationFee: int64(s.faker.Number(10, 50)) * 5000,
		}
		if err := store.UpsertClinician(ctx, c); err != nil {
			return nil, err
		}

		for day := time.Monday; day <= time.Saturday; day++ {
			for _, slot := range weeklyHours {
				w := appointment.AvailabilityWindow{Weekday: day, Slot: slot}
				if err := store.InsertAvailability(ctx, c.ID, w); err != nil {
					return nil, err
				}
			}
		}
		out = append(out, c)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("clinicians seeded", zap.Int("count", len(out)))
	return out, nil
}

func (s *seeder) seedPatients(ctx context.Context, count int) ([]profile.Patient, error) {
	s.logger.Info("seeding patients", zap.Int("count", count))

	const batchSize = 500
	out := make([]profile.Patient, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return nil, err
		}
		store := profile.NewPgStore(tx)

		for i := offset; i < end; i++ {
			p := profile.Patient{
				ID:     uuid.New(),
				UserID: uuid.New(),
				Name:   s.faker.Name(),
				Email:  s.faker.Email(),
			}
			if err := store.InsertPatient(ctx, p); err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			out = append(out, p)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		s.logger.Info("patients seeded", zap.Int("done", end), zap.Int("total", count))
	}

	return out, nil
}

// printSampleTokens writes a few day-long bearer tokens to stdout for manual testing.
func printSampleTokens(v *identity.Verifier, clinicians []profile.Clinician, patients []profile.Patient, logger *zap.Logger) {
	callers := []identity.Caller{{ID: uuid.New(), Role: identity.RoleAdmin}, {ID: uuid.New(), Role: identity.RoleService}}
	if len(clinicians) > 0 {
		callers = append(callers, identity.Caller{ID: clinicians[0].UserID, Role: identity.RoleClinician})
	}
	if len(patients) > 0 {
		callers = append(callers, identity.Caller{ID: patients[0].UserID, Role: identity.RolePatient})
	}

	for _, c := range callers {
		token, err := v.Issue(c, 24*time.Hour)
		if err != nil {
			logger.Warn("issue sample token", zap.String("role", string(c.Role)), zap.Error(err))
			continue
		}
		fmt.Printf("%-9s %s\n", c.Role, token)
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
