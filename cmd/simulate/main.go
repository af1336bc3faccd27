package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-lifecycle/internal/api"
	"github.com/hackgods/appointment-lifecycle/internal/appointment"
	"github.com/hackgods/appointment-lifecycle/internal/config"
	"github.com/hackgods/appointment-lifecycle/internal/db"
	"github.com/hackgods/appointment-lifecycle/internal/identity"
	"github.com/hackgods/appointment-lifecycle/internal/logging"
)

type SimConfig struct {
	APIBaseURL      string
	Duration        time.Duration
	Workers         int
	BookingRatio    float64
	ConfirmRatio    float64
	CancelRatio     float64
	RescheduleRatio float64
	ReadRatio       float64
	PatientLimit    int
	ClinicianLimit  int
	DaysAhead       int
	SlotMinutes     int
}

type member struct {
	ProfileID uuid.UUID
	Token     string
}

type booking struct {
	ID        uuid.UUID
	Clinician member
	Patient   member
}

type DataPool struct {
	Clinicians []member
	Patients   []member
	mu         sync.RWMutex
	bookings   []booking
}

func (dp *DataPool) AddBooking(b booking) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.bookings = append(dp.bookings, b)
}

func (dp *DataPool) RandomBooking(rng *rand.Rand) (booking, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.bookings) == 0 {
		return booking{}, false
	}
	return dp.bookings[rng.Intn(len(dp.bookings))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]

	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking    OperationMetrics
	Confirm    OperationMetrics
	Cancel     OperationMetrics
	Reschedule OperationMetrics
	ReadByID   OperationMetrics
	List       OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	logger  *zap.Logger
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	logger, err := logging.New(baseCfg.Env, baseCfg.LogLevel)
	if err != nil {
		panic("logger init error: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	logger.Info("simulator starting",
		zap.Duration("duration", cfg.Duration),
		zap.Int("workers", cfg.Workers),
		zap.Float64("booking", cfg.BookingRatio),
		zap.Float64("confirm", cfg.ConfirmRatio),
		zap.Float64("cancel", cfg.CancelRatio),
		zap.Float64("reschedule", cfg.RescheduleRatio),
		zap.Float64("read", cfg.ReadRatio),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, baseCfg.PostgresDSN, baseCfg.PostgresMaxConns)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pgPool.Close()

	verifier := identity.NewVerifier(baseCfg.JWTSecret, "")
	dataPool, err := loadDataPool(ctx, pgPool, verifier, cfg)
	if err != nil {
		logger.Fatal("load data pool", zap.Error(err))
	}

	logger.Info("data pool loaded",
		zap.Int("clinicians", len(dataPool.Clinicians)),
		zap.Int("patients", len(dataPool.Patients)),
	)

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	sim.Run()
	sim.PrintReport()

	overlaps, err := countOverlaps(context.Background(), pgPool)
	if err != nil {
		logger.Fatal("overlap check", zap.Error(err))
	}
	if overlaps > 0 {
		fmt.Printf("FAIL: %d overlapping live appointment pairs found\n", overlaps)
		os.Exit(1)
	}
	fmt.Println("OK: no overlapping live appointments")
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:      getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:        getDuration("SIM_DURATION", 30*time.Second),
		Workers:         getInt("SIM_WORKERS", 10),
		BookingRatio:    getFloat("SIM_BOOKING_RATIO", 0.5),
		ConfirmRatio:    getFloat("SIM_CONFIRM_RATIO", 0.15),
		CancelRatio:     getFloat("SIM_CANCEL_RATIO", 0.05),
		RescheduleRatio: getFloat("SIM_RESCHEDULE_RATIO", 0.05),
		ReadRatio:       getFloat("SIM_READ_RATIO", 0.25),
		PatientLimit:    getInt("SIM_PATIENT_LIMIT", 500),
		ClinicianLimit:  getInt("SIM_CLINICIAN_LIMIT", 5),
		DaysAhead:       getInt("SIM_DAYS_AHEAD", 3),
		SlotMinutes:     getInt("SIM_SLOT_MINUTES", 30),
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.ConfirmRatio + cfg.CancelRatio + cfg.RescheduleRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ConfirmRatio /= total
		cfg.CancelRatio /= total
		cfg.RescheduleRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.DaysAhead <= 0 {
		return fmt.Errorf("SIM_DAYS_AHEAD must be > 0")
	}
	if cfg.SlotMinutes <= 0 || cfg.SlotMinutes > 240 {
		return fmt.Errorf("SIM_SLOT_MINUTES must be within (0,240]")
	}
	return nil
}

// loadDataPool keeps the clinician set small so workers contend for the same slots.
func loadDataPool(ctx context.Context, pool *pgxpool.Pool, v *identity.Verifier, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}
	ttl := cfg.Duration + 5*time.Minute

	var err error
	dataPool.Clinicians, err = loadMembers(ctx, pool, `SELECT id, user_id FROM clinicians ORDER BY id LIMIT $1`,
		cfg.ClinicianLimit, identity.RoleClinician, v, ttl)
	if err != nil {
		return nil, fmt.Errorf("load clinicians: %w", err)
	}

	dataPool.Patients, err = loadMembers(ctx, pool, `SELECT id, user_id FROM patients LIMIT $1`,
		cfg.PatientLimit, identity.RolePatient, v, ttl)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}

	if len(dataPool.Clinicians) == 0 {
		return nil, fmt.Errorf("no clinicians loaded")
	}
	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}

	return dataPool, nil
}

func loadMembers(ctx context.Context, pool *pgxpool.Pool, query string, limit int, role identity.Role, v *identity.Verifier, ttl time.Duration) ([]member, error) {
	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []member
	for rows.Next() {
		var id, userID uuid.UUID
		if err := rows.Scan(&id, &userID); err != nil {
			return nil, err
		}
		token, err := v.Issue(identity.Caller{ID: userID, Role: role}, ttl)
		if err != nil {
			return nil, err
		}
		out = append(out, member{ProfileID: id, Token: token})
	}
	return out, rows.Err()
}

// countOverlaps finds pairs of live appointments that share clinician, day and time.
func countOverlaps(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var n int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN appointments b
		  ON a.clinician_id = b.clinician_id
		 AND a.appointment_date = b.appointment_date
		 AND a.id < b.id
		 AND int4range(a.start_minute, a.end_minute) && int4range(b.start_minute, b.end_minute)
		WHERE a.status NOT IN ('cancelled', 'no-show')
		  AND b.status NOT IN ('cancelled', 'no-show')
	`).Scan(&n)
	return n, err
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info("starting simulation", zap.Duration("duration", s.config.Duration), zap.Int("workers", s.config.Workers))

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	c := s.config

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < c.BookingRatio:
				s.doBooking(ctx, rng)
			case r < c.BookingRatio+c.ConfirmRatio:
				s.doConfirm(ctx, rng)
			case r < c.BookingRatio+c.ConfirmRatio+c.CancelRatio:
				s.doCancel(ctx, rng)
			case r < c.BookingRatio+c.ConfirmRatio+c.CancelRatio+c.RescheduleRatio:
				s.doReschedule(ctx, rng)
			default:
				if rng.Intn(2) == 0 {
					s.doReadByID(ctx, rng)
				} else {
					s.doList(ctx, rng)
				}
			}
		}
	}
}

// randomSlot picks a start on a 15 minute grid inside the seeded morning hours,
// on a future day other than Sunday.
func (s *Simulator) randomSlot(rng *rand.Rand) (date, start, end string) {
	day := time.Now().UTC().AddDate(0, 0, 1+rng.Intn(s.config.DaysAhead))
	if day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}

	dayStart, dayEnd := appointment.Clock(9*60), appointment.Clock(13*60)
	length := appointment.Clock(s.config.SlotMinutes)
	steps := int(dayEnd-dayStart-length)/15 + 1
	if steps < 1 {
		steps = 1
	}
	from := dayStart + appointment.Clock(rng.Intn(steps)*15)

	return day.Format(time.DateOnly), from.String(), (from + length).String()
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	clinician := s.pool.Clinicians[rng.Intn(len(s.pool.Clinicians))]
	patient := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	date, from, to := s.randomSlot(rng)

	body := api.CreateAppointmentRequest{
		ClinicianID:    clinician.ProfileID.String(),
		Date:           date,
		StartTime:      from,
		EndTime:        to,
		ReasonForVisit: "simulated visit",
	}

	var created api.AppointmentResponse
	status, latency, err := s.call(ctx, http.MethodPost, "/appointments", patient.Token, body, &created)
	success := err == nil && status == http.StatusCreated
	if success && created.ID != uuid.Nil {
		s.pool.AddBooking(booking{ID: created.ID, Clinician: clinician, Patient: patient})
	}

	s.metrics.Booking.Record(latency, success, status == http.StatusConflict)
}

func (s *Simulator) doConfirm(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.RandomBooking(rng)
	if !ok {
		return
	}

	body := api.UpdateStatusRequest{Status: string(appointment.StatusConfirmed)}
	status, latency, err := s.call(ctx, http.MethodPatch, "/appointments/"+b.ID.String()+"/status", b.Clinician.Token, body, nil)

	s.metrics.Confirm.Record(latency, err == nil && status == http.StatusOK, status == http.StatusConflict)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.RandomBooking(rng)
	if !ok {
		return
	}

	body := api.CancelRequest{Reason: "simulated cancellation"}
	status, latency, err := s.call(ctx, http.MethodPost, "/appointments/"+b.ID.String()+"/cancel", b.Patient.Token, body, nil)

	s.metrics.Cancel.Record(latency, err == nil && status == http.StatusOK, status == http.StatusConflict)
}

func (s *Simulator) doReschedule(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.RandomBooking(rng)
	if !ok {
		return
	}

	date, from, to := s.randomSlot(rng)
	body := api.RescheduleRequest{Date: date, StartTime: from, EndTime: to}
	status, latency, err := s.call(ctx, http.MethodPost, "/appointments/"+b.ID.String()+"/reschedule", b.Patient.Token, body, nil)

	s.metrics.Reschedule.Record(latency, err == nil && status == http.StatusOK, status == http.StatusConflict)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.RandomBooking(rng)
	if !ok {
		return
	}

	status, latency, err := s.call(ctx, http.MethodGet, "/appointments/"+b.ID.String(), b.Patient.Token, nil, nil)
	s.metrics.ReadByID.Record(latency, err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doList(ctx context.Context, rng *rand.Rand) {
	clinician := s.pool.Clinicians[rng.Intn(len(s.pool.Clinicians))]

	status, latency, err := s.call(ctx, http.MethodGet, "/appointments?limit=20&page=1", clinician.Token, nil, nil)
	s.metrics.List.Record(latency, err == nil && status == http.StatusOK, false)
}

// call sends an authenticated JSON request and decodes the body into out when non-nil.
func (s *Simulator) call(ctx context.Context, method, path, token string, in, out any) (int, time.Duration, error) {
	var payload *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, 0, err
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, payload)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		s.logger.Debug("rate limited, set RATE_LIMIT_PER_MINUTE=0 on the server for load runs")
	}

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, latency, err
		}
	}
	return resp.StatusCode, latency, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Clinicians: %d  Days ahead: %d\n", len(s.pool.Clinicians), s.config.DaysAhead)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Confirm", &s.metrics.Confirm)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Reschedule", &s.metrics.Reschedule)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List", &s.metrics.List)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
