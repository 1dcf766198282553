package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"sat-prep-service/internal/domain"
	"sat-prep-service/internal/engine"
	pgloader "sat-prep-service/internal/infra/postgres"
	pgmigrations "sat-prep-service/internal/infra/postgres/migrations"
	infraredis "sat-prep-service/internal/infra/redis"
	"sat-prep-service/internal/questions"
)

func TestDailyChallengeEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedBank(t, ctx, pgURL, domain.SubjectMath, domain.DifficultyEasy, sampleBank())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := infraredis.NewBankCache(redisClient, pgloader.NewBankLoader(pool), 5*time.Minute)
	source := questions.NewCachedBank(loader, 5*time.Minute)

	accounts := infraredis.NewAccountStore(redisClient)
	guest := infraredis.NewGuestStore(redisClient)

	eng := engine.New(source, accounts, guest,
		engine.WithAdvanceDelay(5*time.Millisecond),
		engine.WithTickInterval(time.Hour),
	)
	eng.Restore(ctx)

	if err := eng.Signup(ctx, "alice", "pw"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if err := eng.Start(ctx, true); err != nil {
		t.Fatalf("start daily: %v", err)
	}
	snap := eng.Snapshot()
	if snap.Screen != engine.ScreenQuiz || snap.Total != 1 {
		t.Fatalf("expected single-question quiz, got %+v", snap)
	}

	eng.SubmitAnswer(snap.Question.Correct)
	snap = waitForScreen(t, eng, engine.ScreenResult)

	if snap.Outcome == nil || snap.Outcome.Correct != 1 || snap.Outcome.Scaled != 800 {
		t.Fatalf("unexpected outcome %+v", snap.Outcome)
	}
	if snap.Daily.Streak != 1 {
		t.Fatalf("expected streak banked at start, got %+v", snap.Daily)
	}

	// The finished quiz must be visible in the stored account record.
	account, err := accounts.Lookup(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if account.Stats.TotalQuizzes != 1 || account.Stats.TotalCorrect != 1 {
		t.Fatalf("progress not persisted: %+v", account.Stats)
	}

	// The bank is warm in Redis: a fresh process-level cache starts a quiz
	// without touching Postgres.
	pool.Close()
	coldSource := questions.NewCachedBank(loader, 5*time.Minute)
	eng2 := engine.New(coldSource, accounts, guest,
		engine.WithAdvanceDelay(5*time.Millisecond),
		engine.WithTickInterval(time.Hour),
	)
	eng2.Restore(ctx)
	if err := eng2.Start(ctx, true); err != nil {
		t.Fatalf("start from cache: %v", err)
	}
}

func waitForScreen(t *testing.T, eng *engine.Engine, screen engine.Screen) engine.Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := eng.Snapshot()
		if snap.Screen == screen {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("never reached screen %q", screen)
	return engine.Snapshot{}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "satprep", "POSTGRES_PASSWORD": "satpreppass", "POSTGRES_DB": "satprepdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://satprep:satpreppass@%s:%s/satprepdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedBank(t *testing.T, ctx context.Context, dsn string, subject domain.Subject, difficulty domain.Difficulty, bank []domain.Question) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(bank)
	if err != nil {
		t.Fatalf("marshal bank: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO question_banks (subject, difficulty, questions) VALUES (?, ?, ?::jsonb)
		 ON CONFLICT (subject, difficulty) DO UPDATE SET questions=EXCLUDED.questions`,
		string(subject), string(difficulty), string(data)); err != nil {
		t.Fatalf("insert bank: %v", err)
	}
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, Correct: 1},
		{Text: "What is 9 - 4?", Options: []string{"5", "4", "6", "3"}, Correct: 0},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
