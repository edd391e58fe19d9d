package coordinator

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// runRecord is the Bun model backing the optional run/worker bookkeeping
// store. Persistence here is durability of the coordinator's own
// bookkeeping only — it does not resurrect in-flight runs after a
// restart, and it is never consulted to decide whether a task has
// already executed (that's the in-memory completed set of registry, in
// types.go).
type runRecord struct {
	bun.BaseModel `bun:"table:flowdag_runs,alias:fr"`

	ID        string    `bun:"id,pk"`
	Status    string    `bun:"status,notnull"`
	Error     string    `bun:"error"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type workerRecord struct {
	bun.BaseModel `bun:"table:flowdag_workers,alias:fw"`

	ID            string    `bun:"id,pk"`
	Addr          string    `bun:"addr,notnull"`
	Status        string    `bun:"status,notnull"`
	LastHeartbeat time.Time `bun:"last_heartbeat,notnull"`
}

// Store persists run and worker bookkeeping for operational visibility
// across coordinator restarts. It is optional: a nil Store (the
// default) keeps the coordinator fully in-memory, matching the spec's
// non-goal of persistent state across restarts for run execution
// itself — this store only mirrors status, it never drives recovery.
type Store interface {
	RecordRun(ctx context.Context, run Run) error
	RecordWorker(ctx context.Context, worker Worker) error
}

// BunStore implements Store on top of Bun/pgx, grounded on the
// teacher's infrastructure/storage package: one struct per table, Bun
// upserts rather than hand-written SQL.
type BunStore struct {
	db *bun.DB
}

// NewBunStore opens a Postgres connection via pgdriver and wraps it in
// a Bun DB, registering the bookkeeping models.
func NewBunStore(dsn string) (*BunStore, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(30*time.Second),
		pgdriver.WithDialTimeout(10*time.Second),
	)
	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New())
	db.RegisterModel((*runRecord)(nil), (*workerRecord)(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("flowdag: connect bookkeeping store: %w", err)
	}
	return &BunStore{db: db}, nil
}

// EnsureSchema creates the bookkeeping tables if they don't already
// exist. Called once at coordinator startup; safe to call repeatedly.
func (s *BunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*runRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("flowdag: create runs table: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*workerRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("flowdag: create workers table: %w", err)
	}
	return nil
}

func (s *BunStore) RecordRun(ctx context.Context, run Run) error {
	rec := &runRecord{
		ID:        run.ID,
		Status:    string(run.Status),
		Error:     run.Err,
		CreatedAt: run.CreatedAt,
		UpdatedAt: time.Now(),
	}
	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("error = EXCLUDED.error").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("flowdag: record run %s: %w", run.ID, err)
	}
	return nil
}

func (s *BunStore) RecordWorker(ctx context.Context, worker Worker) error {
	rec := &workerRecord{
		ID:            worker.ID,
		Addr:          worker.Addr,
		Status:        string(worker.Status),
		LastHeartbeat: worker.LastHeartbeat,
	}
	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("addr = EXCLUDED.addr").
		Set("status = EXCLUDED.status").
		Set("last_heartbeat = EXCLUDED.last_heartbeat").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("flowdag: record worker %s: %w", worker.ID, err)
	}
	return nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}
