package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/hyperengineering/fitplan/internal/onboarding"
	"github.com/hyperengineering/fitplan/internal/program"
	"github.com/hyperengineering/fitplan/internal/types"
)

// Supported SQL dialects. The values double as goose dialect names.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

var _ Store = (*SQLStore)(nil)

// SQLStore is the database/sql backed Store for SQLite and Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

// Open creates a store for the named driver ("sqlite" or "postgres").
// For sqlite, dsn is a file path or ":memory:".
func Open(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DialectSQLite:
		return NewSQLiteStore(dsn)
	case DialectPostgres:
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewSQLiteStore creates a new SQLite-backed store.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	return newSQLStore(db, DialectSQLite)
}

// NewPostgresStore creates a Postgres-backed store using the pgx driver.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return newSQLStore(db, DialectPostgres)
}

func newSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	if err := RunMigrations(db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLStore{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// enablePragmas sets SQLite pragmas for performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Dialect reports which SQL dialect the store speaks.
func (s *SQLStore) Dialect() string {
	return s.dialect
}

// q rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) q(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

// CreateSession starts a new session at the first step.
func (s *SQLStore) CreateSession(ctx context.Context) (*onboarding.Session, error) {
	sess := onboarding.NewSession(ulid.Make().String(), s.now())

	answers, err := json.Marshal(sess.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO sessions (id, step, answers, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`), sess.ID, sess.Step.Name(), string(answers), formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return sess, nil
}

// GetSession retrieves a session by ID.
func (s *SQLStore) GetSession(ctx context.Context, id string) (*onboarding.Session, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, step, answers, created_at, updated_at FROM sessions WHERE id = ?
	`), id)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return sess, nil
}

// UpdateSession applies fn to the stored session inside a transaction.
func (s *SQLStore) UpdateSession(ctx context.Context, id string, fn func(*onboarding.Session) error) (*onboarding.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT id, step, answers, created_at, updated_at FROM sessions WHERE id = ?`
	if s.dialect == DialectPostgres {
		query += ` FOR UPDATE`
	}
	sess, err := scanSession(tx.QueryRowContext(ctx, s.q(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	createdAt := sess.CreatedAt
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.ID = id
	sess.CreatedAt = createdAt
	sess.UpdatedAt = s.now()

	answers, err := json.Marshal(sess.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.q(`
		UPDATE sessions SET step = ?, answers = ?, updated_at = ? WHERE id = ?
	`), sess.Step.Name(), string(answers), formatTime(sess.UpdatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return sess, nil
}

// DeleteSession removes a session and its plans.
func (s *SQLStore) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM plans WHERE session_id = ?`), id); err != nil {
		return fmt.Errorf("delete plans: %w", err)
	}
	result, err := tx.ExecContext(ctx, s.q(`DELETE FROM sessions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// PurgeSessions deletes sessions last updated before the cutoff, with their
// plans, and returns how many sessions were removed.
func (s *SQLStore) PurgeSessions(ctx context.Context, before time.Time) (int64, error) {
	cutoff := formatTime(before)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(`
		DELETE FROM plans WHERE session_id IN (SELECT id FROM sessions WHERE updated_at < ?)
	`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge plans: %w", err)
	}
	result, err := tx.ExecContext(ctx, s.q(`DELETE FROM sessions WHERE updated_at < ?`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return purged, nil
}

// SavePlan stores a generated plan against an existing session.
func (s *SQLStore) SavePlan(ctx context.Context, sessionID, model string, req program.Request, plan program.Plan) (*types.PlanRecord, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM sessions WHERE id = ?`), sessionID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("check session: %w", err)
	}

	rec := &types.PlanRecord{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Model:     model,
		Request:   req,
		Plan:      plan,
		CreatedAt: s.now(),
	}
	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO plans (id, session_id, request, plan, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), rec.ID, sessionID, string(reqJSON), string(planJSON), model, formatTime(rec.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return rec, nil
}

// LatestPlan returns the most recently generated plan for a session.
func (s *SQLStore) LatestPlan(ctx context.Context, sessionID string) (*types.PlanRecord, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, session_id, request, plan, model, created_at
		FROM plans
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`), sessionID)

	var rec types.PlanRecord
	var reqJSON, planJSON, createdAt string
	if err := row.Scan(&rec.ID, &rec.SessionID, &reqJSON, &planJSON, &rec.Model, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	if err := json.Unmarshal([]byte(reqJSON), &rec.Request); err != nil {
		return nil, fmt.Errorf("parse request JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(planJSON), &rec.Plan); err != nil {
		return nil, fmt.Errorf("parse plan JSON: %w", err)
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = t
	return &rec, nil
}

// Stats returns aggregate store statistics.
func (s *SQLStore) Stats(ctx context.Context) (*types.StoreStats, error) {
	var stats types.StoreStats
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM sessions WHERE step = ?),
			(SELECT COUNT(*) FROM plans)
	`), onboarding.LastStep.Name()).Scan(&stats.Sessions, &stats.CompletedSessions, &stats.Plans)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &stats, nil
}

// scanSession scans a row into a Session, decoding the answers JSON.
func scanSession(scanner interface{ Scan(...any) error }) (*onboarding.Session, error) {
	var sess onboarding.Session
	var step, answers, createdAt, updatedAt string

	if err := scanner.Scan(&sess.ID, &step, &answers, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsed, err := onboarding.ParseStep(step)
	if err != nil {
		return nil, fmt.Errorf("parse step: %w", err)
	}
	sess.Step = parsed

	if err := json.Unmarshal([]byte(answers), &sess.Answers); err != nil {
		return nil, fmt.Errorf("parse answers JSON: %w", err)
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sess.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &sess, nil
}
