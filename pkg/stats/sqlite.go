package stats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore appends every decision to a local SQLite table. It suits a
// single instance that wants an on-disk audit of decisions.
type SQLiteStore struct {
	db *sql.DB

	insertStmt *sql.Stmt
	totalsStmt *sql.Stmt
	deleteStmt *sql.Stmt
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string, busyTimeout time.Duration) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if busyTimeout == 0 {
		busyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		limiter TEXT NOT NULL,
		principal TEXT NOT NULL DEFAULT '',
		allowed INTEGER NOT NULL,
		cost INTEGER NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_limiter ON decisions(limiter);
	CREATE INDEX IF NOT EXISTS idx_decisions_at ON decisions(at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO decisions (limiter, principal, allowed, cost, at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.totalsStmt, err = s.db.Prepare(`
		SELECT
			COALESCE(SUM(CASE WHEN allowed = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN allowed = 0 THEN 1 ELSE 0 END), 0)
		FROM decisions
		WHERE limiter = ?
	`)
	if err != nil {
		return err
	}

	s.deleteStmt, err = s.db.Prepare(`DELETE FROM decisions WHERE at < ?`)
	return err
}

// Record implements Store.
func (s *SQLiteStore) Record(ctx context.Context, ev Event) error {
	allowed := 0
	if ev.Allowed {
		allowed = 1
	}
	_, err := s.insertStmt.ExecContext(ctx, ev.Limiter, ev.Principal, allowed, ev.Cost, eventTime(ev).UnixNano())
	if err != nil {
		return fmt.Errorf("record decision for %q: %w", ev.Limiter, err)
	}
	return nil
}

// Totals implements Store.
func (s *SQLiteStore) Totals(ctx context.Context, limiter string) (Counters, error) {
	var c Counters
	if err := s.totalsStmt.QueryRowContext(ctx, limiter).Scan(&c.Allowed, &c.Denied); err != nil {
		return Counters{}, fmt.Errorf("read totals for %q: %w", limiter, err)
	}
	return c, nil
}

// Cleanup deletes events recorded before olderThan and returns how many
// rows were removed.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.deleteStmt.ExecContext(ctx, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("cleanup decisions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.insertStmt, s.totalsStmt, s.deleteStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}
