// Package indexdb keeps a queryable SQLite index of journalled planner
// actions. The JSONL journal stays the source of truth; the index may drop
// entries when its writer falls behind.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"reactorcalc.ai/internal/persistence/journal"
	"reactorcalc.ai/internal/sim/rates"
)

const insertActionSQL = `INSERT OR REPLACE INTO actions(session_id,seq,time_ns,type,code,layout_rle,sre,turbines,act_json) VALUES(?,?,?,?,?,?,?,?,?)`

type SQLiteIndex struct {
	db *sql.DB

	mu     sync.RWMutex
	closed bool
	ch     chan journal.Entry
	wg     sync.WaitGroup
}

// SessionSummary aggregates the indexed actions of one session.
type SessionSummary struct {
	SessionID   string
	First, Last time.Time
	Actions     int
	Rejected    int
	MaxSRE      float64
	MaxTurbines int64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{db: db, ch: make(chan journal.Entry, 65536)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			digest TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS actions (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			time_ns INTEGER NOT NULL,
			type TEXT NOT NULL,
			code TEXT NOT NULL,
			layout_rle TEXT NOT NULL,
			sre REAL NOT NULL,
			turbines INTEGER NOT NULL,
			act_json TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_time ON actions(time_ns);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains queued entries and closes the database.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.wg.Wait()
	return s.db.Close()
}

// Record queues e for indexing. It never blocks the caller and drops e when
// the queue is full; use RecordAll when every entry must land.
func (s *SQLiteIndex) Record(e journal.Entry) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	select {
	case s.ch <- e:
	default:
	}
	return nil
}

// RecordAll indexes entries synchronously in one transaction and returns
// how many rows were written.
func (s *SQLiteIndex) RecordAll(ctx context.Context, entries []journal.Entry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertActionSQL)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, e := range entries {
		if e.Time.IsZero() {
			e.Time = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, actionArgs(e)...); err != nil {
			return 0, fmt.Errorf("entry %d (session %s seq %d): %w", i, e.SessionID, e.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Count returns the number of indexed actions.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions`).Scan(&n)
	return n, err
}

func actionArgs(e journal.Entry) []any {
	actJSON, _ := json.Marshal(e.Action)
	return []any{
		e.SessionID,
		int64(e.Seq),
		e.Time.UnixNano(),
		e.Action.Type,
		e.Code,
		e.LayoutRLE,
		e.SRE,
		e.Turbines,
		string(actJSON),
	}
}

// UpsertCatalog stores the rate tables served under cat's digest.
func (s *SQLiteIndex) UpsertCatalog(cat *rates.Catalog) error {
	b, err := json.Marshal(cat.Tables())
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO catalogs(digest,json,updated_at) VALUES(?,?,?)`,
		cat.Digest(), string(b), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Sessions summarises indexed sessions, oldest first.
func (s *SQLiteIndex) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, MIN(time_ns), MAX(time_ns), COUNT(*),
			SUM(CASE WHEN code != '' THEN 1 ELSE 0 END), MAX(sre), MAX(turbines)
		FROM actions
		GROUP BY session_id
		ORDER BY MIN(time_ns), session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var (
			sum         SessionSummary
			first, last int64
		)
		if err := rows.Scan(&sum.SessionID, &first, &last, &sum.Actions, &sum.Rejected, &sum.MaxSRE, &sum.MaxTurbines); err != nil {
			return nil, err
		}
		sum.First, sum.Last = time.Unix(0, first).UTC(), time.Unix(0, last).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertAction, _ := s.db.Prepare(insertActionSQL)
	defer func() {
		if insertAction != nil {
			_ = insertAction.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	tick := time.NewTicker(commitMaxWait)
	defer tick.Stop()

	for {
		var e journal.Entry
		select {
		case <-tick.C:
			// Release the connection so readers are not starved between bursts.
			commit()
			continue
		case next, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			e = next
		}

		begin()
		if tx == nil || insertAction == nil {
			continue
		}
		if _, err := tx.Stmt(insertAction).Exec(actionArgs(e)...); err != nil {
			_ = tx.Rollback()
			tx = nil
			continue
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
}
