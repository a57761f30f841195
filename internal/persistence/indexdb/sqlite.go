package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"pastewarden.ai/internal/sim/catalogs"
	"pastewarden.ai/internal/sim/host"
	"pastewarden.ai/internal/sim/tuning"
)

// SQLiteIndex is a read-model of fetch decisions. Writes are asynchronous and
// dropped when the writer falls behind; the JSONL log stays authoritative.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan host.Record
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
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

	s := &SQLiteIndex{
		db: db,
		ch: make(chan host.Record, queue),
	}
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
		"PRAGMA foreign_keys=ON;",
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
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS decisions (
			id TEXT PRIMARY KEY,
			at TEXT NOT NULL,
			acquirer_id TEXT NOT NULL,
			consumer_id TEXT NOT NULL,
			source TEXT NOT NULL,
			inventory_allowed INTEGER NOT NULL,
			best_inventory TEXT NOT NULL,
			resource_id TEXT NOT NULL,
			final_def TEXT NOT NULL,
			guard TEXT NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_consumer_at ON decisions(consumer_id, at);`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_resource ON decisions(resource_id);`,
		`CREATE TABLE IF NOT EXISTS candidates (
			decision_id TEXT NOT NULL REFERENCES decisions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			resource_id TEXT NOT NULL,
			category TEXT NOT NULL,
			dist_sq INTEGER NOT NULL,
			verdict TEXT NOT NULL,
			PRIMARY KEY (decision_id, seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Dropped is the number of records discarded because the queue was full.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

func (s *SQLiteIndex) WriteDecision(d host.Decision) error {
	return s.WriteRecord(d.Record(true))
}

func (s *SQLiteIndex) WriteRecord(r host.Record) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil || cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	{
		defs := make([]catalogs.ResourceDef, 0, len(cats.Resources.IDs))
		for _, id := range cats.Resources.IDs {
			defs = append(defs, cats.Resources.Defs[id])
		}
		b, _ := json.Marshal(defs)
		rows = append(rows, kv{name: "resources", digest: cats.Resources.Digest, json: b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertDecision, _ := s.db.Prepare(`INSERT OR REPLACE INTO decisions(id,at,acquirer_id,consumer_id,source,inventory_allowed,best_inventory,resource_id,final_def,guard,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertCandidate, _ := s.db.Prepare(`INSERT OR REPLACE INTO candidates(decision_id,seq,resource_id,category,dist_sq,verdict) VALUES(?,?,?,?,?,?)`)
	defer func() {
		if insertDecision != nil {
			_ = insertDecision.Close()
		}
		if insertCandidate != nil {
			_ = insertCandidate.Close()
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
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil || insertDecision == nil {
			continue
		}
		raw, _ := json.Marshal(r)
		allowed := 0
		if r.InventoryAllowed {
			allowed = 1
		}
		if _, err := tx.Stmt(insertDecision).Exec(
			r.ID, r.At, r.AcquirerID, r.ConsumerID, r.Source, allowed,
			r.BestInventory, r.ResourceID, r.FinalDef, r.Guard, string(raw),
		); err != nil {
			rollback()
			continue
		}
		opCount++
		for i, c := range r.Candidates {
			if insertCandidate == nil {
				break
			}
			if _, err := tx.Stmt(insertCandidate).Exec(r.ID, i, c.ResourceID, c.Category, c.DistSq, c.Verdict); err != nil {
				rollback()
				break
			}
			opCount++
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
