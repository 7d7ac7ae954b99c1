package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/georgemunganga/qrpay/internal/config"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
  path              TEXT PRIMARY KEY,
  fields            TEXT NOT NULL DEFAULT '{}',
  version           INTEGER NOT NULL DEFAULT 1,
  updated_unix_nano INTEGER NOT NULL
);`

const sqliteSetMerge = `
INSERT INTO documents (path, fields, version, updated_unix_nano)
VALUES (?, json(?), 1, ?)
ON CONFLICT(path) DO UPDATE SET
  fields = json_patch(documents.fields, excluded.fields),
  version = documents.version + 1,
  updated_unix_nano = excluded.updated_unix_nano
RETURNING fields, version, updated_unix_nano;`

// sqlitePollInterval is how often a file-backed store looks for commits made by other
// connections, such as a second qrpay process on the same file.
const sqlitePollInterval = 100 * time.Millisecond

type sqliteStore struct {
	base
	db *sql.DB
	// mu keeps write order and publish order identical within the process.
	mu  sync.Mutex
	now func() time.Time

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// OpenSQLite opens (or creates) the database file. Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string, timeout time.Duration) (Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		// WAL lets readers proceed while a merge-write holds the lock.
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &sqliteStore{
		base: newBase(config.DriverSQLite, timeout),
		db:   db,
		now:  time.Now,
		done: make(chan struct{}),
	}
	initCtx, cancel := s.bound(ctx)
	defer cancel()
	if _, err := db.ExecContext(initCtx, sqliteSchema); err != nil {
		db.Close()
		return nil, s.fail("migrate", "documents", err)
	}
	if path != ":memory:" {
		s.wg.Add(1)
		go s.poll(sqlitePollInterval)
	}
	return s, nil
}

func (s *sqliteStore) SetMerge(ctx context.Context, path string, fields map[string]int) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding fields for %s: %w", path, err)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	var raw string
	var nanos int64
	snap := Snapshot{Path: path}
	err = s.db.QueryRowContext(ctx, sqliteSetMerge, path, string(body), s.now().UnixNano()).
		Scan(&raw, &snap.Version, &nanos)
	if err == nil {
		snap.Fields, err = decodeFields([]byte(raw))
	}
	err = s.fail("set", path, err)
	s.recordWrite(err)
	if err != nil {
		return err
	}
	snap.UpdatedAt = time.Unix(0, nanos)
	s.hub.publish(snap)
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, path string) (*Snapshot, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	snap, err := s.get(ctx, path)
	return snap, s.fail("get", path, err)
}

func (s *sqliteStore) get(ctx context.Context, path string) (*Snapshot, error) {
	var raw string
	var nanos int64
	snap := &Snapshot{Path: path}
	err := s.db.QueryRowContext(ctx,
		`SELECT fields, version, updated_unix_nano FROM documents WHERE path=?`, path).
		Scan(&raw, &snap.Version, &nanos)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if snap.Fields, err = decodeFields([]byte(raw)); err != nil {
		return nil, err
	}
	snap.UpdatedAt = time.Unix(0, nanos)
	return snap, nil
}

func (s *sqliteStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	return s.subscribe(ctx, path, s.get)
}

func (s *sqliteStore) Close() error {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
	return s.db.Close()
}

// poll publishes the subscribed documents whenever data_version reports a commit from
// another connection. Writes made through this store are published by SetMerge.
func (s *sqliteStore) poll(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var seen int64 = -1
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
		paths := s.hub.paths()
		if len(paths) == 0 {
			continue
		}
		version, err := s.dataVersion()
		if err != nil {
			log.Warn().Err(err).Msg("sqlite data_version check failed")
			continue
		}
		if version == seen {
			continue
		}
		seen = version
		s.refresh(paths)
	}
}

func (s *sqliteStore) dataVersion() (int64, error) {
	ctx, cancel := s.bound(context.Background())
	defer cancel()
	var v int64
	err := s.db.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v)
	return v, err
}

func (s *sqliteStore) refresh(paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, path := range paths {
		ctx, cancel := s.bound(context.Background())
		snap, err := s.get(ctx, path)
		cancel()
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("sqlite refresh failed")
			continue
		}
		s.hub.publish(*snap)
	}
}
