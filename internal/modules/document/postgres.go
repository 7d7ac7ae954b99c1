package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/georgemunganga/qrpay/internal/config"
)

// notifyChannel carries one JSON snapshot per committed write.
const notifyChannel = "qrpay_documents"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
  path       TEXT PRIMARY KEY,
  fields     JSONB NOT NULL DEFAULT '{}'::jsonb,
  version    BIGINT NOT NULL DEFAULT 1,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// The upsert and the notification run in one statement, so subscribers in every process
// hear about exactly the writes that committed.
const postgresSetMerge = `
WITH upsert AS (
  INSERT INTO documents (path, fields, version, updated_at)
  VALUES ($1, $2::jsonb, 1, now())
  ON CONFLICT (path) DO UPDATE
    SET fields = documents.fields || EXCLUDED.fields,
        version = documents.version + 1,
        updated_at = now()
  RETURNING path, fields, version, updated_at
)
SELECT pg_notify($3, json_build_object(
         'path', path, 'fields', fields, 'version', version, 'updated_at', updated_at)::text)
FROM upsert`

type postgresStore struct {
	base
	db       *sql.DB
	listener *pq.Listener
	done     chan struct{}
	once     sync.Once
}

// NewPostgresStore creates the documents table if needed and starts listening for
// change notifications.
func NewPostgresStore(ctx context.Context, db *sql.DB, dsn string, timeout time.Duration) (Store, error) {
	s := &postgresStore{
		base: newBase(config.DriverPostgres, timeout),
		db:   db,
		done: make(chan struct{}),
	}

	initCtx, cancel := s.bound(ctx)
	defer cancel()
	if _, err := db.ExecContext(initCtx, postgresSchema); err != nil {
		return nil, s.fail("migrate", "documents", err)
	}

	s.listener = pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn().Err(err).Int("event", int(ev)).Msg("document listener event")
		}
	})
	if err := s.listener.Listen(notifyChannel); err != nil {
		s.listener.Close()
		return nil, s.fail("listen", notifyChannel, err)
	}
	go s.dispatch()
	return s, nil
}

func (s *postgresStore) SetMerge(ctx context.Context, path string, fields map[string]int) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding fields for %s: %w", path, err)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	_, err = s.db.ExecContext(ctx, postgresSetMerge, path, string(body), notifyChannel)
	err = s.fail("set", path, err)
	s.recordWrite(err)
	return err
}

func (s *postgresStore) Get(ctx context.Context, path string) (*Snapshot, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	snap, err := s.get(ctx, path)
	return snap, s.fail("get", path, err)
}

func (s *postgresStore) get(ctx context.Context, path string) (*Snapshot, error) {
	var raw []byte
	snap := &Snapshot{Path: path}
	err := s.db.QueryRowContext(ctx,
		`SELECT fields, version, updated_at FROM documents WHERE path=$1`, path).
		Scan(&raw, &snap.Version, &snap.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if snap.Fields, err = decodeFields(raw); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *postgresStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	return s.subscribe(ctx, path, s.get)
}

func (s *postgresStore) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.listener.Close()
	})
	return err
}

func (s *postgresStore) dispatch() {
	for {
		select {
		case <-s.done:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			// A nil notification means the connection was re-established and
			// notifications may have been missed.
			if n == nil {
				s.resync()
				continue
			}
			snap, err := decodeNotification(n.Extra)
			if err != nil {
				log.Warn().Err(err).Str("payload", n.Extra).Msg("dropping malformed document notification")
				continue
			}
			s.hub.publish(snap)
		}
	}
}

func (s *postgresStore) resync() {
	for _, path := range s.hub.paths() {
		ctx, cancel := s.bound(context.Background())
		snap, err := s.get(ctx, path)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("document resync failed")
			continue
		}
		s.hub.publish(*snap)
	}
}

func decodeNotification(payload string) (Snapshot, error) {
	var msg struct {
		Path      string          `json:"path"`
		Fields    json.RawMessage `json:"fields"`
		Version   int64           `json:"version"`
		UpdatedAt time.Time       `json:"updated_at"`
	}
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return Snapshot{}, err
	}
	if msg.Path == "" {
		return Snapshot{}, errors.New("notification without path")
	}
	fields, err := decodeFields(msg.Fields)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: msg.Path, Fields: fields, Version: msg.Version, UpdatedAt: msg.UpdatedAt}, nil
}
