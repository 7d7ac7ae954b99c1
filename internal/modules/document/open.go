package document

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/georgemunganga/qrpay/internal/config"
)

// Open builds the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Info().Str("driver", cfg.StoreDriver).Msg("document store ready")
		return NewMemoryStore(cfg.StoreTimeout), nil

	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath, cfg.StoreTimeout)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", cfg.StoreDriver).Str("path", cfg.SQLitePath).Msg("document store ready")
		return s, nil

	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		s, err := NewPostgresStore(ctx, db, cfg.DatabaseURL, cfg.StoreTimeout)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Info().Str("driver", cfg.StoreDriver).Msg("document store ready")
		return &ownedDB{Store: s, db: db}, nil
	}
	return nil, fmt.Errorf("invalid store driver: %s", cfg.StoreDriver)
}

// ownedDB closes the connection pool Open created once the store is closed.
type ownedDB struct {
	Store
	db *sql.DB
}

func (o *ownedDB) Close() error {
	err := o.Store.Close()
	if dbErr := o.db.Close(); err == nil {
		err = dbErr
	}
	return err
}
