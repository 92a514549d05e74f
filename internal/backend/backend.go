// Package backend composes a service.Service from the configured table,
// storage and auth implementations.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"

	"taskboard/internal/backend/gcs"
	"taskboard/internal/backend/localfs"
	"taskboard/internal/backend/sqlstore"
	"taskboard/internal/backend/supabase"
	"taskboard/internal/config"
	"taskboard/internal/events"
	"taskboard/internal/service"
)

// New builds the service described by cfg. Mutations are published to
// Kafka when brokers are configured. The returned service implements
// io.Closer.
func New(ctx context.Context, cfg *config.Config) (service.Service, error) {
	var (
		sb      *supabase.Client
		closers closerList
		svc     = &service.Composite{}
	)
	needSupabase := cfg.Backend.Table == config.KindSupabase ||
		cfg.Backend.Storage == config.KindSupabase ||
		cfg.Backend.Auth == config.KindSupabase
	if needSupabase {
		c, err := supabase.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sb = c
	}

	switch cfg.Backend.Table {
	case config.KindSupabase:
		svc.TaskTable = sb
	case config.KindSQLite:
		s, err := sqlstore.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		closers = append(closers, s)
		svc.TaskTable = s
	case config.KindPostgres:
		s, err := sqlstore.OpenPostgres(cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		closers = append(closers, s)
		svc.TaskTable = s
	default:
		return nil, fmt.Errorf("unknown table backend: %s", cfg.Backend.Table)
	}

	switch cfg.Backend.Storage {
	case config.KindSupabase:
		svc.ObjectStore = sb
	case config.KindGCS:
		c, err := gcs.New(ctx, cfg)
		if err != nil {
			_ = closers.Close()
			return nil, err
		}
		svc.ObjectStore = c
	case config.KindLocal:
		s, err := localfs.New(cfg.Local.Dir, cfg.Local.BaseURL)
		if err != nil {
			_ = closers.Close()
			return nil, err
		}
		svc.ObjectStore = s
	default:
		_ = closers.Close()
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend.Storage)
	}

	switch cfg.Backend.Auth {
	case config.KindSupabase:
		svc.Authenticator = sb
	case config.KindNone:
		svc.Authenticator = NewLocalAuth()
	default:
		_ = closers.Close()
		return nil, fmt.Errorf("unknown auth backend: %s", cfg.Backend.Auth)
	}

	svc.Closer = closers
	return events.Wrap(svc, events.New(cfg.Kafka), cfg.Logger()), nil
}

// closerList closes every element, joining the errors.
type closerList []io.Closer

func (l closerList) Close() error {
	var errs []error
	for _, c := range l {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
