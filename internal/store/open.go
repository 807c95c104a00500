package store

import (
	"context"
	"fmt"

	"workforce-analyst/internal/common/config"
	"workforce-analyst/internal/common/database"
)

// Open connects the backend named by cfg.Store.Backend and prepares its
// table or index. The memory backend is seeded from cfg.Store.SeedFile.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	collection := cfg.Store.Collection

	switch cfg.Store.Backend {
	case config.BackendMemory, "":
		s := NewMemoryStore()
		if cfg.Store.SeedFile != "" {
			if _, err := LoadWorkbookFile(ctx, s, cfg.Store.SeedFile); err != nil {
				return nil, fmt.Errorf("seed memory store: %w", err)
			}
		}
		return s, nil

	case config.BackendRedis:
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, err
		}
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, err
		}
		return NewRedisStore(rc.Client, collection)

	case config.BackendPostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		s, err := NewPostgresStore(pg.DB, collection)
		if err != nil {
			pg.Close()
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return s, nil

	case config.BackendSQLite:
		lite, err := database.NewSQLite(cfg.Database.SQLite)
		if err != nil {
			return nil, err
		}
		s, err := NewSQLiteStore(lite.DB, collection)
		if err != nil {
			lite.Close()
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			lite.Close()
			return nil, err
		}
		return s, nil

	case config.BackendElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, err
		}
		s, err := NewElasticsearchStore(es.Client, collection)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
