package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fantasy-autopick/internal/config"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	"github.com/riskibarqy/fantasy-autopick/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-autopick/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-autopick/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
)

const dbPingTimeout = 5 * time.Second

// NewSelectionRepository returns the postgres store when DB_URL is set and
// the in-memory store otherwise. Postgres reads go through a TTL cache when
// CACHE_ENABLED is set.
func NewSelectionRepository(cfg config.Config, logger *logging.Logger) (selection.Repository, func() error, error) {
	if cfg.DBURL == "" {
		logger.Info("selection storage", "driver", "memory")
		return memory.NewSelectionRepository(), func() error { return nil }, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	var repo selection.Repository = postgres.NewSelectionRepository(db)
	if cfg.CacheEnabled {
		repo = cache.NewSelectionRepository(repo, cfg.CacheTTL)
	}

	logger.Info("selection storage",
		"driver", "postgres",
		"database", dbNameFromURL(cfg.DBURL),
		"cache_enabled", cfg.CacheEnabled,
		"cache_ttl", cfg.CacheTTL,
	)
	return repo, db.Close, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.ServiceName, cfg.DBBinaryParameters)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	otelsql.ReportDBStatsMetrics(db.DB)
	return db, nil
}
