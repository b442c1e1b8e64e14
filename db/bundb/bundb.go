package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	gamedb "github.com/blotto-league/blotto-bot/app/modules/game/infrastructure/repositories"
	"github.com/blotto-league/blotto-bot/config"
)

// DBService bundles the module repositories over a shared bun connection.
type DBService struct {
	GameDB *gamedb.GameDBImpl
	db     *bun.DB
}

// GetDB returns the underlying database connection pool.
func (s *DBService) GetDB() *bun.DB {
	return s.db
}

// NewBunDBService connects to Postgres and builds the repositories.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig) (*DBService, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	return &DBService{
		GameDB: &gamedb.GameDBImpl{DB: db},
		db:     db,
	}, nil
}

// Close releases the connection pool.
func (s *DBService) Close() error {
	return s.db.Close()
}
