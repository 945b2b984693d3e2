package cli

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/georgemunganga/milkchain-backend/internal/cache"
	"github.com/georgemunganga/milkchain-backend/internal/config"
	"github.com/georgemunganga/milkchain-backend/internal/database"
	"github.com/georgemunganga/milkchain-backend/internal/logging"
	"github.com/georgemunganga/milkchain-backend/internal/modules/allocation"
	"github.com/georgemunganga/milkchain-backend/internal/modules/assignment"
	"github.com/georgemunganga/milkchain-backend/internal/modules/customer"
	"github.com/georgemunganga/milkchain-backend/internal/modules/delivery"
	"github.com/georgemunganga/milkchain-backend/internal/modules/partner"
	"github.com/georgemunganga/milkchain-backend/internal/modules/supplier"
	"github.com/georgemunganga/milkchain-backend/internal/reconcile"
)

// app holds what every command shares.
type app struct {
	cfg    config.Config
	db     *sql.DB
	store  cache.Store
	engine *reconcile.Engine
}

// newApp loads configuration, opens the cache and probes the remote store
// once. An unreachable store is not an error: the engine runs on the cache
// alone for the rest of the process.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging, cfg.Environment)

	store, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, store: store}
	var gw *reconcile.Gateway
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("Remote store unavailable, running on local cache only")
	} else {
		a.db = db
		gw = newGateway(db)
		log.Info().Msg("Successfully connected to the database")
	}

	a.engine = reconcile.New(gw, store,
		reconcile.WithLogger(log.Logger),
		reconcile.WithLocation(cfg.Location()))
	return a, nil
}

func newGateway(db *sql.DB) *reconcile.Gateway {
	return &reconcile.Gateway{
		Suppliers:   supplier.NewPostgresRepository(db),
		Partners:    partner.NewPostgresRepository(db),
		Customers:   customer.NewPostgresRepository(db),
		Assignments: assignment.NewPostgresRepository(db),
		Allocations: allocation.NewPostgresRepository(db),
		Deliveries:  delivery.NewPostgresRepository(db),
	}
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close local cache")
	}
}
