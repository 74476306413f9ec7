package main

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/malina/auth-service/internal/api/handler"
	"github.com/malina/auth-service/internal/core/ports"
	"github.com/malina/auth-service/internal/infrastructure/config"
	"github.com/malina/auth-service/internal/infrastructure/db/memory"
	mongostore "github.com/malina/auth-service/internal/infrastructure/db/mongo"
	"github.com/malina/auth-service/internal/infrastructure/db/sqlstore"
)

type store struct {
	repo  ports.UserRepository
	ping  handler.Check
	close func() error
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, database, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "auth-service",
		})
		if err != nil {
			return nil, err
		}
		repo := mongostore.NewUserRepository(database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &store{
			repo:  repo,
			ping:  func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
			close: func() error { return client.Disconnect(context.Background()) },
		}, nil

	case config.DriverPostgres, config.DriverSQLite:
		sc := sqlstore.Config{Dialect: sqlstore.Postgres, DSN: cfg.SQL.PostgresDSN}
		if cfg.Store.Driver == config.DriverSQLite {
			sc = sqlstore.Config{Dialect: sqlstore.SQLite, DSN: cfg.SQL.SQLitePath}
		}
		gdb, err := sqlstore.Open(sc)
		if err != nil {
			return nil, err
		}
		return &store{
			repo:  sqlstore.NewUserRepository(gdb),
			ping:  func(ctx context.Context) error { return sqlstore.Ping(ctx, gdb) },
			close: func() error { return sqlstore.Close(gdb) },
		}, nil

	case config.DriverMemory:
		return &store{
			repo:  memory.NewUserRepository(),
			ping:  func(context.Context) error { return nil },
			close: func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
