package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/contactbook/contactbook/internal/auth"
	"github.com/contactbook/contactbook/internal/config"
	"github.com/contactbook/contactbook/internal/contacts"
	"github.com/contactbook/contactbook/internal/db"
	"github.com/contactbook/contactbook/internal/logger"
	"github.com/contactbook/contactbook/internal/memory"
	"github.com/contactbook/contactbook/internal/mongodb"
)

// stores is the backend selected by STORE_DRIVER.
type stores struct {
	users    auth.UserStore
	contacts contacts.Store
	ping     func(context.Context) error
	migrate  func(context.Context) error
	close    func()
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	log = log.WithComponent("store")

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "connected to postgres")
		return &stores{
			users:    db.NewUserRepository(database),
			contacts: db.NewContactRepository(database),
			ping:     database.PingContext,
			migrate:  database.Migrate,
			close:    func() { database.Close() },
		}, nil

	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "connected to mongodb", zap.String("database", cfg.MongoDatabase))
		return &stores{
			users:    mongodb.NewUserStore(client.Database()),
			contacts: mongodb.NewContactStore(client.Database()),
			ping:     client.Ping,
			migrate: func(ctx context.Context) error {
				return mongodb.EnsureIndexes(ctx, client.Database())
			},
			close: func() { client.Close(context.Background()) },
		}, nil

	case config.DriverMemory:
		log.Warn(ctx, "using in-memory store; data is lost on restart")
		users, contactStore := memory.NewUserStore(), memory.NewContactStore()
		return &stores{
			users:    users,
			contacts: contactStore,
			ping:     contactStore.Ping,
			migrate:  func(context.Context) error { return nil },
			close:    func() {},
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
