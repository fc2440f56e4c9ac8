package app

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/shop-assistant/internal/config"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/kv"
	"github.com/nguyentranbao-ct/shop-assistant/internal/repo/searchidx"
)

func newMongoDB(lc fx.Lifecycle, cfg *config.Config) (*searchidx.DB, error) {
	opts := options.Client().
		SetAppName("shop-assistant").
		ApplyURI(cfg.Database.URI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mongoClient, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("init mongo client: %w", err)
	}

	mongoDB := mongoClient.Database(cfg.Database.Database)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		},
		OnStop: func(ctx context.Context) error {
			return mongoClient.Disconnect(ctx)
		},
	})

	return &searchidx.DB{
		Client:   mongoClient,
		Database: mongoDB,
	}, nil
}

func newKVStore(lc fx.Lifecycle, cfg *config.Config) kv.Store {
	store := kv.NewStore(cfg)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.Ping(ctx)
		},
	})
	return store
}
