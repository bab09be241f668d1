package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hayoungplace/app/comment"
	"hayoungplace/app/party"
	"hayoungplace/app/place"
	"hayoungplace/infra/mongodb"
	"hayoungplace/infra/postgres"
	"hayoungplace/pkg/config"
)

// legacyPlacePassword is assigned to places stored before passwords existed.
const legacyPlacePassword = "1234"

// Repositories bundles the stores of one backend.
type Repositories struct {
	Places   place.Repository
	Comments comment.Repository
	Parties  party.Repository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func (r *Repositories) Ping(ctx context.Context) error {
	return r.ping(ctx)
}

func (r *Repositories) Close(ctx context.Context) error {
	return r.close(ctx)
}

// Hasher is the part of the secret gate used to backfill legacy documents.
type Hasher interface {
	Hash(plain string) (string, error)
}

// Open connects to the backend selected by STORAGE_DRIVER and prepares its schema.
func Open(ctx context.Context, cfg *config.AppConfig, hasher Hasher) (*Repositories, error) {
	switch cfg.StorageDriver {
	case config.StorageMongo, "":
		return openMongo(ctx, cfg, hasher)
	case config.StoragePostgres:
		return openPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func openMongo(ctx context.Context, cfg *config.AppConfig, hasher Hasher) (*Repositories, error) {
	client, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	digest, err := hasher.Hash(legacyPlacePassword)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("hash legacy password: %w", err)
	}
	if err := mongodb.Backfill(ctx, db, digest); err != nil {
		// Old documents still decode with defaults.
		zap.L().Error("Place backfill failed", zap.Error(err))
	}

	return &Repositories{
		Places:   mongodb.NewPlaceRepository(db),
		Comments: mongodb.NewCommentRepository(db),
		Parties:  mongodb.NewPartyRepository(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		close: client.Disconnect,
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.AppConfig) (*Repositories, error) {
	db, err := postgres.Connect(cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}

	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	zap.L().Info("Postgres pool ready", zap.Any("pool", postgres.PoolStats(db)))

	return &Repositories{
		Places:   postgres.NewPlaceRepository(db),
		Comments: postgres.NewCommentRepository(db),
		Parties:  postgres.NewPartyRepository(db),
		ping: func(ctx context.Context) error {
			return postgres.Ping(ctx, db)
		},
		close: func(context.Context) error {
			return db.Close()
		},
	}, nil
}
