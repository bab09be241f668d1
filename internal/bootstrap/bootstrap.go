// Package bootstrap assembles the services shared by the api, grpc and worker
// binaries from the process configuration.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hayoungplace/app/comment"
	"hayoungplace/app/party"
	"hayoungplace/app/place"
	"hayoungplace/infra/cache"
	"hayoungplace/infra/rabbitmq"
	"hayoungplace/infra/storage"
	"hayoungplace/pkg/aws"
	"hayoungplace/pkg/config"
	"hayoungplace/pkg/events"
	"hayoungplace/pkg/secret"
)

type Options struct {
	// Publish connects to RABBITMQ_URL and emits domain events.
	Publish bool
	// Cache keeps listing pages in redis when REDIS_ADDR is set.
	Cache bool
	// Images uploads place images to AWS_BUCKET when it is set.
	Images bool
}

type Container struct {
	Places   *place.Service
	Comments *comment.Service
	Parties  *party.Service
	// Checks feed the health endpoint, keyed by component name.
	Checks map[string]func(ctx context.Context) error

	closers []func(ctx context.Context) error
}

// Close releases every connection in reverse order of creation.
func (c *Container) Close(ctx context.Context) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			zap.L().Warn("Error closing resource", zap.Error(err))
		}
	}
}

func Build(ctx context.Context, cfg *config.AppConfig, opts Options) (*Container, error) {
	gate, err := secret.New(cfg.SecretScheme)
	if err != nil {
		return nil, err
	}

	repos, err := storage.Open(ctx, cfg, gate)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}

	c := &Container{
		Checks:  map[string]func(ctx context.Context) error{"storage": repos.Ping},
		closers: []func(ctx context.Context) error{repos.Close},
	}

	placeOpts := []place.Option{place.WithThreadCleaner(repos.Comments)}
	var commentOpts []comment.Option
	var partyOpts []party.Option

	if opts.Cache && cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			zap.L().Warn("Redis unavailable, listing cache disabled", zap.Error(err))
		} else {
			pages := cache.NewPageCache(client, cfg.ServiceName, cfg.CacheTTL())
			placeOpts = append(placeOpts, place.WithPageCache(pages))
			c.Checks["cache"] = pages.Ping
			c.closers = append(c.closers, func(context.Context) error { return client.Close() })
		}
	}

	if opts.Images && cfg.AWSBucket != "" {
		bucket := aws.NewS3Bucket(aws.S3Config{
			Endpoint:  cfg.AWSEndpoint,
			Bucket:    cfg.AWSBucket,
			Region:    cfg.AWSDefaultRegion,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
		})
		placeOpts = append(placeOpts, place.WithImageStorage(bucket))
		c.closers = append(c.closers, func(context.Context) error { return bucket.Close() })
	}

	if opts.Publish && cfg.RabbitMQURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.ServiceName, events.PlaceExchange, events.PartyExchange)
		if err != nil {
			zap.L().Warn("RabbitMQ unavailable, events disabled", zap.Error(err))
		} else {
			placeOpts = append(placeOpts, place.WithPublisher(publisher, cfg.ServiceName))
			commentOpts = append(commentOpts, comment.WithPublisher(publisher, cfg.ServiceName))
			partyOpts = append(partyOpts, party.WithPublisher(publisher, cfg.ServiceName))
			c.Checks["broker"] = func(context.Context) error {
				if !publisher.IsHealthy() {
					return fmt.Errorf("rabbitmq connection closed")
				}
				return nil
			}
			c.closers = append(c.closers, func(context.Context) error { return publisher.Close() })
		}
	}

	c.Places = place.NewService(repos.Places, gate, placeOpts...)
	c.Comments = comment.NewService(repos.Comments, c.Places, gate, commentOpts...)
	c.Parties = party.NewService(repos.Parties, gate, partyOpts...)

	return c, nil
}
