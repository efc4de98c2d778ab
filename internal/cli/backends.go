package cli

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/report/cache"
	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/report/publisher"
	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/report/store"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/commonwords/pkg/redis"
)

// backends holds the optional clients a run was able to reach. An enabled
// backend that cannot be reached is logged and left out.
type backends struct {
	redis    *pkgredis.Client
	producer *kafka.Producer
	db       *postgres.Client
	cache    *cache.ReportCache
	store    *store.Store
	logger   *slog.Logger
}

func connectBackends(ctx context.Context, cfg *config.Config) *backends {
	b := &backends{logger: slog.Default().With("component", "backends")}

	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			b.logger.Warn("report cache unavailable", "addr", cfg.Redis.Addr, "error", err)
		} else {
			b.redis = client
			b.cache = cache.New(client, cfg.Redis.CacheTTL)
		}
	}

	if cfg.Kafka.Enabled {
		b.producer = kafka.NewProducer(cfg.Kafka)
	}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			b.logger.Warn("report history unavailable", "host", cfg.Postgres.Host, "error", err)
		} else {
			s := store.New(db)
			if err := s.Migrate(ctx); err != nil {
				b.logger.Warn("report history schema failed", "error", err)
				_ = db.Close()
			} else {
				b.db = db
				b.store = s
			}
		}
	}
	return b
}

func (b *backends) engineOptions() []indexer.Option {
	var opts []indexer.Option
	if b.cache != nil {
		opts = append(opts, indexer.WithCache(b.cache))
	}
	if b.producer != nil {
		opts = append(opts, indexer.WithSinks(publisher.New(b.producer)))
	}
	if b.store != nil {
		opts = append(opts, indexer.WithSinks(b.store))
	}
	return opts
}

func (b *backends) Close() {
	if b.producer != nil {
		if err := b.producer.Close(); err != nil {
			b.logger.Warn("closing kafka producer", "error", err)
		}
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			b.logger.Warn("closing redis client", "error", err)
		}
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.logger.Warn("closing postgres client", "error", err)
		}
	}
}
