package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/commonwords/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/commonwords/pkg/redis"
)

func newHealthCommand(opts *options, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the optional backends enabled in the config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts, stderr)
			if err != nil {
				return err
			}
			report := newChecker(cfg).Run(cmd.Context())
			if err := report.WriteJSON(stdout); err != nil {
				return err
			}
			if !report.Healthy() {
				return apperrors.New(apperrors.ErrInternal, apperrors.ExitFailure,
					"One or more backends are down.")
			}
			return nil
		},
	}
}

func newChecker(cfg *config.Config) *health.Checker {
	c := health.NewChecker(5 * time.Second)

	if cfg.Redis.Enabled {
		c.Register("redis", func(ctx context.Context) error {
			client, err := pkgredis.NewClient(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			return client.Close()
		})
	} else {
		c.Disable("redis")
	}

	if cfg.Kafka.Enabled {
		c.Register("kafka", func(ctx context.Context) error {
			return kafka.Ping(ctx, cfg.Kafka.Brokers)
		})
	} else {
		c.Disable("kafka")
	}

	if cfg.Postgres.Enabled {
		c.Register("postgres", func(ctx context.Context) error {
			db, err := postgres.New(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			return db.Close()
		})
	} else {
		c.Disable("postgres")
	}
	return c
}
