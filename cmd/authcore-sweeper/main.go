// Command authcore-sweeper periodically removes expired entries from the
// refresh-token account indexes. Token records self-expire via their Redis
// TTL; the sweeper keeps the per-account indexes of idle accounts from
// accumulating dead digests.
//
// Configuration comes from the environment:
//
//	SWEEPER_REDIS_ADDR     redis address (default localhost:6379)
//	SWEEPER_REDIS_PREFIX   key prefix shared with the engine (default ac)
//	SWEEPER_INTERVAL       sweep interval (default 10m)
//	SWEEPER_ONCE           run a single sweep and exit (default false)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"

	"github.com/dverkh/authcore/refresh"
)

type config struct {
	RedisAddr   string        `env:"SWEEPER_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix string        `env:"SWEEPER_REDIS_PREFIX" envDefault:"ac"`
	Interval    time.Duration `env:"SWEEPER_INTERVAL" envDefault:"10m"`
	Once        bool          `env:"SWEEPER_ONCE" envDefault:"false"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal("authcore-sweeper: parse env: ", err)
	}
	if cfg.Interval <= 0 {
		log.Fatal("authcore-sweeper: SWEEPER_INTERVAL must be positive")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{cfg.RedisAddr},
	})
	defer client.Close()

	store := refresh.NewStore(client, cfg.RedisPrefix, 0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := store.Ping(ctx); err != nil {
		log.Fatal("authcore-sweeper: redis unreachable: ", err)
	}

	sweep(ctx, store)
	if cfg.Once {
		return
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweep(ctx, store)
		case <-ctx.Done():
			log.Print("authcore-sweeper: shutting down")
			return
		}
	}
}

func sweep(ctx context.Context, store *refresh.Store) {
	start := time.Now()
	removed, err := store.SweepExpired(ctx)
	if err != nil {
		log.Print("authcore-sweeper: sweep failed: ", err)
		return
	}
	log.Printf("authcore-sweeper: removed %d expired entries in %s", removed, time.Since(start).Round(time.Millisecond))
}
