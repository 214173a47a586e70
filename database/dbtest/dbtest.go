// Package dbtest starts throwaway PostgreSQL and Redis containers for
// integration tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/Hamstertjie/Learn-With-Hamster-App/config"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

func pool(t *testing.T) *dockertest.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	p, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := p.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	return p
}

func run(t *testing.T, p *dockertest.Pool, opts *dockertest.RunOptions) *dockertest.Resource {
	t.Helper()
	res, err := p.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("starting %s: %v", opts.Repository, err)
	}
	t.Cleanup(func() {
		if err := p.Purge(res); err != nil {
			t.Logf("purging %s: %v", opts.Repository, err)
		}
	})
	return res
}

// New returns a migrated database running in docker. The test is skipped in
// short mode or when docker cannot be reached.
func New(t *testing.T) *sqlx.DB {
	t.Helper()
	p := pool(t)

	cfg := config.DB{
		User:         "postgres",
		Password:     "secret",
		Name:         "hamster",
		MaxIdleConns: 2,
		MaxOpenConns: 10,
		DisableTLS:   true,
	}

	res := run(t, p, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=" + cfg.User,
			"POSTGRES_PASSWORD=" + cfg.Password,
			"POSTGRES_DB=" + cfg.Name,
		},
	})

	cfg.Host = res.GetHostPort("5432/tcp")

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("opening postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := p.Retry(db.Ping); err != nil {
		t.Fatalf("waiting for postgres: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

// NewRedis returns a client for an empty redis running in docker.
func NewRedis(t *testing.T) *redis.Client {
	t.Helper()
	p := pool(t)
	res := run(t, p, &dockertest.RunOptions{Repository: "redis", Tag: "7-alpine"})

	rdb := redis.NewClient(&redis.Options{Addr: res.GetHostPort("6379/tcp")})
	if err := p.Retry(func() error {
		return rdb.Ping(context.Background()).Err()
	}); err != nil {
		t.Fatalf("waiting for redis: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	return rdb
}
