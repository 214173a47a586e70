package config

import (
	"fmt"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/sirupsen/logrus"
)

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8081"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:hamster"`
	MaxIdleConns int    `conf:"default:2"`
	MaxOpenConns int    `conf:"default:10"`
	DisableTLS   bool   `conf:"default:true"`
}

type Search struct {
	Addr         string        `conf:"default:localhost:6379"`
	Password     string        `conf:"mask"`
	DB           int           `conf:"default:0"`
	Prefix       string        `conf:"default:hamster"`
	QueryTimeout time.Duration `conf:"default:3s"`
}

type Sync struct {
	Workers   int `conf:"default:4"`
	QueueSize int `conf:"default:1024"`
}

type Auth struct {
	Secret string `conf:"mask,help:base64 encoded HMAC secret shared with the token issuer"`
	Issuer string
}

type Log struct {
	Level  string `conf:"default:info"`
	Format string `conf:"default:text"`
}

// Apply sets the level and formatter of log.
func (l Log) Apply(log *logrus.Logger) error {
	lvl, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(lvl)

	switch l.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", l.Format)
	}
	return nil
}

type Config struct {
	conf.Version
	Args   conf.Args
	Web    Web
	DB     DB
	Search Search
	Sync   Sync
	Auth   Auth
	Log    Log
}

type Upstream struct {
	URL     string        `conf:"default:http://localhost:8081"`
	Timeout time.Duration `conf:"default:30s"`
}

type Cookie struct {
	Name string `conf:"default:jhi-authenticationToken"`
}

type Cors struct {
	Origins []string
}

type Rate struct {
	RPS    float64       `conf:"default:20"`
	Burst  int           `conf:"default:40"`
	Expiry time.Duration `conf:"default:10m,help:how long a silent client is remembered"`
}

type GatewayWeb struct {
	Address         string        `conf:"default:0.0.0.0:8080"`
	ReadTimeout     time.Duration `conf:"default:10s"`
	WriteTimeout    time.Duration `conf:"default:40s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Gateway struct {
	conf.Version
	Web      GatewayWeb
	Upstream Upstream
	Cookie   Cookie
	Cors     Cors
	Rate     Rate
	Log      Log
}
