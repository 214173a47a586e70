package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hamstertjie/Learn-With-Hamster-App/config"
	"github.com/Hamstertjie/Learn-With-Hamster-App/gateway"
	"github.com/Hamstertjie/Learn-With-Hamster-App/rate"
	"github.com/ardanlabs/conf/v3"
	"github.com/sirupsen/logrus"
)

var build = "develop"

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if err := Run(logger); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	const prefix = "GATEWAY"
	cfg := config.Gateway{
		Version: conf.Version{
			Build: build,
			Desc:  "learn with hamster edge gateway",
		},
	}

	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Log.Apply(logger); err != nil {
		return err
	}

	logger.Infof("starting gateway")
	defer logger.Info("shutdown complete")

	upstream, err := url.Parse(cfg.Upstream.URL)
	if err != nil {
		return fmt.Errorf("parsing upstream url: %w", err)
	}

	lim := rate.NewLimiter(cfg.Rate.Burst, cfg.Rate.Expiry, cfg.Rate.RPS)
	defer lim.Close()

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	gw := http.Server{
		Handler: gateway.New(gateway.Config{
			Log:        logger,
			Upstream:   upstream,
			Timeout:    cfg.Upstream.Timeout,
			CookieName: cfg.Cookie.Name,
			Origins:    cfg.Cors.Origins,
			Limiter:    lim,
		}),
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("forwarding %s to %s", gw.Addr, upstream)
		serverErrors <- gw.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := gw.Shutdown(ctx); err != nil {
			gw.Close()
			return fmt.Errorf("could not stop gateway gracefully: %w", err)
		}
	}
	return nil
}
