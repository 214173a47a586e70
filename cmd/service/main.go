package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hamstertjie/Learn-With-Hamster-App/api"
	"github.com/Hamstertjie/Learn-With-Hamster-App/api/background"
	"github.com/Hamstertjie/Learn-With-Hamster-App/config"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/auth"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/course"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/discipline"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/lesson"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/program"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/reindex"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/resource"
	"github.com/Hamstertjie/Learn-With-Hamster-App/core/search"
	"github.com/Hamstertjie/Learn-With-Hamster-App/database"
	"github.com/ardanlabs/conf/v3"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
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
	const prefix = "HAMSTER"
	cfg := config.Config{
		Version: conf.Version{
			Build: build,
			Desc:  "learn with hamster catalog service",
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

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Search.Addr,
		Password: cfg.Search.Password,
		DB:       cfg.Search.DB,
	})
	defer rdb.Close()
	idx := search.NewRedisIndex(rdb, cfg.Search.Prefix)

	switch cmd := cfg.Args.Num(0); cmd {
	case "", "serve":
		return serve(logger, cfg, db, idx)
	case "reindex":
		return runReindex(logger, db, idx, cfg.Args[1:])
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serve(logger *logrus.Logger, cfg config.Config, db *sqlx.DB, idx search.Index) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	verifier, err := auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("building token verifier: %w", err)
	}

	bg := background.New(logger, cfg.Sync.Workers, cfg.Sync.QueueSize)
	br := search.NewBridge(idx, bg, logger, cfg.Search.QueryTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Search.QueryTimeout)
	if err := br.Ping(ctx); err != nil {
		logger.WithError(err).Warn("search backend unreachable, starting anyway")
	}
	cancel()

	mux := api.APIMux(api.APIConfig{
		Log:      logger,
		DB:       db,
		Bridge:   br,
		Verifier: verifier,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
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

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		if err := bg.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not complete all background tasks: %w", err)
		}
	}
	return nil
}

func runReindex(logger *logrus.Logger, db *sqlx.DB, idx search.Index, names []string) error {
	all := []struct {
		table string
		src   search.Source
	}{
		{course.Table, course.NewSource(db)},
		{lesson.Table, lesson.NewSource(db)},
		{program.Table, program.NewSource(db)},
		{discipline.Table, discipline.NewSource(db)},
		{resource.Table, resource.NewSource(db)},
	}

	want := make(map[string]bool)
	for _, n := range names {
		want[n] = true
	}

	var targets []reindex.Target
	for _, t := range all {
		if len(names) > 0 && !want[t.src.Index()] {
			continue
		}
		delete(want, t.src.Index())
		targets = append(targets, reindex.Target{Source: t.src, IDs: reindex.TableIDs(db, t.table)})
	}
	for n := range want {
		return fmt.Errorf("unknown index %q", n)
	}

	start := time.Now()
	if _, err := reindex.Run(context.Background(), idx, logger, targets...); err != nil {
		return err
	}
	logger.WithField("since", time.Since(start).String()).Info("reindex complete")
	return nil
}
