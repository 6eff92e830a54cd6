package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lionel/config"
	"lionel/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	pruneTable := flag.String("prune-table", "", "delete one season of rows from this table and exit")
	pruneSeason := flag.Int("prune-season", 0, "season to delete with -prune-table (defaults to the configured season)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := OpenDB(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if *pruneTable != "" {
		season := *pruneSeason
		if season == 0 {
			season = cfg.Season
		}
		if err := runPrune(ctx, db, *pruneTable, season); err != nil {
			logging.Error().Err(err).Str("table", *pruneTable).Int("season", season).Msg("prune failed")
			db.Close()
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, cfg, db); err != nil {
		logging.Error().Err(err).Msg("server stopped with error")
		db.Close()
		os.Exit(1)
	}
}

// runPrune deletes one season of rows from table.
func runPrune(ctx context.Context, db *DBManager, table string, season int) error {
	n, err := db.DeleteRows(ctx, table, season)
	if err != nil {
		return fmt.Errorf("pruning %s for season %d: %w", table, season, err)
	}
	logging.Info().Str("table", table).Int("season", season).Int64("rows", n).Msg("pruned season")
	return nil
}

func serve(ctx context.Context, cfg *config.Config, db *DBManager) error {
	cache, err := NewCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer cache.Close()

	dash := NewDashboard(db, cache, cfg)
	h := NewHandler(dash, db, cfg.Defaults)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      NewRouter(h, cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Server.Addr).Int("season", cfg.Season).Msg("lionel dashboard listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
