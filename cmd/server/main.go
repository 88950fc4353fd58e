// Gaffer is a fantasy-football squad optimization service: it shapes stored
// market data into a candidate pool, selects squads and lineups with an
// exact solver, and plans one transfer per gameweek across a horizon.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/gaffer/internal/config"
	"github.com/aristath/gaffer/internal/database"
	"github.com/aristath/gaffer/internal/engine"
	"github.com/aristath/gaffer/internal/modules/lineup"
	"github.com/aristath/gaffer/internal/modules/market"
	"github.com/aristath/gaffer/internal/modules/pool"
	"github.com/aristath/gaffer/internal/modules/squad"
	"github.com/aristath/gaffer/internal/modules/transfers"
	"github.com/aristath/gaffer/internal/scheduler"
	"github.com/aristath/gaffer/internal/server"
	"github.com/aristath/gaffer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting gaffer")

	marketDB, err := database.New(database.Config{
		Path:    cfg.MarketDBPath,
		Profile: database.ProfileStandard,
		Name:    "market",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open market database")
	}
	defer marketDB.Close()

	plansDB, err := database.New(database.Config{
		Path:    cfg.PlansDBPath,
		Profile: database.ProfileCache,
		Name:    "plans",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open plans database")
	}
	defer plansDB.Close()

	marketRepo := market.NewRepository(marketDB, log)
	if err := marketRepo.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize market schema")
	}
	planRepo := transfers.NewRepository(plansDB, log)
	if err := planRepo.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize plan schema")
	}

	poolBuilder := pool.NewBuilder(pool.Options{
		PriceFloor:   cfg.PriceFloor,
		PriceCeiling: cfg.PriceCeiling,
	}, log)

	squadSelector := squad.NewSelector(squad.Options{
		Budget:            cfg.Budget,
		Quotas:            squad.DefaultOptions().Quotas,
		ClubCap:           cfg.ClubCap,
		ReliabilityWeight: cfg.ReliabilityWeight,
		TimeLimit:         cfg.SolverTimeLimit,
	}, log)

	lineupSelector := lineup.NewSelector(lineup.Options{
		Quotas:    lineup.DefaultOptions().Quotas,
		ClubCap:   cfg.ClubCap,
		Minimums:  lineup.Minimums{DEF: cfg.MinDEF, MID: cfg.MinMID, FWD: cfg.MinFWD},
		TimeLimit: cfg.SolverTimeLimit,
	}, log)

	planner := transfers.NewPlanner(transfers.Options{
		TopK:    cfg.TopK,
		ClubCap: cfg.ClubCap,
	}, lineupSelector, log)

	eng := engine.New(marketRepo, planRepo, poolBuilder, squadSelector, lineupSelector, planner, cfg.Budget, log)

	srv := server.New(server.Config{
		Log:      log,
		Port:     cfg.Port,
		Engine:   eng,
		Plans:    planRepo,
		MarketDB: marketDB,
		PlansDB:  plansDB,
	})

	sched := scheduler.New(log)
	if cfg.ReplanEnabled {
		if err := sched.AddJob(cfg.ReplanCron, "replan", func() error {
			return eng.ReplanAuto(cfg.HorizonLength)
		}); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule replan job")
		}
		sched.Start()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	if cfg.ReplanEnabled {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Gaffer stopped")
}
