package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/tanwarat/scribemesh/agent/agents/orchestrator"
	historyx "github.com/tanwarat/scribemesh/agent/history"
	intentx "github.com/tanwarat/scribemesh/agent/intent"
	invokex "github.com/tanwarat/scribemesh/agent/invoke"
	normalizex "github.com/tanwarat/scribemesh/agent/normalize"
	registryx "github.com/tanwarat/scribemesh/agent/registry"
	configx "github.com/tanwarat/scribemesh/pkg/config"
	_ "github.com/tanwarat/scribemesh/pkg/logger/autoload"
	schedulerx "github.com/tanwarat/scribemesh/scheduler"
	serverx "github.com/tanwarat/scribemesh/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registryCfg := configx.MustNew[registryx.Config]("REGISTRY")
	reg, err := registryx.New(*registryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize tool registry")
	}
	if err := reg.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial tool discovery was partial")
	}

	historyCfg := configx.MustNew[historyx.Config]("HISTORY")
	var store historyx.Store = historyx.Noop{}
	if historyCfg.DSN != "" {
		pg, err := historyx.NewPostgresStore(*historyCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize history store")
		}
		if err := pg.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("migrate history store")
		}
		defer pg.Close()
		store = pg
	}

	invokeCfg := configx.MustNew[invokex.Config]("INVOKE")
	orch, err := orchestratorx.New(reg, intentx.Default(), invokex.New(*invokeCfg), normalizex.New(), store)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize orchestrator")
	}

	serverCfg := configx.MustNew[serverx.Config]("SERVER")
	srv, err := serverx.New(*serverCfg, orch, reg, store)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize server")
	}

	schedulerCfg := configx.MustNew[schedulerx.Config]("SCHEDULER")
	sched := schedulerx.New()
	if err := sched.Add(schedulerCfg.Spec, "registry_refresh", reg.Refresh); err != nil {
		log.Fatal().Err(err).Msg("schedule registry refresh")
	}
	go func() {
		if err := sched.Start(ctx); err != nil && err != context.Canceled {
			log.Warn().Err(err).Msg("scheduler stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("server shutdown was not clean")
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
