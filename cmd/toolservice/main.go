package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	configx "github.com/tanwarat/scribemesh/pkg/config"
	_ "github.com/tanwarat/scribemesh/pkg/logger/autoload"
	"github.com/tanwarat/scribemesh/pkg/textgen"
	"github.com/tanwarat/scribemesh/toolservice"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	textgenCfg := configx.MustNew[textgen.Config]("TEXTGEN")
	var gen textgen.Generator
	if textgenCfg.APIKey != "" {
		openai, err := textgen.NewOpenAI(*textgenCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize text generation")
		}
		gen = openai
	} else {
		log.Info().Msg("no generation API key configured, using offline heuristics")
	}

	serviceCfg := configx.MustNew[toolservice.Config]("TOOLSERVICE")
	svc, err := toolservice.New(*serviceCfg, gen)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize tool service")
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", serviceCfg.Port),
		Handler:      svc.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("server shutdown was not clean")
		}
	}()

	log.Info().Str("agent", serviceCfg.Agent).Str("addr", httpServer.Addr).Msg("tool service listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("tool service failed")
	}
}
