package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"chatrelay/internal/client/llm"
	"chatrelay/internal/config"
	"chatrelay/internal/infra"
	"chatrelay/internal/pkg/validator"
	"chatrelay/internal/rest"
)

func main() {
	cfg := config.MustLoad()

	logger := logrus.New()
	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	provider, err := llm.New(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to build LLM provider: %v", err)
	}

	vldtr := validator.New()
	handler := rest.New(provider, vldtr, logger, cfg.Service.Env)

	router := chi.NewRouter()
	router.Use(infra.Logger(logger))
	router.Use(infra.Metrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Post("/api/generate", handler.Generate)
	router.Post("/api/stream", handler.Stream)
	router.Get("/health", handler.Health)
	router.Handle("/metrics", promhttp.Handler())
	router.NotFound(handler.NotFound)

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Service.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No write timeout: it would sever open SSE streams.
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"port":     cfg.Service.Port,
			"env":      cfg.Service.Env,
			"provider": cfg.LLM.Provider,
		}).Info("starting server")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("server error: %v", err)
	}
}
