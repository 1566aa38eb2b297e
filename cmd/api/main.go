package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linkup/internal/common"
	"linkup/internal/dbmysql"
	"linkup/internal/wire"
)

func main() {
	// Missing .env is fine in production; the environment wins either way.
	_ = godotenv.Load()

	app, cleanup, err := wire.InitializeApplication()
	if err != nil {
		panic(err)
	}
	defer cleanup()

	logger := app.Logger
	logger.Info().Msg("starting linkup api")

	if err := dbmysql.Migrate(app.DB); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}
	logger.Info().Msg("database migration completed")

	router := mux.NewRouter()
	router.Use(common.MetricsMiddleware)
	router.Use(common.LoggingMiddleware(logger))

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	router.HandleFunc("/ws", app.Gateway.HandleWS)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(common.AuthMiddleware)
	app.ChatHandler.RegisterRoutes(api)
	app.NotifHandler.RegisterRoutes(api)

	server := &http.Server{
		Addr:         app.Config.Server.Host + ":" + app.Config.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(app.Config.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	logger.Info().Msg("stopped")
}
