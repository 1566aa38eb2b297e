package wire

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"linkup/internal/chat/handler"
	"linkup/internal/config"
	"linkup/internal/dbmysql"
	"linkup/internal/notif"
	"linkup/internal/realtime"
)

// Application bundles everything main needs to run the server.
type Application struct {
	Config       *config.Config
	Logger       zerolog.Logger
	DB           *gorm.DB
	Presence     *realtime.PresenceTracker
	Gateway      *realtime.Gateway
	Dispatcher   notif.Dispatcher
	ChatHandler  *handler.ChatHandler
	NotifHandler *notif.NotificationHandler
}

func ProvideConfig() *config.Config {
	return config.Load()
}

func ProvideLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Logging.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func ProvideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := dbmysql.NewMySQL(cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return db, cleanup, nil
}
