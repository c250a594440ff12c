package config

import (
	"log/slog"
	"os"

	"github.com/mikastratmann187-source/botdd/pkg/dataaccess"
	"github.com/mikastratmann187-source/botdd/pkg/dataaccess/connection"
	"github.com/mikastratmann187-source/botdd/pkg/logging"
)

// Parse reads the process configuration from the environment. A missing
// required credential refuses startup, logging which key is absent but never
// its value.
func Parse(l *slog.Logger) {
	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		l.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	}

	if envAppId := os.Getenv(EnvApplicationId); envAppId != "" {
		l.Debug("Found application ID in environment", slog.String("key", EnvApplicationId))
		ApplicationId = envAppId
	}

	if envDsn := os.Getenv(EnvPostgresDsn); envDsn != "" {
		l.Debug("Found Postgres DSN in environment", slog.String("key", EnvPostgresDsn))
		PostgresDsn = envDsn
	}

	if envMonitoringPort := os.Getenv(EnvMonitoringPort); envMonitoringPort != "" {
		l.Debug("Found monitoring port in environment", slog.String("key", EnvMonitoringPort))
		MonitoringPort = envMonitoringPort
	} else {
		// Default to 8080 if not provided.
		MonitoringPort = "8080"

		l.Info("No monitoring port provided in environment, defaulting to 8080", slog.String("key", EnvMonitoringPort))
	}

	missing := ""
	switch {
	case BotToken == "":
		missing = EnvBotToken
	case ApplicationId == "":
		missing = EnvApplicationId
	case PostgresDsn == "":
		missing = EnvPostgresDsn
	}
	if missing != "" {
		l.Error("Required environment variable not provided", slog.String("key", missing))
		os.Exit(1)
	}

	l.Debug("All required environment variables have been provided")
	connectPostgres(l)
}

func connectPostgres(l *slog.Logger) {
	pg := &connection.Postgres{DSN: PostgresDsn}

	db, err := pg.Connect()
	if err != nil {
		l.Error("Error connecting to postgres", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}

	dataaccess.DB = db

	l.Debug("Connected to Postgres", slog.String("key", EnvPostgresDsn))
}
