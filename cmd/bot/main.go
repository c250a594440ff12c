package main

import (
	"log/slog"
	"os"

	"github.com/mikastratmann187-source/botdd/cmd/bot/config"
	"github.com/mikastratmann187-source/botdd/pkg/logging"
)

func main() {
	app, err := InitializeApp()
	if err != nil {
		slog.Error("Error initializing application", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}

	// Parse the environment configuration. This exits the process if a
	// required value is missing.
	app.ParseConfig()

	if err := app.Run(); err != nil {
		app.Error("Error running application", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}
}

// ParseConfig reads the environment configuration and connects the datastore.
func (a *App) ParseConfig() {
	config.Parse(a.Logger)
}
