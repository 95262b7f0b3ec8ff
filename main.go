package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/locvowork/employee_records/internal/bootstrap"
	"github.com/locvowork/employee_records/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, err, "Failed to initialize application")
		os.Exit(1)
	}

	logger.InfoLog(ctx, "Starting server on port %s", app.Config.App.Port)
	if err := app.Run(ctx); err != nil {
		logger.ErrorLog(ctx, err, "Server stopped")
		os.Exit(1)
	}
}
