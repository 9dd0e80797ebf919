package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/tourbook/internal/logging"
	"github.com/dmitrijs2005/tourbook/internal/server"
	"github.com/dmitrijs2005/tourbook/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		// the app logger does not exist yet
		logging.NewJSON(os.Stderr, cfg.LogLevel).Error(ctx, "tourbook failed to start",
			"addr", cfg.EndpointAddrHTTP, "error", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
