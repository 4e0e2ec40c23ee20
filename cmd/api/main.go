package main

import (
	"log"

	"tool-advisor/internal/bootstrap"
	"tool-advisor/internal/shared/config"
	"tool-advisor/internal/shared/server"
	"tool-advisor/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	addr := server.Addr(cfg.Port)
	telemetry.Info("server.start", map[string]any{
		"addr":  addr,
		"env":   cfg.Env,
		"rules": app.RulesSource.Describe(),
	})

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
