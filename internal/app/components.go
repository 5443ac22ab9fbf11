package app

import "go.trai.ch/bake/internal/core/ports"

// Components holds the resolved application and the adapters the CLI configures directly.
type Components struct {
	App       *App
	Logger    ports.Logger
	Reporter  ports.Reporter
	Telemetry ports.Telemetry
}
