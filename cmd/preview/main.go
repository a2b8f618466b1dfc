package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawnchairsociety/wangtile/internal/autotile"
	"github.com/lawnchairsociety/wangtile/internal/config"
	"github.com/lawnchairsociety/wangtile/internal/logger"
	"github.com/lawnchairsociety/wangtile/internal/preview"
	"github.com/lawnchairsociety/wangtile/internal/store"
	"github.com/lawnchairsociety/wangtile/internal/terrain"
	"github.com/lawnchairsociety/wangtile/internal/tileset"
	"github.com/lawnchairsociety/wangtile/internal/worldgen"
)

func main() {
	configFile := flag.String("config", "data/wangtile.yaml", "Path to config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	tilesetFile := flag.String("tileset", "", "Tileset file; overrides the config")
	listen := flag.String("listen", "", "Listen address; overrides the config")
	seed := flag.Int64("seed", 0, "Resolver seed (default: from config, 0 there means time based)")
	flag.Parse()

	logConfig, _ := logger.LoadConfig(*loggingConfig)
	logger.Initialize(logConfig)

	logger.Info("Starting wangtile preview server")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Error("Failed to load config", "path", *configFile, "error", err)
		os.Exit(1)
	}
	if *tilesetFile != "" {
		cfg.Tileset = *tilesetFile
	}
	if *listen != "" {
		cfg.Preview.Listen = *listen
	}
	resolverSeed := cfg.Resolver.Seed
	if *seed != 0 {
		resolverSeed = *seed
	}
	if resolverSeed == 0 {
		resolverSeed = time.Now().UnixNano()
		logger.Info("Resolver seed selected", "seed", resolverSeed, "random", true)
	} else {
		logger.Info("Resolver seed selected", "seed", resolverSeed, "random", false)
	}

	ts, err := tileset.Load(cfg.Tileset)
	if err != nil {
		logger.Error("Failed to load tileset", "path", cfg.Tileset, "error", err)
		os.Exit(1)
	}
	cat, rejected, err := ts.Build()
	if err != nil {
		logger.Error("Failed to build catalog", "tileset", ts.Name, "error", err)
		os.Exit(1)
	}
	logger.Info("Catalog built",
		"tileset", ts.Name,
		"patterns", cat.Len(),
		"rejected", len(rejected),
		"fingerprint", cat.FingerprintHex())

	grid, err := terrain.NewGrid(cfg.Grid.Width, cfg.Grid.Height, cat.Classes())
	if err != nil {
		logger.Error("Failed to create grid", "error", err)
		os.Exit(1)
	}
	if _, err := worldgen.Generate(grid, cfg.Worldgen, cfg.Brushes); err != nil {
		logger.Error("Failed to generate terrain", "error", err)
		os.Exit(1)
	}

	session, initial, err := autotile.NewSession(grid, cat, resolverSeed)
	if err != nil {
		logger.Error("Failed to resolve grid", "error", err)
		os.Exit(1)
	}

	srv := preview.NewServer(session, cfg.Preview)

	if cfg.Resolver.RecordWarnings {
		db, err := store.Open(cfg.Database)
		if err != nil {
			logger.Error("Failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		tilesetID, _, err := db.SaveTileset(ts.Name, cat)
		if err != nil {
			logger.Error("Failed to register tileset", "error", err)
			os.Exit(1)
		}
		record := func(w []*autotile.ResolutionWarning) {
			if err := db.RecordWarnings(tilesetID, w); err != nil {
				logger.Warning("Failed to record warnings", "tileset_id", tilesetID, "error", err)
			}
		}
		record(initial.Warnings)
		srv.OnWarnings(record)
		logger.Info("Recording resolution warnings", "tileset_id", tilesetID, "driver", cfg.Database.Driver)
	}

	if len(cfg.Preview.WebSocket.AllowedOrigins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", cfg.Preview.WebSocket.AllowedOrigins)
	}

	go func() {
		if err := srv.Start(cfg.Preview.Listen); err != nil {
			logger.Error("Preview server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Preview server running", "address", cfg.Preview.Listen, "width", grid.Width(), "height", grid.Height())
	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down preview server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warning("Shutdown incomplete", "error", err)
	}
	logger.Info("Preview server stopped")
}
