package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-bridge/pkg/api"
	"github.com/urmzd/homai-bridge/pkg/api/handlers"
	"github.com/urmzd/homai-bridge/pkg/config"
	"github.com/urmzd/homai-bridge/pkg/db"
	"github.com/urmzd/homai-bridge/pkg/device/schema"
	"github.com/urmzd/homai-bridge/pkg/fulfillment"
	"github.com/urmzd/homai-bridge/pkg/gateway"
	"github.com/urmzd/homai-bridge/pkg/homegraph"

	_ "github.com/urmzd/homai-bridge/docs"
)

// @title           homai-bridge API
// @version         1.0
// @description     Smart home fulfillment webhook bridging the platform to a Web Thing gateway

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	dbPath := flag.String("db", "", "Path to database file (default: <user config dir>/homai-bridge/state.db)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogger(cfg.Log)

	if *dbPath != "" {
		cfg.Bridge.DBPath = *dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open database
	database, err := db.Open(cfg.Bridge.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	// Run migrations
	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	virtual := make([]fulfillment.VirtualDevice, 0, len(cfg.Bridge.VirtualDevices))
	ids := make([]string, 0, len(cfg.Bridge.VirtualDevices))
	for _, v := range cfg.Bridge.VirtualDevices {
		virtual = append(virtual, fulfillment.VirtualDevice{ID: v.ID, Name: v.Name, VerificationID: v.VerificationID})
		ids = append(ids, v.ID)
	}

	// Bootstrap if needed (first run)
	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check bootstrap status")
	}
	if needsBootstrap {
		log.Info().Strs("devices", ids).Msg("First run detected, bootstrapping virtual device states...")
		if err := database.Bootstrap(ctx, ids); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap database")
		}
	}

	// Home Graph client; fall back to NullClient when unconfigured
	var hgClient homegraph.Client = homegraph.NewNullClient()
	if cfg.Bridge.HomeGraph.Enabled {
		gc, err := homegraph.NewGoogleClient(ctx, cfg.Bridge.HomeGraph.CredentialsFile)
		if err != nil {
			log.Warn().Err(err).Msg("Home Graph client unavailable, state reports disabled")
		} else {
			hgClient = gc
		}
	}

	reporter := homegraph.NewStateReporter(hgClient, cfg.Bridge.AgentUserID, cfg.Bridge.UpstreamTimeout.Duration)
	states := database.States()
	states.OnChange(reporter.OnChange)

	gw := gateway.NewClient(cfg.Bridge.UpstreamTimeout.Duration)
	service := fulfillment.NewService(gw, states, fulfillment.Options{
		AgentUserID:     cfg.Bridge.AgentUserID,
		URLBaseOverride: cfg.Bridge.URLBaseOverride,
		VirtualDevices:  virtual,
	})

	router := api.NewBridgeRouter(api.BridgeDeps{
		Fulfiller:   service,
		Syncer:      reporter,
		States:      states,
		Validator:   schema.NewValidator(),
		AgentUserID: cfg.Bridge.AgentUserID,
		WasherID:    cfg.Bridge.WasherID,
		Checks: map[string]handlers.Check{
			"database": database.Check,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Bridge.Listen,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("address", srv.Addr).Str("agent_user_id", cfg.Bridge.AgentUserID).Msg("Starting bridge server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}

	reporter.Wait()
}
