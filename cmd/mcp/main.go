package main

import (
	"context"
	"flag"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-bridge/pkg/config"
	"github.com/urmzd/homai-bridge/pkg/db"
	"github.com/urmzd/homai-bridge/pkg/device/schema"
	"github.com/urmzd/homai-bridge/pkg/fulfillment"
	"github.com/urmzd/homai-bridge/pkg/gateway"
	"github.com/urmzd/homai-bridge/pkg/homegraph"
	homaimcp "github.com/urmzd/homai-bridge/pkg/mcp"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	dbPath := flag.String("db", "", "Path to database file (default: <user config dir>/homai-bridge/state.db)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	// Logging goes to stderr; stdout is the MCP transport
	config.SetupLogger(cfg.Log)

	if *dbPath != "" {
		cfg.Bridge.DBPath = *dbPath
	}

	ctx := context.Background()

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
	if err := database.Bootstrap(ctx, ids); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap database")
	}

	var hgClient homegraph.Client = homegraph.NewNullClient()
	homeGraphEnabled := false
	if cfg.Bridge.HomeGraph.Enabled {
		gc, err := homegraph.NewGoogleClient(ctx, cfg.Bridge.HomeGraph.CredentialsFile)
		if err != nil {
			log.Warn().Err(err).Msg("Home Graph client unavailable, state reports disabled")
		} else {
			hgClient = gc
			homeGraphEnabled = true
		}
	}

	reporter := homegraph.NewStateReporter(hgClient, cfg.Bridge.AgentUserID, cfg.Bridge.UpstreamTimeout.Duration)
	states := database.States()
	states.OnChange(reporter.OnChange)

	service := fulfillment.NewService(gateway.NewClient(cfg.Bridge.UpstreamTimeout.Duration), states, fulfillment.Options{
		AgentUserID:     cfg.Bridge.AgentUserID,
		URLBaseOverride: cfg.Bridge.URLBaseOverride,
		VirtualDevices:  virtual,
	})

	mcpServer := homaimcp.NewServer(service, reporter, states, schema.NewValidator(), homaimcp.Options{
		Authorization:   cfg.Bridge.OperatorToken,
		URLBaseOverride: cfg.Bridge.URLBaseOverride,
		HomeGraph:       homeGraphEnabled,
	})

	log.Info().Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
	reporter.Wait()
}
