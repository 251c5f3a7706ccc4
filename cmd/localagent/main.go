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
	"github.com/urmzd/homai-bridge/pkg/config"
	"github.com/urmzd/homai-bridge/pkg/discovery"
	"github.com/urmzd/homai-bridge/pkg/gateway"
	"github.com/urmzd/homai-bridge/pkg/local"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lc := cfg.Local

	registry := local.NewRegistry(lc.StaticAddresses)
	lan := local.NewHTTPDeviceManager(registry, &http.Client{Timeout: lc.UpstreamTimeout.Duration})
	mirror := gateway.NewClient(lc.UpstreamTimeout.Duration)

	opts := []local.Option{
		local.WithScanner(discovery.NewScanner(discovery.ScannerConfig{
			Packet:    lc.UDP.Packet,
			Broadcast: lc.UDP.Broadcast,
			PortOut:   lc.UDP.PortOut,
			PortIn:    lc.UDP.PortIn,
			Timeout:   lc.UDP.ScanTimeout.Duration,
		})),
	}
	if lc.MDNS.Enabled {
		opts = append(opts, local.WithBrowser(discovery.Browse))
	}

	agent := local.NewAgent(local.Config{
		LeafDeviceID:    lc.LeafDeviceID,
		ProxyDeviceID:   lc.ProxyDeviceID,
		ProxyPrefix:     lc.ProxyPrefix,
		MDNSService:     lc.MDNS.Service,
		MDNSDomain:      lc.MDNS.Domain,
		LANPort:         lc.LANPort,
		URLBaseOverride: lc.URLBaseOverride,
		DeviceAliases:   lc.DeviceAliases,
		ScanTimeout:     lc.UDP.ScanTimeout.Duration,
	}, lan, mirror, registry, opts...)

	// Initial scan so EXECUTE can resolve addresses before the first IDENTIFY
	go func() {
		if _, err := agent.Scan(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial scan failed")
		}
	}()

	router := api.NewLocalRouter(agent, nil)

	srv := &http.Server{
		Addr:              lc.Listen,
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

	log.Info().Str("address", srv.Addr).Msg("Starting local agent")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}
}
