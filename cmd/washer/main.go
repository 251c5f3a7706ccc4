package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/urmzd/homai-bridge/pkg/api"
	"github.com/urmzd/homai-bridge/pkg/config"
	"github.com/urmzd/homai-bridge/pkg/device"
	"github.com/urmzd/homai-bridge/pkg/device/schema"
	"github.com/urmzd/homai-bridge/pkg/discovery"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	deviceID := flag.String("deviceId", "", "Device id returned in discovery replies (default deviceid123)")
	reportStateURL := flag.String("reportStateUrl", "", "URL receiving the full state after every change (e.g. http://localhost:8080/updatestate)")
	discoveryPacket := flag.String("discoveryPacket", "", "Magic discovery packet (default HelloLocalHomeSDK)")
	portOut := flag.Int("discoveryPortOut", 0, "Port the discovery broadcast is sent to (default 3311)")
	portIn := flag.Int("discoveryPortIn", 0, "Port discovery replies are sent to (default 3312)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogger(cfg.Log)

	wc := cfg.Washer
	if *deviceID != "" {
		wc.DeviceID = *deviceID
	}
	if *reportStateURL != "" {
		wc.ReportStateURL = *reportStateURL
	}
	if *discoveryPacket != "" {
		wc.UDP.Packet = *discoveryPacket
	}
	if *portOut != 0 {
		wc.UDP.PortOut = *portOut
	}
	if *portIn != 0 {
		wc.UDP.PortIn = *portIn
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Report to the bridge when configured; otherwise state stays local
	var reporter device.Reporter = device.NewNullReporter()
	if wc.ReportStateURL != "" {
		reporter = device.NewHTTPReporter(wc.ReportStateURL, &http.Client{Timeout: 10 * time.Second})
	}

	washer := device.NewWasher(reporter)
	washer.Report()

	if wc.MDNS.Enabled {
		port, err := listenPort(wc.HTTPListen)
		if err != nil {
			log.Fatal().Err(err).Str("listen", wc.HTTPListen).Msg("Invalid HTTP listen address")
		}
		shutdown, err := discovery.Advertise(wc.DeviceID, wc.MDNS.Service, wc.MDNS.Domain, port, []string{"id=" + wc.DeviceID})
		if err != nil {
			log.Warn().Err(err).Msg("mDNS advertisement unavailable")
		} else {
			defer shutdown()
		}
	}

	router := api.NewWasherRouter(washer, schema.NewValidator())
	srv := &http.Server{
		Addr:              wc.HTTPListen,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	responder := discovery.NewResponder(wc.UDP.Packet, wc.DeviceID, wc.UDP.PortIn)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return responder.ListenAndServe(gctx, ":"+strconv.Itoa(wc.UDP.PortOut))
	})
	g.Go(func() error {
		log.Info().Str("address", srv.Addr).Str("device_id", wc.DeviceID).Msg("Starting washer simulator")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	washer.Wait()
	if err != nil {
		log.Error().Err(err).Msg("Washer simulator failed")
		os.Exit(1)
	}
}

func listenPort(addr string) (int, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(port)
}
