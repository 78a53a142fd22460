package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teleopedge/capture"
	"teleopedge/config"
	"teleopedge/engine"
	"teleopedge/messaging"
	"teleopedge/www"
)

func main() {
	configPath := flag.String("config", "teleopedge.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	autostart := flag.Bool("autostart", false, "start a tracking session on boot")
	flag.Parse()

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *port > 0 {
		cfg.Web.Port = *port
	}

	// Create and start engine
	source := capture.NewSynthetic(640, 480)
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		Source:     source,
		LogFunc:    log.Printf,
		Debug:      *debug,
	})
	eng.Start()
	defer eng.Stop()

	// Set up telemetry publishing
	if cfg.Messaging.Enabled {
		msgClient := messaging.NewClient(&cfg.Messaging, cfg.ClientID())
		defer msgClient.Close()
		if err := msgClient.Connect(); err != nil {
			log.Printf("messaging connect: %v (telemetry disabled)", err)
		} else {
			reporter := messaging.NewReporter(msgClient, eng.Status, cfg.NodeID,
				cfg.Messaging.TelemetryTopic, cfg.Messaging.ReportInterval)
			eng.Events.SubscribeTypes(func(evt engine.Event) {
				switch p := evt.Payload.(type) {
				case engine.TrackingResultEvent:
					reporter.RecordResult(p.Result.Detected)
				case engine.TrackingErrorEvent:
					reporter.RecordError()
				case engine.TransportSwitchEvent:
					reporter.RecordTransportSwitch()
				}
			}, engine.EventTrackingResult, engine.EventTrackingError, engine.EventTransportSwitch)
			reporter.Start()
			defer reporter.Stop()
		}
	}

	// Set up HTTP server
	router, stopWeb := www.NewRouter(eng)
	defer stopWeb()

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	server := &http.Server{Addr: addr, Handler: router}

	// Start HTTP server
	go func() {
		log.Printf("TeleopEdge listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	if *autostart {
		eng.StartTracking()
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	// Stop SSE event hub first so long-lived connections close
	stopWeb()

	// Graceful HTTP shutdown with 10s deadline
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}
