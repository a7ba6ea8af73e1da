package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/cwsl/splatlink/splat"
)

func main() {
	var (
		configFile  = pflag.StringP("config", "c", "config.yaml", "Configuration file")
		listen      = pflag.String("listen", "", "Listen address (overrides config)")
		showVersion = pflag.BoolP("version", "v", false, "Print version and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Printf("splatlink %s\n", Version)
		os.Exit(0)
	}

	log.Printf("splatlink %s - SPLAT! link budget service", Version)

	config, err := LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *listen != "" {
		config.Server.Listen = *listen
	}

	// Fail fast if the splat binary is missing or predates the report
	// wording the parser expects
	checkCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = splat.CheckMinVersion(checkCtx, config.Splat.BinaryPath)
	cancel()
	if err != nil {
		log.Fatalf("SPLAT binary check failed: %v", err)
	}

	var publisher *MQTTPublisher
	if config.MQTT.Enabled {
		publisher, err = NewMQTTPublisher(&config.MQTT)
		if err != nil {
			log.Fatalf("Failed to connect to MQTT broker: %v", err)
		}
	}

	runner := &splat.Runner{
		SplatPath:  config.Splat.BinaryPath,
		TerrainDir: config.Splat.TerrainDir,
		CitiesFile: config.Splat.CitiesFile,
		Timeout:    config.Splat.Timeout(),
		WorkRoot:   config.Splat.WorkRoot,
	}

	coordinator := NewCoordinator(runner, config.Splat.Workers, publisher)
	webServer := NewWebServer(config, coordinator)

	errChan := make(chan error, 1)
	go func() {
		errChan <- webServer.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatalf("Web server error: %v", err)
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
		publisher.Disconnect()
	}
}
