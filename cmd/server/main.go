package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/webdeckhq/webdeck/backend/internal/infrastructure/config"
	"github.com/webdeckhq/webdeck/backend/internal/server"
)

func main() {
	port := flag.String("port", "", "Override server port")
	appletsDir := flag.String("applets", "", "Override applet manifests directory")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *appletsDir != "" {
		cfg.Applets.Dir = *appletsDir
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
