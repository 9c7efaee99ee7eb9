package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tabacha/fishtris/game"
	"go.uber.org/zap"
)

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "Relay websocket URL")
	room := flag.String("room", "", "Room to join (empty creates one)")
	name := flag.String("name", "Robofisch", "Display name")
	binary := flag.Bool("binary", false, "Speak msgpack instead of JSON")
	configPath := flag.String("config", "", "YAML game config (default: built-in rules)")
	autostart := flag.Bool("autostart", true, "Request a round whenever paired and idle")
	dev := flag.Bool("dev", false, "Human readable debug logging")
	flag.Parse()

	logger, err := newLogger(*dev)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := game.DefaultConfig()
	if *configPath != "" {
		if cfg, err = game.LoadConfig(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = Run(ctx, Options{
		URL:       *url,
		Room:      *room,
		Name:      *name,
		Binary:    *binary,
		AutoStart: *autostart,
	}, cfg, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("bot stopped: %v", err)
		logger.Sync()
		os.Exit(1)
	}
	log.Info("bye")
}
