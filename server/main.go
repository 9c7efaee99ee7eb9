package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const shutdownGrace = 5 * time.Second

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	addr := flag.String("addr", envOr("FISHTRIS_ADDR", ":8080"), "HTTP listen address")
	dbPath := flag.String("db", envOr("FISHTRIS_DB", "fishtris.db"), "SQLite database path (empty disables accounts and stats)")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client)")
	dev := flag.Bool("dev", false, "Human readable debug logging")
	flag.Parse()

	logger, err := newLogger(*dev)
	if err != nil {
		panic(err)
	}
	log := logger.Sugar()

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
	}

	var db *DB
	if *dbPath != "" {
		db, err = OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("open database %s: %v", *dbPath, err)
		}
	}

	hub, err := NewHub(db, log)
	if err != nil {
		log.Fatalf("hub: %v", err)
	}
	go hub.Run()

	server := &http.Server{
		Addr:              *addr,
		Handler:           SetupRoutes(hub, *clientDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Infof("Server starting on %s", *addr)
		log.Infof("Serving client files from %s", *clientDir)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	err = server.Shutdown(ctx)
	hub.Stop()
	if db != nil {
		err = multierr.Append(err, db.Close())
	}
	if err != nil {
		log.Warnf("shutdown: %v", err)
	}
	logger.Sync()
}
