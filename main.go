package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var exit = os.Exit

func main() {
	defer recoverAndLog()

	log.SetOutput(os.Stdout)
	log.Println("========================================")
	log.Println("Initializing ringtail...")

	if err := run(os.Args[1:]); err != nil {
		log.Println("[Error]", err)
		exit(1)
	}
	log.Println("Shutdown complete!")
}

// run starts the daemon and blocks until it is told to stop. Start-up errors
// are returned rather than fatal so the deferred cleanup always runs.
func run(argv []string) error {
	log.Println("[Step 1] Loading configuration...")
	config, err := LoadConfig(ParseArgs(argv), os.Getenv)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if config.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("[Step 2] Creating history buffers...")
	store, err := NewHistoryStore(config.Capacity)
	if err != nil {
		return fmt.Errorf("failed to create history store: %w", err)
	}
	follower := NewFollower(store, config.FromStart)
	defer func() {
		// The watcher must be gone before the follower stops, or it could
		// start a tail nobody stops.
		cancel()
		follower.Stop()
	}()

	for _, path := range config.Files {
		if err := follower.Follow(path); err != nil {
			return fmt.Errorf("failed to follow %s: %w", path, err)
		}
	}

	if config.WatchDir != "" {
		log.Println("[Step 3] Watching", config.WatchDir, "for new log files...")
		err = WatchDir(ctx, config.WatchDir, func(path string) {
			if err := follower.Follow(path); err != nil {
				log.Println("Error:", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to watch directory: %w", err)
		}
	}

	log.Println("[Step 4] Setting up archiving...")
	archiver, closeArchiver, err := newArchiver(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to set up archiving: %w", err)
	}
	defer closeArchiver()

	log.Println("[Step 5] Setting up HTTP server...")
	s := newServer(config, store, follower, archiver)
	go s.HealthStatusServiceRunner(ctx)

	httpServer := &http.Server{
		Addr:    config.Addr(),
		Handler: s.routes(),
	}

	serveErr := make(chan error, 1)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	log.Println("========================================")
	log.Printf("ringtail is now running on %s!", config.Addr())

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		log.Println("Server finished.")
	case <-s.shutdown:
		log.Println("Shutdown requested. Shutting down gracefully...")
	case sig := <-signals:
		log.Printf("Received signal %s. Shutting down gracefully...\n", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Println("Error shutting down HTTP server:", err)
	}
	return nil
}

// recoverAndLog logs a panic raised on the main goroutine and exits non-zero.
// Panics in other goroutines are not caught here.
func recoverAndLog() {
	if r := recover(); r != nil {
		log.Println("[Fatal Error] Program crashed with error:", r)
		exit(1)
	}
}
