package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	shopbuddy "github.com/MegaGrindStone/shopbuddy-web-ui"
	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/handlers"
	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/services"
)

func main() {
	cfgFilePath, err := configPath()
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := loadConfig(cfgFilePath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatal(err)
	}

	if err := run(cfg, filepath.Dir(cfgFilePath), logger); err != nil {
		logger.Error("Server stopped", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config, cfgDir string, logger *slog.Logger) error {
	titleGen, err := cfg.TitleGenerator.titleGen(logger)
	if err != nil {
		return fmt.Errorf("error creating title generator: %w", err)
	}

	orders, closeOrders, err := cfg.Orders.store(cfgDir)
	if err != nil {
		return fmt.Errorf("error opening orders store: %w", err)
	}
	defer func() {
		if err := closeOrders(); err != nil {
			logger.Error("Failed to close orders store", slog.String("err", err.Error()))
		}
	}()

	backend := services.NewBackend(cfg.APIURL, logger)

	m, err := handlers.NewMain(backend, orders, titleGen, logger)
	if err != nil {
		return err
	}

	// Serve static files
	staticFS, err := fs.Sub(shopbuddy.StaticFS, "static")
	if err != nil {
		return err
	}
	fileServer := http.FileServer(http.FS(staticFS))

	// Create custom mux
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/", m.HandleHome)
	mux.HandleFunc("/login", m.HandleLogin)
	mux.HandleFunc("/logout", m.HandleLogout)
	mux.HandleFunc("/chats", m.HandleChats)
	mux.HandleFunc("/chats/new", m.HandleNewChat)
	mux.HandleFunc("/uploads", m.HandleUploads)
	mux.HandleFunc("/blobs/{id}", m.HandleBlob)
	mux.HandleFunc("/orders/{id}", m.HandleOrder)
	mux.HandleFunc("/orders/{id}/cancel", m.HandleCancelOrder)
	mux.HandleFunc("/sse", m.HandleSSE)

	// Create custom server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown sse server", slog.String("err", err.Error()))
		}
	})

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("Server starting",
			slog.String("port", cfg.Port),
			slog.String("apiURL", cfg.APIURL),
			slog.String("ordersStore", cfg.Orders.Store))
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		// Create context with timeout for shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				return fmt.Errorf("forcing server close: %w", err)
			}
		}
	}

	return nil
}
