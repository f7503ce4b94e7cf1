package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lycan/internal/config"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	log.Printf("Loaded configuration: players per match %d-%d, validation %q",
		cfg.Server.MinPlayersPerMatch, cfg.Server.MaxPlayersPerMatch, cfg.Regulations.Validation)

	router, h := SetupServer(cfg)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout, // 0 for SSE support
	}

	// Phase time limits are advisory; this poller is the outer loop that
	// acts on expiry.
	pollerDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-pollerDone:
				return
			case <-ticker.C:
				for _, match := range h.Store().Matches() {
					if ended, err := match.CheckTimeout(); err != nil {
						log.Printf("timeout check for match %s: %v", match.Code, err)
					} else if ended {
						log.Printf("match %s: phase force-ended on timeout", match.Code)
					}
				}
			}
		}
	}()

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	close(pollerDone)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}
	log.Println("Server gracefully stopped")
}
