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

	"github.com/ironsheep/gasket-measure-mcp/internal/api"
	"github.com/ironsheep/gasket-measure-mcp/internal/pipeline"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("gasket-api %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("gasket-api - HTTP service for measuring gaskets against a bank card")
			fmt.Println()
			fmt.Println("Usage: gasket-api [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  GASKET_API_ADDR           Listen address (default :8080)")
			fmt.Println("  GASKET_MAX_UPLOAD_BYTES   Largest accepted image (default 10485760)")
			fmt.Println("  GASKET_WORKERS            Concurrent pipeline calls (default: CPU count)")
			fmt.Println("  GASKET_ACQUIRE_TIMEOUT    Wait for a free worker before 503 (default 5s)")
			fmt.Println("  GASKET_LOG_LEVEL=debug    Enable debug logging (request timings)")
			return
		}
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := api.LoadConfig()
	pool := api.NewWorkerPool(cfg.Workers, cfg.AcquireTimeout)
	defer pool.Close()

	handler := api.NewHandler(pipeline.New(pipeline.DefaultConfig()), pool, cfg)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Gasket API v%s listening on %s (%d workers)", Version, cfg.Addr, cfg.Workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
