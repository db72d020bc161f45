// Command layoutd serves layout detection over HTTP for remote cleanup
// clients. It wraps one of the local detection backends behind the same
// /health and /detect endpoints the "remote" backend consumes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/scanworks/unstaple/internal/detect"
	"github.com/scanworks/unstaple/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	addr := flag.String("addr", ":8765", "listen address")
	backend := flag.String("backend", detect.BackendTesseract, "detection backend (tesseract or contrast)")
	preload := flag.Bool("preload", true, "load the backend at startup instead of on first request")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("layoutd %s (built %s)\n", Version, BuildTime)
		return
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)

	detector, err := detect.New(detect.Config{Backend: *backend})
	if err != nil {
		log.Fatalf("detector: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *preload {
		if err := detector.Preload(ctx); err != nil {
			// Keep serving; /health reports the failure and clients
			// fall back to unprotected cleanup.
			log.Printf("backend preload: %v", err)
		}
	}

	log.Printf("layoutd %s listening on %s (backend %s)", Version, *addr, *backend)
	if err := server.New(detector).ListenAndServe(ctx, *addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
