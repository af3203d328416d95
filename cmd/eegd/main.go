// Package main is the entry point for the eegd daemon.
// eegd acquires a multi-channel EEG stream, derives smoothed band-power
// neurofeedback metrics, and persists them to per-session CSV (and
// optionally EDF) files until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/austinkregel/neuro-monitor/eegd/internal/config"
	"github.com/austinkregel/neuro-monitor/eegd/internal/session"
	"github.com/austinkregel/neuro-monitor/eegd/internal/stream"
)

// Version is set at build time via ldflags
var Version = "dev"

// Flags holds command-line overrides
type Flags struct {
	ConfigDir string
	DataDir   string
	Addr      string
	TestMode  bool
	Verbose   bool
}

func main() {
	flags := parseFlags()

	if flags.Verbose {
		log.Printf("eegd version %s starting...", Version)
	}

	// Create context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	if err := run(ctx, flags); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func parseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.ConfigDir, "config", "", "Configuration directory (default: ~/.config/eegd)")
	flag.StringVar(&flags.DataDir, "data-dir", "", "Session data directory (overrides config)")
	flag.StringVar(&flags.Addr, "addr", "", "EEG bridge address (overrides config)")
	flag.BoolVar(&flags.TestMode, "test-mode", false, "Run against a synthetic alpha-band signal")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.Parse()

	if flags.ConfigDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		flags.ConfigDir = homeDir + "/.config/eegd"
	}

	return flags
}

func run(ctx context.Context, flags *Flags) error {
	configMgr := config.NewManager(flags.ConfigDir)
	if err := configMgr.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg := configMgr.Get()
	if flags.DataDir != "" {
		cfg.Recording.DataDir = flags.DataDir
	}
	if flags.Addr != "" {
		cfg.Acquisition.Addr = flags.Addr
	}
	if flags.TestMode {
		cfg.Acquisition.Source = "synthetic"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config (%s): %w", configMgr.GetPath(), err)
	}

	var resolver stream.Resolver
	switch cfg.Acquisition.Source {
	case "synthetic":
		log.Printf("[STREAM] using synthetic %s source", cfg.Acquisition.StreamType)
		resolver = stream.NewSyntheticResolver(stream.DefaultSyntheticConfig())
	default:
		log.Printf("[STREAM] using bridge at %s", cfg.Acquisition.Addr)
		resolver = stream.NewTCPResolver(cfg.Acquisition.Addr)
	}

	log.Printf("Press Ctrl-C to stop the session.")
	supervisor := session.NewSupervisor(cfg, resolver)
	return supervisor.Run(ctx)
}
