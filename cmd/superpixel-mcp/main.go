package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/superpixel-tools/internal/config"
	"github.com/ironsheep/superpixel-tools/internal/logging"
	"github.com/ironsheep/superpixel-tools/internal/server"
	"github.com/ironsheep/superpixel-tools/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("superpixel-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("superpixel-mcp - MCP server for superpixel labeling and classification")
			fmt.Println()
			fmt.Println("Usage: superpixel-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Printf("  %s=path/to/config.yaml   Configuration file\n", config.EnvConfigPath)
			fmt.Printf("  %s=dir                 Data directory (uploads, segments, labels, masks)\n", config.EnvDataDir)
			fmt.Printf("  %s=debug              Log level\n", config.EnvLogLevel)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "superpixel-mcp: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout is for MCP protocol
	logger, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "superpixel-mcp: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Str("data_dir", cfg.Storage.DataDir).
		Msg("starting superpixel MCP server")

	st, err := store.Open(cfg.Storage.DataDir, store.WithLogger(logging.Component(logger, "store")))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open data directory")
	}

	server.Version = Version
	srv, err := server.New(cfg, st, server.WithLogger(logging.Component(logger, "server")))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
