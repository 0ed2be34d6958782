package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/sunnuls/TPb-sub002/internal/advisor"
	"github.com/sunnuls/TPb-sub002/internal/equity"
	"github.com/sunnuls/TPb-sub002/internal/rangebook"
	"github.com/sunnuls/TPb-sub002/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"advisor-server.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	Port     int    `short:"p" long:"port" help:"Server port (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Hero     *int   `long:"hero" help:"Seat that receives a recommendation with every analysis (overrides config)"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("advisor-server"),
		kong.Description("Live hand tracker with equity and strategy advice over WebSocket"))

	// Load configuration; environment overrides the file, flags override both
	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.Port != 0 {
		cfg.Server.Port = CLI.Port
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Hero != nil {
		cfg.Advisor.HeroSeat = *CLI.Hero
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	// Setup logging
	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("Starting advisor server",
		"addr", cfg.Address(),
		"iterations", cfg.Equity.Iterations,
		"workers", cfg.Equity.Workers,
		"hero", cfg.Advisor.HeroSeat)

	clock := quartz.NewReal()
	engine := equity.NewEngine(cfg.EquityConfig(), logger, clock)
	adv := advisor.New(engine, rangebook.DefaultBook(), cfg.AdvisorConfig(), logger)

	wsServer := server.NewServer(cfg.Address(), logger)
	service := server.NewService(
		server.NewDirectory(logger),
		engine,
		adv,
		server.NewPlayerTracker(),
		wsServer,
		cfg.ServiceConfig(),
		logger,
		clock,
	)
	wsServer.SetService(service)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := wsServer.Stop(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}()

	// Start server (this blocks until shutdown)
	if err := wsServer.Start(); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
	service.Wait()
	logger.Info("Server stopped")
}
