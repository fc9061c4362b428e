// Package main is the entry point for the Gemini token dashboard.
// It loads configuration, starts the service manager and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/gemini-token-dashboard/internal/app"
	"github.com/j-veylop/gemini-token-dashboard/internal/config"
	"github.com/j-veylop/gemini-token-dashboard/internal/logger"
	"github.com/j-veylop/gemini-token-dashboard/internal/metrics"
	"github.com/j-veylop/gemini-token-dashboard/internal/services"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/tabs/dashboard"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/tabs/info"
	"github.com/j-veylop/gemini-token-dashboard/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o config.Overrides

	root := &cobra.Command{
		Use:   "gtd",
		Short: "Terminal dashboard for Gemini token usage",
		Long: `gtd polls a token analysis backend and shows the daily, monthly,
peak-day and lifetime totals above an hourly usage chart.

Configuration is read from .env files and the environment; flags win over both.

Keys:
  1-2, Tab/Shift+Tab  Switch tabs
  ←/→, h/l            Move the focused chart point
  r                   Refresh now
  ?                   Toggle help
  q, Ctrl+C           Quit`,
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(o)
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	f := root.Flags()
	f.StringVar(&o.APIBaseURL, "api-url", "", "backend base URL (API_BASE_URL)")
	f.StringVar(&o.EnvFile, "env-file", "", "path to a .env file")
	f.StringVar(&o.LogFile, "log-file", "", "log file path (LOG_FILE)")
	f.StringVar(&o.LogLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	f.StringVar(&o.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (METRICS_ADDR)")

	return root
}

func run(o config.Overrides) error {
	cfg, err := config.Load(o)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCloser, err := logger.Setup(logger.Options{Path: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logCloser.Close()

	logger.Info("starting", "version", version.GetVersion(), "api", cfg.APIBaseURL, "interval", cfg.RefreshInterval)

	var metricsSrv *metrics.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = metrics.Start(cfg.MetricsAddr)
	}
	defer func() {
		if err := metricsSrv.Shutdown(); err != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
	}()

	svcManager, err := services.NewManager(cfg, services.Options{Overrides: o})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)
	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state, svcManager),
		info.New(state, svcManager),
	})
	defer model.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.Quit())
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	logger.Info("stopped")
	return nil
}
