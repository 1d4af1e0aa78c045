package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"printerd/internal/sim"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "printersim:", err)
		os.Exit(1)
	}
}

// buildRootCmd constructs the printersim command tree.
func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "printersim",
		Short:         "Fake printer console over TCP for development and tests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var logLevel string
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("PRINTERSIM_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")

	var (
		addr         string
		printMinutes int
		reportEvery  time.Duration
	)
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Listen and speak like a printer console",
		Example: "  printersim serve --addr 127.0.0.1:9100\n" +
			"  printersim serve --print-minutes 30   # start mid-print",
		RunE: func(cmd *cobra.Command, args []string) error {
			sim.SetLogger(newLogger(logLevel))
			s := sim.NewServer(sim.Config{Addr: addr, PrintMinutes: printMinutes, ReportInterval: reportEvery})
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return s.ListenAndServe(ctx)
		},
	}
	serve.Flags().StringVar(&addr, "addr", envOr("PRINTERSIM_ADDR", "127.0.0.1:9100"), "TCP listen address")
	serve.Flags().IntVar(&printMinutes, "print-minutes", 0, "Start a fake print job of this many simulated minutes")
	serve.Flags().DurationVar(&reportEvery, "report-interval", 0, "Initial telemetry cadence before M155 changes it (0 = 1s)")
	root.AddCommand(serve)

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
