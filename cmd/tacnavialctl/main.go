// Package main provides tacnavialctl, the TacnaVial admin command line. It
// drives a running API server through the same console panels the web admin
// uses, so optimistic updates and notices behave the same way.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tacnavial/tacnavial/internal/client"
	"github.com/tacnavial/tacnavial/internal/console"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const appName = "tacnavialctl"

func main() {
	if err := rootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand.
type app struct {
	server   string
	timeout  time.Duration
	logLevel string
	asJSON   bool

	out    io.Writer
	errOut io.Writer

	client   *client.Client
	notifier console.Notifier
}

func rootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	defaultServer := os.Getenv("TACNAVIAL_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Administer a TacnaVial server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `tacnavialctl manages obstructions, routes and comments on a running
TacnaVial API server, plans routes and resolves addresses in Tacna.

The server address is taken from --server or TACNAVIAL_SERVER.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.server, "server", "s", defaultServer, "API server base URL")
	cmd.PersistentFlags().DurationVar(&a.timeout, "timeout", client.DefaultTimeout, "Request timeout")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Notice log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print results as JSON")

	cmd.AddCommand(
		routesCmd(a),
		obstructionsCmd(a),
		commentsCmd(a),
		planCmd(a),
		geocodeCmd(a),
		statusCmd(a),
		segmentCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(a.out, "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

func (a *app) init() error {
	level, err := zerolog.ParseLevel(a.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", a.logLevel, err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}).
		Level(level)

	a.client = client.New(client.Config{
		BaseURL:   a.server,
		UserAgent: appName + "/" + Version,
	})
	a.notifier = console.NewLogNotifier(logger)
	return nil
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

// printJSON writes v as indented JSON.
func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
