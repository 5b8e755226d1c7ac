// Command chordnode runs one chord ring participant: it loads an INI
// config, optionally joins an existing ring through a bootstrap peer, and
// serves both the p2p and api surfaces until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chorddht/config"
	"chorddht/identifier"
	"chorddht/logging"
	"chorddht/node"
)

const (
	exitOK             = 0
	exitRuntimeFailure = 1
	exitConfigError    = 2
)

var (
	configPath    string
	bootstrapAddr string
	quiet         bool
	verbosity     int
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := &cobra.Command{
		Use:   "chordnode",
		Short: "Run a chord DHT ring participant",
		RunE:  runNode,
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the node's INI config file (required)")
	rootCmd.Flags().StringVarP(&bootstrapAddr, "bootstrap", "b", "", "address of an existing ring member to join through")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "log errors only")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	_ = rootCmd.MarkFlagRequired("config")

	exitCode := exitOK
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "chordnode:", err)
		exitCode = exitCodeFor(err)
	}
	return exitCode
}

func exitCodeFor(err error) int {
	if _, ok := err.(configError); ok {
		return exitConfigError
	}
	return exitRuntimeFailure
}

// configError marks a failure that belongs to exit code 2 (§6) rather than
// the generic runtime-failure code 1.
type configError struct{ err error }

func (c configError) Error() string { return c.err.Error() }
func (c configError) Unwrap() error { return c.err }

func runNode(cmd *cobra.Command, args []string) error {
	if !config.Exists(configPath) {
		return configError{fmt.Errorf("config file %q not found", configPath)}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return configError{err}
	}

	log := logging.New(quiet, verbosity)

	var bootstrap *identifier.Address
	if bootstrapAddr != "" {
		addr, err := identifier.ResolveAddress(bootstrapAddr)
		if err != nil {
			return configError{fmt.Errorf("resolving bootstrap address: %w", err)}
		}
		bootstrap = &addr
	}

	n, err := node.New(cfg, bootstrap, logging.Component(log, "node"))
	if err != nil {
		return err
	}

	log.WithField("self", n.Self().String()).Info("chordnode starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return n.Run(ctx)
}
