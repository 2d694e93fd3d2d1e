// Package cli implements the meetctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"meetcore/internal/blob"
	"meetcore/internal/config"
	"meetcore/internal/core"
	"meetcore/internal/logging"
)

// Execute runs meetctl until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfgPath  string
	logLevel string
	trace    bool
	cfg      config.Config
	logger   *slog.Logger
	stderr   io.Writer
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: logging.Discard()}

	cmd := &cobra.Command{
		Use:           "meetctl",
		Short:         "Manage rescue-swimming competition documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ./"+config.FileName+")")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&a.trace, "trace", false, "write a JSON span per lifecycle operation to stderr")

	cmd.AddCommand(
		configCmd(a),
		importCmd(a),
		listCmd(a),
		disciplinesCmd(a),
		inspectCmd(a),
		validateCmd(a),
		forfeitCmd(a),
		serveCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.stderr = cmd.ErrOrStderr()
	return nil
}

// openService opens the configured store and wraps it in a service. Operation
// metrics go to an expvar recorder unless opts set another one; the returned
// func logs them at debug level and releases the store.
func (a *app) openService(ctx context.Context, opts ...core.ServiceOption) (*core.Service, func(), error) {
	store, err := blob.Open(ctx, a.cfg.BlobConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", a.cfg.Storage.Driver, err)
	}
	metrics := core.NewExpvarMetricsRecorder("")
	base := []core.ServiceOption{
		core.WithLogger(a.logger),
		core.WithFailOnWarnings(a.cfg.Rules.FailOnWarnings),
		core.WithMetricsRecorder(metrics),
	}
	if a.trace {
		base = append(base, core.WithTracer(core.NewJSONTracer(a.stderr)))
	}
	svc := core.NewService(store, append(base, opts...)...)
	release := func() {
		if snap := metrics.Snapshot(); len(snap.Results) > 0 {
			a.logger.Debug("operation metrics", "expvar", metrics.Name(), "results", snap.Results, "durations_ms", snap.DurationsMS)
		}
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				a.logger.Warn("close store", "error", err)
			}
		}
	}
	return svc, release, nil
}

// loadService opens the store and loads the document at key.
func (a *app) loadService(ctx context.Context, key string) (*core.Service, func(), error) {
	svc, release, err := a.openService(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, err := svc.Load(ctx, key); err != nil {
		release()
		return nil, nil, err
	}
	return svc, release, nil
}
