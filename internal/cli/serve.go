package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"meetcore/internal/adapters/httpapi"
	"meetcore/internal/blob"
	"meetcore/internal/core"
	"meetcore/internal/watch"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	var addr string
	var watchDoc bool
	c := &cobra.Command{
		Use:   "serve [document-key]",
		Short: "Serve a competition over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.Addr
			}
			if !cmd.Flags().Changed("watch") {
				watchDoc = a.cfg.Server.Watch
			}
			return a.serve(cmd.Context(), addr, watchDoc, args)
		},
	}
	c.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	c.Flags().BoolVar(&watchDoc, "watch", false, "reload the document when it changes on disk (fs driver)")
	return c
}

func (a *app) serve(ctx context.Context, addr string, watchDoc bool, args []string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return err
	}
	svc, release, err := a.openService(ctx, core.WithMetricsRecorder(metrics))
	if err != nil {
		return err
	}
	defer release()
	if len(args) == 1 {
		if _, err := svc.Load(ctx, args[0]); err != nil {
			return err
		}
	}

	handler := httpapi.NewHandler(svc,
		httpapi.WithLogger(a.logger),
		httpapi.WithAllowedOrigins(a.cfg.Server.AllowedOrigins...),
		httpapi.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting server", "addr", addr, "document", svc.DocumentKey())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("stopping server")
		return srv.Shutdown(shutdownCtx)
	})
	if watchDoc {
		path, ok := blob.LocalPath(svc.Blobs(), svc.DocumentKey())
		if !ok || !svc.Loaded() {
			a.logger.Warn("watch needs the fs driver and a loaded document; not watching")
		} else {
			w, err := watch.New(path, handler.Reload,
				watch.WithDebounce(a.cfg.Server.Debounce()),
				watch.WithLogger(a.logger))
			if err != nil {
				return err
			}
			g.Go(func() error { return w.Run(gctx) })
		}
	}
	return g.Wait()
}
