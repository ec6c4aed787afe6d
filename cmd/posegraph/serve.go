package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/posegraph/internal/cli"
	httpAdapter "github.com/aretw0/posegraph/pkg/adapters/http"
	"github.com/aretw0/posegraph/pkg/observability"
	"github.com/aretw0/posegraph/pkg/ports"
	"github.com/aretw0/posegraph/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the HTTP server",
	Long: `Serves the graph over a JSON API. Every actor spawned through POST /actors
gets its own engine built from the same definitions; /events streams ticks and
frame events per actor, or hot reload notifications with --watch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := repoPath(cmd, args)
		port, _ := cmd.Flags().GetString("port")
		watchMode, _ := cmd.Flags().GetBool("watch")
		record, _ := cmd.Flags().GetBool("record")
		withMetrics, _ := cmd.Flags().GetBool("metrics")

		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		streams := httpAdapter.NewStreamManager(logger)
		factoryOpts := cli.FactoryOptions{
			RepoPath: dir,
			Root:     rootNode(cmd),
			Debug:    debugEnabled(cmd),
			Sink:     func(actorID string) ports.EventSink { return streams.Sink(actorID) },
		}
		handlerOpts := []httpAdapter.Option{
			httpAdapter.WithStreams(streams),
			httpAdapter.WithLogger(logger),
		}
		managerOpts := []session.Option{session.WithLogger(logger)}

		if withMetrics {
			reg := prometheus.NewRegistry()
			metrics := observability.NewMetrics(reg)
			factoryOpts.Metrics = metrics
			managerOpts = append(managerOpts, session.WithTickObserver(metrics.ObserveTick))
			handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
		}

		if record {
			store, closeStore, err := cli.OpenStore(storeOptions(cmd))
			if err != nil {
				return err
			}
			defer closeStore()
			managerOpts = append(managerOpts, session.WithDigestStore(store))
		}

		factory, err := cli.NewFactory(factoryOpts)
		if err != nil {
			return err
		}

		if watchMode {
			watcher, err := cli.Load(dir, rootNode(cmd), false)
			if err != nil {
				return err
			}
			handlerOpts = append(handlerOpts, httpAdapter.WithWatcher(watcher.Watch))
		}

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           httpAdapter.NewHandler(session.NewManager(factory, managerOpts...), handlerOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting posegraph server", "address", srv.Addr, "dir", dir)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case <-ctx.Done():
			logger.Info("Start shutdown", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				return srv.Close()
			}
			logger.Info("posegraph server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().BoolP("watch", "w", false, "Stream hot reload notifications on /events")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().Bool("record", false, "Record each actor's tick digests, one run per actor id")
	addStoreFlags(serveCmd)
}
