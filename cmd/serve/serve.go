package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/tom-alerce/internal/api"
	"github.com/tphakala/tom-alerce/internal/app"
	"github.com/tphakala/tom-alerce/internal/buildinfo"
	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/logger"
)

// Command creates the serve command, which runs the HTTP API until
// interrupted.
func Command(settings *conf.Settings, info buildinfo.BuildInfo, opts ...app.Option) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serves broker searches, targets, saved queries and Prometheus metrics over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				settings.WebServer.Listen = listen
			}
			if !settings.WebServer.Enabled && listen == "" {
				return errors.Newf("web server is disabled in configuration, set webserver.enabled or pass --listen").
					Category(errors.CategoryConfiguration).
					Component("cli").
					Build()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, settings, info, opts...)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address, overrides webserver.listen")
	return cmd
}

// Run starts the API server and blocks until ctx is cancelled.
func Run(ctx context.Context, settings *conf.Settings, info buildinfo.BuildInfo, opts ...app.Option) error {
	log := logger.Global().Module("cli")

	a, err := app.New(settings, append([]app.Option{app.WithMetrics()}, opts...)...)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("failed to close application", logger.Error(err))
		}
	}()

	server, err := api.New(settings, a.Brokers, a.Store,
		api.WithMetrics(a.Metrics),
		api.WithVisibility(a.Visibility),
		api.WithBuildInfo(info))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		// warm the classifier cache so the first form request has a fallback
		if _, err := a.Alerce.Client().FetchClassifiers(gctx); err != nil {
			log.Warn("classifier metadata prefetch failed", logger.Error(err))
		}
		return nil
	})

	return g.Wait()
}
