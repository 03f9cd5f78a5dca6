package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stitchgraph/pkg/api"
	"github.com/matzehuels/stitchgraph/pkg/config"
	"github.com/matzehuels/stitchgraph/pkg/observability"
	"github.com/matzehuels/stitchgraph/pkg/storage"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		store   string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the walk, layout and render pipeline over HTTP",
		Long: `Serve runs the HTTP API. Pattern sets can be posted for one-off renders
or stored and rendered by id. Stored sets live in memory or in MongoDB
([server] store = "mongo"). Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := c.Config.Server
			if cmd.Flags().Changed("addr") {
				sc.Addr = addr
			}
			if cmd.Flags().Changed("store") {
				sc.Store = store
			}
			return c.runServe(cmd.Context(), sc, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&store, "store", "", "pattern store: memory, mongo")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, sc config.ServerConfig, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st, err := openStore(ctx, sc)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			c.Logger.Warn("close store", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	observability.SetPipelineHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)
	defer observability.Reset()

	srv := api.New(api.Config{
		Runner:   runner,
		Store:    st,
		Logger:   c.Logger,
		Gatherer: reg,
	})
	c.Logger.Info("starting server", "store", sc.Store, "cache", c.Config.Cache.Backend)
	return srv.ListenAndServe(ctx, sc.Addr)
}

func openStore(ctx context.Context, sc config.ServerConfig) (storage.Store, error) {
	switch sc.Store {
	case config.StoreMongo:
		s, err := storage.NewMongoStore(ctx, sc.MongoURI, sc.Database)
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		return s, nil
	case config.StoreMemory, "":
		return storage.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store %q (must be memory or mongo)", sc.Store)
}
