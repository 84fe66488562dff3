// Command carbrowse browses the car-spec catalog from the terminal: makes,
// models, generations, trims and specs, and a filterable car list per make.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/WessleyAI/carbrowse/engine/browse"
	"github.com/WessleyAI/carbrowse/engine/cache"
	"github.com/WessleyAI/carbrowse/engine/carapi"
	"github.com/WessleyAI/carbrowse/engine/mapping"
	"github.com/WessleyAI/carbrowse/pkg/config"
	"github.com/WessleyAI/carbrowse/pkg/metrics"
	"github.com/WessleyAI/carbrowse/pkg/natsutil"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(logger).ExecuteContext(ctx); err != nil {
		logger.Error("carbrowse failed", "err", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand for one invocation.
type app struct {
	logger *slog.Logger

	configPath  string
	metricsPath string
	natsURL     string

	cfg     config.Config
	reg     *metrics.Registry
	client  *carapi.Client
	images  *carapi.ImageSearch
	session *browse.Session
	nc      *nats.Conn
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	a := &app{logger: logger}
	root := &cobra.Command{
		Use:           "carbrowse",
		Short:         "Browse the car-spec catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "carbrowse.json5", "config file; a .local variant next to it overrides it")
	root.PersistentFlags().StringVar(&a.metricsPath, "metrics", "", `write metrics in Prometheus text format to this file ("-" for stderr)`)
	root.PersistentFlags().StringVar(&a.natsURL, "nats", "", "publish loaded cars to this NATS server")

	root.AddCommand(
		a.makesCmd(),
		a.modelsCmd(),
		a.generationsCmd(),
		a.trimsCmd(),
		a.specCmd(),
		a.carsCmd(),
		a.searchCmd(),
		a.imageCmd(),
		a.watchCmd(),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.natsURL != "" {
		cfg.NATSURL = a.natsURL
	}
	a.cfg = cfg
	a.reg = metrics.New()

	a.client = carapi.New(carapi.Options{
		BaseURL:           cfg.BaseURL,
		Host:              cfg.APIHost,
		APIKey:            cfg.APIKey,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Request: carapi.RequestOpts{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff.Std(),
		},
		Breaker: carapi.DefaultBreakerOpts,
		Metrics: a.reg,
		Logger:  a.logger,
	})

	opts := browse.Options{
		API:       a.client,
		CacheSize: cfg.CacheSize,
		Prefetch:  cache.PrefetchOpts{Delay: cfg.PrefetchDelay.Std()},
		Metrics:   a.reg,
		Logger:    a.logger,
	}
	if cfg.UnsplashKey != "" {
		a.images = carapi.NewImageSearch("", cfg.UnsplashKey, nil, a.logger)
		opts.Images = a.images
	}
	if cfg.Synthesize {
		opts.Synthesizer = mapping.NewSynthesizer(nil, nil)
	}
	if cfg.NATSURL != "" {
		nc, err := natsutil.Connect(cfg.NATSURL, "carbrowse", a.logger)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		a.nc = nc
		pub := natsutil.NewPublisher[browse.CarsLoaded](nc, cfg.Subject)
		opts.Publisher = browse.PublisherFunc(pub.Publish)
		a.logger.Info("publishing loaded cars", "subject", pub.Subject())
	}

	a.session, err = browse.New(ctx, opts)
	return err
}

func (a *app) teardown(stderr io.Writer) error {
	if a.session != nil {
		a.session.Close()
	}
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			a.logger.Warn("nats drain failed", "err", err)
		}
	}
	return a.writeMetrics(stderr)
}

func (a *app) writeMetrics(stderr io.Writer) error {
	if a.metricsPath == "" || a.reg == nil {
		return nil
	}
	if a.metricsPath == "-" {
		_, err := a.reg.WriteTo(stderr)
		return err
	}
	f, err := os.Create(a.metricsPath)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	defer f.Close()
	_, err = a.reg.WriteTo(f)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
