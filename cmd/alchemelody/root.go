package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PartyShepherd/alchemelody/internal/almanac"
	"github.com/PartyShepherd/alchemelody/internal/almanac/sources"
	"github.com/PartyShepherd/alchemelody/internal/config"
	"github.com/PartyShepherd/alchemelody/internal/logger"
	"github.com/PartyShepherd/alchemelody/internal/metrics"
	"github.com/PartyShepherd/alchemelody/internal/store"
)

// runtime is what every subcommand needs: configuration, logging and a
// service wired to the configured sources and store.
type runtime struct {
	cfg     *config.AppConfig
	log     *zap.Logger
	metrics *metrics.Metrics
	store   locationStore
	service *almanac.Service
}

type locationStore interface {
	almanac.LocationRepository
	Close() error
}

// execute runs root and then releases the runtime, including when the command
// failed.
func execute(root *cobra.Command, rt *runtime) error {
	err := root.Execute()
	if cerr := rt.close(); cerr != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", cerr)
		err = errors.Join(err, cerr)
	}
	return err
}

func newRootCmd() (*cobra.Command, *runtime) {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "alchemelody",
		Short: "Planetary hours, moon phase and elemental quarter",
		Long: `alchemelody divides each day between sunrise and the next sunrise into
24 planetary hours ruled in Chaldean order, and reports the current hour
together with the moon phase and elemental quarter.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.open()
		},
	}

	root.AddCommand(
		newServeCmd(rt),
		newHoursCmd(rt),
		newNowCmd(rt),
		newMoonCmd(rt),
	)
	return root, rt
}

func (rt *runtime) open() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt.cfg = cfg

	rt.log, err = logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	rt.metrics = metrics.New()

	switch cfg.StoreDriver {
	case config.StoreSQLite:
		rt.store, err = store.OpenSQLite(cfg.StorePath, cfg.StoreMaxHistory)
		if err != nil {
			return fmt.Errorf("open location store: %w", err)
		}
	default:
		rt.store = store.NewMemoryStore(cfg.StoreMaxHistory)
	}

	// Shared HTTP client for outbound source calls.
	srcs, err := sources.Build(cfg.Sources, sources.Settings{
		Client:            &http.Client{Timeout: cfg.HTTPTimeout},
		OpenWeatherAPIKey: cfg.OpenWeatherAPIKey,
		WeatherAPIKey:     cfg.WeatherAPIKey,
		SolarTimezone:     cfg.SolarTimezone,
	})
	if err != nil {
		return fmt.Errorf("build sources: %w", err)
	}

	opts := []almanac.Option{
		almanac.WithLogger(rt.log),
		almanac.WithMetrics(rt.metrics),
		almanac.WithSyntheticFallback(cfg.AllowSynthetic),
	}
	if cfg.DefaultLocation != nil {
		opts = append(opts, almanac.WithDefaultLocation(*cfg.DefaultLocation))
	}
	rt.service = almanac.NewService(rt.store, srcs, opts...)

	rt.log.Debug("runtime ready",
		zap.Strings("sources", rt.service.Sources()),
		zap.String("store", cfg.StoreDriver))
	return nil
}

// close is safe to call more than once and after a failed open.
func (rt *runtime) close() error {
	var err error
	if rt.store != nil {
		err = rt.store.Close()
		rt.store = nil
	}
	if rt.log != nil {
		_ = rt.log.Sync()
	}
	return err
}
