package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"traveld/internal/browser"
	"traveld/internal/config"
	"traveld/internal/httpapi"
	"traveld/internal/logging"
	"traveld/internal/scrape"
	"traveld/internal/server"
	"traveld/internal/store"
	"traveld/internal/trip"

	flightsearch "traveld/internal/flights"
	hotelsearch "traveld/internal/hotels"
)

var (
	// Global flags
	configPath string
	listenAddr string
	verbose    bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "traveld",
	Short: "traveld - travel search API",
	Long: `traveld serves flight and hotel searches and trip planning over HTTP.

Results are scraped from Google Travel pages, either with a plain HTTP
fetch, a headless Chromium render, or bundled sample data.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// serveCmd starts the API server; running the bare binary does the same.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.DefaultConfig().Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "traveld.yaml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "addr", "", "listen address override (e.g. :5000)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := config.NewWatcher(configPath, logger)
	if err != nil {
		return err
	}
	cfg := watcher.Current()
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	var cache *store.Cache
	if cfg.Cache.Enabled {
		cache, err = store.Open(cfg.Cache.DatabasePath, cfg.Cache.TTLDuration(), logger)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer cache.Close()
		go cache.RunPruner(ctx, cfg.Cache.TTLDuration())
	}

	browserMgr := browser.NewManager(cfg.Browser, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = browserMgr.Shutdown(shutdownCtx)
	}()

	blocked := cfg.Scraper.BlockedDomains
	httpFetcher := scrape.NewBlockedFetcher(scrape.NewHTTPFetcher(cfg.Scraper), blocked)
	liveFetcher := scrape.NewBlockedFetcher(browser.NewFetcher(browserMgr), blocked)

	// A nil interface keeps the searchers' cache checks simple.
	var flightCache flightsearch.Cache
	var hotelCache hotelsearch.Cache
	if cache != nil {
		flightCache = cache
		hotelCache = cache
	}

	flightSvc := flightsearch.NewSearcher(httpFetcher, liveFetcher, flightCache, logger)
	hotelSvc := hotelsearch.NewSearcher(liveFetcher, hotelCache, logger)
	planner := trip.NewPlanner(flightSvc, hotelSvc, func() (string, string) {
		c := watcher.Current()
		return c.Scraper.FlightFetchMode, c.Scraper.HotelFetchMode
	}, logger)

	srv := server.New(cfg.Server, logger)
	httpapi.Register(srv.Mux(), logger, httpapi.Services{
		Flights: flightSvc,
		Hotels:  hotelSvc,
		Trips:   planner,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
