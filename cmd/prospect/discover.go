package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FranksOps/prospect/internal/config"
	"github.com/FranksOps/prospect/internal/discover"
	"github.com/FranksOps/prospect/internal/fingerprint"
	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/internal/query"
	"github.com/FranksOps/prospect/internal/report"
	"github.com/FranksOps/prospect/internal/serp"
	"github.com/FranksOps/prospect/internal/storage"
	"github.com/FranksOps/prospect/internal/storage/csvbackend"
	"github.com/FranksOps/prospect/internal/storage/jsonbackend"
	"github.com/FranksOps/prospect/internal/storage/postgres"
	"github.com/FranksOps/prospect/internal/storage/sqlite"
	"github.com/FranksOps/prospect/pkg/proxy"
	"github.com/spf13/cobra"
)

func newDiscoverCmd() *cobra.Command {
	var (
		configFile string
		attrsFile  string
		title      string
		location   string
		skills     []string
		keywords   []string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Search for profiles matching the given role attributes",
		Long: `Builds search queries from the role attributes, runs them against the
configured provider chain, and prints the deduplicated profile URLs as a
JSON report. Finding zero profiles is a successful (empty) run; only
configuration and input errors exit non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			attrs, err := loadAttributes(attrsFile, title, location, skills, keywords)
			if err != nil {
				return err
			}
			if attrs.Empty() {
				return fmt.Errorf("no role attributes given: set --title/--location/--skills or --attrs")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runDiscovery(ctx, cfg, attrs)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "optional YAML config file")
	cmd.Flags().StringVar(&attrsFile, "attrs", "", "JSON file with role attributes (JD analyzer output)")
	cmd.Flags().StringVar(&title, "title", "", "role title")
	cmd.Flags().StringVar(&location, "location", "", "role location")
	cmd.Flags().StringSliceVar(&skills, "skills", nil, "role skills, most important first")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "explicit search keywords (override derived queries)")

	return cmd
}

// loadAttributes merges the attrs file (if any) with flag overrides.
func loadAttributes(path, title, location string, skills, keywords []string) (query.Attributes, error) {
	var attrs query.Attributes

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return attrs, fmt.Errorf("read attributes: %w", err)
		}
		if err := json.Unmarshal(data, &attrs); err != nil {
			return attrs, fmt.Errorf("parse attributes: %w", err)
		}
	}

	if title != "" {
		attrs.Title = title
	}
	if location != "" {
		attrs.Location = location
	}
	if len(skills) > 0 {
		attrs.Skills = skills
	}
	if len(keywords) > 0 {
		attrs.SearchKeywords = keywords
	}

	return attrs, nil
}

func runDiscovery(ctx context.Context, cfg *config.Config, attrs query.Attributes) error {
	logger := slog.Default()

	var proxyPool *proxy.Pool
	if cfg.ProxyFile != "" {
		proxyPool = proxy.NewPool(proxy.Config{})
		if err := proxyPool.LoadFile(cfg.ProxyFile); err != nil {
			return fmt.Errorf("load proxies: %w", err)
		}
	}

	fetcher, err := serp.NewFetcher(serp.FetchConfig{
		Timeout:     cfg.Timeout,
		Fingerprint: fingerprint.Profile(cfg.Fingerprint),
		ProxyPool:   proxyPool,
	})
	if err != nil {
		return err
	}

	providers, err := buildProviders(cfg, fetcher)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	if cfg.MetricsPort > 0 {
		srv := metrics.Start(cfg.MetricsPort)
		defer srv.Stop(context.Background())
	}

	d := discover.New(discover.Config{
		Providers:          providers,
		Delay:              cfg.Delay,
		Jitter:             cfg.Jitter,
		MaxQueries:         cfg.MaxQueries,
		MaxTotalResults:    cfg.MaxTotalResults,
		MaxResultsPerQuery: cfg.MaxResultsPerQuery,
		Store:              store,
		Logger:             logger,
	})

	res, err := d.Run(ctx, attrs)
	if err != nil {
		return err
	}

	doc := report.Build(res.Profiles, time.Now())
	if err := report.WriteJSON(os.Stdout, doc); err != nil {
		return err
	}
	if cfg.Output != "" {
		if err := report.Save(cfg.Output, doc); err != nil {
			// The in-memory result already reached stdout; a failed file
			// write is not worth a non-zero exit.
			logger.Error("failed to write report file", "path", cfg.Output, "err", err)
		}
	}

	return nil
}

func buildProviders(cfg *config.Config, fetcher *serp.Fetcher) ([]serp.Provider, error) {
	providers := make([]serp.Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		switch name {
		case config.ProviderSerpAPI:
			providers = append(providers, serp.NewSerpAPI(fetcher, cfg.SerpAPIKey))
		case config.ProviderDuckDuckGo:
			providers = append(providers, serp.NewDuckDuckGo(fetcher))
		case config.ProviderGoogleFallback:
			providers = append(providers, serp.NewGoogleFallback(fetcher))
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return providers, nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.StorageDriver {
	case "":
		return nil, nil
	case "json":
		return jsonbackend.New(cfg.StorageDSN)
	case "csv":
		return csvbackend.New(cfg.StorageDSN)
	case "sqlite":
		return sqlite.New(cfg.StorageDSN)
	case "postgres":
		return postgres.New(ctx, cfg.StorageDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
