package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"blogfront/internal/cms"
	"blogfront/internal/config"
	"blogfront/internal/content"
	"blogfront/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	cfg        *config.Config
	configPath string
	addr       string
	asJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "blogfront",
	Short: "blogfront - A server-rendered blog front-end for a headless CMS",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.Server.Addr = addr
		}

		logger, err = newLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			logger.Fatal("Invalid configuration", zap.Error(err))
		}
		return nil
	},
}

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "List every published article, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		svc, cleanup := newContentService()
		defer cleanup()

		items, err := svc.FetchAll(cmd.Context())
		if err != nil {
			logger.Fatal("Failed to fetch articles", zap.Error(err))
		}

		if asJSON {
			printJSON(items)
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PUBLISHED\tSLUG\tTITLE\tCATEGORIES")
		for _, item := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				item.PublishedAt.Format("2006-01-02"), item.Slug, item.Title, strings.Join(item.CategoryNames, ", "))
		}
		tw.Flush()
	},
}

var tocCmd = &cobra.Command{
	Use:   "toc [slug]",
	Short: "Print an article's table of contents",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, cleanup := newContentService()
		defer cleanup()

		detail, err := svc.FetchOne(cmd.Context(), args[0])
		if err != nil {
			logger.Fatal("Failed to fetch article", zap.String("slug", args[0]), zap.Error(err))
		}

		if asJSON {
			printJSON(detail.TableOfContents)
			return
		}

		fmt.Println(detail.Title)
		for _, h := range detail.TableOfContents.Headings {
			fmt.Printf("%s- %s (#%s)\n", strings.Repeat("  ", h.Level-1), h.Text, h.ID)
		}
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Print category filters with article counts",
	Run: func(cmd *cobra.Command, args []string) {
		svc, cleanup := newContentService()
		defer cleanup()

		filters, err := svc.FetchCategoryCounts(cmd.Context())
		if err != nil {
			logger.Fatal("Failed to fetch categories", zap.Error(err))
		}

		if asJSON {
			printJSON(filters)
			return
		}
		for _, f := range filters {
			fmt.Printf("%-24s %d\n", f.Name, f.Count)
		}
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Queue a cache invalidation for the running server",
	Run: func(cmd *cobra.Command, args []string) {
		// Redis-only: the server process holds the Badger directory lock.
		st, err := store.NewHybridStore(store.Options{RedisAddr: cfg.Cache.RedisAddr})
		if err != nil {
			logger.Fatal("Failed to init store", zap.Error(err))
		}
		defer st.Close()

		job := store.NewJob("manual", "")
		if err := st.Enqueue(context.Background(), job); err != nil {
			logger.Fatal("Failed to queue invalidation", zap.Error(err))
		}
		logger.Info("Invalidation queued", zap.String("job_id", job.ID.String()))
	},
}

// newContentService builds the CMS client, wraps it in the cache when
// enabled and returns the service plus a cleanup func.
func newContentService() (*content.Service, func()) {
	svc, st := buildContent(false)
	return svc, func() {
		if st != nil {
			st.Close()
		}
	}
}

// buildContent wires the content pipeline. withBodies opens Badger for
// article bodies; CLI commands stay Redis-only.
func buildContent(withBodies bool) (*content.Service, *store.HybridStore) {
	client, err := cms.New(cms.Config{
		ServiceDomain: cfg.CMS.ServiceDomain,
		APIKey:        cfg.CMS.APIKey,
		BaseURL:       cfg.CMS.BaseURL,
		Endpoint:      cfg.CMS.Endpoint,
		Timeout:       cfg.CMS.Timeout,
		RateLimit:     cfg.CMS.RateLimit,
		Burst:         cfg.CMS.Burst,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to init cms client", zap.Error(err))
	}

	var src content.Source = client
	var st *store.HybridStore
	if cfg.Cache.Enabled {
		opts := store.Options{RedisAddr: cfg.Cache.RedisAddr, TTL: cfg.Cache.TTL}
		if withBodies {
			opts.BadgerPath = cfg.Cache.BadgerPath
		}
		st, err = store.NewHybridStore(opts)
		if err != nil {
			logger.Fatal("Failed to init store", zap.Error(err))
		}
		src = store.NewCachingSource(client, st, logger)
	}

	svc := content.NewService(src, content.Config{
		PageSize: cfg.CMS.PageSize,
		Sanitize: cfg.Content.Sanitize,
	}, logger)
	return svc, st
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zcfg := zap.NewDevelopmentConfig()
	if format == "json" {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Fatal("Failed to encode output", zap.Error(err))
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print command output as JSON")
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(articlesCmd)
	rootCmd.AddCommand(tocCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(purgeCmd)

	err := rootCmd.Execute()
	if logger != nil {
		logger.Sync()
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
