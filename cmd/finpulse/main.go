// FinPulse — financial news aggregation and sentiment tracking.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/finpulse/finpulse/api"
	"github.com/finpulse/finpulse/internal/config"
	"github.com/finpulse/finpulse/internal/fetch"
	"github.com/finpulse/finpulse/internal/pipeline"
	"github.com/finpulse/finpulse/internal/sentiment"
	"github.com/finpulse/finpulse/internal/source"
	"github.com/finpulse/finpulse/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "finpulse",
	Short: "FinPulse — financial news aggregation and sentiment tracking",
	Long: `FinPulse pulls financial headlines from structured news APIs and RSS
feeds, deduplicates them, scores each headline's sentiment, and keeps
everything in a local store for market sentiment analysis.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(internationalCmd)
	rootCmd.AddCommand(globalCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(sentimentCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// buildPipeline wires the source adapters, orchestrator, and store from config.
// The caller owns the returned store and must Close it.
func buildPipeline() (*pipeline.Pipeline, *store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	orch := fetch.NewOrchestrator(
		source.NewNewsAPI(cfg.NewsAPI.Key),
		source.NewRSS(cfg.RSS.Parser),
		source.NewFallback(),
	)
	return pipeline.New(orch, st), st, nil
}

// runFetch executes one fetch/classify/store cycle and prints a summary.
func runFetch(cmd *cobra.Command, opts pipeline.Options) error {
	pipe, st, err := buildPipeline()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	result, err := pipe.FetchAndStore(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Printf("📰 Fetched %d articles (api: %d, rss: %d), stored %d new\n",
		len(result.Articles), result.Counts.API, result.Counts.RSS, result.Stored)
	for _, a := range result.Articles {
		ts := "          "
		if !a.PublishedAt.IsZero() {
			ts = a.PublishedAt.Format("2006-01-02")
		}
		fmt.Printf("  %s  [%-12s]  %s\n", ts, a.Source, a.Title)
	}
	return nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("FinPulse %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [country]",
	Short: "Fetch headlines for a single country",
	Long: `Fetch business headlines for a country (ISO 3166-1 alpha-2 code,
default "us"), classify their sentiment, and store new articles.

Examples:
  finpulse fetch
  finpulse fetch in --mode rss
  finpulse fetch gb --mode both --page-size 30`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		country := "us"
		if len(args) > 0 {
			country = strings.ToLower(args[0])
		}
		if !source.IsSupportedCountry(country) {
			return fmt.Errorf("unsupported country: %s", country)
		}

		modeStr, _ := cmd.Flags().GetString("mode")
		mode, err := fetch.ParseMode(modeStr)
		if err != nil {
			return err
		}
		pageSize, _ := cmd.Flags().GetInt("page-size")

		return runFetch(cmd, pipeline.Options{
			Scope:    pipeline.ScopeCountry,
			Mode:     mode,
			Country:  country,
			PageSize: pageSize,
		})
	},
}

// --- International Command ---

var internationalCmd = &cobra.Command{
	Use:   "international",
	Short: "Fetch headlines across major markets",
	RunE: func(cmd *cobra.Command, args []string) error {
		modeStr, _ := cmd.Flags().GetString("mode")
		mode, err := fetch.ParseMode(modeStr)
		if err != nil {
			return err
		}
		pageSize, _ := cmd.Flags().GetInt("page-size")

		return runFetch(cmd, pipeline.Options{
			Scope:    pipeline.ScopeInternational,
			Mode:     mode,
			PageSize: pageSize,
		})
	},
}

// --- Global Command ---

var globalCmd = &cobra.Command{
	Use:   "global [query]",
	Short: "Fetch headlines worldwide for a search query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) > 0 {
			query = args[0]
		}

		modeStr, _ := cmd.Flags().GetString("mode")
		mode, err := fetch.ParseMode(modeStr)
		if err != nil {
			return err
		}
		pageSize, _ := cmd.Flags().GetInt("page-size")

		return runFetch(cmd, pipeline.Options{
			Scope:    pipeline.ScopeGlobal,
			Mode:     mode,
			Query:    query,
			PageSize: pageSize,
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{fetchCmd, internationalCmd, globalCmd} {
		c.Flags().String("mode", "", "source mode: api, rss, or both (default api)")
		c.Flags().Int("page-size", 0, "max articles to fetch (default 50)")
	}
}

// --- Sources Command ---

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured RSS feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		check, _ := cmd.Flags().GetBool("check")
		country, _ := cmd.Flags().GetString("country")

		if check {
			rss := source.NewRSS(cfg.RSS.Parser)
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			fmt.Println("🔎 Probing configured feeds...")
			for _, st := range rss.CheckFeeds(ctx) {
				if st.Err != nil {
					fmt.Printf("  ❌ %-28s %s\n", st.Feed.Name, st.Err)
				} else {
					fmt.Printf("  ✅ %-28s ok\n", st.Feed.Name)
				}
			}
			return nil
		}

		var feeds []source.Feed
		if country != "" {
			feeds = source.FeedsFor(strings.ToLower(country))
		} else {
			feeds = source.FinancialFeeds()
		}
		for _, f := range feeds {
			fmt.Printf("  %-28s %s\n", f.Name, f.URL)
		}
		return nil
	},
}

func init() {
	sourcesCmd.Flags().Bool("check", false, "probe every feed and report reachability")
	sourcesCmd.Flags().String("country", "", "list feeds for a country code")
}

// --- Sentiment Command ---

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Show aggregate market sentiment from stored headlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		items, err := st.Recent(ctx, limit)
		if err != nil {
			return err
		}

		ms := sentiment.AnalyzeMarket(items)
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  FinPulse — Market Sentiment")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Sentiment:   %s\n", ms.Sentiment)
		fmt.Printf("  Confidence:  %.0f%%\n", ms.Confidence*100)
		fmt.Printf("  Trend:       %s\n", ms.Trend)
		fmt.Printf("  Articles:    %d\n", ms.ArticleCount)
		fmt.Printf("    positive:  %.0f%%\n", ms.PositiveScore*100)
		fmt.Printf("    negative:  %.0f%%\n", ms.NegativeScore*100)
		fmt.Printf("    neutral:   %.0f%%\n", ms.NeutralScore*100)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func init() {
	sentimentCmd.Flags().Int("limit", 100, "number of recent headlines to analyze")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, st, err := buildPipeline()
		if err != nil {
			return err
		}
		defer st.Close()

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting FinPulse API server on %s\n", addr)

		srv := api.NewServer(cfg, pipe, st)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  FinPulse — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    RSS Parser:   %s\n", cfg.RSS.Parser)
		fmt.Printf("    Fetch Mode:   %s\n", cfg.Fetch.Mode)
		fmt.Printf("    Store:        %s\n", cfg.Store.Path)
		fmt.Printf("    API Server:   %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set (RSS still available)"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-18s %s\n", k.Name+":", status)
		}

		st, err := store.Open(cfg.Store.Path)
		if err == nil {
			defer st.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if total, err := st.Count(ctx); err == nil {
				fmt.Println()
				fmt.Printf("  Stored articles: %d\n", total)
			}
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
