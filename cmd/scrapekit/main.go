package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brandlens/scrapekit/internal/config"
	"github.com/brandlens/scrapekit/internal/fetch"
	"github.com/brandlens/scrapekit/internal/platform"
	"github.com/brandlens/scrapekit/internal/profile"
	"github.com/brandlens/scrapekit/internal/scraper"
	"github.com/brandlens/scrapekit/internal/types"
)

var (
	cfgFile    string
	verbose    bool
	selectors  []string
	concurrent int
	timeout    string
	maxRetries int
	delay      string
	noHeadless bool
	withHTML   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scrapekit",
		Short: "ScrapeKit — brand-analysis scraping engine",
		Long: `ScrapeKit fetches brand pages across social platforms, review sites,
and generic websites, escalating through fetch strategies when a site
blocks the cheap ones, and extracts typed fields via per-site selectors.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(platformCmd())
	rootCmd.AddCommand(profilesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [url...]",
		Short: "Scrape one or more URLs",
		Long: `Scrape the given URLs. Site profiles are resolved by hostname; unknown
hosts get the generic profile. Results are printed as JSON, one per URL.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScrape,
	}

	cmd.Flags().StringArrayVarP(&selectors, "selector", "s", nil, "extra field selector as name=css (repeatable)")
	cmd.Flags().IntVarP(&concurrent, "concurrency", "n", 0, "max concurrent fetches (0 = config default)")
	cmd.Flags().StringVar(&timeout, "timeout", "", "per-attempt timeout (e.g. 30s)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", -1, "max retries per failed fetch (-1 = config default)")
	cmd.Flags().StringVar(&delay, "delay", "", "minimum spacing between requests to the same host")
	cmd.Flags().BoolVar(&noHeadless, "no-headless", false, "disable the browser backend")
	cmd.Flags().BoolVar(&withHTML, "html", false, "include raw HTML in the output")

	return cmd
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for _, rawURL := range args {
		if err := config.ValidateURL(rawURL); err != nil {
			return fmt.Errorf("invalid URL %q: %w", rawURL, err)
		}
	}

	custom, err := parseSelectors(selectors)
	if err != nil {
		return err
	}

	ws, err := buildScraper(cfg, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	var results []*types.ScrapeResult
	if len(custom) > 0 {
		ps := platform.New(ws, logger)
		for _, rawURL := range args {
			results = append(results, ps.ScrapeGenericWebsite(ctx, rawURL, custom))
		}
	} else if len(args) == 1 {
		results = append(results, ws.ScrapeURL(ctx, args[0], nil))
	} else {
		results = ws.ScrapeMultipleURLs(ctx, args, concurrent)
	}

	var failed int
	for _, result := range results {
		if !result.Success {
			failed++
		}
		printResult(result)
	}

	logger.Info("scrape complete",
		"urls", len(args),
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	if failed > 0 {
		return fmt.Errorf("%d of %d URLs failed", failed, len(args))
	}
	return nil
}

// platformCmd creates the "platform" subcommand.
func platformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platform [name] [handle]",
		Short: "Scrape a brand's page on a known platform",
		Long: `Scrape a brand's presence on a known platform by handle, e.g.:

  scrapekit platform x acmecorp
  scrapekit platform youtube acmecorp
  scrapekit platform glassdoor "Acme Corp"

Fields are normalized into the cross-platform schema.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyCLIOverrides(cfg)
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ws, err := buildScraper(cfg, logger)
			if err != nil {
				return err
			}
			defer ws.Close()

			ctx, cancel := signalContext()
			defer cancel()

			result, err := platform.New(ws, logger).ScrapePage(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printResult(result)
			if !result.Success {
				return fmt.Errorf("scrape failed after %d attempt(s)", result.Attempts)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&timeout, "timeout", "", "per-attempt timeout (e.g. 30s)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", -1, "max retries per failed fetch (-1 = config default)")
	cmd.Flags().BoolVar(&noHeadless, "no-headless", false, "disable the browser backend")
	cmd.Flags().BoolVar(&withHTML, "html", false, "include raw HTML in the output")

	return cmd
}

// profilesCmd creates the "profiles" subcommand.
func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in site profiles",
		Run: func(cmd *cobra.Command, args []string) {
			registry := profile.DefaultRegistry()
			for _, name := range registry.Names() {
				p, _ := registry.Lookup(name)
				fmt.Printf("%-12s strategy=%-19s hosts=%s\n",
					p.Name, p.Strategy, strings.Join(p.Hosts, ","))
			}
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Scraper:\n")
			fmt.Printf("  Max Retries:       %d\n", cfg.Scraper.MaxRetries)
			fmt.Printf("  Timeout:           %s\n", cfg.Scraper.Timeout)
			fmt.Printf("  Delay Per Host:    %s\n", cfg.Scraper.DelayBetweenRequests)
			fmt.Printf("  Max Concurrent:    %d\n", cfg.Scraper.MaxConcurrentRequests)
			fmt.Printf("  User Agents:       %d desktop, %d mobile\n",
				len(cfg.Scraper.UserAgents), len(cfg.Scraper.MobileUserAgents))
			fmt.Printf("  Headless Browser:  %v\n", cfg.Scraper.Headless)
			fmt.Printf("\nFetch:\n")
			fmt.Printf("  Follow Redirects:  %v\n", cfg.Fetch.FollowRedirects)
			fmt.Printf("  Max Redirects:     %d\n", cfg.Fetch.MaxRedirects)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetch.MaxBodySize)
			fmt.Printf("\nAnti-Bot:\n")
			fmt.Printf("  Block Codes:       %v\n", cfg.AntiBot.BlockStatusCodes)
			fmt.Printf("  Markers:           %d configured\n", len(cfg.AntiBot.ChallengeMarkers))
			fmt.Printf("  Min Body Bytes:    %d\n", cfg.AntiBot.MinBodyBytes)
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ScrapeKit %s\n", config.Version)
		},
	}
}

// buildScraper wires the fetch strategies into a WebScraper per the config.
func buildScraper(cfg *config.Config, logger *slog.Logger) (*scraper.WebScraper, error) {
	ws := scraper.NewWebScraper(cfg, logger)

	httpStrategy, err := fetch.NewHTTPStrategy(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create http strategy: %w", err)
	}
	ws.SetStrategy(httpStrategy)

	mobileStrategy, err := fetch.NewMobileHTTPStrategy(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create mobile strategy: %w", err)
	}
	ws.SetStrategy(mobileStrategy)

	ws.SetStrategy(fetch.NewSessionStrategy(cfg, logger))

	if cfg.Scraper.Headless {
		ws.SetStrategy(fetch.NewBrowserStrategy(cfg, logger))
	}

	return ws, nil
}

// printResult writes one result to stdout as JSON.
func printResult(result *types.ScrapeResult) {
	out := map[string]any{
		"url":      result.URL,
		"success":  result.Success,
		"strategy": result.Strategy.String(),
		"attempts": result.Attempts,
		"data":     result.Data,
	}
	if result.Err != nil {
		out["error"] = result.Err.Error()
	}
	if withHTML {
		out["html"] = result.HTML
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
	}
}

// parseSelectors parses repeated name=css flags into a selector map.
func parseSelectors(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, css, ok := strings.Cut(pair, "=")
		if !ok || name == "" || css == "" {
			return nil, fmt.Errorf("invalid selector %q, want name=css", pair)
		}
		out[name] = css
	}
	return out, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if concurrent > 0 {
		cfg.Scraper.MaxConcurrentRequests = concurrent
	}
	if timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Scraper.Timeout = d
		}
	}
	if delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			cfg.Scraper.DelayBetweenRequests = d
		}
	}
	if maxRetries >= 0 {
		cfg.Scraper.MaxRetries = maxRetries
	}
	if noHeadless {
		cfg.Scraper.Headless = false
	}
}
