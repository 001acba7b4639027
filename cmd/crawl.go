// Package cmd defines and implements the CLI commands for the scraper executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/depth-scraper/internal/crawler"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "crawl <seedURL> <extractAmount> <maxDepth> <unique>",
		Short: "Crawls breadth first from a seed URL",
		Long: `Fetches seedURL and follows at most extractAmount links per page until
maxDepth. When unique is true, t, True, or T, every URL is fetched at most once.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("workers") && workers <= 0 {
				return fmt.Errorf("%w: --workers must be a positive integer, got %d", crawler.ErrInvalidConfig, workers)
			}
			return runCrawlCommand(cmd, args, workers)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "number of parallel workers (default from crawler.workers)")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, args []string, workers int) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := appInstance.Close(); cerr != nil {
			appInstance.GetLogger().Warn("Failed to close application", zap.Error(cerr))
		}
	}()
	if workers == 0 {
		workers = appInstance.Workers()
	}
	cfg, err := parseCrawlArgs(args, workers)
	if err != nil {
		return err
	}

	logger := appInstance.GetLogger()
	stats, err := appInstance.Crawl(cmd.Context(), cfg)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("crawl canceled", zap.Int64("pages", stats.Pages))
	case err != nil:
		return fmt.Errorf("run crawler: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(),
		"run %s: crawled %d pages (%d fetch failures, %d persist failures, %d links enqueued)\n",
		appInstance.RunID(), stats.Pages, stats.FetchFailures, stats.PersistFailures, stats.LinksEnqueued)
	return nil
}

// parseCrawlArgs converts the positional arguments into a crawl config.
func parseCrawlArgs(args []string, workers int) (crawler.Config, error) {
	if len(args) != 4 {
		return crawler.Config{}, fmt.Errorf("%w: expected 4 arguments, got %d", crawler.ErrInvalidConfig, len(args))
	}
	extractAmount, err := parsePositiveInt("extractAmount", args[1])
	if err != nil {
		return crawler.Config{}, err
	}
	maxDepth, err := parsePositiveInt("maxDepth", args[2])
	if err != nil {
		return crawler.Config{}, err
	}
	cfg := crawler.Config{
		SeedURL:           args[0],
		MaxLinksPerPage:   extractAmount,
		MaxDepth:          maxDepth,
		EnforceUniqueness: parseBool(args[3]),
		NumWorkers:        workers,
	}
	if err := cfg.Validate(); err != nil {
		return crawler.Config{}, err
	}
	return cfg, nil
}

func parsePositiveInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", crawler.ErrInvalidConfig, name, raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", crawler.ErrInvalidConfig, name, n)
	}
	return n, nil
}

// parseBool accepts only the spellings true, True, t, and T; anything else is
// false.
func parseBool(raw string) bool {
	switch raw {
	case "true", "True", "t", "T":
		return true
	default:
		return false
	}
}
