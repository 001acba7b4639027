package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/depth-scraper/internal/app"
	"github.com/JakeFAU/depth-scraper/internal/config"
	"github.com/JakeFAU/depth-scraper/internal/crawler"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands will use.
// This allows us to inject a fake app during tests.
type App interface {
	Close() error
	GetLogger() *zap.Logger
	RunID() string
	Workers() int
	Crawl(ctx context.Context, cfg crawler.Config) (crawler.Stats, error)
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(cfgFile string) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "A concurrent breadth-first web scraper.",
		Long: `scraper downloads a seed page, follows its links breadth first up to a
maximum depth, and writes every fetched page to ./<depth>/<encoded url>.html.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Builds the application before any subcommand runs. Subcommands own
		// closing it.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml, or json)")
	cmd.AddCommand(newCrawlCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point. SIGINT and SIGTERM cancel a running crawl;
// any returned error exits with status 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
