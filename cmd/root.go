// Package cmd defines and implements the CLI commands for the hudoc executable.
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

	"github.com/JakeFAU/hudoc-downloader/internal/app"
	"github.com/JakeFAU/hudoc-downloader/internal/config"
	"github.com/JakeFAU/hudoc-downloader/internal/dispatcher"
	"github.com/JakeFAU/hudoc-downloader/internal/logging"
	"github.com/JakeFAU/hudoc-downloader/internal/subsite"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use.
type App interface {
	Close() error
	GetConfig() config.Config
	GetLogger() *zap.Logger
	GetSites() subsite.Table
	GetDispatcher() *dispatcher.Dispatcher
}

// newApp is the application factory, replaced in tests.
var newApp = func(cfg config.Config) (App, error) {
	return app.New(cfg)
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "hudoc",
		Short: "Download documents from the HUDOC family of databases.",
		Long: `hudoc downloads judgments, decisions and reports from the HUDOC
databases of the Council of Europe (ECHR, GREVIO, CPT, ECRI and others).
Documents are read from an RSS export or a single document link and saved
as plain text or as evid annotation bundles.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Config is loaded here so the subcommand's flags are already parsed.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			appInstance, err := newApp(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return nil
			}
			return appInstance.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newSubsitesCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute runs the root command until it finishes or the process is
// interrupted, exiting non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	if logger, logErr := logging.New(true, false); logErr == nil {
		logger.Error("command execution failed", zap.Error(err))
		_ = logger.Sync()
	} else {
		fmt.Fprintf(os.Stderr, "command execution failed: %v\n", err)
	}
	os.Exit(1)
}
