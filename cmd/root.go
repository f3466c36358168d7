// Package cmd implements the index-rotator command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonesrussell/north-cloud/index-rotator/cmd/common"
	"github.com/jonesrussell/north-cloud/index-rotator/cmd/index"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

// NewRootCommand builds the command tree. newDeps nil means NewCommandDeps
// with the --config and --debug values.
func NewRootCommand(newDeps common.Factory) *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "index-rotator",
		Short:         "Zero-downtime Elasticsearch index rotation behind aliases",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default is $CONFIG_PATH or ./config.yml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return bindFlags(v, cmd)
	}

	if newDeps == nil {
		newDeps = func(ctx context.Context) (*common.CommandDeps, error) {
			return common.NewCommandDeps(ctx, common.Options{
				ConfigPath: configPath(v),
				Debug:      v.GetBool("app.debug"),
			})
		}
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "index-rotator version %s\n", Version)
			return err
		},
	})
	rootCmd.AddCommand(index.Command(newDeps))

	return rootCmd
}

// bindFlags binds the persistent flags and their environment variables.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlag("config", cmd.Root().PersistentFlags().Lookup("config")); err != nil {
		return fmt.Errorf("failed to bind config flag: %w", err)
	}
	if err := v.BindPFlag("app.debug", cmd.Root().PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	if err := v.BindEnv("config", "CONFIG_PATH"); err != nil {
		return fmt.Errorf("failed to bind CONFIG_PATH: %w", err)
	}
	if err := v.BindEnv("app.debug", "APP_DEBUG"); err != nil {
		return fmt.Errorf("failed to bind APP_DEBUG: %w", err)
	}
	return nil
}

// configPath resolves --config, then CONFIG_PATH, then config.DefaultPath.
func configPath(v *viper.Viper) string {
	if path := v.GetString("config"); path != "" {
		return path
	}
	return config.GetConfigPath(config.DefaultPath)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	// Load .env early so CONFIG_PATH and APP_DEBUG can come from it.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(nil).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
