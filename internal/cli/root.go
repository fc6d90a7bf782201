package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"trends-go/internal/config"
	"trends-go/pkg/logger"
)

// configKey annotates flags that override a config key
const configKey = "config_key"

var (
	cfgFile string
	debug   bool

	manager = config.NewManager()
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "trends",
	Short: "Collect rising Google Trends queries for seed keywords",
	Long: `trends submits one explore task per seed keyword, waits for the tasks to
complete, extracts the rising related queries and writes a dataset for the
dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	bindFlag(rootCmd.PersistentFlags(), "log-level", "logger.level", "", "log level (debug, info, warn, error)")
	bindFlag(rootCmd.PersistentFlags(), "data-dir", "storage.data_dir", "", "directory for datasets and reports")

	rootCmd.AddCommand(newFetchCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newConvertCommand())
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// bindFlag registers a string flag whose value, when set, overrides key
func bindFlag(fs *pflag.FlagSet, name, key, value, usage string) {
	fs.String(name, value, usage)
	_ = fs.SetAnnotation(name, configKey, []string{key})
}

func bindIntFlag(fs *pflag.FlagSet, name, key string, value int, usage string) {
	fs.Int(name, value, usage)
	_ = fs.SetAnnotation(name, configKey, []string{key})
}

func bindBoolFlag(fs *pflag.FlagSet, name, key string, usage string) {
	fs.Bool(name, false, usage)
	_ = fs.SetAnnotation(name, configKey, []string{key})
}

func loadConfig(cmd *cobra.Command) error {
	if _, err := manager.Load(cfgFile); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	overrides := 0
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if keys, ok := f.Annotations[configKey]; ok && len(keys) > 0 {
			manager.Set(keys[0], f.Value.String())
			overrides++
		}
	})
	if debug {
		manager.Set("logger.level", "debug")
		overrides++
	}
	if overrides > 0 {
		if err := manager.Reload(); err != nil {
			return fmt.Errorf("failed to apply flags: %w", err)
		}
	}

	cfg = manager.GetConfig()
	logger.Configure(cfg.Logger)
	return nil
}
