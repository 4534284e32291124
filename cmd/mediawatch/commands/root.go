package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/dyluth/mediawatch/internal/config"
	"github.com/dyluth/mediawatch/internal/envbus"
	"github.com/dyluth/mediawatch/internal/instance"
	"github.com/dyluth/mediawatch/internal/printer"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath   string
	instanceName string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mediawatch",
	Short: "mediawatch - breakpoint activation tracking for viewports",
	Long: `mediawatch tracks which responsive breakpoints (named media queries such as
"md" or "gt-sm") are active for a viewport, and reports them as a
priority-ordered, de-duplicated activation list.

Viewport changes (resize, media type, print start/end) are exchanged over
Redis so one process can drive a viewport that another process watches.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: mediawatch.yml, mediawatch.yaml or mediawatch.jsonc in the current directory)")
	rootCmd.PersistentFlags().StringVarP(&instanceName, "name", "n", "", "Target instance name (overrides config and MEDIAWATCH_INSTANCE)")
}

// loadConfig resolves the configuration and applies the --name override.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, path, err := config.Resolve(cwd, configPath)
	if err != nil {
		source := path
		if source == "" {
			source = "environment"
		}
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"Source": source},
			[]string{"Fix the configuration file or remove it to use the default breakpoints"},
		)
	}

	if instanceName != "" {
		if err := instance.ValidateName(instanceName); err != nil {
			return nil, printer.Error("invalid instance name", err.Error(), nil)
		}
		cfg.Redis.Instance = instanceName
	}

	return cfg, nil
}

// connectBus connects to the configured Redis and verifies connectivity.
func connectBus(ctx context.Context, cfg *config.Config) (*envbus.Client, error) {
	client, err := envbus.NewClientFromURL(cfg.Redis.URL, cfg.Redis.Instance)
	if err != nil {
		return nil, fmt.Errorf("failed to create environment bus client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.Redis.URL),
			map[string]string{"Instance": cfg.Redis.Instance},
			[]string{
				"Start a Redis server:\n  docker run -d -p 6379:6379 redis:7",
				"Point mediawatch at another server:\n  export MEDIAWATCH_REDIS_URL=redis://host:6379",
			},
		)
	}

	return client, nil
}
