package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"jamjob-backend/internal/config"
)

var Version = "dev"

type rootFlags struct {
	configPath string
	port       string
	logLevel   string
}

func main() {
	// A missing .env is fine; production sets the environment directly.
	_ = godotenv.Load()

	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:     "jamjob-server",
		Short:   "JamJob job board API",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&flags.port, "port", "p", "", "HTTP port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(indexesCmd(flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load builds the config and applies flag overrides on top of it.
func (f *rootFlags) load() (*config.Config, error) {
	path := f.configPath
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if f.port != "" {
		cfg.Port = f.port
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
