// Package main provides the pronafmonitor binary: the dashboard server and
// offline exports of the municipality table.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"pronafmonitor/internal/app"
	"pronafmonitor/internal/config"
	"pronafmonitor/internal/infrastructure"
)

const appName = "pronafmonitor"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	dataFile   string
	logLevel   string
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	serve := serveCmd(flags)
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Pronaf family farming credit dashboard for Zona da Mata/MG",
		Long: `pronafmonitor serves the municipality dashboard: KPIs, the choropleth,
concentration and scatter charts, the gender split and the filtered table
with CSV and Excel downloads.

Without a subcommand it runs the server.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.dataFile, "data", "", "Dataset path, overrides PRONAF_DATA_FILE")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serve)
	cmd.AddCommand(exportCmd(flags))
	cmd.AddCommand(snapshotCmd(flags))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s %s)\n",
				appName, app.Version, app.BuildID, app.BuildTime)
		},
	})

	return cmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			logger, err := infrastructure.InitializeLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer infrastructure.CloseLogFile()

			application, err := app.New(cfg, logger)
			if err != nil {
				logger.Error("Failed to initialize application", slog.String("error", err.Error()))
				return err
			}
			return application.Run()
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port, overrides PRONAF_SERVER_PORT")
	return cmd
}

// load reads the configuration and applies the flag overrides.
func (f *globalFlags) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		if !config.FileExists(f.configPath) {
			return nil, fmt.Errorf("config file not found: %s", f.configPath)
		}
		cfg, err = config.LoadFrom(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if f.dataFile != "" {
		cfg.Data.File = f.dataFile
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	return cfg, nil
}

// cliLogger writes JSON logs to stderr so stdout stays clean for the
// command's own output.
func (f *globalFlags) cliLogger() *slog.Logger {
	level := f.logLevel
	if level == "" {
		level = "warn"
	}
	return infrastructure.NewLogger(os.Stderr, level)
}
