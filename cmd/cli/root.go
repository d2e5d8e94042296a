// Package cli provides the command-line interface for the nexscan port
// scanner. It implements the Cobra-based command structure with commands for
// scanning and configuration management.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexscan/nexscan/internal/config"
	"github.com/nexscan/nexscan/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nexscan",
	Short: "Concurrent TCP/UDP port scanner",
	Long: `Nexscan is a concurrent port scanner supporting full-connect, half-open
(SYN) and UDP probing with optional banner grabbing, global rate limiting,
and text, JSON or CSV reporting.`,
	Version: getVersion(),
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./nexscan.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind verbose flag: %v\n", err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("nexscan")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("NEXSCAN")

	setConfigDefaults()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	initLogging()
}

// setConfigDefaults mirrors config.Default so flag-less invocations behave
// the same whether or not a config file exists.
func setConfigDefaults() {
	defaults := config.Default()

	viper.SetDefault("scan.top_ports", defaults.Scan.TopPorts)
	viper.SetDefault("scan.scan_type", defaults.Scan.ScanType)
	viper.SetDefault("scan.timeout", defaults.Scan.Timeout)
	viper.SetDefault("scan.concurrency", defaults.Scan.Concurrency)
	viper.SetDefault("scan.rate_limit", defaults.Scan.RateLimit)

	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.color", defaults.Output.Color)

	viper.SetDefault("resolver.timeout", defaults.Resolver.Timeout)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
	viper.SetDefault("logging.output", defaults.Logging.Output)
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}

// initLogging initializes structured logging based on configuration.
func initLogging() {
	level := viper.GetString("logging.level")
	if verbose {
		level = "debug"
	}

	logConfig := logging.Config{
		Level:     logging.LogLevel(level),
		Format:    logging.LogFormat(viper.GetString("logging.format")),
		Output:    viper.GetString("logging.output"),
		AddSource: level == "debug",
	}

	logger, err := logging.New(logConfig)
	if err != nil {
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	logging.SetDefault(logger)
}
