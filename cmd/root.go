// Package cmd provides the command-line interface for imprint with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI reads configuration from several sources with clear precedence:
//	1. Command-line flags (--config, --root, --font-path, etc.) - highest priority
//	2. IMPRINT_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (IMPRINT_ROOT, IMPRINT_PACKAGES_OFFLINE, etc.)
//	4. Configuration files (.imprint.yml) - lowest priority
//
// Environment Variables:
//
//	IMPRINT_CONFIG_FILE: Path to custom configuration file
//	IMPRINT_ROOT: Override the project root
//	IMPRINT_PACKAGES_CACHE_DIR: Override the package cache directory
//	IMPRINT_PACKAGES_OFFLINE: Disable package downloads
//	And more following the IMPRINT_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/imprint/internal/config"
	"github.com/conneroisu/imprint/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imprint",
	Short: "Compile Typst documents to PDF from the command line",
	Long: `Imprint hosts a Typst compiler: it exposes your project files, fonts,
packages and structured input data to the compiler and writes the resulting PDF.

Key Features:
  • Project-rooted file access with package downloads and caching
  • System and custom font discovery
  • JSON, YAML, TOML and CBOR data bound to the document's "data" global
  • Watch mode that recompiles on change

Quick Start:
  imprint compile report.typ                 Compile report.typ to report.pdf
  imprint compile --data data.yaml card.typ  Bind data.yaml to "data"
  imprint watch report.typ                   Recompile on every change
  imprint fonts                              List the fonts the compiler sees
  imprint fetch @preview/cetz:0.2.0          Download a package into the cache

Documentation: https://github.com/conneroisu/imprint`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .imprint.yml, can also use IMPRINT_CONFIG_FILE env var)")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error, off)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("root", "", "project root that absolute paths resolve against (default is the current directory)")

	bindFlags(flags, map[string]string{
		"log-level":  "log.level",
		"log-format": "log.format",
		"root":       "root",
	})
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. IMPRINT_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .imprint.yml in current directory
//
// Every configuration value can also be set through an IMPRINT_ variable,
// e.g. IMPRINT_PACKAGES_OFFLINE=true.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("IMPRINT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".imprint")
	}

	if err := config.BindEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}

	// A missing config file is fine; defaults apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the CLI logger from the loaded configuration. Logs go to
// stderr so stdout can carry a PDF.
func newLogger(cfg *config.Config) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    os.Stderr,
		Component: "cli",
	})
}
