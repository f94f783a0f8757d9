package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/imprint/internal/config"
	"github.com/conneroisu/imprint/internal/value"
)

// HostFlags are the flags shared by every command that builds a
// compilation host.
type HostFlags struct {
	// Inputs are read from the flag directly; a value may contain commas.
	Inputs       []string
	Placeholders bool
}

// hostBindings maps host flags to configuration keys.
var hostBindings = map[string]string{
	"font-path":           "fonts.paths",
	"ignore-system-fonts": "fonts.ignore_system",
	"data":                "data",
	"package-cache":       "packages.cache_dir",
	"package-path":        "packages.local_dir",
	"registry":            "packages.registry",
	"offline":             "packages.offline",
	"engine":              "engine",
}

// AddHostFlags adds the host flags to a command. They are bound to viper
// just before the command runs, since several commands share the keys.
func AddHostFlags(cmd *cobra.Command) *HostFlags {
	addFontFlags(cmd)
	addPackageFlags(cmd)
	flags := addInputFlags(cmd)

	cmd.Flags().BoolVar(&flags.Placeholders, "placeholders", false, "replace {{key}} in the main source with data and input values")
	cmd.Flags().String("engine", "", "compiler engine to use")

	return flags
}

func addInputFlags(cmd *cobra.Command) *HostFlags {
	flags := &HostFlags{}
	cmd.Flags().StringP("data", "d", "", `data file bound to the "data" global (.json, .jsonc, .yaml, .toml, .cbor)`)
	cmd.Flags().StringArrayVarP(&flags.Inputs, "input", "i", nil, `key=value bound into the "inputs" global (repeatable)`)
	bindBeforeRun(cmd)
	return flags
}

func addFontFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("font-path", nil, "additional font file or directory (repeatable)")
	cmd.Flags().Bool("ignore-system-fonts", false, "do not search the platform font directories")
	bindBeforeRun(cmd)
}

func addPackageFlags(cmd *cobra.Command) {
	cmd.Flags().String("package-cache", "", "package cache directory")
	cmd.Flags().String("package-path", "", "directory of locally installed packages")
	cmd.Flags().String("registry", "", "package registry URL")
	cmd.Flags().Bool("offline", false, "never download packages")
	bindBeforeRun(cmd)
}

// bindBeforeRun binds the command's host flags in PreRunE. Binding is
// idempotent, so registering it more than once is harmless.
func bindBeforeRun(cmd *cobra.Command) {
	previous := cmd.PreRunE
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd.Flags(), hostBindings)
		if previous != nil {
			return previous(cmd, args)
		}
		return nil
	}
}

// bindFlags binds flags to viper configuration keys
func bindFlags(flags *pflag.FlagSet, bindings map[string]string) {
	for flagName, configKey := range bindings {
		if flag := flags.Lookup(flagName); flag != nil {
			_ = viper.BindPFlag(configKey, flag)
		}
	}
}

// loadConfig loads the configuration and appends the --input pairs, which
// override configured inputs with the same key.
func loadConfig(flags *HostFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags != nil && len(flags.Inputs) > 0 {
		cfg.Inputs = append(cfg.Inputs, flags.Inputs...)
		if _, err := value.ParseInputs(cfg.Inputs); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// addFormatFlag adds the --format flag used by listing commands.
func addFormatFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "format", "f", "text", "Output format (text, json, yaml)")
}

// writeStructured writes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", format)
	}
}

// validateFormat rejects unknown --format values before any work is done.
func validateFormat(format string) error {
	switch strings.ToLower(format) {
	case "text", "json", "yaml", "yml":
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", format)
	}
}
