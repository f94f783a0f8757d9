package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/imprint/internal/packages"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <@namespace/name:version>...",
	Short: "Download packages into the cache",
	Long: `Download one or more packages into the package cache so that later
compilations, including offline ones, can import them.

Examples:
  imprint fetch @preview/cetz:0.2.0
  imprint fetch --registry https://mirror.example @preview/tablex:0.0.8`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetchCommand,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the package cache",
}

var cacheListFormat string

var cacheListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List cached packages",
	Args:    cobra.NoArgs,
	RunE:    runCacheList,
}

var cachePathCmd = &cobra.Command{
	Use:   "path [@namespace/name:version]",
	Short: "Print the cache directory, or the directory of one package",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCachePath,
}

var cacheRemoveCmd = &cobra.Command{
	Use:   "rm <@namespace/name:version>...",
	Short: "Remove packages from the cache",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCacheRemove,
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached package",
	Args:  cobra.NoArgs,
	RunE:  runCacheClean,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd, cachePathCmd, cacheRemoveCmd, cacheCleanCmd)

	addPackageFlags(fetchCmd)
	for _, c := range cacheCmd.Commands() {
		addPackageFlags(c)
	}
	addFormatFlag(cacheListCmd, &cacheListFormat)
}

// parseSpecs parses every argument before any work is done.
func parseSpecs(args []string) ([]packages.Spec, error) {
	specs := make([]packages.Spec, 0, len(args))
	for _, arg := range args {
		spec, err := packages.ParseSpec(arg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// commandFetcher loads the configuration and builds its fetcher.
func commandFetcher() (*packages.Fetcher, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, err
	}
	return newFetcher(cfg, newLogger(cfg)), nil
}

func runFetchCommand(cmd *cobra.Command, args []string) error {
	specs, err := parseSpecs(args)
	if err != nil {
		return err
	}
	fetcher, err := commandFetcher()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, spec := range specs {
		dir, err := fetcher.Fetch(ctx, spec)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", spec, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", spec, dir)
	}
	return nil
}

// cachedPackage is the listing form of one cached package.
type cachedPackage struct {
	Spec        string `json:"spec" yaml:"spec"`
	Dir         string `json:"dir" yaml:"dir"`
	Entrypoint  string `json:"entrypoint,omitempty" yaml:"entrypoint,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

func runCacheList(cmd *cobra.Command, args []string) error {
	if err := validateFormat(cacheListFormat); err != nil {
		return err
	}
	fetcher, err := commandFetcher()
	if err != nil {
		return err
	}

	specs, err := fetcher.List()
	if err != nil {
		return err
	}

	listing := make([]cachedPackage, 0, len(specs))
	for _, spec := range specs {
		p := cachedPackage{Spec: spec.String(), Dir: fetcher.Path(spec)}
		if m, err := packages.ReadManifest(p.Dir); err == nil {
			p.Entrypoint = m.Package.Entrypoint
			p.Description = m.Package.Description
		}
		listing = append(listing, p)
	}

	out := cmd.OutOrStdout()
	if cacheListFormat != "text" {
		return writeStructured(out, cacheListFormat, listing)
	}
	if len(listing) == 0 {
		fmt.Fprintf(out, "No packages cached in %s\n", fetcher.CacheDir())
		return nil
	}
	for _, p := range listing {
		if p.Description != "" {
			fmt.Fprintf(out, "%s\t%s\n", p.Spec, p.Description)
		} else {
			fmt.Fprintln(out, p.Spec)
		}
	}
	return nil
}

func runCachePath(cmd *cobra.Command, args []string) error {
	specs, err := parseSpecs(args)
	if err != nil {
		return err
	}
	fetcher, err := commandFetcher()
	if err != nil {
		return err
	}

	if len(specs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), fetcher.CacheDir())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), fetcher.Path(specs[0]))
	return nil
}

func runCacheRemove(cmd *cobra.Command, args []string) error {
	specs, err := parseSpecs(args)
	if err != nil {
		return err
	}
	fetcher, err := commandFetcher()
	if err != nil {
		return err
	}

	for _, spec := range specs {
		dir := fetcher.Path(spec)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s is not cached\n", spec)
			continue
		}
		if err := fetcher.Remove(spec); err != nil {
			return fmt.Errorf("removing %s: %w", spec, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", spec)
	}
	return nil
}

func runCacheClean(cmd *cobra.Command, args []string) error {
	fetcher, err := commandFetcher()
	if err != nil {
		return err
	}
	if err := fetcher.Clean(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", fetcher.CacheDir())
	return nil
}
