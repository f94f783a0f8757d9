package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/imprint/internal/compiler"
	"github.com/conneroisu/imprint/internal/config"
	hosterrors "github.com/conneroisu/imprint/internal/errors"
	"github.com/conneroisu/imprint/internal/fonts"
	"github.com/conneroisu/imprint/internal/logging"
	"github.com/conneroisu/imprint/internal/packages"
	"github.com/conneroisu/imprint/internal/value"
	"github.com/conneroisu/imprint/internal/version"
	"github.com/conneroisu/imprint/internal/world"
)

// document is a main source file located within its project root.
type document struct {
	// Path is the source file on disk.
	Path string
	// Root is the project root.
	Root string
	// MainPath is the virtual path of the source within Root.
	MainPath string
	// Output is the PDF destination; "-" means stdout.
	Output string
}

// resolveDocument works out the input, root and output of a compilation.
// A configured main document is relative to the configured root. Without a
// configured root the input's directory is the root.
func resolveDocument(cfg *config.Config, args []string) (document, error) {
	input := cfg.Main
	if len(args) > 0 {
		input = args[0]
	} else if input != "" && !filepath.IsAbs(input) {
		input = filepath.Join(cfg.Root, input)
	}
	if input == "" {
		return document{}, hosterrors.NewConfigError("no input document: pass one or set main in .imprint.yml", nil)
	}

	path, err := filepath.Abs(input)
	if err != nil {
		return document{}, fmt.Errorf("invalid input path: %w", err)
	}

	root := filepath.Dir(path)
	if viper.IsSet("root") {
		if root, err = filepath.Abs(cfg.Root); err != nil {
			return document{}, fmt.Errorf("invalid root path: %w", err)
		}
	}

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return document{}, hosterrors.NewConfigError(
			fmt.Sprintf("input %s is outside the project root %s", input, root), err)
	}

	output := cfg.Output
	if len(args) > 1 {
		output = args[1]
	}
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".pdf"
	}

	return document{
		Path:     path,
		Root:     root,
		MainPath: "/" + filepath.ToSlash(rel),
		Output:   output,
	}, nil
}

// newFetcher configures the package fetcher from cfg.
func newFetcher(cfg *config.Config, logger logging.Logger) *packages.Fetcher {
	return packages.NewFetcher(cfg.Packages.CacheDir,
		packages.WithRegistry(cfg.Packages.Registry),
		packages.WithLocalDir(cfg.Packages.LocalDir),
		packages.WithTimeout(cfg.Packages.Timeout),
		packages.WithOffline(cfg.Packages.Offline),
		packages.WithUserAgent(version.UserAgent()),
		packages.WithLogger(logger),
	)
}

// newFontRegistry discovers the fonts named by cfg.
func newFontRegistry(ctx context.Context, cfg *config.Config, logger logging.Logger) *fonts.Registry {
	return fonts.NewRegistry(ctx, fonts.Options{
		Paths:             cfg.Fonts.Paths,
		IgnoreSystemFonts: cfg.Fonts.IgnoreSystem,
		Logger:            logger,
	})
}

// inputScope loads the data file and the key=value inputs of cfg.
func inputScope(ctx context.Context, cfg *config.Config, logger logging.Logger) (value.Value, map[string]string, error) {
	data := value.None()
	if cfg.Data != "" {
		v, warnings, err := value.LoadFile(cfg.Data)
		if err != nil {
			return value.None(), nil, err
		}
		for _, w := range warnings {
			logger.Warn(ctx, nil, "Data value degraded", "file", cfg.Data, "path", w.Path, "reason", w.Reason)
		}
		data = v
	}

	pairs, err := value.ParseInputs(cfg.Inputs)
	if err != nil {
		return value.None(), nil, err
	}
	inputs := make(map[string]string, pairs.Len())
	for _, k := range pairs.Keys() {
		v, _ := pairs.Get(k)
		inputs[k], _ = v.AsStr()
	}

	return data, inputs, nil
}

// hostDeps are the collaborators shared by every host a command builds.
type hostDeps struct {
	fetcher *packages.Fetcher
	fonts   *fonts.Registry
	logger  logging.Logger
}

// buildHost reads the document and constructs its compilation host.
func buildHost(ctx context.Context, cfg *config.Config, doc document, flags *HostFlags, deps hostDeps) (*world.Host, error) {
	src, err := os.ReadFile(doc.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, hosterrors.NewFileNotFoundError(doc.Path, err)
		}
		return nil, hosterrors.NewIOError(doc.Path, err)
	}

	data, inputs, err := inputScope(ctx, cfg, deps.logger)
	if err != nil {
		return nil, err
	}

	source := string(src)
	if flags != nil && flags.Placeholders {
		values := compiler.PlaceholderValues(data)
		for k, v := range inputs {
			values[k] = v
		}
		source = compiler.ApplyPlaceholders(source, values)
	}

	opts := []world.Option{world.WithLogger(deps.logger)}
	if deps.fetcher != nil {
		opts = append(opts, world.WithPackageResolver(deps.fetcher))
	}
	if deps.fonts != nil {
		opts = append(opts, world.WithFontRegistry(deps.fonts))
	}

	return world.New(ctx, world.Options{
		Source:            source,
		Root:              doc.Root,
		MainPath:          doc.MainPath,
		FontPaths:         cfg.Fonts.Paths,
		IgnoreSystemFonts: cfg.Fonts.IgnoreSystem,
		Data:              data,
		Inputs:            inputs,
	}, opts...)
}

// printDiagnostics writes diagnostics one per line.
func printDiagnostics(w io.Writer, diags []hosterrors.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
}
