package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/imprint/internal/compiler"
	"github.com/conneroisu/imprint/internal/config"
	hosterrors "github.com/conneroisu/imprint/internal/errors"
	"github.com/conneroisu/imprint/internal/logging"
)

var (
	compileFlags *HostFlags
	compilePages string
	compileIdent string
)

var compileCmd = &cobra.Command{
	Use:     "compile [input.typ] [output.pdf]",
	Aliases: []string{"c"},
	Short:   "Compile a document to PDF",
	Long: `Compile a Typst document to PDF.

The input's directory is the project root unless --root is given; files
outside the root cannot be read by the document. The output defaults to the
input with a .pdf extension; "-" writes the PDF to stdout.

Examples:
  imprint compile report.typ
  imprint compile report.typ out/report.pdf
  imprint compile --data data.yaml --input name=Ada card.typ
  imprint compile --root .. --pages 1-2,5 chapter.typ -`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCompileCommand,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileFlags = AddHostFlags(compileCmd)
	compileCmd.Flags().StringVar(&compilePages, "pages", "", "pages to export, e.g. 1-3,5 (default all)")
	compileCmd.Flags().StringVar(&compileIdent, "ident", "", "stable document identifier embedded in the PDF")
}

func runCompileCommand(cmd *cobra.Command, args []string) error {
	ranges, err := parsePages(compilePages)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(compileFlags)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c := &compilation{
		cfg:    cfg,
		flags:  compileFlags,
		opts:   compiler.PDFOptions{Identifier: compileIdent, Pages: ranges},
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		logger: logger,
	}
	if err := c.prepare(args); err != nil {
		return err
	}
	_, err = c.run(ctx)
	return err
}

// compilation holds what stays fixed across the compiles of one command:
// the backend, the resolved document and the shared package fetcher.
type compilation struct {
	cfg     *config.Config
	flags   *HostFlags
	opts    compiler.PDFOptions
	backend compiler.Backend
	doc     document
	deps    hostDeps
	stdout  io.Writer
	stderr  io.Writer
	logger  logging.Logger
}

func (c *compilation) prepare(args []string) error {
	backend, err := compiler.Lookup(c.cfg.Engine)
	if err != nil {
		if errors.Is(err, compiler.ErrNoEngine) {
			available := compiler.Backends()
			if len(available) == 0 {
				return fmt.Errorf("%w; this build of imprint has no engines linked in", err)
			}
			return fmt.Errorf("%w; available: %s", err, strings.Join(available, ", "))
		}
		return err
	}
	c.backend = backend

	if c.doc, err = resolveDocument(c.cfg, args); err != nil {
		return err
	}

	result := config.Check(c.cfg)
	if result.HasWarnings() {
		for _, w := range result.Warnings {
			fmt.Fprintf(c.stderr, "warning: %s: %s\n", w.Field, w.Message)
		}
	}

	c.deps = hostDeps{fetcher: newFetcher(c.cfg, c.logger), logger: c.logger}
	return nil
}

// run builds a fresh host, compiles and writes the output.
func (c *compilation) run(ctx context.Context) (*compiler.Result, error) {
	host, err := buildHost(ctx, c.cfg, c.doc, c.flags, c.deps)
	if err != nil {
		return nil, err
	}
	printDiagnostics(c.stderr, host.Warnings())

	result, err := compiler.CompileToPDF(ctx, c.backend, host, c.opts, c.logger)
	if err != nil {
		if diags := hosterrors.Diagnostics(err); len(diags) > 0 {
			printDiagnostics(c.stderr, diags)
		}
		return nil, err
	}
	printDiagnostics(c.stderr, result.Warnings)

	if err := writeOutput(c.doc.Output, result.PDF, c.stdout); err != nil {
		return nil, err
	}

	hits, misses, _ := host.FileStats()
	c.logger.Debug(ctx, "File table",
		"hits", hits,
		"misses", misses)
	return result, nil
}

// writeOutput writes the PDF atomically, or to stdout for "-".
func writeOutput(path string, pdf []byte, stdout io.Writer) error {
	if path == "-" {
		_, err := stdout.Write(pdf)
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return hosterrors.NewIOError(dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".imprint-*.pdf")
	if err != nil {
		return hosterrors.NewIOError(path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		return hosterrors.NewIOError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return hosterrors.NewIOError(path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return hosterrors.NewIOError(path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return hosterrors.NewIOError(path, err)
	}
	return nil
}

// parsePages parses "1-3,5,7-" into page ranges. An open end runs to the
// last page.
func parsePages(s string) ([]compiler.PageRange, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var ranges []compiler.PageRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		first, last, isRange := strings.Cut(part, "-")

		from, err := strconv.Atoi(first)
		if err != nil || from < 1 {
			return nil, fmt.Errorf("invalid page range %q", part)
		}
		to := from
		if isRange {
			if last == "" {
				to = 0
			} else if to, err = strconv.Atoi(last); err != nil || to < from {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		}
		ranges = append(ranges, compiler.PageRange{First: from, Last: to})
	}
	return ranges, nil
}
