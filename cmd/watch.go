package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/imprint/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch [input.typ] [output.pdf]",
	Aliases: []string{"w"},
	Short:   "Watch the project and recompile on change",
	Long: `Compile a document, then watch its project root and recompile whenever
a file changes. Every recompile reads the document, data file and project
files afresh; fonts are discovered once.

Examples:
  imprint watch report.typ
  imprint watch --verbose --data data.yaml card.typ`,
	Args: cobra.MaximumNArgs(2),
	RunE: runWatch,
}

var (
	watchFlags   *HostFlags
	watchVerbose bool
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchFlags = AddHostFlags(watchCmd)
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(watchFlags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &compilation{
		cfg:    cfg,
		flags:  watchFlags,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		logger: logger,
	}
	if err := c.prepare(args); err != nil {
		return err
	}
	if c.doc.Output == "-" {
		return fmt.Errorf("watch mode cannot write to stdout")
	}
	c.deps.fonts = newFontRegistry(ctx, cfg, logger)

	out := cmd.OutOrStdout()
	recompile := func() {
		result, err := c.run(ctx)
		if err != nil {
			fmt.Fprintf(c.stderr, "❌ %v\n", err)
			return
		}
		fmt.Fprintf(out, "✅ Compiled %s (%d pages) in %s\n", c.doc.Output, result.Pages, result.Duration.Round(time.Millisecond))
	}

	fileWatcher, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.IgnoreFilter(c.doc.Root, cfg.Watch.Ignore))
	fileWatcher.AddFilter(watcher.NotPathFilter(c.doc.Output))
	fileWatcher.AddFilter(watcher.NoHiddenFilter)

	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		if watchVerbose {
			fmt.Fprintf(out, "📁 File changes detected:\n")
			for _, event := range events {
				fmt.Fprintf(out, "   %s: %s\n", event.Type, event.Path)
			}
		} else {
			fmt.Fprintf(out, "📁 %d file(s) changed\n", len(events))
		}
		recompile()
		return nil
	})

	if err := fileWatcher.AddRecursive(c.doc.Root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", c.doc.Root, err)
	}
	if cfg.Data != "" {
		if err := fileWatcher.AddPath(cfg.Data); err != nil {
			fmt.Fprintf(c.stderr, "Warning: failed to watch data file %s: %v\n", cfg.Data, err)
		}
	}
	if watchVerbose {
		for _, dir := range fileWatcher.WatchList() {
			fmt.Fprintf(out, "   - Watching: %s\n", dir)
		}
	}

	recompile()

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Fprintf(out, "👀 Watching %s for changes... (Press Ctrl+C to stop)\n", c.doc.Root)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	fmt.Fprintln(out, "\n🛑 Stopping file watcher...")
	cancel()

	return nil
}
