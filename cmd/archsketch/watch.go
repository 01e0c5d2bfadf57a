package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// newWatchCmd creates the "watch" subcommand for re-rendering on spec changes.
func newWatchCmd() *cobra.Command {
	var (
		format      string
		outputFile  string
		graphvizBin string
		debounce    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <spec-file>",
		Short: "Re-render a spec file on every change",
		Long: `Watch monitors a diagram spec file and re-renders it on each change.

The watch command:
- Monitors the spec file for writes
- Lints and renders on each change
- Debounces rapid changes to avoid excessive renders

Examples:
    archsketch watch diagram.spec.json -o diagram.svg --format svg
    archsketch watch diagram.spec.yaml --debounce 1s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchSpec(args[0], watchOptions{
				format:      format,
				outputFile:  outputFile,
				graphvizBin: graphvizBin,
				debounce:    debounce,
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "dot", "Output format: dot, mermaid, png or svg")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&graphvizBin, "graphviz", "", "Graphviz dot binary for png/svg output")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")

	return cmd
}

type watchOptions struct {
	format      string
	outputFile  string
	graphvizBin string
	debounce    time.Duration
}

// runWatchSpec monitors the spec file and renders on changes.
func runWatchSpec(specPath string, opts watchOptions) error {
	absPath, err := filepath.Abs(specPath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Watch the directory, not the file: editors replace files on save and
	// a file watch dies with the old inode.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}
	fmt.Printf("Watching: %s\n", absPath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initial render
	fmt.Println("Running initial render...")
	renderOnce(absPath, opts)

	var debounceTimer *time.Timer
	renderChan := make(chan struct{}, 1)

	fmt.Println("\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Debounce: reset timer on each change
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case renderChan <- struct{}{}:
				default:
				}
			})

		case <-renderChan:
			fmt.Printf("\n[%s] Change detected, re-rendering...\n", time.Now().Format("15:04:05"))
			renderOnce(absPath, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-sigChan:
			fmt.Println("\nStopping watch...")
			return nil
		}
	}
}

// renderOnce lints and renders the spec, reporting errors without stopping
// the watch loop.
func renderOnce(specPath string, opts watchOptions) {
	if err := runRender(specPath, opts.format, opts.outputFile, opts.graphvizBin, false); err != nil {
		fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		return
	}
	fmt.Println("Render OK")
}
