package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce is how long a file must stay quiet before it is re-rendered.
// Editors often write a file in several steps.
const watchDebounce = 100 * time.Millisecond

// watchCommand creates the watch command, which re-renders a pattern file
// whenever it changes.
func (c *CLI) watchCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Re-render a pattern file whenever it changes",
		Long: `Watch renders a pattern file once and again after every change, with the
same flags as render. Errors are reported and watching continues. Stop
with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, formats, err := flags.options(cmd, c.renderDefaults())
			if err != nil {
				return err
			}
			input := args[0]
			render := func() error {
				return c.runRender(cmd.Context(), input, opts, formats, &flags)
			}

			if err := render(); err != nil {
				printError("%v", err)
			}
			printInfo("Watching %s", input)
			err = watchFile(cmd.Context(), input, watchDebounce, c.Logger, func() {
				if err := render(); err != nil {
					printError("%v", err)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	flags.bind(cmd)
	return cmd
}

// watchFile calls fn after path was written or replaced and then stayed
// unchanged for debounce. It watches the parent directory so that editors
// saving through a rename are seen. It returns when ctx ends.
func watchFile(ctx context.Context, path string, debounce time.Duration, logger *log.Logger, fn func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			logger.Debug("file changed", "path", event.Name, "op", event.Op)
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case <-timer.C:
			fn()
		}
	}
}
