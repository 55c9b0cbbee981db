package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/smokerun/internal/config"
	"github.com/ppiankov/smokerun/internal/watch"
)

func newWatchCmd() *cobra.Command {
	defaults := config.Defaults()

	var (
		pattern  string
		poll     bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Rerun examples whenever their files change",
		Long: `Runs every example once, then watches the directory and reruns an example
each time its file is saved. Failures are reported and watching continues;
press Ctrl-C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}

			examplesDir := defaults.ExamplesDir
			if cfg.ExamplesDir != "" {
				examplesDir = cfg.ExamplesDir
			}
			if len(args) > 0 {
				examplesDir = args[0]
			}
			if !cmd.Flags().Changed("pattern") && cfg.Pattern != "" {
				pattern = cfg.Pattern
			}

			base := execRunConfig{
				examplesDir: examplesDir,
				pattern:     pattern,
				interpreter: pick(cfg.Interpreter, defaults.Interpreter),
				launcher:    pick(cfg.Launcher, defaults.Launcher),
				ranks:       pickInt(cfg.Ranks, defaults.Ranks),
				timeout:     cfg.Timeout,
				idleTimeout: cfg.IdleTimeout,
				failFast:    cfg.FailFast,
				// reruns interleave with editor and shell output, so the
				// full-screen display stays off in watch mode
				display:  "off",
				settings: cfg,
			}

			return runWatchLoop(base, watch.Config{
				Dir:      examplesDir,
				Pattern:  pattern,
				PollMode: poll,
				Debounce: debounce,
			})
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", defaults.Pattern, "glob for example file names")
	cmd.Flags().BoolVar(&poll, "poll", false, "poll for changes instead of using inotify")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "settle time after a change before rerunning")

	return cmd
}

func runWatchLoop(base execRunConfig, wc watch.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	w, err := watch.New(wc)
	if err != nil {
		return err
	}
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Run(ctx)
	}()

	// full pass first so the watch starts from a known state
	if err := runWatchPass(base); err != nil {
		return err
	}

	fmt.Printf("\nwatching %s — press Ctrl-C to stop\n", base.examplesDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			return err
		case name := <-w.Changes():
			changed := map[string]bool{name: true}
			// editors often save several files together; fold what has
			// already arrived into one pass
		drain:
			for {
				select {
				case more := <-w.Changes():
					changed[more] = true
				default:
					break drain
				}
			}

			names := make([]string, 0, len(changed))
			for n := range changed {
				names = append(names, n)
			}
			sort.Strings(names)
			fmt.Printf("\nchange detected: %s\n", strings.Join(names, ", "))

			rc := base
			rc.only = changed
			if err := runWatchPass(rc); err != nil {
				return err
			}
		}
	}
}

// runWatchPass runs one pass and swallows example failures: fixing those is
// what the watch loop is for. Config and discovery errors still end the loop.
func runWatchPass(rc execRunConfig) error {
	err := executeRun(rc)
	var failures *FailuresError
	if errors.As(err, &failures) {
		fmt.Fprintf(os.Stderr, "%v — waiting for the next change\n", failures)
		return nil
	}
	return err
}

func pick(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}

func pickInt(val, fallback int) int {
	if val > 0 {
		return val
	}
	return fallback
}
