package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/goodparty/infracheck/internal/notify"
	"github.com/goodparty/infracheck/internal/readiness"
	"github.com/goodparty/infracheck/internal/tui"
)

var (
	watchInterval time.Duration
	watchNotify   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rerun the checks on an interval in a live dashboard",
	Long: `Run the readiness suite repeatedly and show the latest result of every
check in a terminal dashboard. Press r to run again immediately, enter to see a
check's full message and q to quit.

With --notify a desktop notification is raised whenever a check starts failing
or recovers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		checks, err := buildSuite(cfg)
		if err != nil {
			return err
		}
		defer checks.Close()

		runner, err := newRunner(cfg, log, checks)
		if err != nil {
			return err
		}

		mon, err := readiness.NewMonitor(runner, checks.specs, watchInterval)
		if err != nil {
			return fmt.Errorf("failed to create monitor: %w", err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		go mon.Start(ctx)

		model := tui.NewModel(mon, cancel, notify.NewNotifier(watchNotify))
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}

		cancel()
		<-mon.Done()
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "delay between runs")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "send desktop notifications when a check changes state")
	rootCmd.AddCommand(watchCmd)
}
