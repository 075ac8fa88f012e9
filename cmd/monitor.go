package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wbeardall/schedtools-go/internal/tracking"
	"github.com/wbeardall/schedtools-go/internal/tui"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Launch a read-only terminal view over the local tracking store",
	RunE:  runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	store, err := tracking.OpenDefault()
	if err != nil {
		return fmt.Errorf("open tracking store: %w", err)
	}
	defer store.Close()

	source := tui.NewTrackingSource(store)
	model := tui.NewModel(source, 15*time.Second)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("run monitor: %w", err)
	}
	return nil
}
