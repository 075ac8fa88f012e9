package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"os"

	"github.com/spf13/cobra"

	"github.com/wbeardall/schedtools-go/internal/tracking"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every job currently in the local tracking store",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, err := tracking.OpenDefault()
	if err != nil {
		return fmt.Errorf("open tracking store: %w", err)
	}
	defer store.Close()

	specs, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("list tracked jobs: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tQUEUE\tEXPERIMENT\tCOMMENT")
	for _, s := range specs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.State, s.Queue, s.ExperimentPath, s.Comment)
	}
	return w.Flush()
}
