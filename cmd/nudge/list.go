package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/nudge/pkg/core"
	"github.com/spf13/cobra"
)

var (
	listJSON     bool
	listCategory string
	listPending  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := openService()
		if err != nil {
			return err
		}

		notes, err := svc.ListNotes(context.Background())
		if err != nil {
			return err
		}

		notes, err = core.FilterNotes(notes, core.Filter{Category: listCategory, PendingOnly: listPending})
		if err != nil {
			return fmt.Errorf("invalid --category pattern %q: %w", listCategory, err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			return writeJSON(out, notes)
		}
		for _, note := range notes {
			printNote(out, note)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Filter by category glob (e.g. 'Work*')")
	listCmd.Flags().BoolVar(&listPending, "pending", false, "Hide completed notes")
}

// printNote writes a one-line summary: "[x] 3  Title  (Category)  remind ...".
func printNote(w io.Writer, n core.Note) {
	mark := " "
	if n.Completed {
		mark = "x"
	}
	line := fmt.Sprintf("[%s] %d  %s  (%s)", mark, n.ID, n.Title, n.Category)
	if n.Reminder != nil {
		line += "  remind " + n.Reminder.Local().Format(time.DateTime)
	}
	fmt.Fprintln(w, line)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
