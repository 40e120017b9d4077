package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a single note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		svc, _, err := openService()
		if err != nil {
			return err
		}

		note, err := svc.GetNote(context.Background(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if showJSON {
			return writeJSON(out, note)
		}

		printNote(out, note)
		if note.Content != "" {
			fmt.Fprintf(out, "\n%s\n\n", note.Content)
		}
		fmt.Fprintf(out, "created %s, updated %s\n",
			note.CreatedAt.Local().Format(time.DateTime), note.UpdatedAt.Local().Format(time.DateTime))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
}
