package main

import (
	"context"

	"github.com/aretw0/nudge/pkg/core"
	"github.com/spf13/cobra"
)

var (
	addTitle    string
	addContent  string
	addCategory string
	addRemind   string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a note",
	Example: `  nudge add --title "Call mom" --remind 2h
  nudge add --title "Standup" --category Work --remind 2026-03-02T09:00:00+01:00`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := openService()
		if err != nil {
			return err
		}

		in := core.NoteInput{Title: addTitle, Content: addContent, Category: addCategory}
		if addRemind != "" {
			at, err := parseReminder(addRemind, svc.Now())
			if err != nil {
				return err
			}
			in.Reminder = &at
		}

		note, err := svc.CreateNote(context.Background(), in)
		if err != nil {
			return err
		}
		printNote(cmd.OutOrStdout(), note)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Note title")
	addCmd.Flags().StringVarP(&addContent, "content", "c", "", "Note body")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Category (default from nudge.yaml, else Personal)")
	addCmd.Flags().StringVarP(&addRemind, "remind", "r", "", "Reminder: RFC 3339 instant or duration from now")
}
