package main

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/nudge/pkg/core"
	"github.com/spf13/cobra"
)

var (
	editTitle         string
	editContent       string
	editCategory      string
	editRemind        string
	editClearReminder bool
)

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change fields of a note",
	Long: `Change fields of a note. Only the flags you pass are changed; the rest of the
note is left as is. An empty --category resets it to the default category.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		svc, _, err := openService()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		var p core.Patch
		if flags.Changed("title") {
			p.Title = core.Set(editTitle)
		}
		if flags.Changed("content") {
			p.Content = core.Set(editContent)
		}
		if flags.Changed("category") {
			if editCategory == "" {
				p.Category = core.Clear[string]()
			} else {
				p.Category = core.Set(editCategory)
			}
		}
		if flags.Changed("remind") && editClearReminder {
			return errors.New("--remind and --clear-reminder are mutually exclusive")
		}
		if flags.Changed("remind") {
			at, err := parseReminder(editRemind, svc.Now())
			if err != nil {
				return err
			}
			p.Reminder = core.Set(at)
		}
		if editClearReminder {
			p.Reminder = core.Clear[time.Time]()
		}

		note, err := svc.UpdateNote(context.Background(), id, p)
		if err != nil {
			return err
		}
		printNote(cmd.OutOrStdout(), note)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
	editCmd.Flags().StringVarP(&editContent, "content", "c", "", "New body")
	editCmd.Flags().StringVar(&editCategory, "category", "", "New category")
	editCmd.Flags().StringVarP(&editRemind, "remind", "r", "", "New reminder: RFC 3339 instant or duration from now")
	editCmd.Flags().BoolVar(&editClearReminder, "clear-reminder", false, "Remove the reminder")
}
