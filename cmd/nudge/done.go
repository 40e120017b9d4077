package main

import (
	"context"

	"github.com/spf13/cobra"
)

func completionCmd(use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
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

			note, err := svc.SetCompleted(context.Background(), id, completed)
			if err != nil {
				return err
			}
			printNote(cmd.OutOrStdout(), note)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(completionCmd("done", "Mark a note as completed", true))
	rootCmd.AddCommand(completionCmd("undone", "Mark a note as not completed", false))
}
