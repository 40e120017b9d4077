package main

import (
	"context"

	"github.com/aretw0/nudge/pkg/adapters/fs"
	"github.com/aretw0/nudge/pkg/core"
	"github.com/spf13/cobra"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every note to stdout as json, yaml or csv",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		serializer, err := fs.SerializerFor(exportFormat)
		if err != nil {
			return err
		}

		svc, _, err := openService()
		if err != nil {
			return err
		}

		notes, err := svc.ListNotes(context.Background())
		if err != nil {
			return err
		}

		data, err := serializer.Encode(core.Snapshot{Notes: notes})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json, yaml or csv")
}
