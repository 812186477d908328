package main

import (
	"context"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List violations awaiting verification",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := api.ListPending(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(items)
			return nil
		}
		printViolationTable(items)
		return nil
	},
}
