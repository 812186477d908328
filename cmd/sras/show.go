package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sraslabs/sras/internal/client"
)

var showImageOut string

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one pending violation, optionally saving its evidence image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid violation id %q", args[0])
		}
		ctx := context.Background()

		// The backend exposes pending violations only as a collection.
		items, err := api.ListPending(ctx)
		if err != nil {
			return err
		}
		for _, v := range items {
			if v.ID != id {
				continue
			}
			if jsonOutput {
				printJSON(v)
			} else {
				printViolationDetail(v)
			}
			if showImageOut != "" {
				img, err := api.FetchImage(ctx, id)
				if err != nil {
					return fmt.Errorf("fetching evidence image: %w", err)
				}
				if err := os.WriteFile(showImageOut, img, 0o644); err != nil {
					return fmt.Errorf("writing image: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Evidence image saved to %s\n", showImageOut)
			}
			return nil
		}
		return fmt.Errorf("violation %d is not pending: %w", id, client.ErrNotFound)
	},
}

func init() {
	showCmd.Flags().StringVar(&showImageOut, "image-out", "", "write the evidence JPEG to this path")
}
