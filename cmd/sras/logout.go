package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sraslabs/sras/internal/events"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ok := sessions.Get()
		if !ok {
			fmt.Println("No active session")
			return nil
		}
		sessions.Clear()
		_ = publisher.Publish(context.Background(), events.TopicSessionCleared,
			events.SessionCleared{Username: s.Username})
		fmt.Printf("Logged out %s\n", s.Username)
		return nil
	},
}
