package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ok := sessions.Get()
		if !ok {
			return fmt.Errorf("not logged in (run 'sras login')")
		}
		if jsonOutput {
			// Tokens stay out of command output.
			printJSON(map[string]any{
				"username":  s.Username,
				"full_name": s.FullName,
				"role":      s.Role,
				"user_id":   s.UserID,
				"server":    cfg.ServerURL,
			})
			return nil
		}
		fmt.Printf("Username:  %s\n", s.Username)
		if s.FullName != "" {
			fmt.Printf("Full Name: %s\n", s.FullName)
		}
		if s.Role != "" {
			fmt.Printf("Role:      %s\n", s.Role)
		}
		if s.UserID != 0 {
			fmt.Printf("User ID:   %d\n", s.UserID)
		}
		fmt.Printf("Server:    %s\n", cfg.ServerURL)
		return nil
	},
}
