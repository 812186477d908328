package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sraslabs/sras/internal/session"
	"github.com/sraslabs/sras/internal/ui"
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Authenticate against the verification service",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var username string
		if len(args) == 1 {
			username = args[0]
		} else {
			fmt.Fprint(os.Stderr, "Username: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading username: %w", err)
			}
			username = strings.TrimSpace(line)
		}
		if username == "" {
			return fmt.Errorf("username is required")
		}

		password, err := ui.ReadPassword("Password: ")
		if err != nil {
			return err
		}

		pair, err := api.ObtainToken(ctx, username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		s := session.Session{
			AccessToken:  pair.Access,
			RefreshToken: pair.Refresh,
			Username:     username,
		}
		sessions.Set(s)

		// Best effort identity lookup; a bare token session still works.
		if profile, err := api.CurrentUser(ctx); err == nil {
			s.UserID = profile.ID
			s.Username = profile.Username
			s.FullName = profile.FullName
			s.Role = profile.Role
			sessions.Set(s)
		} else {
			logger.Warn("profile lookup failed after login", "err", err)
		}

		fmt.Printf("Logged in as %s\n", ui.RenderAccent(s.Username))
		return nil
	},
}
