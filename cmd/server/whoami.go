package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Authenticate once and print the operating account",
	Long: `Runs the JWT grant and account discovery once, then prints the account id
and REST base URI. A consent_required failure means the integration key has not
been granted consent for the impersonated user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		if err := a.manager.EnsureAuthenticated(cmd.Context()); err != nil {
			return err
		}

		session := a.manager.Snapshot()
		fmt.Fprintf(cmd.OutOrStdout(), "account id: %s\nbase uri:   %s\nexpires at: %s\n",
			session.AccountID, session.BaseURI, session.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}
