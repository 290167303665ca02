package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avstrong/studio/internal/auth"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Development bearer tokens",
	}

	var sub, role string

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Mint a signed token for the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}

			token, err := issuer.Issue(sub, role)
			if err != nil {
				return err
			}

			fmt.Println(token)

			return nil
		},
	}

	issue.Flags().StringVar(&sub, "sub", "", "subject (user id)")
	issue.Flags().StringVar(&role, "role", auth.RoleContributor, "Admin or Contributor")
	_ = issue.MarkFlagRequired("sub")

	cmd.AddCommand(issue)

	return cmd
}
