package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/api"
	configx "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/config"
)

func newTokenCommand() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			authCfg, err := configx.New[api.AuthConfig]("AUTH")
			if err != nil {
				return err
			}
			tok, exp, err := api.IssueToken([]byte(authCfg.JWTSecret), userID, authCfg.TokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires %s\n", tok, exp.Format("2006-01-02T15:04:05Z07:00"))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the sub claim")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
