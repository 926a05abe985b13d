package main

import (
	"errors"
	"fmt"
	"time"

	"processmate/processmate/middlewares"

	"github.com/spf13/cobra"
)

var errNoSecret = errors.New("auth.jwt_secret is not configured")

func newTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint a bearer token for the chat routes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errNoSecret
			}
			token, err := middlewares.IssueToken(cfg.Auth.JWTSecret, args[0], ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
