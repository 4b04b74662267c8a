package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/med2305/mlops/pkg/auth"
)

// tokenCmd mints development tokens accepted by fraudd when JWT_SECRET is set.
func tokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		roles   []string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development JWT for the gRPC API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			svc, err := auth.NewJWTService(auth.JWTConfig{Secret: secret, Issuer: auth.DefaultIssuer, Expiration: ttl})
			if err != nil {
				return err
			}
			token, err := svc.GenerateToken(subject, roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret shared with fraudd (JWT_SECRET)")
	cmd.Flags().StringVar(&subject, "subject", "dev", "token subject")
	cmd.Flags().StringSliceVar(&roles, "roles", []string{auth.RoleScorer}, "granted roles")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	return cmd
}
