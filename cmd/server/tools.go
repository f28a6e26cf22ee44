package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"robux-topup-backend/internal/config"
	"robux-topup-backend/internal/middleware"
	"robux-topup-backend/internal/tripay"
)

func signCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "sign [body-file]",
		Short: "Print the callback signature for a body, for replaying callbacks by hand",
		Long: `Print hex(HMAC-SHA256(body, private key)) for a callback body.

Reads the body from the file argument, or stdin when it is omitted or "-".
The key defaults to TRIPAY_PRIVATE_KEY.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				key = cfg.Tripay.PrivateKey
			}

			var body []byte
			var err error
			if len(args) == 0 || args[0] == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), tripay.Sign(body, key))
			return nil
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "private key (defaults to TRIPAY_PRIVATE_KEY)")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := config.LoadAdmin()
			if err != nil {
				return err
			}
			token, err := middleware.IssueToken(admin.JWTSecret, subject, middleware.RoleAdmin, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "admin", "token subject, recorded in the audit log")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
