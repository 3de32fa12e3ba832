package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	jwtservice "github.com/limbo/streek/pkg/jwt_service"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a bearer token for local development",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("token: invalid user id %q", args[0])
		}
		secret := cfg.GetString("JWT_SECRET")
		if secret == "" {
			return errors.New("token: JWT_SECRET is not set")
		}
		token, err := jwtservice.New(secret).WithTTL(tokenTTL).GenerateToken(uid)
		if err != nil {
			return errors.New("token: " + err.Error())
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
