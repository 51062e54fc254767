package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/umar/horizon-chat/internal/auth"
	"github.com/umar/horizon-chat/internal/models"
)

func init() {
	tokenCmd.Flags().String("name", "", "display name (defaults to the user id)")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a development token for a viewer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if name == "" {
			name = args[0]
		}

		token, err := auth.GenerateToken(models.Viewer{ID: args[0], DisplayName: name}, cfg.JWTSecret, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
