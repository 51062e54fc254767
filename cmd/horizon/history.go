package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/umar/horizon-chat/internal/database"
	"github.com/umar/horizon-chat/internal/models"
)

func init() {
	historyCmd.Flags().IntP("limit", "n", 0, "messages to show (default: snapshot_limit)")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <room-id>",
	Short: "Print the snapshot a room would open with",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.SnapshotLimit
		}

		db, err := database.InitDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		msgs, err := database.GetRecentMessages(ctx, db, args[0], limit)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			fmt.Fprintln(cmd.OutOrStdout(), formatMessage(m, time.Now()))
		}
		return nil
	},
}

func formatMessage(m models.Message, now time.Time) string {
	sender := m.SenderDisplayName
	if sender == "" {
		sender = m.SenderID
	}
	text := m.Body
	if m.AttachmentID != "" {
		if text != "" {
			text += " "
		}
		text += "[attachment " + m.AttachmentID + "]"
	}
	return fmt.Sprintf("%-16s %s: %s (read by %d)",
		humanize.RelTime(m.CreatedAt, now, "ago", "from now"), sender, text, len(m.ReadBy))
}
