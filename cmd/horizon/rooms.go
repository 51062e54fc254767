package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/umar/horizon-chat/internal/database"
)

func init() {
	roomsCmd.AddCommand(roomsCreateCmd, roomsJoinCmd, roomsLeaveCmd, roomsListCmd)
	rootCmd.AddCommand(roomsCmd)
}

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Manage rooms and memberships in the backing store",
}

func withDB(cmd *cobra.Command, fn func(ctx context.Context, db *sql.DB) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	return fn(ctx, db)
}

var roomsCreateCmd = &cobra.Command{
	Use:   "create <room-id> <name>",
	Short: "Create or rename a room",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, db *sql.DB) error {
			_, err := database.CreateRoom(ctx, db, args[0], args[1])
			return err
		})
	},
}

var roomsJoinCmd = &cobra.Command{
	Use:   "join <room-id> <user-id>",
	Short: "Add a member to a room",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, db *sql.DB) error {
			return database.AddRoomMember(ctx, db, args[0], args[1])
		})
	},
}

var roomsLeaveCmd = &cobra.Command{
	Use:   "leave <room-id> <user-id>",
	Short: "Remove a member from a room",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, db *sql.DB) error {
			return database.RemoveRoomMember(ctx, db, args[0], args[1])
		})
	},
}

var roomsListCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "List the rooms a user belongs to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, db *sql.DB) error {
			rooms, err := database.GetRoomsForUser(ctx, db, args[0])
			if err != nil {
				return err
			}
			for _, r := range rooms {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-24s %d members\n", r.ID, r.Name, r.TotalMemberCount)
			}
			return nil
		})
	},
}
