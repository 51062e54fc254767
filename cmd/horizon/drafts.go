package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/umar/horizon-chat/internal/drafts"
)

func init() {
	draftsCmd.AddCommand(draftsListCmd, draftsClearCmd)
	rootCmd.AddCommand(draftsCmd)
}

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect unsent drafts kept on disk",
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored drafts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDrafts(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		all, err := store.Drafts()
		if err != nil {
			return err
		}
		rooms := make([]string, 0, len(all))
		for room := range all {
			rooms = append(rooms, room)
		}
		sort.Strings(rooms)
		for _, room := range rooms {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %8s  %q\n", room, humanize.Bytes(uint64(len(all[room]))), all[room])
		}
		return nil
	},
}

var draftsClearCmd = &cobra.Command{
	Use:   "clear <room-id>",
	Short: "Delete the stored draft of a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDrafts(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.DeleteDraft(args[0])
	},
}

func openDrafts(cmd *cobra.Command) (*drafts.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return drafts.Open(cfg.DataDir, nil)
}
