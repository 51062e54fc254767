package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	themeCmd.AddCommand(themeGetCmd, themeSetCmd)
	rootCmd.AddCommand(themeCmd)
}

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Read or change the persisted display theme",
}

var themeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDrafts(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		theme, err := store.Theme()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), theme)
		return nil
	},
}

var themeSetCmd = &cobra.Command{
	Use:       "set <light|dark>",
	Short:     "Persist a theme",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"light", "dark"},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDrafts(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.SetTheme(args[0])
	},
}
