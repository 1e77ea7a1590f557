package main

import (
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage voting sessions",
}

var sessionOpenCmd = &cobra.Command{
	Use:   "open <agenda-item-id>",
	Short: "Open a voting session for an agenda item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, _ := cmd.Flags().GetInt("minutes")

		session, err := api.OpenSession(cmd.Context(), args[0], minutes)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(session)
			return nil
		}
		printSession(session)
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a voting session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := api.GetSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(session)
			return nil
		}
		printSession(session)
		return nil
	},
}

var sessionCloseCmd = &cobra.Command{
	Use:   "close <session-id>",
	Short: "Close a voting session before its deadline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := api.CloseSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(session)
			return nil
		}
		printSession(session)
		return nil
	},
}

func init() {
	sessionOpenCmd.Flags().IntP("minutes", "m", 0, "session duration in minutes (default 1)")

	sessionCmd.AddCommand(sessionOpenCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionCloseCmd)
}
