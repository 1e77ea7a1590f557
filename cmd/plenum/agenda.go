package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var agendaCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Manage agenda items",
}

var agendaCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new agenda item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		item, err := api.CreateAgendaItem(cmd.Context(), args[0], description)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(item)
			return nil
		}
		printAgendaItem(item)
		return nil
	},
}

var agendaShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an agenda item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := api.GetAgendaItem(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(item)
			return nil
		}
		printAgendaItem(item)
		return nil
	},
}

var agendaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agenda items",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := api.ListAgendaItems(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(resp.Items)
			return nil
		}
		printAgendaItemList(resp.Items, resp.Total)
		return nil
	},
}

var agendaDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an agenda item and its voting record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.DeleteAgendaItem(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	agendaCreateCmd.Flags().StringP("description", "d", "", "agenda item description")

	agendaCmd.AddCommand(agendaCreateCmd)
	agendaCmd.AddCommand(agendaShowCmd)
	agendaCmd.AddCommand(agendaListCmd)
	agendaCmd.AddCommand(agendaDeleteCmd)
}
