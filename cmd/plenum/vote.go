package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/coopvote/plenum/internal/model"
)

var voteCmd = &cobra.Command{
	Use:   "vote <agenda-item-id> <member-id> <yes|no>",
	Short: "Cast a vote on an agenda item",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		choice := model.Choice(strings.ToUpper(args[2]))

		vote, err := api.CastVote(cmd.Context(), args[0], args[1], choice)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(vote)
			return nil
		}
		printVote(vote)
		return nil
	},
}
