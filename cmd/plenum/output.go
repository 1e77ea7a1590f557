package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/coopvote/plenum/internal/model"
	"github.com/coopvote/plenum/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printAgendaItem(item *model.AgendaItem) {
	fmt.Printf("ID:          %s\n", item.ID)
	fmt.Printf("Title:       %s\n", item.Title)
	if item.Description != "" {
		fmt.Printf("Description: %s\n", item.Description)
	}
	if !item.CreatedAt.IsZero() {
		fmt.Printf("Created At:  %s\n", item.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printAgendaItemList(items []*model.AgendaItem, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCREATED")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", item.ID, item.Title, item.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Printf("\n%d item(s)\n", total)
}

func printSession(session *model.Session) {
	state := "closed"
	if session.Open {
		state = "open"
	}
	fmt.Printf("ID:          %s\n", session.ID)
	fmt.Printf("Agenda Item: %s\n", session.AgendaItemID)
	fmt.Printf("State:       %s\n", state)
	fmt.Printf("Opens At:    %s\n", session.OpensAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Closes At:   %s\n", session.ClosesAt.Format("2006-01-02 15:04:05"))
}

func printVote(vote *model.Vote) {
	fmt.Printf("ID:          %s\n", vote.ID)
	fmt.Printf("Agenda Item: %s\n", vote.AgendaItemID)
	fmt.Printf("Member:      %s\n", vote.MemberID)
	fmt.Printf("Choice:      %s\n", vote.Choice)
}

func printResult(result *model.Result) {
	state := "open"
	if result.Closed {
		state = "closed"
	}
	fmt.Printf("Agenda Item: %s\n", result.AgendaItemID)
	fmt.Printf("Title:       %s\n", result.Title)
	fmt.Printf("Session:     %s\n", ui.RenderMuted(state))
	fmt.Printf("Yes:         %d\n", result.Yes)
	fmt.Printf("No:          %d\n", result.No)
	fmt.Printf("Total:       %d\n", result.TotalVotes)
	fmt.Printf("Outcome:     %s\n", ui.RenderOutcome(result.Outcome))
}
