package main

import (
	"context"
	"cryptochat/domain"
	"cryptochat/repositories"
	"cryptochat/services"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type ledgerRow struct {
	Profile        domain.Profile
	Reconciliation services.Reconciliation
}

type conversationRow struct {
	Conversation domain.Conversation
	Participants int
	Messages     int
}

func collectLedger(ctx context.Context, profiles repositories.IProfileRepository, ledger services.ILedgerService) ([]ledgerRow, error) {
	all, err := profiles.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	rows := make([]ledgerRow, 0, len(all))
	for _, profile := range all {
		reconciliation, err := ledger.Reconcile(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("reconcile %s: %w", profile.ID, err)
		}
		rows = append(rows, ledgerRow{Profile: profile, Reconciliation: reconciliation})
	}
	return rows, nil
}

func collectConversations(ctx context.Context, conversations repositories.IConversationRepository, messages repositories.IMessageRepository) ([]conversationRow, error) {
	all, err := conversations.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	rows := make([]conversationRow, 0, len(all))
	for _, c := range all {
		participants, err := conversations.ListParticipants(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		history, err := messages.GetMessages(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, conversationRow{Conversation: c, Participants: len(participants), Messages: len(history)})
	}
	return rows, nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

// renderLedger prints one row per profile and returns how many drift.
func renderLedger(w io.Writer, rows []ledgerRow, colours bool) int {
	table := newTable(w, []string{"Profile", "Username", "Balance", "Ledger sum", "Drift"})
	drifting := 0
	for _, row := range rows {
		drift := row.Reconciliation.Drift()
		cells := []string{
			shortID(row.Profile.ID),
			row.Profile.Username,
			strconv.FormatInt(row.Reconciliation.Balance, 10),
			strconv.FormatInt(row.Reconciliation.LedgerSum, 10),
			strconv.FormatInt(drift, 10),
		}
		if drift != 0 {
			drifting++
			if colours {
				for i, cell := range cells {
					cells[i] = color.Red.Render(cell)
				}
			}
		}
		table.Append(cells)
	}
	table.Render()
	return drifting
}

func renderConversations(w io.Writer, rows []conversationRow) {
	table := newTable(w, []string{"Conversation", "Kind", "Participants", "Messages", "Updated at"})
	for _, row := range rows {
		kind := "direct"
		if row.Conversation.IsGroup {
			kind = "group"
			if row.Conversation.Name != nil {
				kind += " " + *row.Conversation.Name
			}
		}
		table.Append([]string{
			shortID(row.Conversation.ID),
			kind,
			strconv.Itoa(row.Participants),
			strconv.Itoa(row.Messages),
			row.Conversation.UpdatedAt.Format(time.RFC3339),
		})
	}
	table.Render()
}

// shortID keeps the first 8 characters for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
