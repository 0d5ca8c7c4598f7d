package bot

import (
	"fmt"
	"strings"
	"testing"

	"leaguebot/internal/league"
	"leaguebot/internal/stream"
	"leaguebot/internal/transactions"
)

func responseText(t *testing.T, responses []Response) string {
	t.Helper()
	if len(responses) != 1 {
		t.Fatalf("expected one response, got %d", len(responses))
	}
	text, ok := responses[0].(ResponseString)
	if !ok {
		t.Fatalf("expected a string response, got %T", responses[0])
	}
	return text.string
}

func TestErrorResponse(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{stream.ErrDuplicateApplication, ":x: Application is already in progress."},
		{stream.ErrApplicationNotFound, ":x: Stream Application not found."},
		{transactions.ErrChannelNotConfigured, ":x: Transaction channel is not configured for this server."},
		// Wrapped workflow errors read as sentences on their own
		{fmt.Errorf("**%s** %w", "Bears", league.ErrInvalidTeamName), ":x: **Bears** is not a valid team name"},
		{fmt.Errorf("%s %w **%s**", "<@100>", transactions.ErrAlreadyOnTeam, "Spartans"), ":x: <@100> is already on the **Spartans**"},
	}
	for _, c := range cases {
		if got := responseText(t, ErrorResponse(c.err)); got != c.want {
			t.Errorf("expected %q, got %q", c.want, got)
		}
	}
}

func TestAppsEmbed(t *testing.T) {
	if responses := AppsEmbed(nil, stream.Filter{}); responses != nil {
		t.Fatalf("an empty listing must yield no embed")
	}

	entries := []stream.Entry{
		{MatchDay: "3", Application: stream.Application{
			Status: stream.StatusPendingOpponentConfirmation, Home: "Spartans", Away: "Vikings", Slot: "1",
		}},
	}
	responses := AppsEmbed(entries, stream.Filter{MatchDay: "3", Slot: "1"})
	if len(responses) != 1 {
		t.Fatalf("expected one response, got %d", len(responses))
	}
	embed, ok := responses[0].(ResponseEmbed)
	if !ok {
		t.Fatalf("expected an embed response, got %T", responses[0])
	}
	if embed.MessageEmbed.Title != "Stream Applications" {
		t.Fatalf("unexpected title %q", embed.MessageEmbed.Title)
	}
	if !strings.Contains(embed.MessageEmbed.Description, "Match Day 3") || !strings.Contains(embed.MessageEmbed.Description, "time slot 1") {
		t.Fatalf("the description must name the filters, got %q", embed.MessageEmbed.Description)
	}
	if len(embed.MessageEmbed.Fields) != 5 {
		t.Fatalf("expected five columns, got %d", len(embed.MessageEmbed.Fields))
	}
	if embed.MessageEmbed.Fields[1].Value != "Spartans" || embed.MessageEmbed.Fields[3].Value != "Vikings" {
		t.Fatalf("unexpected teams in the listing: %+v", embed.MessageEmbed.Fields)
	}
	if embed.MessageEmbed.Fields[4].Value != string(stream.StatusPendingOpponentConfirmation) {
		t.Fatalf("unexpected status column %q", embed.MessageEmbed.Fields[4].Value)
	}
}

func TestHelpMessageCarriesPrefix(t *testing.T) {
	responses := HelpMessage("?")
	embed, ok := responses[0].(ResponseEmbed)
	if !ok {
		t.Fatalf("expected an embed response, got %T", responses[0])
	}
	for _, field := range embed.MessageEmbed.Fields {
		if !strings.Contains(field.Name, "`?") {
			t.Fatalf("expected the live prefix in %q", field.Name)
		}
	}
}
