package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"leaguebot/internal/stream"
	"leaguebot/internal/transactions"
)

// Use "blue" color for the bot
const color int = 0x3498db

func Done() []Response {
	return []Response{ResponseString{"Done."}}
}

func InputNotValid(errorMessage string) []Response {
	return []Response{ResponseString{fmt.Sprintf("Input not valid: \n> %s", errorMessage)}}
}

func failure(format string, args ...interface{}) []Response {
	return []Response{ResponseString{":x: " + fmt.Sprintf(format, args...)}}
}

// ErrorResponse renders a workflow error as a short user-visible message.
// Errors whose wrapping already reads as a sentence are printed as they are
func ErrorResponse(err error) []Response {
	switch {
	case errors.Is(err, stream.ErrDuplicateApplication):
		return failure("Application is already in progress.")
	case errors.Is(err, stream.ErrApplicationNotFound):
		return failure("Stream Application not found.")
	case errors.Is(err, stream.ErrMissingTeamContext):
		return failure("GMs must include the team name in their streamapp commands.")
	case errors.Is(err, transactions.ErrChannelNotConfigured):
		return failure("Transaction channel is not configured for this server.")
	default:
		return failure("%v", err)
	}
}

func NoPermission() []Response {
	return failure("You do not have permission to use this command.")
}

func NoPendingApps() []Response {
	return []Response{ResponseString{"No pending applications."}}
}

func NoCompletedApps() []Response {
	return []Response{ResponseString{"No completed applications have been found."}}
}

func SlotRequired() []Response {
	return failure("stream slot must be included in an application.")
}

func TeamNotInFranchise(team string, franchise string) []Response {
	return failure("The team **%s** does not belong to the franchise, **%s**.", team, franchise)
}

func NotOnAnyTeam(name string) []Response {
	return failure("Either %s isn't on a team right now or their current team can't be found.", name)
}

func ApplicationUpdated(matchDay string) []Response {
	return []Response{ResponseString{fmt.Sprintf("Your application to play match %s on stream has been updated.", matchDay)}}
}

func ApplicationRemoved(matchDay string) []Response {
	return []Response{ResponseString{fmt.Sprintf("Your application to play match %s on stream has been removed.", matchDay)}}
}

func DeliveryWarning() Response {
	return ResponseString{":warning: The direct message notification could not be delivered. The recipient may have direct messages disabled."}
}

// AppsEmbed renders the application listing. Returns nil when there is
// nothing to show, so the caller can report the empty case
func AppsEmbed(entries []stream.Entry, filter stream.Filter) []Response {

	if len(entries) == 0 {
		return nil
	}

	description := "All pending applications"
	if filter.MatchDay != "" {
		description = fmt.Sprintf("Applications for Match Day %s", filter.MatchDay)
	}
	if filter.Slot != "" {
		description += fmt.Sprintf(" (time slot %s)", filter.Slot)
	}
	embed := discordgo.MessageEmbed{Title: "Stream Applications", Color: color, Description: description}

	var slot, home, vs, away, status []string
	for _, entry := range entries {
		slot = append(slot, entry.Slot)
		home = append(home, entry.Home)
		vs = append(vs, "vs.")
		away = append(away, entry.Away)
		status = append(status, string(entry.Status))
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Time Slot", Value: strings.Join(slot, "\n"), Inline: true})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Home", Value: strings.Join(home, "\n"), Inline: true})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: " - ", Value: strings.Join(vs, "\n"), Inline: true})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Away", Value: strings.Join(away, "\n"), Inline: true})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Status", Value: strings.Join(status, "\n"), Inline: true})

	return []Response{ResponseEmbed{embed}}
}

func HelpMessage(prefix string) []Response {

	embed := discordgo.MessageEmbed{Title: "Commands available", Color: color}
	commands := []struct {
		name  string
		value string
	}{
		{"`%sviewapps [match_day] [time_slot]`", "List pending stream applications"},
		{"`%sstreamapp apply <match_day> <time_slot> [team]`", "Apply to play a match on stream. GMs must include the team name"},
		{"`%sstreamapp <accept|reject> <match_day> [team]`", "Respond to a stream application. GMs must include the team name"},
		{"`%sreviewapps [match_day] [time_slot]`", "List applications that have cleared opponent confirmation"},
		{"`%sapproveapp <match_day> <team> <approve|deny>`", "League verdict on a confirmed application"},
		{"`%sclearapps`", "Remove every stream application"},
		{"`%sdraft <member> <team> [round] [pick]`", "Assign a drafted player to a team"},
		{"`%ssign <member> <team>`", "Sign a free agent to a team"},
		{"`%scut <member> <team> [fa_role]`", "Release a player to free agency"},
		{"`%strade <member> <team> <member> <team>`", "Swap two players between their teams"},
		{"`%ssub <member> <team>`", "Start or finish a temporary contract"},
		{"`%spromote <member> <team>`", "Move a player to another team of the same franchise"},
		{"`%shelp`", "Print the usage of the different commands"},
	}
	for _, command := range commands {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf(command.name, prefix),
			Value:  command.value,
			Inline: false,
		})
	}
	return []Response{ResponseEmbed{embed}}
}

func AnnounceWarning() Response {
	return ResponseString{":warning: The transaction was applied but could not be announced in the transaction channel."}
}
