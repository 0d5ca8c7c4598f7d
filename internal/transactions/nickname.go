package transactions

import (
	"fmt"
	"strings"

	"leaguebot/internal/league"
)

// Nicknames are kept as "<prefix> | <birth name>". Mutations only ever
// replace the prefix segment

// BirthName returns the member's name with any franchise prefix stripped
func BirthName(member league.Member) string {
	if member.Nick == "" {
		return member.Name
	}
	parts := strings.SplitN(member.Nick, " | ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[1])
	}
	return parts[0]
}

// PrefixedNick builds the nickname for a member under the given prefix
func PrefixedNick(prefix string, birthName string) string {
	return fmt.Sprintf("%s | %s", prefix, birthName)
}
