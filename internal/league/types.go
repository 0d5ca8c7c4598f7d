package league

import "fmt"

// Names of the fixed league roles in the guild.
// Franchise and tier roles are per-guild configuration
const (
	GMRoleName            = "General Manager"
	CaptainRoleName       = "Captain"
	LeagueRoleName        = "League"
	DraftEligibleRoleName = "Draft Eligible"
)

type Role struct {
	ID   string
	Name string
}

type Member struct {
	ID    string
	Name  string
	Nick  string
	Roles []string
}

func (m *Member) HasRole(role Role) bool {
	for _, id := range m.Roles {
		if id == role.ID {
			return true
		}
	}
	return false
}

func (m *Member) Mention() string {
	return fmt.Sprintf("<@%s>", m.ID)
}

// Match is one scheduled game between two teams on a match day
type Match struct {
	Day  string `json:"match_day"`
	Home string `json:"home"`
	Away string `json:"away"`
}

// TeamRoles names the franchise and tier roles a team maps to
type TeamRoles struct {
	Franchise string `json:"franchise"`
	Tier      string `json:"tier"`
}

type Teams map[string]TeamRoles
type Schedule map[string][]Match
