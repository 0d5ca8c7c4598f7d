package league

import (
	"errors"
	"fmt"
	"regexp"

	"leaguebot/internal/store"
)

var (
	ErrInvalidTeamName = errors.New("is not a valid team name")
	ErrRoleNotFound    = errors.New("role not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrNoCurrentTeam   = errors.New("member has no current team")
	ErrGMNameNotFound  = errors.New("gm name not found")
)

// GuildDirectory exposes the roles and members of a guild. Implemented over
// the discord session by the bot, faked in tests
type GuildDirectory interface {
	Roles(guildid string) ([]Role, error)
	Members(guildid string) ([]Member, error)
	Member(guildid string, memberid string) (Member, error)
}

// Registry answers team, match and member questions for a guild, combining
// the persisted team/schedule configuration with the live guild directory
type Registry struct {
	store store.GuildStore
	guild GuildDirectory
}

func NewRegistry(store store.GuildStore, guild GuildDirectory) *Registry {
	return &Registry{store: store, guild: guild}
}

// RolesForTeam resolves a team name to its franchise and tier roles
func (r *Registry) RolesForTeam(guildid string, team string) (Role, Role, error) {

	var teams Teams
	if err := r.store.Get(guildid, store.KeyTeams, &teams); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Role{}, Role{}, fmt.Errorf("**%s** %w", team, ErrInvalidTeamName)
		}
		return Role{}, Role{}, err
	}
	roles, ok := teams[team]
	if !ok {
		return Role{}, Role{}, fmt.Errorf("**%s** %w", team, ErrInvalidTeamName)
	}

	franchise, err := r.RoleByName(guildid, roles.Franchise)
	if err != nil {
		return Role{}, Role{}, err
	}
	tier, err := r.RoleByName(guildid, roles.Tier)
	if err != nil {
		return Role{}, Role{}, err
	}
	return franchise, tier, nil
}

func (r *Registry) RoleByName(guildid string, name string) (Role, error) {
	roles, err := r.guild.Roles(guildid)
	if err != nil {
		return Role{}, err
	}
	for _, role := range roles {
		if role.Name == name {
			return role, nil
		}
	}
	return Role{}, fmt.Errorf("**%s** %w", name, ErrRoleNotFound)
}

func (r *Registry) Member(guildid string, memberid string) (Member, error) {
	return r.guild.Member(guildid, memberid)
}

// TeamCaptain finds the member holding the captain role for the given
// franchise and tier. The second return value is false when the team has
// no captain
func (r *Registry) TeamCaptain(guildid string, franchise Role, tier Role) (Member, bool, error) {

	captain, err := r.RoleByName(guildid, CaptainRoleName)
	if err != nil {
		return Member{}, false, err
	}
	members, err := r.guild.Members(guildid)
	if err != nil {
		return Member{}, false, err
	}
	for _, member := range members {
		if member.HasRole(captain) && member.HasRole(franchise) && member.HasRole(tier) {
			return member, true, nil
		}
	}
	return Member{}, false, nil
}

// GeneralManager finds the member holding the general manager role for the
// given franchise
func (r *Registry) GeneralManager(guildid string, franchise Role) (Member, error) {

	gm, err := r.RoleByName(guildid, GMRoleName)
	if err != nil {
		return Member{}, err
	}
	members, err := r.guild.Members(guildid)
	if err != nil {
		return Member{}, err
	}
	for _, member := range members {
		if member.HasRole(gm) && member.HasRole(franchise) {
			return member, nil
		}
	}
	return Member{}, fmt.Errorf("no gm found for the franchise **%s**: %w", franchise.Name, ErrMemberNotFound)
}

// IsGeneralManager reports whether the member holds the general manager role
func (r *Registry) IsGeneralManager(guildid string, member Member) (bool, error) {
	gm, err := r.RoleByName(guildid, GMRoleName)
	if err != nil {
		return false, err
	}
	return member.HasRole(gm), nil
}

// CurrentTeam resolves the single team whose franchise and tier roles the
// member holds. General managers hold only the franchise role, so they never
// resolve here and must name their team explicitly
func (r *Registry) CurrentTeam(guildid string, member Member) (string, error) {

	var teams Teams
	if err := r.store.Get(guildid, store.KeyTeams, &teams); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNoCurrentTeam
		}
		return "", err
	}
	for name := range teams {
		franchise, tier, err := r.RolesForTeam(guildid, name)
		if err != nil {
			return "", err
		}
		if member.HasRole(franchise) && member.HasRole(tier) {
			return name, nil
		}
	}
	return "", ErrNoCurrentTeam
}

// CurrentTierRole finds the tier role the member currently holds, if any
func (r *Registry) CurrentTierRole(guildid string, member Member) (Role, bool, error) {

	var teams Teams
	if err := r.store.Get(guildid, store.KeyTeams, &teams); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Role{}, false, nil
		}
		return Role{}, false, err
	}
	seen := map[string]struct{}{}
	for _, roles := range teams {
		if _, ok := seen[roles.Tier]; ok {
			continue
		}
		seen[roles.Tier] = struct{}{}
		tier, err := r.RoleByName(guildid, roles.Tier)
		if err != nil {
			continue
		}
		if member.HasRole(tier) {
			return tier, true, nil
		}
	}
	return Role{}, false, nil
}

// Match finds the scheduled match for the given day involving the given team
func (r *Registry) Match(guildid string, matchDay string, team string) (Match, error) {

	var schedule Schedule
	if err := r.store.Get(guildid, store.KeySchedule, &schedule); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Match{}, fmt.Errorf("%w for match day %s", ErrMatchNotFound, matchDay)
		}
		return Match{}, err
	}
	for _, match := range schedule[matchDay] {
		if match.Home == team || match.Away == team {
			match.Day = matchDay
			return match, nil
		}
	}
	return Match{}, fmt.Errorf("%w for match day %s and team **%s**", ErrMatchNotFound, matchDay, team)
}

// Franchise role names carry the gm name in parentheses, e.g. "Crows (Adammast)"
var gmNamePattern = regexp.MustCompile(`\((.*)\)`)

// GMName extracts the general manager name from a franchise role name
func GMName(franchise Role) (string, error) {
	groups := gmNamePattern.FindStringSubmatch(franchise.Name)
	if groups == nil {
		return "", fmt.Errorf("%w from role **%s**", ErrGMNameNotFound, franchise.Name)
	}
	return groups[1], nil
}
