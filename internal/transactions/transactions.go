package transactions

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"leaguebot/internal/league"
	"leaguebot/internal/store"
)

var (
	ErrAlreadyOnTeam        = errors.New("is already on the")
	ErrNotOnTeam            = errors.New("is not on the")
	ErrNotSameFranchise     = errors.New("is not in the same franchise as")
	ErrPrefixNotFound       = errors.New("prefix not found")
	ErrChannelNotConfigured = errors.New("transaction channel not configured")
)

// Directory is the subset of the league registry the roster workflow needs
type Directory interface {
	RolesForTeam(guildid string, team string) (league.Role, league.Role, error)
	RoleByName(guildid string, name string) (league.Role, error)
	CurrentTeam(guildid string, member league.Member) (string, error)
	CurrentTierRole(guildid string, member league.Member) (league.Role, bool, error)
}

// RoleEditor mutates role membership and nicknames of guild members
type RoleEditor interface {
	AddRoles(guildid string, memberid string, roles ...league.Role) error
	RemoveRoles(guildid string, memberid string, roles ...league.Role) error
	SetNickname(guildid string, memberid string, nick string) error
}

// Announcer posts a message to a guild channel
type Announcer interface {
	Announce(guildid string, channelid string, text string) error
}

// Manager runs the roster transaction workflow: drafting, signing, cutting,
// trading, substituting and promoting players. Validation happens before any
// role or nickname mutation, so a refused transaction leaves the member
// untouched
type Manager struct {
	store     store.GuildStore
	directory Directory
	editor    RoleEditor
	announcer Announcer
}

func NewManager(store store.GuildStore, directory Directory, editor RoleEditor, announcer Announcer) *Manager {
	return &Manager{store: store, directory: directory, editor: editor, announcer: announcer}
}

type Result struct {
	Announcement string
	// Delivery holds the error of the announcement post, if it could not be
	// sent. The roster mutation itself stands regardless
	Delivery error
}

// Draft puts a drafted player on a team. A player drafted by a franchise
// they already belong to is announced as kept. Free agent and draft
// eligibility markers are cleared
func (m *Manager) Draft(guildid string, member league.Member, team string, round int, pick int) (Result, error) {

	franchise, tier, err := m.directory.RolesForTeam(guildid, team)
	if err != nil {
		return Result{}, err
	}
	gmName, err := league.GMName(franchise)
	if err != nil {
		return Result{}, err
	}
	channelid, err := m.channel(guildid)
	if err != nil {
		return Result{}, err
	}

	var message string
	if member.HasRole(franchise) {
		message = fmt.Sprintf("Round %d Pick %d: %s was kept by the %s (%s - %s)", round, pick, member.Mention(), team, gmName, tier.Name)
	} else {
		message = fmt.Sprintf("Round %d Pick %d: %s was drafted by the %s (%s - %s)", round, pick, member.Mention(), team, gmName, tier.Name)
	}

	if err := m.addToTeam(guildid, member, team); err != nil {
		return Result{}, err
	}

	var obsolete []league.Role
	if faRole, ok, err := m.freeAgentRole(guildid, member); err != nil {
		return Result{}, err
	} else if ok {
		obsolete = append(obsolete, faRole)
	}
	if deRole, err := m.directory.RoleByName(guildid, league.DraftEligibleRoleName); err == nil && member.HasRole(deRole) {
		obsolete = append(obsolete, deRole)
	}
	if len(obsolete) > 0 {
		if err := m.editor.RemoveRoles(guildid, member.ID, obsolete...); err != nil {
			return Result{}, err
		}
	}

	return m.announce(guildid, channelid, message), nil
}

// Sign puts a free agent on a team
func (m *Manager) Sign(guildid string, member league.Member, team string) (Result, error) {

	franchise, tier, err := m.directory.RolesForTeam(guildid, team)
	if err != nil {
		return Result{}, err
	}
	if member.HasRole(franchise) && member.HasRole(tier) {
		return Result{}, fmt.Errorf("%s %w **%s**", member.Mention(), ErrAlreadyOnTeam, team)
	}
	gmName, err := league.GMName(franchise)
	if err != nil {
		return Result{}, err
	}
	channelid, err := m.channel(guildid)
	if err != nil {
		return Result{}, err
	}
	faRole, hasFA, err := m.freeAgentRole(guildid, member)
	if err != nil {
		return Result{}, err
	}

	if err := m.addToTeam(guildid, member, team); err != nil {
		return Result{}, err
	}
	if hasFA {
		if err := m.editor.RemoveRoles(guildid, member.ID, faRole); err != nil {
			return Result{}, err
		}
	}

	message := fmt.Sprintf("%s was signed by the %s (%s - %s)", member.Mention(), team, gmName, tier.Name)
	return m.announce(guildid, channelid, message), nil
}

// Cut releases a player from a team and marks them as a free agent. The free
// agent role defaults to "<Tier>FA" for the player's current tier when none
// is named
func (m *Manager) Cut(guildid string, member league.Member, team string, faRoleName string) (Result, error) {

	franchise, tier, err := m.directory.RolesForTeam(guildid, team)
	if err != nil {
		return Result{}, err
	}
	if !member.HasRole(franchise) || !member.HasRole(tier) {
		return Result{}, fmt.Errorf("%s %w **%s**", member.Mention(), ErrNotOnTeam, team)
	}
	gmName, err := league.GMName(franchise)
	if err != nil {
		return Result{}, err
	}
	channelid, err := m.channel(guildid)
	if err != nil {
		return Result{}, err
	}

	if faRoleName == "" {
		faRoleName = fmt.Sprintf("%sFA", tier.Name)
	}
	faRole, err := m.directory.RoleByName(guildid, faRoleName)
	if err != nil {
		return Result{}, err
	}

	if err := m.editor.RemoveRoles(guildid, member.ID, franchise, tier); err != nil {
		return Result{}, err
	}
	if err := m.editor.SetNickname(guildid, member.ID, PrefixedNick("FA", BirthName(member))); err != nil {
		return Result{}, err
	}
	if err := m.editor.AddRoles(guildid, member.ID, faRole); err != nil {
		return Result{}, err
	}

	message := fmt.Sprintf("%s was cut by the %s (%s - %s)", member.Mention(), team, gmName, tier.Name)
	return m.announce(guildid, channelid, message), nil
}

// Trade swaps two players between their teams. Both sides are validated
// before either side is mutated, so a bad team name fails the whole trade
func (m *Manager) Trade(guildid string, member1 league.Member, team1 string, member2 league.Member, team2 string) (Result, error) {

	franchise1, tier1, err := m.directory.RolesForTeam(guildid, team1)
	if err != nil {
		return Result{}, err
	}
	franchise2, tier2, err := m.directory.RolesForTeam(guildid, team2)
	if err != nil {
		return Result{}, err
	}
	if member1.HasRole(franchise1) && member1.HasRole(tier1) {
		return Result{}, fmt.Errorf("%s %w **%s**", member1.Mention(), ErrAlreadyOnTeam, team1)
	}
	if member2.HasRole(franchise2) && member2.HasRole(tier2) {
		return Result{}, fmt.Errorf("%s %w **%s**", member2.Mention(), ErrAlreadyOnTeam, team2)
	}
	if !member1.HasRole(franchise2) || !member1.HasRole(tier2) {
		return Result{}, fmt.Errorf("%s %w **%s**", member1.Mention(), ErrNotOnTeam, team2)
	}
	if !member2.HasRole(franchise1) || !member2.HasRole(tier1) {
		return Result{}, fmt.Errorf("%s %w **%s**", member2.Mention(), ErrNotOnTeam, team1)
	}
	gmName1, err := league.GMName(franchise1)
	if err != nil {
		return Result{}, err
	}
	gmName2, err := league.GMName(franchise2)
	if err != nil {
		return Result{}, err
	}
	if _, err := m.prefixFor(guildid, franchise1); err != nil {
		return Result{}, err
	}
	if _, err := m.prefixFor(guildid, franchise2); err != nil {
		return Result{}, err
	}
	channelid, err := m.channel(guildid)
	if err != nil {
		return Result{}, err
	}

	if err := m.editor.RemoveRoles(guildid, member1.ID, franchise2, tier2); err != nil {
		return Result{}, err
	}
	if err := m.editor.RemoveRoles(guildid, member2.ID, franchise1, tier1); err != nil {
		return Result{}, err
	}
	if err := m.addToTeam(guildid, member1, team1); err != nil {
		return Result{}, err
	}
	if err := m.addToTeam(guildid, member2, team2); err != nil {
		return Result{}, err
	}

	message := fmt.Sprintf("%s was traded by the %s (%s - %s) to the %s (%s - %s) for %s",
		member1.Mention(), team2, gmName2, tier2.Name, team1, gmName1, tier1.Name, member2.Mention())
	return m.announce(guildid, channelid, message), nil
}

// Sub toggles a temporary contract: a member not on the team joins it as a
// substitute, a member already on it has finished their substitution and
// leaves it. Substitutes keep their nickname
func (m *Manager) Sub(guildid string, member league.Member, team string) (Result, error) {

	franchise, tier, err := m.directory.RolesForTeam(guildid, team)
	if err != nil {
		return Result{}, err
	}
	gmName, err := league.GMName(franchise)
	if err != nil {
		return Result{}, err
	}
	leagueRole, err := m.directory.RoleByName(guildid, league.LeagueRoleName)
	if err != nil {
		return Result{}, err
	}
	channelid, err := m.channel(guildid)
	if err != nil {
		return Result{}, err
	}

	var message string
	if member.HasRole(franchise) && member.HasRole(tier) {
		if err := m.editor.RemoveRoles(guildid, member.ID, franchise, tier); err != nil {
			return Result{}, err
		}
		message = fmt.Sprintf("%s has finished their time as a substitute for the %s (%s - %s)", member.Name, team, gmName, tier.Name)
	} else {
		if err := m.editor.AddRoles(guildid, member.ID, franchise, tier, leagueRole); err != nil {
			return Result{}, err
		}
		message = fmt.Sprintf("%s was signed to a temporary contract by the %s (%s - %s)", member.Mention(), team, gmName, tier.Name)
	}
	return m.announce(guildid, channelid, message), nil
}

// Promote moves a player to another team of the same franchise
func (m *Manager) Promote(guildid string, member league.Member, team string) (Result, error) {

	oldTeam, err := m.directory.CurrentTeam(guildid, member)
	if err != nil {
		return Result{}, err
	}
	oldFranchise, oldTier, err := m.directory.RolesForTeam(guildid, oldTeam)
	if err != nil {
		return Result{}, err
	}
	franchise, tier, err := m.directory.RolesForTeam(guildid, team)
	if err != nil {
		return Result{}, err
	}
	if oldFranchise.ID != franchise.ID {
		return Result{}, fmt.Errorf("the **%s** %w %s's current team, the **%s**", team, ErrNotSameFranchise, member.Name, oldTeam)
	}
	gmName, err := league.GMName(franchise)
	if err != nil {
		return Result{}, err
	}
	channelid, err := m.channel(guildid)
	if err != nil {
		return Result{}, err
	}

	if err := m.editor.RemoveRoles(guildid, member.ID, oldFranchise, oldTier); err != nil {
		return Result{}, err
	}
	if err := m.addToTeam(guildid, member, team); err != nil {
		return Result{}, err
	}

	message := fmt.Sprintf("%s was promoted to the %s (%s - %s)", member.Mention(), team, gmName, tier.Name)
	return m.announce(guildid, channelid, message), nil
}

// addToTeam assigns the tier, league and franchise roles and the franchise
// nickname prefix
func (m *Manager) addToTeam(guildid string, member league.Member, team string) error {

	franchise, tier, err := m.directory.RolesForTeam(guildid, team)
	if err != nil {
		return err
	}
	leagueRole, err := m.directory.RoleByName(guildid, league.LeagueRoleName)
	if err != nil {
		return err
	}
	prefix, err := m.prefixFor(guildid, franchise)
	if err != nil {
		return err
	}

	if currentTier, ok, err := m.directory.CurrentTierRole(guildid, member); err != nil {
		return err
	} else if ok && currentTier.ID != tier.ID {
		if err := m.editor.RemoveRoles(guildid, member.ID, currentTier); err != nil {
			return err
		}
	}
	if err := m.editor.SetNickname(guildid, member.ID, PrefixedNick(prefix, BirthName(member))); err != nil {
		return err
	}
	return m.editor.AddRoles(guildid, member.ID, tier, leagueRole, franchise)
}

// prefixFor looks up the nickname prefix for the franchise's gm
func (m *Manager) prefixFor(guildid string, franchise league.Role) (string, error) {

	gmName, err := league.GMName(franchise)
	if err != nil {
		return "", err
	}
	var prefixes map[string]string
	if err := m.store.Get(guildid, store.KeyPrefixes, &prefixes); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w for %s", ErrPrefixNotFound, gmName)
		}
		return "", err
	}
	prefix, ok := prefixes[gmName]
	if !ok {
		return "", fmt.Errorf("%w for %s", ErrPrefixNotFound, gmName)
	}
	return prefix, nil
}

// freeAgentRole finds the free agent role the member holds, if any, from the
// guild's configured free agent role map
func (m *Manager) freeAgentRole(guildid string, member league.Member) (league.Role, bool, error) {

	var faRoles map[string]string
	if err := m.store.Get(guildid, store.KeyFreeAgentRoles, &faRoles); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return league.Role{}, false, nil
		}
		return league.Role{}, false, err
	}
	for name, id := range faRoles {
		role := league.Role{ID: id, Name: name}
		if member.HasRole(role) {
			return role, true, nil
		}
	}
	return league.Role{}, false, nil
}

func (m *Manager) channel(guildid string) (string, error) {
	var channelid string
	if err := m.store.Get(guildid, store.KeyTransactionChannel, &channelid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrChannelNotConfigured
		}
		return "", err
	}
	if channelid == "" {
		return "", ErrChannelNotConfigured
	}
	return channelid, nil
}

func (m *Manager) announce(guildid string, channelid string, message string) Result {
	result := Result{Announcement: message}
	result.Delivery = m.announcer.Announce(guildid, channelid, message)
	if result.Delivery != nil {
		log.Warn().Msgf("Could not announce transaction in guild %s: %v", guildid, result.Delivery)
	}
	return result
}
