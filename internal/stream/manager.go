package stream

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"leaguebot/internal/common"
	"leaguebot/internal/league"
	"leaguebot/internal/store"
)

var (
	ErrDuplicateApplication = errors.New("an application is already in progress for this match")
	ErrApplicationNotFound  = errors.New("stream application not found")
	ErrMissingTeamContext   = errors.New("general managers must include the team name")
)

// Directory is the subset of the league registry the workflow needs
type Directory interface {
	RolesForTeam(guildid string, team string) (league.Role, league.Role, error)
	TeamCaptain(guildid string, franchise league.Role, tier league.Role) (league.Member, bool, error)
	GeneralManager(guildid string, franchise league.Role) (league.Member, error)
	IsGeneralManager(guildid string, member league.Member) (bool, error)
	CurrentTeam(guildid string, member league.Member) (string, error)
	Match(guildid string, matchDay string, team string) (league.Match, error)
	Member(guildid string, memberid string) (league.Member, error)
}

// Notifier delivers a direct message to a member. Implemented by the bot
type Notifier interface {
	DirectMessage(guildid string, member league.Member, text string) error
}

// Announcer posts a message to a guild channel
type Announcer interface {
	Announce(guildid string, channelid string, text string) error
}

// Manager runs the stream application workflow: teams apply to play a match
// on stream, opponents confirm, the league approves
type Manager struct {
	store     store.GuildStore
	directory Directory
	notifier  Notifier
	announcer Announcer
	locks     *common.KeyedMutex
}

func NewManager(store store.GuildStore, directory Directory, notifier Notifier, announcer Announcer, locks *common.KeyedMutex) *Manager {
	return &Manager{store: store, directory: directory, notifier: notifier, announcer: announcer, locks: locks}
}

type SubmitResult struct {
	Match     league.Match
	Recipient league.Member
	// Delivery holds the error of the challenge notification, if it could
	// not be sent. The application itself is stored regardless
	Delivery error
}

// Submit creates an application for the requesting team's match on the given
// day and challenges the opposing captain, or the opposing general manager
// when the team has no captain
func (m *Manager) Submit(guildid string, channel string, requestedBy league.Member, team string, matchDay string, slot string) (SubmitResult, error) {

	m.locks.Lock(guildid)
	defer m.locks.Unlock(guildid)

	match, err := m.directory.Match(guildid, matchDay, team)
	if err != nil {
		return SubmitResult{}, err
	}

	apps, err := m.applications(guildid)
	if err != nil {
		return SubmitResult{}, err
	}
	if _, ok := apps.FindActive(match); ok {
		return SubmitResult{}, ErrDuplicateApplication
	}

	otherTeam := match.Home
	if match.Home == team {
		otherTeam = match.Away
	}
	franchise, tier, err := m.directory.RolesForTeam(guildid, otherTeam)
	if err != nil {
		return SubmitResult{}, err
	}
	recipient, ok, err := m.directory.TeamCaptain(guildid, franchise, tier)
	if err != nil {
		return SubmitResult{}, err
	}
	if !ok {
		// Send the request to the gm if the team has no captain
		recipient, err = m.directory.GeneralManager(guildid, franchise)
		if err != nil {
			return SubmitResult{}, err
		}
	}

	app := Application{
		ID:               uuid.New(),
		Status:           StatusPendingOpponentConfirmation,
		RequestedBy:      requestedBy.ID,
		RequestRecipient: recipient.ID,
		Home:             match.Home,
		Away:             match.Away,
		Slot:             slot,
	}
	apps[matchDay] = append(apps[matchDay], app)
	if err := m.save(guildid, apps); err != nil {
		return SubmitResult{}, err
	}
	log.Info().Msgf("Stored stream application %s for match day %s (%s vs. %s) in guild %s", app.ID, matchDay, match.Home, match.Away, guildid)

	// Challenge the other team
	isGM, err := m.directory.IsGeneralManager(guildid, recipient)
	if err != nil {
		isGM = false
	}
	slotLabel := m.slotLabel(guildid, slot)
	var text string
	if isGM {
		text = GMChallengedText(matchDay, match.Home, match.Away, slotLabel, channel, otherTeam)
	} else {
		text = ChallengedText(matchDay, match.Home, match.Away, slotLabel, channel)
	}
	result := SubmitResult{Match: match, Recipient: recipient}
	result.Delivery = m.notifier.DirectMessage(guildid, recipient, text)
	return result, nil
}

type RespondResult struct {
	Application Application
	Accepted    bool
	Delivery    error
}

// Respond handles the challenged side accepting or rejecting an application
// for the given match day. A responder managing several teams has to name
// the team the response is for
func (m *Manager) Respond(guildid string, responder league.Member, matchDay string, accept bool, respondingTeam string) (RespondResult, error) {

	m.locks.Lock(guildid)
	defer m.locks.Unlock(guildid)

	apps, err := m.applications(guildid)
	if err != nil {
		return RespondResult{}, err
	}

	for i, app := range apps[matchDay] {
		if app.RequestRecipient != responder.ID {
			continue
		}
		if app.Status != StatusPendingOpponentConfirmation {
			continue
		}
		if respondingTeam != "" && app.Home != respondingTeam && app.Away != respondingTeam {
			continue
		}

		requester, err := m.directory.Member(guildid, app.RequestedBy)
		if err != nil {
			return RespondResult{}, err
		}

		if accept {
			if !app.Status.CanBecome(StatusPendingLeagueApproval) {
				return RespondResult{}, ErrApplicationNotFound
			}
			app.Status = StatusPendingLeagueApproval
			apps[matchDay][i] = app
			if err := m.save(guildid, apps); err != nil {
				return RespondResult{}, err
			}
			log.Info().Msgf("Application %s accepted by its opponents in guild %s", app.ID, guildid)

			// Inform the requesting side: the original requester and,
			// if distinct, their team captain
			text := AcceptedText(matchDay, app.Home, app.Away)
			deliveries := []error{m.notifier.DirectMessage(guildid, requester, text)}
			if captain, ok := m.requesterCaptain(guildid, requester); ok && captain.ID != requester.ID {
				deliveries = append(deliveries, m.notifier.DirectMessage(guildid, captain, text))
			}
			return RespondResult{Application: app, Accepted: true, Delivery: errors.Join(deliveries...)}, nil
		}

		// A rejected application is removed entirely
		apps.Remove(matchDay, app.ID)
		if err := m.save(guildid, apps); err != nil {
			return RespondResult{}, err
		}
		log.Info().Msgf("Application %s rejected by its opponents in guild %s", app.ID, guildid)
		text := RejectedText(matchDay, app.Home, app.Away)
		delivery := m.notifier.DirectMessage(guildid, requester, text)
		return RespondResult{Application: app, Accepted: false, Delivery: delivery}, nil
	}

	return RespondResult{}, ErrApplicationNotFound
}

type DecideResult struct {
	Application Application
	Approved    bool
	Delivery    error
}

// Decide is the league's verdict on an application that has cleared opponent
// confirmation. Approval schedules the match on stream; denial removes the
// application
func (m *Manager) Decide(guildid string, matchDay string, team string, approve bool) (DecideResult, error) {

	m.locks.Lock(guildid)
	defer m.locks.Unlock(guildid)

	apps, err := m.applications(guildid)
	if err != nil {
		return DecideResult{}, err
	}

	for i, app := range apps[matchDay] {
		if app.Status != StatusPendingLeagueApproval {
			continue
		}
		if team != "" && app.Home != team && app.Away != team {
			continue
		}

		var text string
		if approve {
			if !app.Status.CanBecome(StatusScheduledOnStream) {
				return DecideResult{}, ErrApplicationNotFound
			}
			app.Status = StatusScheduledOnStream
			apps[matchDay][i] = app
			text = LeagueApprovedText(matchDay, app.Home, app.Away, m.slotLabel(guildid, app.Slot))
			log.Info().Msgf("Application %s approved by the league in guild %s", app.ID, guildid)
		} else {
			apps.Remove(matchDay, app.ID)
			text = LeagueRejectedText(matchDay, app.Home, app.Away)
			log.Info().Msgf("Application %s denied by the league in guild %s", app.ID, guildid)
		}
		if err := m.save(guildid, apps); err != nil {
			return DecideResult{}, err
		}

		// Both sides of the match hear the verdict
		deliveries := []error{}
		for _, memberid := range []string{app.RequestedBy, app.RequestRecipient} {
			member, err := m.directory.Member(guildid, memberid)
			if err != nil {
				deliveries = append(deliveries, err)
				continue
			}
			deliveries = append(deliveries, m.notifier.DirectMessage(guildid, member, text))
		}
		// Scheduled matches are announced in the stream channel, if the
		// guild has one configured
		if approve {
			if channelid, ok := m.streamChannel(guildid); ok {
				announcement := ScheduledAnnouncementText(matchDay, app.Home, app.Away, m.slotLabel(guildid, app.Slot))
				deliveries = append(deliveries, m.announcer.Announce(guildid, channelid, announcement))
			}
		}
		return DecideResult{Application: app, Approved: approve, Delivery: errors.Join(deliveries...)}, nil
	}

	return DecideResult{}, ErrApplicationNotFound
}

// Filter narrows a listing. Empty fields broaden the match
type Filter struct {
	MatchDay string
	Slot     string
	// CompletedOnly keeps only applications that have cleared opponent
	// confirmation
	CompletedOnly bool
}

type Entry struct {
	MatchDay string
	Application
}

// List returns the applications matching the filter, ordered by match day
func (m *Manager) List(guildid string, filter Filter) ([]Entry, error) {

	apps, err := m.applications(guildid)
	if err != nil {
		return nil, err
	}

	days := make([]string, 0, len(apps))
	for day := range apps {
		days = append(days, day)
	}
	sort.Strings(days)

	var entries []Entry
	for _, day := range days {
		if filter.MatchDay != "" && day != filter.MatchDay {
			continue
		}
		for _, app := range apps[day] {
			if filter.Slot != "" && app.Slot != filter.Slot {
				continue
			}
			if filter.CompletedOnly && app.Status == StatusPendingOpponentConfirmation {
				continue
			}
			entries = append(entries, Entry{MatchDay: day, Application: app})
		}
	}
	return entries, nil
}

// Clear removes every application for the guild
func (m *Manager) Clear(guildid string) error {
	m.locks.Lock(guildid)
	defer m.locks.Unlock(guildid)
	return m.save(guildid, Applications{})
}

// Compact drops match day buckets that no longer hold any application.
// Called periodically by the bot's housekeeping
func (m *Manager) Compact(guildid string) error {

	m.locks.Lock(guildid)
	defer m.locks.Unlock(guildid)

	apps, err := m.applications(guildid)
	if err != nil {
		return err
	}
	dirty := false
	for day, records := range apps {
		if len(records) == 0 {
			delete(apps, day)
			dirty = true
		}
	}
	if !dirty {
		return nil
	}
	log.Debug().Msgf("Compacting application store of guild %s", guildid)
	return m.save(guildid, apps)
}

func (m *Manager) applications(guildid string) (Applications, error) {
	var apps Applications
	if err := m.store.Get(guildid, store.KeyApplications, &apps); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Applications{}, nil
		}
		return nil, err
	}
	if apps == nil {
		apps = Applications{}
	}
	return apps, nil
}

func (m *Manager) save(guildid string, apps Applications) error {
	if err := m.store.Put(guildid, store.KeyApplications, apps); err != nil {
		return fmt.Errorf("could not save applications: %w", err)
	}
	return nil
}

func (m *Manager) streamChannel(guildid string) (string, bool) {
	var channelid string
	if err := m.store.Get(guildid, store.KeyStreamChannel, &channelid); err != nil {
		return "", false
	}
	return channelid, channelid != ""
}

// slotLabel maps a time slot id to its human label, falling back to the raw
// id when the guild has no slot catalog
func (m *Manager) slotLabel(guildid string, slot string) string {
	var slots map[string]string
	if err := m.store.Get(guildid, store.KeyTimeSlots, &slots); err != nil {
		return slot
	}
	if label, ok := slots[slot]; ok {
		return label
	}
	return slot
}

// requesterCaptain finds the captain of the requester's own team
func (m *Manager) requesterCaptain(guildid string, requester league.Member) (league.Member, bool) {
	team, err := m.directory.CurrentTeam(guildid, requester)
	if err != nil {
		return league.Member{}, false
	}
	franchise, tier, err := m.directory.RolesForTeam(guildid, team)
	if err != nil {
		return league.Member{}, false
	}
	captain, ok, err := m.directory.TeamCaptain(guildid, franchise, tier)
	if err != nil || !ok {
		return league.Member{}, false
	}
	return captain, true
}
