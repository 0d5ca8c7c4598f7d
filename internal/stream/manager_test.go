package stream

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"leaguebot/internal/common"
	"leaguebot/internal/league"
	"leaguebot/internal/store"
)

type fakeDirectory struct {
	teams       map[string][2]league.Role // team name -> franchise, tier
	captains    map[string]league.Member  // team name -> captain
	gms         map[string]league.Member  // franchise role id -> gm
	gmMembers   map[string]bool           // member id -> holds the gm role
	members     map[string]league.Member  // member id -> member
	matches     map[string]league.Match   // match day -> match
	memberTeams map[string]string         // member id -> current team
}

func (d *fakeDirectory) RolesForTeam(guildid string, team string) (league.Role, league.Role, error) {
	roles, ok := d.teams[team]
	if !ok {
		return league.Role{}, league.Role{}, fmt.Errorf("**%s** %w", team, league.ErrInvalidTeamName)
	}
	return roles[0], roles[1], nil
}

func (d *fakeDirectory) TeamCaptain(guildid string, franchise league.Role, tier league.Role) (league.Member, bool, error) {
	for team, roles := range d.teams {
		if roles[0].ID == franchise.ID && roles[1].ID == tier.ID {
			captain, ok := d.captains[team]
			return captain, ok, nil
		}
	}
	return league.Member{}, false, nil
}

func (d *fakeDirectory) GeneralManager(guildid string, franchise league.Role) (league.Member, error) {
	gm, ok := d.gms[franchise.ID]
	if !ok {
		return league.Member{}, league.ErrMemberNotFound
	}
	return gm, nil
}

func (d *fakeDirectory) IsGeneralManager(guildid string, member league.Member) (bool, error) {
	return d.gmMembers[member.ID], nil
}

func (d *fakeDirectory) CurrentTeam(guildid string, member league.Member) (string, error) {
	team, ok := d.memberTeams[member.ID]
	if !ok {
		return "", league.ErrNoCurrentTeam
	}
	return team, nil
}

func (d *fakeDirectory) Match(guildid string, matchDay string, team string) (league.Match, error) {
	match, ok := d.matches[matchDay]
	if !ok || (match.Home != team && match.Away != team) {
		return league.Match{}, league.ErrMatchNotFound
	}
	match.Day = matchDay
	return match, nil
}

func (d *fakeDirectory) Member(guildid string, memberid string) (league.Member, error) {
	member, ok := d.members[memberid]
	if !ok {
		return league.Member{}, league.ErrMemberNotFound
	}
	return member, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[string][]string // member id -> texts
	fail map[string]bool     // member id -> delivery fails
}

func (n *fakeNotifier) DirectMessage(guildid string, member league.Member, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail[member.ID] {
		return errors.New("recipient has dms disabled")
	}
	if n.sent == nil {
		n.sent = map[string][]string{}
	}
	n.sent[member.ID] = append(n.sent[member.ID], text)
	return nil
}

type fakeAnnouncer struct {
	posts []string // "<channelid>:<text>"
}

func (a *fakeAnnouncer) Announce(guildid string, channelid string, text string) error {
	a.posts = append(a.posts, channelid+":"+text)
	return nil
}

const guildid = "guild1"

var (
	crows  = league.Role{ID: "f1", Name: "Crows (Adammast)"}
	wolves = league.Role{ID: "f2", Name: "Wolves (Bob)"}
	tier1  = league.Role{ID: "t1", Name: "Challenger"}
	tier2  = league.Role{ID: "t2", Name: "Challenger"}

	alice = league.Member{ID: "100", Name: "alice", Roles: []string{"f1", "t1"}}
	carol = league.Member{ID: "300", Name: "carol", Roles: []string{"f2", "t2", "captain"}}
	dave  = league.Member{ID: "400", Name: "dave", Roles: []string{"f2", "gm"}}
)

func newFixture() (*Manager, *fakeDirectory, *fakeNotifier, *store.MemoryStore) {
	manager, directory, notifier, _, memstore := newFixtureWithAnnouncer()
	return manager, directory, notifier, memstore
}

func newFixtureWithAnnouncer() (*Manager, *fakeDirectory, *fakeNotifier, *fakeAnnouncer, *store.MemoryStore) {
	directory := &fakeDirectory{
		teams: map[string][2]league.Role{
			"Spartans": {crows, tier1},
			"Vikings":  {wolves, tier2},
		},
		captains:    map[string]league.Member{"Vikings": carol},
		gms:         map[string]league.Member{"f2": dave},
		gmMembers:   map[string]bool{"400": true},
		members:     map[string]league.Member{"100": alice, "300": carol, "400": dave},
		matches:     map[string]league.Match{"3": {Home: "Spartans", Away: "Vikings"}},
		memberTeams: map[string]string{"100": "Spartans", "300": "Vikings"},
	}
	notifier := &fakeNotifier{}
	announcer := &fakeAnnouncer{}
	memstore := store.NewMemoryStore()
	manager := NewManager(memstore, directory, notifier, announcer, common.NewKeyedMutex())
	return manager, directory, notifier, announcer, memstore
}

func storedApps(t *testing.T, memstore *store.MemoryStore) Applications {
	t.Helper()
	var apps Applications
	if err := memstore.Get(guildid, store.KeyApplications, &apps); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Applications{}
		}
		t.Fatalf("could not read applications: %v", err)
	}
	return apps
}

func TestSubmitCreatesPendingApplication(t *testing.T) {
	manager, _, notifier, memstore := newFixture()

	result, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Recipient.ID != carol.ID {
		t.Fatalf("expected the challenge to go to the opposing captain, got %s", result.Recipient.ID)
	}
	if result.Delivery != nil {
		t.Fatalf("unexpected delivery error: %v", result.Delivery)
	}

	apps := storedApps(t, memstore)
	if len(apps["3"]) != 1 {
		t.Fatalf("expected one application for match day 3, got %d", len(apps["3"]))
	}
	app := apps["3"][0]
	if app.Status != StatusPendingOpponentConfirmation {
		t.Fatalf("expected status %s, got %s", StatusPendingOpponentConfirmation, app.Status)
	}
	if app.Slot != "1" || app.Home != "Spartans" || app.Away != "Vikings" {
		t.Fatalf("unexpected application fields: %+v", app)
	}
	if app.RequestedBy != alice.ID || app.RequestRecipient != carol.ID {
		t.Fatalf("unexpected application parties: %+v", app)
	}
	if len(notifier.sent[carol.ID]) != 1 {
		t.Fatalf("expected one challenge message to the captain")
	}
}

func TestSubmitRefusesDuplicate(t *testing.T) {
	manager, _, _, memstore := newFixture()

	if _, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1"); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	before := storedApps(t, memstore)

	_, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "2")
	if !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}
	after := storedApps(t, memstore)
	if len(after["3"]) != len(before["3"]) {
		t.Fatalf("duplicate refusal must leave the store unchanged")
	}
}

func TestSubmitFallsBackToGM(t *testing.T) {
	manager, directory, notifier, _ := newFixture()
	delete(directory.captains, "Vikings")

	result, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Recipient.ID != dave.ID {
		t.Fatalf("expected the challenge to fall back to the gm, got %s", result.Recipient.ID)
	}
	// The gm reply syntax carries the team name
	texts := notifier.sent[dave.ID]
	if len(texts) != 1 {
		t.Fatalf("expected one challenge message to the gm")
	}
	if want := "accept 3 Vikings"; !containsText(texts[0], want) {
		t.Fatalf("expected gm challenge to mention %q, got %q", want, texts[0])
	}
}

func TestSubmitStoresRecordWhenDeliveryFails(t *testing.T) {
	manager, _, notifier, memstore := newFixture()
	notifier.fail = map[string]bool{carol.ID: true}

	result, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Delivery == nil {
		t.Fatalf("expected a delivery error")
	}
	if len(storedApps(t, memstore)["3"]) != 1 {
		t.Fatalf("the application must be stored even when the challenge cannot be delivered")
	}
}

func TestAcceptTransitionsAndPreservesFields(t *testing.T) {
	manager, _, notifier, memstore := newFixture()
	if _, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	result, err := manager.Respond(guildid, carol, "3", true, "")
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected an accepted result")
	}

	apps := storedApps(t, memstore)
	app := apps["3"][0]
	if app.Status != StatusPendingLeagueApproval {
		t.Fatalf("expected status %s, got %s", StatusPendingLeagueApproval, app.Status)
	}
	if app.Home != "Spartans" || app.Away != "Vikings" || app.Slot != "1" {
		t.Fatalf("accept must leave the other fields unchanged: %+v", app)
	}
	if len(notifier.sent[alice.ID]) != 1 {
		t.Fatalf("expected the requester to be informed")
	}
}

func TestRejectRemovesApplication(t *testing.T) {
	manager, _, notifier, memstore := newFixture()
	if _, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	result, err := manager.Respond(guildid, carol, "3", false, "")
	if err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	if result.Accepted {
		t.Fatalf("expected a rejected result")
	}

	apps := storedApps(t, memstore)
	if len(apps["3"]) != 0 {
		t.Fatalf("rejection must remove the application, got %d records", len(apps["3"]))
	}
	entries, err := manager.List(guildid, Filter{MatchDay: "3"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("listing after rejection must show no match for the day")
	}
	if len(notifier.sent[alice.ID]) != 1 {
		t.Fatalf("expected the requester to be informed of the rejection")
	}
}

func TestRespondFiltersOnRespondingTeam(t *testing.T) {
	manager, directory, _, _ := newFixture()
	// Send the challenge to the gm, who manages several teams
	delete(directory.captains, "Vikings")
	if _, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := manager.Respond(guildid, dave, "3", true, "Bears"); !errors.Is(err, ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound for the wrong team, got %v", err)
	}
	if _, err := manager.Respond(guildid, dave, "3", true, "Vikings"); err != nil {
		t.Fatalf("respond with the right team failed: %v", err)
	}
}

func TestRespondWithoutPendingApplication(t *testing.T) {
	manager, _, _, _ := newFixture()
	if _, err := manager.Respond(guildid, carol, "3", true, ""); !errors.Is(err, ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	manager, _, _, _ := newFixture()
	if _, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	entries, err := manager.List(guildid, Filter{})
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one entry without filters, got %d (%v)", len(entries), err)
	}
	entries, err = manager.List(guildid, Filter{MatchDay: "3", Slot: "1"})
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one entry for day 3 slot 1, got %d (%v)", len(entries), err)
	}
	// A slot filter that matches nothing yields an empty result
	entries, err = manager.List(guildid, Filter{Slot: "2"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries for slot 2, got %d", len(entries))
	}
	// Pending applications do not show in the completed view
	entries, err = manager.List(guildid, Filter{CompletedOnly: true})
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected no completed entries, got %d (%v)", len(entries), err)
	}
}

func TestDecideApprove(t *testing.T) {
	manager, _, notifier, memstore := newFixture()
	if _, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := manager.Respond(guildid, carol, "3", true, ""); err != nil {
		t.Fatalf("respond failed: %v", err)
	}

	result, err := manager.Decide(guildid, "3", "Spartans", true)
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if !result.Approved {
		t.Fatalf("expected an approved result")
	}
	app := storedApps(t, memstore)["3"][0]
	if app.Status != StatusScheduledOnStream {
		t.Fatalf("expected status %s, got %s", StatusScheduledOnStream, app.Status)
	}
	if app.Home != "Spartans" || app.Away != "Vikings" || app.Slot != "1" {
		t.Fatalf("approval must leave the other fields unchanged: %+v", app)
	}
	// Both sides hear the verdict: alice the acceptance and the verdict,
	// carol the challenge and the verdict
	if len(notifier.sent[alice.ID]) != 2 || len(notifier.sent[carol.ID]) != 2 {
		t.Fatalf("expected both sides to be notified of the verdict")
	}
}

func TestDecideApproveAnnouncesInStreamChannel(t *testing.T) {
	manager, _, _, announcer, memstore := newFixtureWithAnnouncer()
	if err := memstore.Put(guildid, store.KeyStreamChannel, "streamchan"); err != nil {
		t.Fatalf("could not seed the store: %v", err)
	}
	if _, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := manager.Respond(guildid, carol, "3", true, ""); err != nil {
		t.Fatalf("respond failed: %v", err)
	}

	if _, err := manager.Decide(guildid, "3", "", true); err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if len(announcer.posts) != 1 || !containsText(announcer.posts[0], "streamchan:") {
		t.Fatalf("expected an announcement in the stream channel, got %v", announcer.posts)
	}
	if !containsText(announcer.posts[0], "match day 3") && !containsText(announcer.posts[0], "Match day 3") {
		t.Fatalf("expected the announcement to name the match day, got %v", announcer.posts)
	}
}

func TestDecideDenyRemovesApplication(t *testing.T) {
	manager, _, _, memstore := newFixture()
	if _, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := manager.Respond(guildid, carol, "3", true, ""); err != nil {
		t.Fatalf("respond failed: %v", err)
	}

	if _, err := manager.Decide(guildid, "3", "", false); err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if len(storedApps(t, memstore)["3"]) != 0 {
		t.Fatalf("denial must remove the application")
	}
}

func TestDecideNeedsConfirmedApplication(t *testing.T) {
	manager, _, _, _ := newFixture()
	if _, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	// Still pending opponent confirmation
	if _, err := manager.Decide(guildid, "3", "Spartans", true); !errors.Is(err, ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestClear(t *testing.T) {
	manager, _, _, memstore := newFixture()
	if _, err := manager.Submit(guildid, "general", alice, "Spartans", "3", "1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := manager.Clear(guildid); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if len(storedApps(t, memstore)) != 0 {
		t.Fatalf("clear must empty the store")
	}
}

func TestConcurrentSubmitsAreNotLost(t *testing.T) {
	manager, directory, _, memstore := newFixture()
	directory.matches["4"] = league.Match{Home: "Spartans", Away: "Vikings"}

	var wg sync.WaitGroup
	for _, day := range []string{"3", "4"} {
		wg.Add(1)
		go func(day string) {
			defer wg.Done()
			if _, err := manager.Submit(guildid, "general", alice, "Spartans", day, "1"); err != nil {
				t.Errorf("submit for day %s failed: %v", day, err)
			}
		}(day)
	}
	wg.Wait()

	apps := storedApps(t, memstore)
	if len(apps["3"]) != 1 || len(apps["4"]) != 1 {
		t.Fatalf("expected both applications to be stored, got %v", apps)
	}
}

func TestCompactDropsEmptyBuckets(t *testing.T) {
	manager, _, _, memstore := newFixture()
	if err := memstore.Put(guildid, store.KeyApplications, Applications{"3": {}}); err != nil {
		t.Fatalf("could not seed the store: %v", err)
	}
	if err := manager.Compact(guildid); err != nil {
		t.Fatalf("compact failed: %v", err)
	}
	apps := storedApps(t, memstore)
	if _, ok := apps["3"]; ok {
		t.Fatalf("compact must drop empty match day buckets")
	}
}

func containsText(haystack string, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
