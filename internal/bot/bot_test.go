package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"leaguebot/internal/common"
	"leaguebot/internal/league"
	"leaguebot/internal/store"
	"leaguebot/internal/stream"
)

type stubGuild struct {
	roles   []league.Role
	members map[string]league.Member
}

func (g *stubGuild) Roles(guildid string) ([]league.Role, error) {
	return g.roles, nil
}

func (g *stubGuild) Members(guildid string) ([]league.Member, error) {
	members := make([]league.Member, 0, len(g.members))
	for _, member := range g.members {
		members = append(members, member)
	}
	return members, nil
}

func (g *stubGuild) Member(guildid string, memberid string) (league.Member, error) {
	member, ok := g.members[memberid]
	if !ok {
		return league.Member{}, league.ErrMemberNotFound
	}
	return member, nil
}

func newTestBot() *Bot {
	guild := &stubGuild{
		roles: []league.Role{{ID: "adm", Name: "Admin"}},
		members: map[string]league.Member{
			"1": {ID: "1", Name: "ops", Roles: []string{"adm"}},
			"2": {ID: "2", Name: "bob"},
		},
	}
	memstore := store.NewMemoryStore()
	registry := league.NewRegistry(memstore, guild)

	bot := &Bot{
		prefix:    "!",
		adminRole: "Admin",
		store:     memstore,
		locks:     common.NewKeyedMutex(),
		guilds:    map[string]struct{}{},
	}
	bot.registry = registry
	bot.streams = stream.NewManager(memstore, registry, nil, nil, bot.locks)
	return bot
}

func command(t *testing.T, bot *Bot, authorid string, content string) []Response {
	t.Helper()
	message := &discordgo.MessageCreate{Message: &discordgo.Message{
		GuildID:   "guild1",
		ChannelID: "chan1",
		Author:    &discordgo.User{ID: authorid},
	}}
	parseResult := Parse(bot.prefix, content)
	if parseResult.parseid != PARSEID_OK {
		t.Fatalf("command did not parse: %+v", parseResult)
	}
	return bot.dispatch(nil, message, parseResult)
}

func TestCreateBotCarriesConfig(t *testing.T) {
	cfg := Config{Token: "abc", Prefix: "?", AdminRole: "League Ops", Database: "bot.db"}
	bot, err := CreateBot(cfg, store.NewMemoryStore())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if bot.prefix != "?" || bot.adminRole != "League Ops" {
		t.Fatalf("unexpected bot configuration %q / %q", bot.prefix, bot.adminRole)
	}
}

func TestReviewAppsNeedsAdminRole(t *testing.T) {
	bot := newTestBot()

	responses := command(t, bot, "2", "!reviewapps")
	if got := responseText(t, responses); got != ":x: You do not have permission to use this command." {
		t.Fatalf("expected the permission refusal, got %q", got)
	}

	responses = command(t, bot, "1", "!reviewapps")
	if got := responseText(t, responses); got != "No completed applications have been found." {
		t.Fatalf("expected the empty review listing, got %q", got)
	}
}

func TestClearAppsNeedsAdminRole(t *testing.T) {
	bot := newTestBot()

	responses := command(t, bot, "2", "!clearapps")
	if got := responseText(t, responses); got != ":x: You do not have permission to use this command." {
		t.Fatalf("expected the permission refusal, got %q", got)
	}
}
