package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"leaguebot/internal/common"
	"leaguebot/internal/league"
)

// Adapters between the discord session and the capability interfaces the
// workflows depend on. The workflows never touch discordgo directly

type discordGuild struct {
	discord *discordgo.Session
}

func (g *discordGuild) Roles(guildid string) ([]league.Role, error) {
	discordRoles, err := g.discord.GuildRoles(guildid)
	if err != nil {
		return nil, fmt.Errorf("could not extract the roles of guild %s: %w", guildid, err)
	}
	roles := make([]league.Role, 0, len(discordRoles))
	for _, role := range discordRoles {
		roles = append(roles, league.Role{ID: role.ID, Name: role.Name})
	}
	return roles, nil
}

func (g *discordGuild) Members(guildid string) ([]league.Member, error) {
	members := []league.Member{}
	after := ""
	for {
		page, err := g.discord.GuildMembers(guildid, after, 1000)
		if err != nil {
			return nil, fmt.Errorf("could not extract the members of guild %s: %w", guildid, err)
		}
		for _, member := range page {
			members = append(members, memberFromDiscord(member))
		}
		if len(page) < 1000 {
			return members, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (g *discordGuild) Member(guildid string, memberid string) (league.Member, error) {
	member, err := g.discord.GuildMember(guildid, memberid)
	if err != nil {
		return league.Member{}, fmt.Errorf("%w with id %s", league.ErrMemberNotFound, memberid)
	}
	return memberFromDiscord(member), nil
}

func memberFromDiscord(member *discordgo.Member) league.Member {
	return league.Member{
		ID:    member.User.ID,
		Name:  member.User.Username,
		Nick:  member.Nick,
		Roles: member.Roles,
	}
}

type discordEditor struct {
	discord *discordgo.Session
}

func (e *discordEditor) AddRoles(guildid string, memberid string, roles ...league.Role) error {
	for _, role := range roles {
		if err := e.discord.GuildMemberRoleAdd(guildid, memberid, role.ID); err != nil {
			return fmt.Errorf("could not add role %s to member %s: %w", role.Name, memberid, err)
		}
	}
	return nil
}

func (e *discordEditor) RemoveRoles(guildid string, memberid string, roles ...league.Role) error {
	for _, role := range roles {
		if err := e.discord.GuildMemberRoleRemove(guildid, memberid, role.ID); err != nil {
			return fmt.Errorf("could not remove role %s from member %s: %w", role.Name, memberid, err)
		}
	}
	return nil
}

func (e *discordEditor) SetNickname(guildid string, memberid string, nick string) error {
	if err := e.discord.GuildMemberNickname(guildid, memberid, nick); err != nil {
		return fmt.Errorf("could not set nickname of member %s: %w", memberid, err)
	}
	return nil
}

// discordMessenger delivers direct messages and channel announcements,
// throttled by the rate limiter
type discordMessenger struct {
	discord *discordgo.Session
	prefix  string
	limiter *common.RateLimiter
}

func (m *discordMessenger) DirectMessage(guildid string, member league.Member, text string) error {

	// Decorate with the sender identity and the live command prefix
	guildName := guildid
	if guild, err := m.discord.State.Guild(guildid); err == nil {
		guildName = guild.Name
	}
	text = strings.ReplaceAll(text, "[p]", m.prefix)
	text = fmt.Sprintf("**Message from %s:**\n\n%s", guildName, text)

	m.limiter.Wait()
	channel, err := m.discord.UserChannelCreate(member.ID)
	if err != nil {
		return fmt.Errorf("could not open a dm channel with %s: %w", member.Name, err)
	}
	if _, err := m.discord.ChannelMessageSend(channel.ID, text); err != nil {
		return fmt.Errorf("could not send a dm to %s: %w", member.Name, err)
	}
	return nil
}

func (m *discordMessenger) Announce(guildid string, channelid string, text string) error {
	m.limiter.Wait()
	if _, err := m.discord.ChannelMessageSend(channelid, text); err != nil {
		return fmt.Errorf("could not post to channel %s: %w", channelid, err)
	}
	return nil
}
