package bot

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"leaguebot/internal/common"
	"leaguebot/internal/league"
	"leaguebot/internal/store"
	"leaguebot/internal/stream"
	"leaguebot/internal/transactions"
)

type Bot struct {
	token     string
	prefix    string
	adminRole string
	store     store.GuildStore
	locks     *common.KeyedMutex
	limiter   *common.RateLimiter

	// Built once the discord session exists
	registry     *league.Registry
	streams      *stream.Manager
	transactions *transactions.Manager
	messenger    *discordMessenger

	// Guilds seen so far, for housekeeping
	mu     sync.Mutex
	guilds map[string]struct{}

	housekeepingExecutor common.TimedExecutor
	mainCycle            time.Duration
}

func CreateBot(cfg Config, guildStore store.GuildStore) (*Bot, error) {

	bot := &Bot{}

	bot.token = cfg.Token
	bot.prefix = cfg.Prefix
	bot.adminRole = cfg.AdminRole
	bot.store = guildStore
	// Writes to the guild store are serialized per guild
	bot.locks = common.NewKeyedMutex()
	// Outgoing messages respect the configured restrictions
	bot.limiter = common.NewRateLimiter(cfg.Restrictions)
	bot.guilds = map[string]struct{}{}
	bot.housekeepingExecutor = common.NewTimedExecutor(cfg.Housekeeping, bot.housekeeping)
	bot.mainCycle = cfg.MainCycle

	return bot, nil
}

func (bot *Bot) Run() error {
	// Create session
	discord, err := discordgo.New("Bot " + bot.token)
	if err != nil {
		return fmt.Errorf("could not create discord session: %w", err)
	}
	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	// Wire the workflows to the session
	guild := &discordGuild{discord}
	bot.registry = league.NewRegistry(bot.store, guild)
	bot.messenger = &discordMessenger{discord: discord, prefix: bot.prefix, limiter: bot.limiter}
	bot.streams = stream.NewManager(bot.store, bot.registry, bot.messenger, bot.messenger, bot.locks)
	bot.transactions = transactions.NewManager(bot.store, bot.registry, &discordEditor{discord}, bot.messenger)

	// Event handler
	discord.AddHandler(bot.Receive)

	// Open session
	if err := discord.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	defer discord.Close()

	// Housekeeping runs on the main cycle
	ticker := time.NewTicker(bot.mainCycle)
	defer ticker.Stop()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				bot.housekeepingExecutor.Execute()
			case <-done:
				return
			}
		}
	}()

	// Keep the bot running until there is an os interruption (ctrl + C)
	log.Info().Msg("Bot is running")
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	close(done)

	return nil
}

func (bot *Bot) Receive(discord *discordgo.Session, message *discordgo.MessageCreate) {

	// Reject my own messages
	if message.Author.ID == discord.State.User.ID {
		return
	}

	// Ignore messages from private channels
	if message.GuildID == "" {
		log.Debug().Msg("Ignoring private message")
		bot.sendResponses(discord, message.ChannelID, []Response{ResponseString{"I only take commands in a server channel."}})
		return
	}

	// Remember the guild for housekeeping
	bot.mu.Lock()
	if _, ok := bot.guilds[message.GuildID]; !ok {
		log.Info().Msgf("Seeing guild %s for the first time", message.GuildID)
		bot.guilds[message.GuildID] = struct{}{}
	}
	bot.mu.Unlock()

	// Parse the input provided and call the appropriate function
	parseResult := Parse(bot.prefix, message.Content)
	switch parseResult.parseid {
	case PARSEID_NO_BOT_PREFIX:
		return
	case PARSEID_OK:
		log.Debug().Msgf("Command understood: %s", message.Content)
		bot.sendResponses(discord, message.ChannelID, bot.dispatch(discord, message, parseResult))
	default:
		// The command is invalid input, so it contains an error message
		log.Debug().Msgf("Wrong input: '%s'. Reason: %s", message.Content, parseResult.errorMessage)
		bot.sendResponses(discord, message.ChannelID, InputNotValid(parseResult.errorMessage))
	}
}

func (bot *Bot) dispatch(discord *discordgo.Session, message *discordgo.MessageCreate, parseResult ParseResult) []Response {

	guildid := message.GuildID
	actor, err := bot.registry.Member(guildid, message.Author.ID)
	if err != nil {
		return ErrorResponse(err)
	}

	// Transaction and review commands need the admin role
	switch parseResult.command {
	case COMMAND_REVIEWAPPS, COMMAND_CLEARAPPS, COMMAND_APPROVEAPP, COMMAND_DRAFT,
		COMMAND_SIGN, COMMAND_CUT, COMMAND_TRADE, COMMAND_SUB, COMMAND_PROMOTE:
		if !bot.isAdmin(guildid, actor) {
			return NoPermission()
		}
	}

	switch parseResult.command {
	case COMMAND_VIEWAPPS:
		args := parseResult.arguments.(ViewAppsArgs)
		return bot.viewApps(guildid, args, false)
	case COMMAND_REVIEWAPPS:
		args := parseResult.arguments.(ViewAppsArgs)
		return bot.viewApps(guildid, args, true)
	case COMMAND_STREAMAPP:
		args := parseResult.arguments.(StreamAppArgs)
		return bot.streamApp(discord, message, actor, args)
	case COMMAND_CLEARAPPS:
		if err := bot.streams.Clear(guildid); err != nil {
			return ErrorResponse(err)
		}
		return Done()
	case COMMAND_APPROVEAPP:
		args := parseResult.arguments.(ApproveAppArgs)
		return bot.approveApp(guildid, args)
	case COMMAND_DRAFT:
		args := parseResult.arguments.(DraftArgs)
		return bot.transaction(guildid, args.MemberID, func(member league.Member) (transactions.Result, error) {
			return bot.transactions.Draft(guildid, member, args.Team, args.Round, args.Pick)
		})
	case COMMAND_SIGN:
		args := parseResult.arguments.(RosterArgs)
		return bot.transaction(guildid, args.MemberID, func(member league.Member) (transactions.Result, error) {
			return bot.transactions.Sign(guildid, member, args.Team)
		})
	case COMMAND_CUT:
		args := parseResult.arguments.(CutArgs)
		return bot.transaction(guildid, args.MemberID, func(member league.Member) (transactions.Result, error) {
			return bot.transactions.Cut(guildid, member, args.Team, args.FreeAgentRole)
		})
	case COMMAND_TRADE:
		args := parseResult.arguments.(TradeArgs)
		member2, err := bot.registry.Member(guildid, args.MemberID2)
		if err != nil {
			return ErrorResponse(err)
		}
		return bot.transaction(guildid, args.MemberID1, func(member league.Member) (transactions.Result, error) {
			return bot.transactions.Trade(guildid, member, args.Team1, member2, args.Team2)
		})
	case COMMAND_SUB:
		args := parseResult.arguments.(RosterArgs)
		return bot.transaction(guildid, args.MemberID, func(member league.Member) (transactions.Result, error) {
			return bot.transactions.Sub(guildid, member, args.Team)
		})
	case COMMAND_PROMOTE:
		args := parseResult.arguments.(RosterArgs)
		return bot.transaction(guildid, args.MemberID, func(member league.Member) (transactions.Result, error) {
			return bot.transactions.Promote(guildid, member, args.Team)
		})
	case COMMAND_HELP:
		return HelpMessage(bot.prefix)
	default:
		panic(fmt.Sprintf("Command %d is not one of the possible ones", parseResult.command))
	}
}

func (bot *Bot) viewApps(guildid string, args ViewAppsArgs, completedOnly bool) []Response {

	filter := stream.Filter{MatchDay: args.MatchDay, Slot: args.Slot, CompletedOnly: completedOnly}
	entries, err := bot.streams.List(guildid, filter)
	if err != nil {
		return ErrorResponse(err)
	}
	if responses := AppsEmbed(entries, filter); responses != nil {
		return responses
	}
	if completedOnly {
		return NoCompletedApps()
	}
	return NoPendingApps()
}

func (bot *Bot) streamApp(discord *discordgo.Session, message *discordgo.MessageCreate, actor league.Member, args StreamAppArgs) []Response {

	guildid := message.GuildID
	team, isGM, failures := bot.resolveTeam(guildid, actor, args.Team)
	if failures != nil {
		return failures
	}

	switch args.Action {
	case "apply":
		if args.Slot == "" {
			return SlotRequired()
		}
		channelName, err := bot.getChannelName(discord, guildid, message.ChannelID)
		if err != nil {
			channelName = "bot input"
		}
		result, err := bot.streams.Submit(guildid, channelName, actor, team, args.MatchDay, args.Slot)
		if err != nil {
			return ErrorResponse(err)
		}
		responses := Done()
		if result.Delivery != nil {
			responses = append(responses, DeliveryWarning())
		}
		return responses
	default:
		// The responder only filters by team when they manage several of them
		respondingTeam := ""
		if isGM {
			respondingTeam = team
		}
		accept := args.Action == "accept"
		result, err := bot.streams.Respond(guildid, actor, args.MatchDay, accept, respondingTeam)
		if err != nil {
			return ErrorResponse(err)
		}
		var responses []Response
		if result.Accepted {
			responses = ApplicationUpdated(args.MatchDay)
		} else {
			responses = ApplicationRemoved(args.MatchDay)
		}
		if result.Delivery != nil {
			responses = append(responses, DeliveryWarning())
		}
		return responses
	}
}

func (bot *Bot) approveApp(guildid string, args ApproveAppArgs) []Response {

	result, err := bot.streams.Decide(guildid, args.MatchDay, args.Team, args.Approve)
	if err != nil {
		return ErrorResponse(err)
	}
	responses := Done()
	if result.Delivery != nil {
		responses = append(responses, DeliveryWarning())
	}
	return responses
}

func (bot *Bot) transaction(guildid string, memberid string, operation func(league.Member) (transactions.Result, error)) []Response {

	member, err := bot.registry.Member(guildid, memberid)
	if err != nil {
		return ErrorResponse(err)
	}
	result, err := operation(member)
	if err != nil {
		return ErrorResponse(err)
	}
	responses := Done()
	if result.Delivery != nil {
		responses = append(responses, AnnounceWarning())
	}
	return responses
}

// resolveTeam decides which team the actor speaks for, before any workflow
// dispatch. Regular players resolve to their single team from their roles.
// General managers manage several teams and must name one, which has to
// belong to their franchise
func (bot *Bot) resolveTeam(guildid string, actor league.Member, explicit string) (string, bool, []Response) {

	isGM, err := bot.registry.IsGeneralManager(guildid, actor)
	if err != nil {
		return "", false, ErrorResponse(err)
	}
	if !isGM {
		team, err := bot.registry.CurrentTeam(guildid, actor)
		if err != nil {
			if errors.Is(err, league.ErrNoCurrentTeam) {
				return "", false, NotOnAnyTeam(actor.Name)
			}
			return "", false, ErrorResponse(err)
		}
		return team, false, nil
	}

	if explicit == "" {
		return "", true, ErrorResponse(stream.ErrMissingTeamContext)
	}
	franchise, _, err := bot.registry.RolesForTeam(guildid, explicit)
	if err != nil {
		return "", true, ErrorResponse(err)
	}
	if !actor.HasRole(franchise) {
		return "", true, TeamNotInFranchise(explicit, franchise.Name)
	}
	return explicit, true, nil
}

func (bot *Bot) isAdmin(guildid string, member league.Member) bool {
	role, err := bot.registry.RoleByName(guildid, bot.adminRole)
	if err != nil {
		log.Warn().Msgf("Guild %s has no %s role", guildid, bot.adminRole)
		return false
	}
	return member.HasRole(role)
}

func (bot *Bot) sendResponses(discord *discordgo.Session, channelid string, responses []Response) {
	for _, response := range responses {
		response.Send(channelid, discord)
	}
}

func (bot *Bot) getChannelName(discord *discordgo.Session, guildid string, channelid string) (string, error) {

	channels, err := discord.GuildChannels(guildid)
	if err != nil {
		return "", fmt.Errorf("could not extract list of channels of guild id %s", guildid)
	}
	for _, ch := range channels {
		if ch.ID == channelid {
			return ch.Name, nil
		}
	}
	return "", fmt.Errorf("no channel name found for channel id %s", channelid)
}

// housekeeping compacts the application store of every guild seen so far
func (bot *Bot) housekeeping() {

	bot.mu.Lock()
	guildids := make([]string, 0, len(bot.guilds))
	for guildid := range bot.guilds {
		guildids = append(guildids, guildid)
	}
	bot.mu.Unlock()

	for _, guildid := range guildids {
		if err := bot.streams.Compact(guildid); err != nil {
			log.Warn().Msgf("Housekeeping failed for guild %s: %v", guildid, err)
		}
	}
}
