package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	COMMAND_VIEWAPPS   = iota
	COMMAND_STREAMAPP  = iota
	COMMAND_CLEARAPPS  = iota
	COMMAND_REVIEWAPPS = iota
	COMMAND_APPROVEAPP = iota
	COMMAND_DRAFT      = iota
	COMMAND_SIGN       = iota
	COMMAND_CUT        = iota
	COMMAND_TRADE      = iota
	COMMAND_SUB        = iota
	COMMAND_PROMOTE    = iota
	COMMAND_HELP       = iota
)

const (
	PARSEID_OK                     = iota
	PARSEID_NO_BOT_PREFIX          = iota
	PARSEID_NO_COMMAND             = iota
	PARSEID_COMMAND_NOT_RECOGNISED = iota
	PARSEID_NO_INPUT               = iota
	PARSEID_NOT_AN_ACTION          = iota
	PARSEID_NOT_A_MEMBER           = iota
	PARSEID_NOT_A_NUMBER           = iota
)

var errorMessages map[int]string = map[int]string{
	PARSEID_NO_COMMAND:             "No command provided",
	PARSEID_COMMAND_NOT_RECOGNISED: "Command `%s` not recognised",
	PARSEID_NO_INPUT:               "Command `%s` requires more arguments",
	PARSEID_NOT_AN_ACTION:          "`%s` is not a recognized action. Please either _apply_, _accept_ or _reject_",
	PARSEID_NOT_A_MEMBER:           "`%s` is not a member mention",
	PARSEID_NOT_A_NUMBER:           "`%s` is not a number",
}

type ParseResult struct {
	command      int
	parseid      int
	errorMessage string
	arguments    interface{}
}

// Arguments of viewapps and reviewapps. Empty fields broaden the listing
type ViewAppsArgs struct {
	MatchDay string
	Slot     string
}

// Arguments of streamapp, resolved into an explicit structure instead of the
// positional shifting the command syntax allows. Team is only set when
// provided, and only general managers are required to provide it
type StreamAppArgs struct {
	Action   string
	MatchDay string
	Slot     string
	Team     string
}

// Arguments of approveapp
type ApproveAppArgs struct {
	MatchDay string
	Team     string
	Approve  bool
}

// Arguments of sign, sub and promote
type RosterArgs struct {
	MemberID string
	Team     string
}

type DraftArgs struct {
	MemberID string
	Team     string
	Round    int
	Pick     int
}

type CutArgs struct {
	MemberID string
	Team     string
	// FreeAgentRole overrides the "<Tier>FA" default when given
	FreeAgentRole string
}

type TradeArgs struct {
	MemberID1 string
	Team1     string
	MemberID2 string
	Team2     string
}

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

func Parse(prefix string, message string) ParseResult {

	// The message has to start with the bot prefix
	if !strings.HasPrefix(message, prefix) {
		log.Debug().Msg("Reject message not intended for the bot")
		return ParseResult{parseid: PARSEID_NO_BOT_PREFIX}
	}

	// Get the command if valid
	words := strings.Fields(strings.TrimSpace(message[len(prefix):]))
	if len(words) == 0 {
		parseid := PARSEID_NO_COMMAND
		return ParseResult{parseid: parseid, errorMessage: errorMessages[parseid]}
	}
	commandString := strings.ToLower(words[0])
	words = words[1:]

	// Match the command

	switch commandString {
	case "viewapps", "applications", "getapps", "listapps", "apps":
		// [p]viewapps [match_day] [time_slot]
		return parseViewApps(COMMAND_VIEWAPPS, words)
	case "reviewapps", "reviewapplications":
		// [p]reviewapps [match_day] [time_slot]
		return parseViewApps(COMMAND_REVIEWAPPS, words)
	case "streamapp", "streamapply", "streamapplications":
		// [p]streamapp apply <match_day> <time_slot> [team]
		// [p]streamapp <accept|reject> <match_day> [team]
		return parseStreamApp(commandString, words)
	case "clearapps", "removeapps":
		// [p]clearapps
		return ParseResult{command: COMMAND_CLEARAPPS, parseid: PARSEID_OK}
	case "approveapp", "approveapps":
		// [p]approveapp <match_day> <team> <approve|deny>
		return parseApproveApp(commandString, words)
	case "draft":
		// [p]draft <member> <team> [round] [pick]
		return parseDraft(commandString, words)
	case "sign":
		// [p]sign <member> <team>
		return parseRoster(COMMAND_SIGN, commandString, words)
	case "cut":
		// [p]cut <member> <team> [free_agent_role]
		result := parseRoster(COMMAND_CUT, commandString, words)
		if result.parseid != PARSEID_OK {
			return result
		}
		roster := result.arguments.(RosterArgs)
		args := CutArgs{MemberID: roster.MemberID, Team: roster.Team}
		if len(words) > 2 {
			args.FreeAgentRole = strings.Join(words[2:], " ")
		}
		return ParseResult{command: COMMAND_CUT, parseid: PARSEID_OK, arguments: args}
	case "trade":
		// [p]trade <member> <team> <member> <team>
		return parseTrade(commandString, words)
	case "sub":
		// [p]sub <member> <team>
		return parseRoster(COMMAND_SUB, commandString, words)
	case "promote":
		// [p]promote <member> <team>
		return parseRoster(COMMAND_PROMOTE, commandString, words)
	case "help":
		// [p]help
		return ParseResult{command: COMMAND_HELP, parseid: PARSEID_OK}
	default:
		parseid := PARSEID_COMMAND_NOT_RECOGNISED
		return ParseResult{parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
	}
}

func parseViewApps(command int, words []string) ParseResult {
	args := ViewAppsArgs{}
	if len(words) > 0 {
		args.MatchDay = words[0]
	}
	if len(words) > 1 {
		args.Slot = words[1]
	}
	return ParseResult{command: command, parseid: PARSEID_OK, arguments: args}
}

func parseStreamApp(commandString string, words []string) ParseResult {

	command := COMMAND_STREAMAPP
	if len(words) < 2 {
		parseid := PARSEID_NO_INPUT
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
	}

	args := StreamAppArgs{Action: strings.ToLower(words[0]), MatchDay: words[1]}
	switch args.Action {
	case "apply":
		if len(words) < 3 {
			parseid := PARSEID_NO_INPUT
			return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
		}
		args.Slot = words[2]
		if len(words) > 3 {
			args.Team = strings.Join(words[3:], " ")
		}
	case "accept", "reject":
		if len(words) > 2 {
			args.Team = strings.Join(words[2:], " ")
		}
	default:
		parseid := PARSEID_NOT_AN_ACTION
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], args.Action)}
	}
	return ParseResult{command: command, parseid: PARSEID_OK, arguments: args}
}

func parseApproveApp(commandString string, words []string) ParseResult {

	command := COMMAND_APPROVEAPP
	if len(words) < 3 {
		parseid := PARSEID_NO_INPUT
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
	}
	verdict := strings.ToLower(words[len(words)-1])
	if verdict != "approve" && verdict != "deny" {
		parseid := PARSEID_NOT_AN_ACTION
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf("`%s` is not a verdict. Please either _approve_ or _deny_", verdict)}
	}
	args := ApproveAppArgs{
		MatchDay: words[0],
		Team:     strings.Join(words[1:len(words)-1], " "),
		Approve:  verdict == "approve",
	}
	return ParseResult{command: command, parseid: PARSEID_OK, arguments: args}
}

func parseRoster(command int, commandString string, words []string) ParseResult {

	if len(words) < 2 {
		parseid := PARSEID_NO_INPUT
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
	}
	memberid, ok := parseMention(words[0])
	if !ok {
		parseid := PARSEID_NOT_A_MEMBER
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], words[0])}
	}
	return ParseResult{command: command, parseid: PARSEID_OK, arguments: RosterArgs{MemberID: memberid, Team: words[1]}}
}

func parseDraft(commandString string, words []string) ParseResult {

	command := COMMAND_DRAFT
	result := parseRoster(command, commandString, words)
	if result.parseid != PARSEID_OK {
		return result
	}
	roster := result.arguments.(RosterArgs)
	args := DraftArgs{MemberID: roster.MemberID, Team: roster.Team}

	var err error
	if len(words) > 2 {
		if args.Round, err = strconv.Atoi(words[2]); err != nil {
			parseid := PARSEID_NOT_A_NUMBER
			return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], words[2])}
		}
	}
	if len(words) > 3 {
		if args.Pick, err = strconv.Atoi(words[3]); err != nil {
			parseid := PARSEID_NOT_A_NUMBER
			return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], words[3])}
		}
	}
	return ParseResult{command: command, parseid: PARSEID_OK, arguments: args}
}

func parseTrade(commandString string, words []string) ParseResult {

	command := COMMAND_TRADE
	if len(words) < 4 {
		parseid := PARSEID_NO_INPUT
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], commandString)}
	}
	memberid1, ok := parseMention(words[0])
	if !ok {
		parseid := PARSEID_NOT_A_MEMBER
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], words[0])}
	}
	memberid2, ok := parseMention(words[2])
	if !ok {
		parseid := PARSEID_NOT_A_MEMBER
		return ParseResult{command: command, parseid: parseid, errorMessage: fmt.Sprintf(errorMessages[parseid], words[2])}
	}
	args := TradeArgs{MemberID1: memberid1, Team1: words[1], MemberID2: memberid2, Team2: words[3]}
	return ParseResult{command: command, parseid: PARSEID_OK, arguments: args}
}

func parseMention(word string) (string, bool) {
	groups := mentionPattern.FindStringSubmatch(word)
	if groups == nil {
		return "", false
	}
	return groups[1], true
}
