package stream

import "fmt"

// Texts sent to members on workflow transitions. The literal `[p]` is
// replaced with the live command prefix on delivery

func ChallengedText(matchDay string, home string, away string, slot string, channel string) string {
	return fmt.Sprintf("You have been asked to play **match day %s** (%s vs. %s) on stream at the **%s time slot**. "+
		"Please respond to this request in the **#%s** channel with one of the following:"+
		"\n\t - To accept: `[p]streamapp accept %s`"+
		"\n\t - To reject: `[p]streamapp reject %s`"+
		"\nThis stream application will not be considered until you respond.",
		matchDay, home, away, slot, channel, matchDay, matchDay)
}

// General managers manage several teams, so their reply syntax carries the
// team name
func GMChallengedText(matchDay string, home string, away string, slot string, channel string, team string) string {
	return fmt.Sprintf("You have been asked to play **match day %s** (%s vs. %s) on stream at the **%s time slot**. "+
		"Please respond to this request in the **#%s** channel with one of the following:"+
		"\n\t - To accept: `[p]streamapp accept %s %s`"+
		"\n\t - To reject: `[p]streamapp reject %s %s`"+
		"\nThis stream application will not be considered until you respond.",
		matchDay, home, away, slot, channel, matchDay, team, matchDay, team)
}

func AcceptedText(matchDay string, home string, away string) string {
	return fmt.Sprintf(":white_check_mark: Your stream application for **match day %s** (%s vs. %s) has been accepted by your opponents, and is "+
		"now pending league approval. An additional message will be sent when a decision is made regarding this application.",
		matchDay, home, away)
}

func RejectedText(matchDay string, home string, away string) string {
	return fmt.Sprintf(":x: Your stream application for **match day %s** (%s vs. %s) has been rejected by your opponents, and will "+
		"not be considered moving forward.",
		matchDay, home, away)
}

func LeagueApprovedText(matchDay string, home string, away string, slot string) string {
	return fmt.Sprintf("**Congratulations!** You have been selected to play **match day %s** (%s vs. %s) on stream at "+
		"the **%s time slot**. Feel free to use the `[p]match %s` command in your designated bot input channel to see updated "+
		"details of this match. We look forward to seeing you on stream!",
		matchDay, home, away, slot, matchDay)
}

// Posted in the guild's stream channel when a match is scheduled
func ScheduledAnnouncementText(matchDay string, home string, away string, slot string) string {
	return fmt.Sprintf(":tv: **Match day %s** (%s vs. %s) will be played on stream at the **%s time slot**.",
		matchDay, home, away, slot)
}

func LeagueRejectedText(matchDay string, home string, away string) string {
	return fmt.Sprintf("Your application to play **match day %s** (%s vs. %s) on stream has been denied. "+
		"However, we will keep your application on file in case anything changes.",
		matchDay, home, away)
}
