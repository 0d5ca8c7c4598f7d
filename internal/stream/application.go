package stream

import (
	"github.com/google/uuid"

	"leaguebot/internal/league"
)

type Status string

const (
	StatusPendingOpponentConfirmation Status = "PENDING_OPPONENT_CONFIRMATION"
	StatusPendingLeagueApproval       Status = "PENDING_LEAGUE_APPROVAL"
	StatusScheduledOnStream           Status = "SCHEDULED_ON_STREAM"
	StatusRejected                    Status = "REJECTED"
)

// Allowed status transitions. Rejections remove the record instead of
// transitioning it, so StatusRejected has no entry
var transitions = map[Status][]Status{
	StatusPendingOpponentConfirmation: {StatusPendingLeagueApproval},
	StatusPendingLeagueApproval:       {StatusScheduledOnStream},
}

// CanBecome reports whether the transition from s to next is allowed
func (s Status) CanBecome(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Application is one request to play a given match on stream
type Application struct {
	ID               uuid.UUID `json:"id"`
	Status           Status    `json:"status"`
	RequestedBy      string    `json:"requested_by"`
	RequestRecipient string    `json:"request_recipient"`
	Home             string    `json:"home"`
	Away             string    `json:"away"`
	Slot             string    `json:"slot"`
}

// Active reports whether the application still blocks new applications for
// the same match
func (app *Application) Active() bool {
	return app.Status != StatusRejected
}

// Applications maps a match day to the application records for that day
type Applications map[string][]Application

// FindActive returns the active application for the given match, if any
func (apps Applications) FindActive(match league.Match) (Application, bool) {
	for _, app := range apps[match.Day] {
		if app.Home == match.Home && app.Away == match.Away && app.Active() {
			return app, true
		}
	}
	return Application{}, false
}

// Remove deletes the record with the given id from the match day bucket,
// dropping the bucket once it empties
func (apps Applications) Remove(matchDay string, id uuid.UUID) {
	records := apps[matchDay]
	for i, app := range records {
		if app.ID == id {
			apps[matchDay] = append(records[:i], records[i+1:]...)
			break
		}
	}
	if len(apps[matchDay]) == 0 {
		delete(apps, matchDay)
	}
}
