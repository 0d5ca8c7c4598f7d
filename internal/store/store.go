package store

import "errors"

// Keys under which the bot keeps its per-guild state
const (
	KeyApplications       = "Applications"
	KeySchedule           = "Schedule"
	KeyTimeSlots          = "Time_Slots"
	KeyStreamChannel      = "Stream_Channel"
	KeyTransactionChannel = "Transaction_Channel"
	KeyTeams              = "Teams"
	KeyFreeAgentRoles     = "Free_Agent_Roles"
	KeyPrefixes           = "Prefixes"
)

var ErrNotFound = errors.New("key not found")

// GuildStore is a key-value store scoped per guild. Values are read and
// written wholesale; there is no partial-update API
type GuildStore interface {
	// Get decodes the value stored for the guild under the given key into v.
	// Returns ErrNotFound if nothing has been stored yet
	Get(guildid string, key string, v interface{}) error
	// Put stores v for the guild under the given key, replacing any
	// previous value
	Put(guildid string, key string, v interface{}) error
	// Delete removes the value for the guild under the given key
	Delete(guildid string, key string) error
}
