package broker

import (
	"github.com/mcoot/matchlobby/internal/model"
)

// Command is a value object executed by the broker loop. The set of commands
// is closed; see Broker.execute.
type Command interface {
	commandName() string
}

// Connect registers (or overwrites) an identity
type Connect struct {
	ID       model.IdentityID
	Name     string
	Outbound model.Outbound
}

// Disconnect removes an identity. Unknown ids are ignored.
type Disconnect struct {
	ID model.IdentityID
}

// CreateMatch opens a new match owned by UserID
type CreateMatch struct {
	UserID model.IdentityID
}

// JoinMatch places UserID in the second slot of MatchID
type JoinMatch struct {
	MatchID model.MatchID
	UserID  model.IdentityID
}

// ListMatches returns the open matches whose creator is still connected
type ListMatches struct{}

// Stats returns registry counters
type Stats struct{}

func (Connect) commandName() string     { return "connect" }
func (Disconnect) commandName() string  { return "disconnect" }
func (CreateMatch) commandName() string { return "create_match" }
func (JoinMatch) commandName() string   { return "join_match" }
func (ListMatches) commandName() string { return "list_matches" }
func (Stats) commandName() string       { return "stats" }

func nameOf(cmd Command) string {
	if cmd == nil {
		return "nil"
	}
	return cmd.commandName()
}

// Snapshot is the reply to Stats
type Snapshot struct {
	Identities  int `json:"identities"`
	Matches     int `json:"matches"`
	OpenMatches int `json:"open_matches"`
	QueueDepth  int `json:"queue_depth"`
}

// result carries the outcome of an asked command back to the caller
type result struct {
	value any
	err   error
}

// envelope is what travels through the broker queue. reply is nil for
// notify-mode commands and buffered with capacity 1 for ask-mode commands.
type envelope struct {
	cmd   Command
	reply chan result
}
