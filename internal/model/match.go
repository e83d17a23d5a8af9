package model

import "time"

// MatchID uniquely identifies a match record
type MatchID string

// Match is the authoritative record of a proposed pairing between two identities.
// Player1 is fixed at creation; Player2 is nil until a successful join.
type Match struct {
	ID        MatchID
	Player1   IdentityID
	Player2   *IdentityID
	Seq       uint64 // creation order, used for stable listing
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMatch creates an open match owned by player1
func NewMatch(id MatchID, player1 IdentityID, seq uint64, now time.Time) *Match {
	return &Match{
		ID:        id,
		Player1:   player1,
		Player2:   nil,
		Seq:       seq,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOpen reports whether the second slot is still free
func (m *Match) IsOpen() bool {
	return m.Player2 == nil
}

// Participants returns the identities currently in the match
func (m *Match) Participants() []IdentityID {
	if m.Player2 == nil {
		return []IdentityID{m.Player1}
	}
	return []IdentityID{m.Player1, *m.Player2}
}

// ClientMatch is the listing projection of a match. Names are resolved at
// read time from the identity registry, never cached on the record.
type ClientMatch struct {
	ID      MatchID `json:"id"`
	Player1 string  `json:"player1"`
	Player2 *string `json:"player2"`
}
