package response

import (
	"time"

	"github.com/mcoot/matchlobby/internal/model"
)

// Health is the response for the health endpoint
type Health struct {
	Status      string `json:"status"`
	Identities  int    `json:"identities"`
	Matches     int    `json:"matches"`
	OpenMatches int    `json:"open_matches"`
	QueueDepth  int    `json:"queue_depth"`
}

// Match represents an open match in API responses
type Match struct {
	ID      string  `json:"id"`
	Player1 string  `json:"player1"`
	Player2 *string `json:"player2"`
}

// MatchFromModel converts a model.ClientMatch
func MatchFromModel(m model.ClientMatch) Match {
	return Match{
		ID:      string(m.ID),
		Player1: m.Player1,
		Player2: m.Player2,
	}
}

// MatchList is the response for the match listing endpoint
type MatchList struct {
	Matches []Match `json:"matches"`
}

// MatchListFromModel converts a listing, keeping creation order
func MatchListFromModel(matches []model.ClientMatch) MatchList {
	out := make([]Match, len(matches))
	for i, m := range matches {
		out[i] = MatchFromModel(m)
	}
	return MatchList{Matches: out}
}

// Player is one side of a pairing
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Pairing represents a journal entry
type Pairing struct {
	MatchID   string    `json:"match_id"`
	Player1   Player    `json:"player1"`
	Player2   Player    `json:"player2"`
	CreatedAt time.Time `json:"created_at"`
	PairedAt  time.Time `json:"paired_at"`
}

// PairingFromModel converts a model.Pairing
func PairingFromModel(p *model.Pairing) Pairing {
	return Pairing{
		MatchID:   string(p.MatchID),
		Player1:   Player{ID: string(p.Player1.ID), Name: p.Player1.Name},
		Player2:   Player{ID: string(p.Player2.ID), Name: p.Player2.Name},
		CreatedAt: p.CreatedAt,
		PairedAt:  p.PairedAt,
	}
}

// PairingList is the response for the pairing journal endpoint
type PairingList struct {
	Pairings []Pairing `json:"pairings"`
}

// PairingListFromModel converts journal entries, keeping order
func PairingListFromModel(pairings []*model.Pairing) PairingList {
	out := make([]Pairing, len(pairings))
	for i, p := range pairings {
		out[i] = PairingFromModel(p)
	}
	return PairingList{Pairings: out}
}
