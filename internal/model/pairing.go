package model

import "time"

// Pairing is the journal entry written when a match gains its second player
type Pairing struct {
	MatchID   MatchID        `json:"match_id"`
	Player1   ClientIdentity `json:"player1"`
	Player2   ClientIdentity `json:"player2"`
	CreatedAt time.Time      `json:"created_at"`
	PairedAt  time.Time      `json:"paired_at"`
}
