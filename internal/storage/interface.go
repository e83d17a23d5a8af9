package storage

import (
	"context"

	"github.com/mcoot/matchlobby/internal/model"
)

// PairingStore persists the journal of completed pairings.
// The live identity and match registries never go through storage.
type PairingStore interface {
	SavePairing(ctx context.Context, pairing *model.Pairing) error
	GetPairing(ctx context.Context, id model.MatchID) (*model.Pairing, error)
	// ListPairings returns up to limit pairings, newest first. limit <= 0 means all.
	ListPairings(ctx context.Context, limit int) ([]*model.Pairing, error)
}
