package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/matchlobby/internal/model"
	"github.com/mcoot/matchlobby/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	pairings map[model.MatchID]*model.Pairing
	order    []model.MatchID // insertion order
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		pairings: make(map[model.MatchID]*model.Pairing),
	}
}

// Ensure Storage implements the interface
var _ storage.PairingStore = (*Storage)(nil)

func (s *Storage) SavePairing(ctx context.Context, pairing *model.Pairing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pairings[pairing.MatchID]; !ok {
		s.order = append(s.order, pairing.MatchID)
	}
	stored := *pairing
	s.pairings[pairing.MatchID] = &stored
	return nil
}

func (s *Storage) GetPairing(ctx context.Context, id model.MatchID) (*model.Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pairing, ok := s.pairings[id]
	if !ok {
		return nil, model.ErrPairingNotFound
	}
	result := *pairing
	return &result, nil
}

func (s *Storage) ListPairings(ctx context.Context, limit int) ([]*model.Pairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Pairing, 0, len(s.order))
	for _, id := range s.order {
		p := *s.pairings[id]
		result = append(result, &p)
	}

	// Newest first; ties keep reverse insertion order
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PairedAt.After(result[j].PairedAt)
	})
	reverseTies(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// reverseTies reverses each run of equal PairedAt values so the most
// recently saved entry comes first within the run
func reverseTies(pairings []*model.Pairing) {
	for start := 0; start < len(pairings); {
		end := start + 1
		for end < len(pairings) && pairings[end].PairedAt.Equal(pairings[start].PairedAt) {
			end++
		}
		for i, j := start, end-1; i < j; i, j = i+1, j-1 {
			pairings[i], pairings[j] = pairings[j], pairings[i]
		}
		start = end
	}
}
