package broker

import (
	"sort"
	"time"

	"github.com/mcoot/matchlobby/internal/model"
)

// IdentityRegistry maps identity ids to connected identities.
// It is owned by the broker loop and is not safe for concurrent use.
type IdentityRegistry struct {
	entries map[model.IdentityID]model.Identity
}

// NewIdentityRegistry creates an empty IdentityRegistry
func NewIdentityRegistry() *IdentityRegistry {
	return &IdentityRegistry{
		entries: make(map[model.IdentityID]model.Identity),
	}
}

// Put inserts or overwrites the entry for identity.ID
func (r *IdentityRegistry) Put(identity model.Identity) {
	r.entries[identity.ID] = identity
}

// Get returns the identity with the given id
func (r *IdentityRegistry) Get(id model.IdentityID) (model.Identity, bool) {
	identity, ok := r.entries[id]
	return identity, ok
}

// Has reports whether the identity is connected
func (r *IdentityRegistry) Has(id model.IdentityID) bool {
	_, ok := r.entries[id]
	return ok
}

// Remove deletes the identity and returns what was removed.
// Removing an absent id is a no-op that returns false.
func (r *IdentityRegistry) Remove(id model.IdentityID) (model.Identity, bool) {
	identity, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return identity, ok
}

// Len returns the number of connected identities
func (r *IdentityRegistry) Len() int {
	return len(r.entries)
}

// MatchRegistry maps match ids to mutable match records.
// It is owned by the broker loop and is not safe for concurrent use.
type MatchRegistry struct {
	entries map[model.MatchID]*model.Match
	nextSeq uint64
}

// NewMatchRegistry creates an empty MatchRegistry
func NewMatchRegistry() *MatchRegistry {
	return &MatchRegistry{
		entries: make(map[model.MatchID]*model.Match),
	}
}

// Insert creates an open match for player1 and returns the stored record
func (r *MatchRegistry) Insert(id model.MatchID, player1 model.IdentityID, now time.Time) *model.Match {
	r.nextSeq++
	m := model.NewMatch(id, player1, r.nextSeq, now)
	r.entries[id] = m
	return m
}

// Get returns the stored record for id. Mutations to the returned record are
// mutations of the registry entry.
func (r *MatchRegistry) Get(id model.MatchID) (*model.Match, bool) {
	m, ok := r.entries[id]
	return m, ok
}

// Has reports whether a match with the given id exists
func (r *MatchRegistry) Has(id model.MatchID) bool {
	_, ok := r.entries[id]
	return ok
}

// Ordered returns all matches in creation order
func (r *MatchRegistry) Ordered() []*model.Match {
	matches := make([]*model.Match, 0, len(r.entries))
	for _, m := range r.entries {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Seq < matches[j].Seq
	})
	return matches
}

// RemoveWhere deletes every match for which pred returns true and returns
// the removed ids in creation order
func (r *MatchRegistry) RemoveWhere(pred func(m *model.Match) bool) []model.MatchID {
	var removed []model.MatchID
	for _, m := range r.Ordered() {
		if pred(m) {
			delete(r.entries, m.ID)
			removed = append(removed, m.ID)
		}
	}
	return removed
}

// Len returns the number of match records
func (r *MatchRegistry) Len() int {
	return len(r.entries)
}
