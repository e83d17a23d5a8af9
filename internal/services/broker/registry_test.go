package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/matchlobby/internal/model"
)

func TestIdentityRegistry(t *testing.T) {
	r := NewIdentityRegistry()

	r.Put(model.Identity{ID: "u1", DisplayName: "Alice"})
	r.Put(model.Identity{ID: "u1", DisplayName: "Alicia"})

	got, ok := r.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "Alicia", got.DisplayName)
	assert.Equal(t, 1, r.Len())

	removed, ok := r.Remove("u1")
	require.True(t, ok)
	assert.Equal(t, "Alicia", removed.DisplayName)

	_, ok = r.Remove("u1")
	assert.False(t, ok)
	assert.False(t, r.Has("u1"))
	assert.Equal(t, 0, r.Len())
}

func TestMatchRegistryOrderedBySequence(t *testing.T) {
	r := NewMatchRegistry()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	r.Insert("c", "u1", now)
	r.Insert("a", "u2", now)
	r.Insert("b", "u1", now)

	var ids []model.MatchID
	for _, m := range r.Ordered() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []model.MatchID{"c", "a", "b"}, ids)
}

func TestMatchRegistryGetReturnsStoredRecord(t *testing.T) {
	r := NewMatchRegistry()
	r.Insert("m1", "u1", time.Now())

	m, ok := r.Get("m1")
	require.True(t, ok)
	p2 := model.IdentityID("u2")
	m.Player2 = &p2

	again, _ := r.Get("m1")
	assert.False(t, again.IsOpen())
}

func TestMatchRegistryRemoveWhere(t *testing.T) {
	r := NewMatchRegistry()
	now := time.Now()
	r.Insert("m1", "u1", now)
	r.Insert("m2", "u2", now)
	r.Insert("m3", "u1", now)

	removed := r.RemoveWhere(func(m *model.Match) bool {
		return m.Player1 == "u1"
	})

	assert.Equal(t, []model.MatchID{"m1", "m3"}, removed)
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Has("m2"))
}
