package factory

import (
	"time"

	"github.com/mcoot/matchlobby/internal/dependencies/mocks"
	"github.com/mcoot/matchlobby/internal/dependencies/names"
	"github.com/mcoot/matchlobby/internal/storage/memory"
	"github.com/mcoot/matchlobby/internal/web/ws"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates a started App with mocked dependencies and an
// in-memory journal. Callers must call Stop.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	sessionCfg := ws.DefaultConfig()
	sessionCfg.PingInterval = 20 * time.Millisecond
	sessionCfg.CommandTimeout = time.Second

	app := newWithDependencies(store, mockClock, mockRandom, names.New(mockRandom), Config{
		SessionConfig: &sessionCfg,
	})
	app.Start()

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
