package factory

import (
	"context"
	"time"

	"github.com/mcoot/partyrooms/internal/dependencies/mocks"
	"github.com/mcoot/partyrooms/internal/gateway"
	"github.com/mcoot/partyrooms/internal/storage/memory"
	"github.com/mcoot/partyrooms/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockScheduler *mocks.ManualScheduler
	MemoryStorage *memory.Storage

	cancel context.CancelFunc
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Questions come from the built-in bank and the inactive-room sweep is off.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockScheduler := mocks.NewManualScheduler()

	gatewayCfg := gateway.DefaultConfig()
	gatewayCfg.CleanupInterval = 0

	app := newWithDependencies(store, mockClock, mockRandom, mockScheduler, Config{
		StorageType: StorageTypeMemory,
		Gateway:     gatewayCfg,
	}, testutil.NopLogger())

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockScheduler: mockScheduler,
		MemoryStorage: store,
	}
}

// Start runs the app in the background until Stop is called
func (t *TestApp) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	go t.Run(ctx)
}

// Stop shuts the app down and waits for the gateway loop to exit
func (t *TestApp) Stop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.Gateway.Done()
}

// Flush waits until the gateway has processed everything queued so far
func (t *TestApp) Flush() error {
	return t.Gateway.Flush(context.Background())
}
