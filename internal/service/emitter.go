package service

import (
	"context"
	"log/slog"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: change notifications out of the stores
// ─────────────────────────────────────────────────────────────

// Events emitted after a successful commit.
const (
	EventWorkspaceChanged = "workspace:changed"
	EventFolderChanged    = "folder:changed"
	EventPageChanged      = "page:changed"
	EventBlocksChanged    = "blocks:changed"
	EventGraphReloaded    = "graph:reloaded"
)

// EventEmitter receives change events. Services take this interface so
// they can be tested with MockEmitter and hosted without any listener.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, any) {}

// LogEmitter writes every event to a logger at debug level.
type LogEmitter struct {
	Logger *slog.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	e.Logger.Debug("event", "name", event, "data", data)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event
	}
	return out
}
