package runtime

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-desk/domain/event"
)

type stubSink struct {
	pushed []event.DomainEvent
}

func (s *stubSink) Push(evt event.DomainEvent) error {
	s.pushed = append(s.pushed, evt)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_Register_And_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	sink := &stubSink{}

	// Given nobody is connected
	req.Zero(registry.Online())
	_, ok := registry.Lookup("alice")
	req.False(ok)

	// When alice connects
	registry.Register("alice", sink)

	// Then lookup resolves her sink
	got, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(sink, got)
	req.Equal(1, registry.Online())
}

func TestRegistry_Later_Register_Supersedes_Earlier(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	first := &stubSink{}
	second := &stubSink{}

	// Given two registrations for the same identity in sequence
	registry.Register("alice", first)
	registry.Register("alice", second)

	// Then only the second handle is live
	got, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(second, got)
	req.Equal(1, registry.Online())
}

func TestRegistry_Stale_Unregister_Does_Not_Evict_Newer_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	first := &stubSink{}
	second := &stubSink{}

	registry.Register("alice", first)
	registry.Register("alice", second)

	// When the superseded connection disconnects late
	registry.Unregister("alice", first)

	// Then the newer connection survives
	got, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(second, got)

	// And unregistering the live handle removes it
	registry.Unregister("alice", second)
	_, ok = registry.Lookup("alice")
	req.False(ok)
	req.Zero(registry.Online())
}

func TestRegistry_Unregister_Unknown_Identity_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())

	registry.Unregister("ghost", &stubSink{})
	req.Zero(registry.Online())
}
