// Package service implements the application operations on top of the
// library coordinator, the ingestion pipeline and the layout engine. HTTP
// handlers and the command line tools talk to services only.
package service

import (
	"github.com/shutterboxapp/shutterbox/internal/domain"
	"github.com/shutterboxapp/shutterbox/internal/library"
	"github.com/shutterboxapp/shutterbox/internal/sse"
)

// Emitter publishes UI notifications. *sse.Manager implements it.
type Emitter interface {
	Emit(event sse.Event)
}

type noopEmitter struct{}

func (noopEmitter) Emit(sse.Event) {}

// NoopEmitter discards every event. The import tool uses it.
func NoopEmitter() Emitter { return noopEmitter{} }

// ForwardChanges emits every library change as an event until the returned
// function is called.
func ForwardChanges(lib *library.Library, events Emitter) func() {
	return lib.Subscribe(func(c domain.Change) {
		events.Emit(sse.NewChangeEvent(c))
	})
}
