package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sglre6355/sgrsearch/internal/plugin"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// Compile-time check that PluginEventBus implements plugin.EventSink.
var _ plugin.EventSink = (*PluginEventBus)(nil)

// PluginEventBus provides a channel-based event bus for events received from plugins.
type PluginEventBus struct {
	// Channels for event delivery
	responses chan plugin.Response
	inited    chan plugin.Inited

	// Handler slices for callback-based subscription
	responseHandlers []func(context.Context, plugin.Response)
	initedHandlers   []func(context.Context, plugin.Inited)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewPluginEventBus creates a new PluginEventBus with the given buffer size.
func NewPluginEventBus(bufferSize int) *PluginEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &PluginEventBus{
		responses: make(chan plugin.Response, bufferSize),
		inited:    make(chan plugin.Inited, bufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}

	bus.wg.Add(2)
	go dispatch(bus, bus.responses, func() []func(context.Context, plugin.Response) {
		return bus.responseHandlers
	})
	go dispatch(bus, bus.inited, func() []func(context.Context, plugin.Inited) {
		return bus.initedHandlers
	})

	return bus
}

// dispatch delivers events from ch to the handlers registered at delivery time.
func dispatch[E any](b *PluginEventBus, ch <-chan E, handlers func() []func(context.Context, E)) {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			b.mu.RLock()
			hs := handlers()
			b.mu.RUnlock()
			for _, handler := range hs {
				handler(b.ctx, event)
			}
		}
	}
}

// PublishResponse publishes a plugin response.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *PluginEventBus) PublishResponse(resp plugin.Response) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "Response")
		return
	}

	select {
	case b.responses <- resp:
		slog.Debug("published event", "type", "Response", "request_key", resp.RequestKey)
	default:
		slog.Warn("event buffer full, dropping event", "type", "Response", "request_key", resp.RequestKey)
	}
}

// PublishInited publishes a plugin readiness announcement.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *PluginEventBus) PublishInited(inited plugin.Inited) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "Inited")
		return
	}

	select {
	case b.inited <- inited:
		slog.Debug("published event", "type", "Inited", "sources", len(inited.Sources))
	default:
		slog.Warn("event buffer full, dropping event", "type", "Inited")
	}
}

// OnResponse registers a handler for plugin responses.
func (b *PluginEventBus) OnResponse(handler func(context.Context, plugin.Response)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responseHandlers = append(b.responseHandlers, handler)
}

// OnInited registers a handler for plugin readiness announcements.
func (b *PluginEventBus) OnInited(handler func(context.Context, plugin.Inited)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initedHandlers = append(b.initedHandlers, handler)
}

// Close closes all event channels and stops dispatchers.
// After calling Close, publishing will no longer send events.
func (b *PluginEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	// Cancel context to stop dispatchers
	b.cancel()

	close(b.responses)
	close(b.inited)

	b.wg.Wait()

	slog.Debug("plugin event bus closed")
}
