package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/sglre6355/sgrsearch/internal/plugin"
)

func TestPluginEventBus_DeliversEvents(t *testing.T) {
	bus := NewPluginEventBus(10)
	defer bus.Close()

	responses := make(chan plugin.Response, 1)
	inited := make(chan plugin.Inited, 1)
	bus.OnResponse(func(_ context.Context, resp plugin.Response) { responses <- resp })
	bus.OnInited(func(_ context.Context, event plugin.Inited) { inited <- event })

	bus.PublishResponse(plugin.Response{RequestKey: "search__1", Status: true})
	bus.PublishInited(plugin.Inited{Status: true})

	select {
	case resp := <-responses:
		if resp.RequestKey != "search__1" {
			t.Errorf("unexpected request key %q", resp.RequestKey)
		}
	case <-time.After(time.Second):
		t.Fatal("response was not delivered")
	}

	select {
	case event := <-inited:
		if !event.Status {
			t.Error("expected inited status true")
		}
	case <-time.After(time.Second):
		t.Fatal("inited was not delivered")
	}
}

func TestPluginEventBus_PublishAfterClose(t *testing.T) {
	bus := NewPluginEventBus(1)
	bus.Close()

	// Must not panic on a closed channel.
	bus.PublishResponse(plugin.Response{RequestKey: "k"})
	bus.PublishInited(plugin.Inited{})
	bus.Close()
}

func TestPluginEventBus_DropsWhenFull(t *testing.T) {
	bus := NewPluginEventBus(1)
	defer bus.Close()

	block := make(chan struct{})
	bus.OnResponse(func(context.Context, plugin.Response) { <-block })

	// The first event occupies the dispatcher, the second fills the buffer,
	// the rest must be dropped without blocking.
	done := make(chan struct{})
	go func() {
		for range 5 {
			bus.PublishResponse(plugin.Response{RequestKey: "k"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full buffer")
	}
	close(block)
}
