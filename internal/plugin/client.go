package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sglre6355/sgrsearch/internal/json"
)

// EventSink receives the events a plugin sends to the host.
type EventSink interface {
	PublishResponse(resp Response)
	PublishInited(inited Inited)
}

// Client is the host side of a plugin connection.
type Client struct {
	conn *websocket.Conn
	sink EventSink

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	closing   bool
}

// Dial connects to a plugin server and starts forwarding its events to sink.
func Dial(ctx context.Context, url string, sink EventSink) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to plugin: %w", err)
	}

	c := &Client{
		conn: conn,
		sink: sink,
		done: make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

// SendRequest writes one request event.
func (c *Client) SendRequest(req Request) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	msg, err := Encode(EventRequest, req)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("failed to send plugin request: %w", err)
	}
	return nil
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	c.closing = true
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	c.writeMu.Unlock()

	c.markDone()
	return c.conn.Close()
}

func (c *Client) markDone() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) readLoop() {
	defer c.markDone()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.writeMu.Lock()
			closing := c.closing
			c.writeMu.Unlock()
			if !closing {
				slog.Warn("plugin connection lost", "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			slog.Warn("ignoring malformed plugin message", "error", err)
			continue
		}

		switch env.Event {
		case EventResponse:
			var resp Response
			if err := json.Unmarshal(env.Data, &resp); err != nil {
				slog.Warn("ignoring malformed plugin response", "error", err)
				continue
			}
			c.sink.PublishResponse(resp)

		case EventInited:
			var inited Inited
			if err := json.Unmarshal(env.Data, &inited); err != nil {
				slog.Warn("ignoring malformed inited event", "error", err)
				continue
			}
			c.sink.PublishInited(inited)

		default:
			slog.Debug("ignoring plugin event", "event", env.Event)
		}
	}
}
