package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sglre6355/sgrsearch/internal/json"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// DefaultSearchLimit is the page size used when a request carries none.
const DefaultSearchLimit = 20

const (
	sendBufferSize = 32
	writeWait      = 10 * time.Second
)

// Backend is a source hosted by a plugin server.
type Backend interface {
	Descriptor() domain.SourceDescriptor
	Search(ctx context.Context, keyword string, page, limit int) (*domain.Page, error)
	ResolveURL(ctx context.Context, track *domain.Track, quality string) (string, error)
}

// Server hosts backends over the plugin protocol. Each websocket connection
// receives an inited event, then requests are handled concurrently.
type Server struct {
	backends       map[domain.SourceID]Backend
	order          []domain.SourceID
	upgrader       websocket.Upgrader
	requestTimeout time.Duration
}

// NewServer creates a new Server. A positive requestTimeout bounds each request.
func NewServer(requestTimeout time.Duration, backends ...Backend) *Server {
	s := &Server{
		backends:       make(map[domain.SourceID]Backend, len(backends)),
		requestTimeout: requestTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, b := range backends {
		id := b.Descriptor().ID
		if _, exists := s.backends[id]; !exists {
			s.order = append(s.order, id)
		}
		s.backends[id] = b
	}
	return s
}

// Inited returns the readiness announcement listing every hosted source.
func (s *Server) Inited() Inited {
	sources := make(map[string]SourceInfo, len(s.order))
	for _, id := range s.order {
		sources[string(id)] = SourceInfoFrom(s.backends[id].Descriptor())
	}
	return Inited{Status: true, Sources: sources}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("failed to upgrade plugin connection", "error", err)
		return
	}
	defer conn.Close()

	remote := r.RemoteAddr
	slog.Info("plugin host connected", "remote", remote)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan []byte, sendBufferSize)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					slog.Warn("failed to write plugin event", "remote", remote, "error", err)
					return
				}
			}
		}
	}()

	send(ctx, out, EventInited, s.Inited())

	var handlers sync.WaitGroup
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			slog.Warn("ignoring malformed plugin message", "remote", remote, "error", err)
			continue
		}
		if env.Event != EventRequest {
			slog.Debug("ignoring plugin event", "event", env.Event)
			continue
		}

		var req Request
		if err := json.Unmarshal(env.Data, &req); err != nil {
			slog.Warn("ignoring malformed plugin request", "remote", remote, "error", err)
			continue
		}

		handlers.Add(1)
		go func() {
			defer handlers.Done()
			send(ctx, out, EventResponse, s.Handle(ctx, req))
		}()
	}

	cancel()
	handlers.Wait()
	<-writerDone
	slog.Info("plugin host disconnected", "remote", remote)
}

func send(ctx context.Context, out chan<- []byte, event string, data any) {
	msg, err := Encode(event, data)
	if err != nil {
		slog.Error("failed to encode plugin event", "event", event, "error", err)
		return
	}
	select {
	case out <- msg:
	case <-ctx.Done():
	}
}

// Handle runs one request and returns its response.
func (s *Server) Handle(ctx context.Context, req Request) Response {
	resp := Response{RequestKey: req.RequestKey}

	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	result, err := s.handle(ctx, req.Data)
	if err != nil {
		slog.Warn("plugin request failed",
			"source", req.Data.Source,
			"action", req.Data.Action,
			"error", err,
		)
		resp.ErrorMessage = err.Error()
		return resp
	}

	raw, err := json.Marshal(result)
	if err != nil {
		resp.ErrorMessage = fmt.Sprintf("failed to encode result: %v", err)
		return resp
	}

	resp.Status = true
	resp.Result = raw
	return resp
}

func (s *Server) handle(ctx context.Context, data RequestData) (any, error) {
	sourceID := domain.ParseSourceID(data.Source)
	backend, ok := s.backends[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotSupported, data.Source)
	}

	descriptor := backend.Descriptor()
	if !descriptor.Supports(data.Action) {
		return nil, ErrActionNotSupported
	}

	switch data.Action {
	case domain.ActionSearchMusic:
		var info SearchInfo
		if err := json.Unmarshal(data.Info, &info); err != nil {
			return nil, fmt.Errorf("invalid search info: %w", err)
		}
		return s.search(ctx, backend, info)

	case domain.ActionMusicURL:
		var info MusicURLInfo
		if err := json.Unmarshal(data.Info, &info); err != nil {
			return nil, fmt.Errorf("invalid music info: %w", err)
		}
		quality := info.Type
		if quality == "" {
			quality = descriptor.DefaultQuality()
		}
		return backend.ResolveURL(ctx, NormalizeItem(sourceID, info.MusicInfo), quality)

	default:
		return nil, ErrActionNotSupported
	}
}

func (s *Server) search(ctx context.Context, backend Backend, info SearchInfo) (*SearchResponse, error) {
	if info.Page < 1 {
		info.Page = 1
	}
	if info.Limit <= 0 {
		info.Limit = DefaultSearchLimit
	}

	page, err := backend.Search(ctx, info.Keyword, info.Page, info.Limit)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(page.List))
	for _, track := range page.List {
		items = append(items, ItemFromTrack(track))
	}

	total := page.Total
	if total == 0 {
		total = len(items)
	}

	return &SearchResponse{Data: SearchResult{
		List:  items,
		Total: total,
		Page:  info.Page,
		Limit: info.Limit,
	}}, nil
}
