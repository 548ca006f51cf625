// Package plugin implements the websocket event protocol spoken between the
// search host and out-of-process source plugins.
package plugin

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/sglre6355/sgrsearch/internal/json"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// Event names carried in Envelope.Event.
const (
	EventRequest  = "request"
	EventResponse = "response"
	EventInited   = "inited"
)

// Envelope is one websocket message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Request asks a plugin to run an action. It is sent by the host.
type Request struct {
	RequestKey string      `json:"requestKey"`
	Data       RequestData `json:"data"`
}

// RequestData names the source, action and action input of a Request.
type RequestData struct {
	Source string          `json:"source"`
	Action string          `json:"action"`
	Info   json.RawMessage `json:"info"`
}

// Response answers the Request with the same RequestKey.
type Response struct {
	RequestKey   string          `json:"requestKey"`
	Status       bool            `json:"status"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// Inited is announced once by a plugin after it is ready.
type Inited struct {
	Status  bool                  `json:"status"`
	Sources map[string]SourceInfo `json:"sources"`
}

// SourceInfo describes one source hosted by a plugin.
type SourceInfo struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Actions  []string `json:"actions"`
	Qualitys []string `json:"qualitys"`
}

// SearchInfo is the input of the searchMusic action.
type SearchInfo struct {
	Keyword string `json:"keyword"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
}

// SearchResult is one page of plugin search results.
type SearchResult struct {
	List  []Item `json:"list"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// SearchResponse is the result of the searchMusic action.
type SearchResponse struct {
	Data SearchResult `json:"data"`
}

// MusicURLInfo is the input of the musicUrl action.
type MusicURLInfo struct {
	MusicInfo Item   `json:"musicInfo"`
	Type      string `json:"type"`
}

// Encode wraps data in an Envelope for event.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Descriptors converts the sources of an Inited event, ordered by source ID.
func (i Inited) Descriptors() []domain.SourceDescriptor {
	ids := make([]string, 0, len(i.Sources))
	for id := range i.Sources {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	descriptors := make([]domain.SourceDescriptor, 0, len(ids))
	for _, id := range ids {
		info := i.Sources[id]
		name := info.Name
		if name == "" {
			name = id
		}
		descriptors = append(descriptors, domain.SourceDescriptor{
			ID:        domain.ParseSourceID(id),
			Name:      name,
			Actions:   info.Actions,
			Qualities: info.Qualitys,
		})
	}
	return descriptors
}

// SourceInfoFrom converts a descriptor to its wire form.
func SourceInfoFrom(d domain.SourceDescriptor) SourceInfo {
	return SourceInfo{
		Name:     d.Name,
		Type:     "music",
		Actions:  d.Actions,
		Qualitys: d.Qualities,
	}
}

// FlexString decodes a JSON string or number into its text form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
	default:
		if !json.Valid(data) || data[0] == '{' || data[0] == '[' {
			return fmt.Errorf("cannot decode %s as string or number", data)
		}
		*s = FlexString(strings.TrimSuffix(string(data), ".0"))
	}
	return nil
}
