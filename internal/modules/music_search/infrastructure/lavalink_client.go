package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// LoadedTrack is one track returned by a Lavalink load request.
type LoadedTrack struct {
	Identifier string
	Encoded    string
	Title      string
	Artist     string
	Duration   time.Duration
	URI        string
	ArtworkURL string
	SourceName string
	IsStream   bool
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// LavalinkClient wraps DisGoLink for track searches. It never joins voice channels.
type LavalinkClient struct {
	link disgolink.Client
}

// NewLavalinkClient creates a new LavalinkClient connected to one node.
func NewLavalinkClient(
	ctx context.Context,
	botID snowflake.ID,
	config LavalinkConfig,
) (*LavalinkClient, error) {
	link := disgolink.New(botID)

	node, err := link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return &LavalinkClient{link: link}, nil
}

// LoadTracks resolves a Lavalink identifier or search query.
func (c *LavalinkClient) LoadTracks(ctx context.Context, query string) ([]*LoadedTrack, error) {
	node := c.link.BestNode()
	if node == nil {
		return nil, fmt.Errorf("%w: no available Lavalink node", domain.ErrTransport)
	}

	result, err := node.LoadTracks(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load tracks: %w", domain.ErrTransport, err)
	}

	return convertLoadResult(result)
}

// Close disconnects from every node.
func (c *LavalinkClient) Close() {
	c.link.Close()
}

// convertLoadResult flattens a Lavalink load result into a track list.
func convertLoadResult(result *lavalink.LoadResult) ([]*LoadedTrack, error) {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return []*LoadedTrack{convertTrack(data)}, nil

	case lavalink.Playlist:
		tracks := make([]*LoadedTrack, len(data.Tracks))
		for i, track := range data.Tracks {
			tracks[i] = convertTrack(track)
		}
		return tracks, nil

	case lavalink.Search:
		tracks := make([]*LoadedTrack, len(data))
		for i, track := range data {
			tracks[i] = convertTrack(track)
		}
		return tracks, nil

	case lavalink.Exception:
		return nil, &domain.BackendError{Source: "lavalink", Message: data.Message}

	default:
		return []*LoadedTrack{}, nil
	}
}

func convertTrack(track lavalink.Track) *LoadedTrack {
	info := track.Info
	return &LoadedTrack{
		Identifier: info.Identifier,
		Encoded:    track.Encoded,
		Title:      info.Title,
		Artist:     info.Author,
		Duration:   time.Duration(info.Length) * time.Millisecond,
		URI:        getStringPtr(info.URI),
		ArtworkURL: getStringPtr(info.ArtworkURL),
		SourceName: info.SourceName,
		IsStream:   info.IsStream,
	}
}

func getStringPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
