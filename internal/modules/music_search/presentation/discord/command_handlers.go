package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrsearch/internal/bot"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/usecases"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorInfo    = 0x3498DB
	colorError   = 0xE74C3C
)

// maxEmbedResults is the number of search results rendered in one embed.
const maxEmbedResults = 10

var errMissingUser = errors.New("interaction has no user")

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	search  *usecases.SearchCoordinator
	resolve *usecases.ResolveService
	catalog *usecases.SourceCatalog
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	search *usecases.SearchCoordinator,
	resolve *usecases.ResolveService,
	catalog *usecases.SourceCatalog,
) *CommandHandlers {
	return &CommandHandlers{
		search:  search,
		resolve: resolve,
		catalog: catalog,
	}
}

// HandleSearch handles the /search command.
func (h *CommandHandlers) HandleSearch(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	userID, err := invokerID(i)
	if err != nil {
		return respondError(r, "Invalid user")
	}

	var query, source string
	page := 1
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "query":
			query = opt.StringValue()
		case "source":
			source = opt.StringValue()
		case "page":
			page = int(opt.IntValue())
		}
	}

	if strings.TrimSpace(query) == "" {
		return respondError(r, "Search term must not be empty")
	}

	scope := domain.ParseSourceID(source)
	if err := h.search.SelectScope(userID, scope); err != nil {
		return respondError(r, errorMessage(err))
	}

	// Backends may take longer than Discord's initial response window.
	if err := r.Defer(false); err != nil {
		return err
	}

	output, err := h.search.Search(ctx, usecases.SearchInput{
		OwnerID: userID,
		Text:    query,
		Page:    page,
		Scope:   scope,
	})
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSearchResults(r, query, output)
}

// HandleURL handles the /url command.
func (h *CommandHandlers) HandleURL(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	userID, err := invokerID(i)
	if err != nil {
		return respondError(r, "Invalid user")
	}

	var trackKey, quality string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "track":
			trackKey = opt.StringValue()
		case "quality":
			quality = strings.TrimSpace(opt.StringValue())
		}
	}

	if err := r.Defer(false); err != nil {
		return err
	}

	output, err := h.resolve.ResolveURL(ctx, usecases.ResolveURLInput{
		OwnerID:  userID,
		TrackKey: trackKey,
		Quality:  quality,
	})
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Playable URL",
		Description: fmt.Sprintf("[%s](%s)", output.Track.Title, output.URL),
		Color:       colorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: output.Track.Artist, Inline: true},
			{Name: "Source", Value: string(output.Track.SourceID), Inline: true},
			{Name: "Quality", Value: output.Quality, Inline: true},
		},
	}
	if output.Track.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: output.Track.ArtworkURL}
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// HandleSources handles the /sources command.
func (h *CommandHandlers) HandleSources(
	_ *discordgo.Session,
	_ *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	var sb strings.Builder
	for _, desc := range h.catalog.Descriptors() {
		fmt.Fprintf(&sb, "**%s** (`%s`)", desc.Name, desc.ID)
		if len(desc.Actions) > 0 {
			fmt.Fprintf(&sb, " - %s", strings.Join(desc.Actions, ", "))
		}
		if len(desc.Qualities) > 0 {
			fmt.Fprintf(&sb, " - qualities: %s", strings.Join(desc.Qualities, ", "))
		}
		sb.WriteString("\n")
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Search Sources",
					Description: sb.String(),
					Color:       colorInfo,
				},
			},
		},
	})
}

func respondSearchResults(r bot.Responder, query string, output *usecases.SearchOutput) error {
	tracks := pageTracks(output)
	if len(tracks) == 0 {
		return r.Respond(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{
					{
						Title:       "No Results",
						Description: fmt.Sprintf("Found nothing for **%s**.", query),
						Color:       colorInfo,
					},
				},
			},
		})
	}

	var sb strings.Builder
	for idx, track := range tracks {
		if idx == maxEmbedResults {
			fmt.Fprintf(&sb, "...and %d more\n", len(tracks)-maxEmbedResults)
			break
		}
		fmt.Fprintf(&sb, "%d. %s - %s", idx+1, trackLink(track), track.Artist)
		if track.DurationSeconds != nil {
			fmt.Fprintf(&sb, " `%s`", track.FormattedDuration())
		}
		fmt.Fprintf(&sb, " [%s]\n", track.SourceID)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Results for %s", query),
		Description: sb.String(),
		Color:       colorSuccess,
	}

	if output.Scope.IsAggregate() {
		for _, page := range output.Pages {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   string(page.Source),
				Value:  fmt.Sprintf("%d results", page.Total),
				Inline: true,
			})
		}
	}

	maxPage := max(output.MaxPage, 1)
	footer := fmt.Sprintf("Page %d/%d | %d results", output.Page, maxPage, output.Total)
	if output.Cached {
		footer += " | cached"
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// pageTracks returns the tracks of the requested page. The scope's list
// accumulates earlier pages and queries, so only the fetched pages are shown.
func pageTracks(output *usecases.SearchOutput) []*domain.Track {
	var tracks []*domain.Track
	for _, page := range output.Pages {
		tracks = append(tracks, page.List...)
	}
	return tracks
}

func trackLink(track *domain.Track) string {
	if track.PageURL != "" {
		return fmt.Sprintf("[%s](%s)", track.Title, track.PageURL)
	}
	return fmt.Sprintf("**%s**", track.Title)
}

// errorMessage maps an error to the message shown to the user.
func errorMessage(err error) string {
	var backendErr *domain.BackendError
	switch {
	case errors.Is(err, domain.ErrSourceNotFound):
		return "Unknown source"
	case errors.Is(err, domain.ErrTrackNotFound):
		return "That track is not in your search results. Run /search first."
	case errors.Is(err, domain.ErrUnsupportedAction):
		return "This source cannot provide playable URLs"
	case errors.Is(err, domain.ErrUnsupportedQuality):
		return "This track is not available in that quality"
	case errors.Is(err, domain.ErrNoPlayableURL):
		return "No playable URL is available for this track"
	case errors.Is(err, domain.ErrMissingIdentifiers):
		return "This track cannot be resolved"
	case errors.Is(err, domain.ErrTimeout):
		return "The source did not respond in time"
	case errors.As(err, &backendErr) && backendErr.Message != "":
		return backendErr.Message
	case errors.Is(err, domain.ErrMalformedResponse):
		return "The source returned an unexpected response"
	case errors.Is(err, domain.ErrTransport):
		return "Could not reach the source"
	default:
		return "Search failed"
	}
}

// invokerID returns the user who triggered the interaction, in a guild or a DM.
func invokerID(i *discordgo.InteractionCreate) (snowflake.ID, error) {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return snowflake.Parse(i.Member.User.ID)
	case i.User != nil:
		return snowflake.Parse(i.User.ID)
	default:
		return 0, errMissingUser
	}
}

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}
