package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/sgrsearch/internal/bot"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/usecases"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

const (
	// Discord drops autocomplete responses that take longer than three seconds.
	autocompleteTimeout = 2500 * time.Millisecond

	maxChoiceLength = 100
	minQueryLength  = 2
)

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	autocomplete *usecases.AutocompleteService
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(autocomplete *usecases.AutocompleteService) *AutocompleteHandler {
	return &AutocompleteHandler{
		autocomplete: autocomplete,
	}
}

// HandleSearch handles autocomplete for the search command.
// Every keystroke runs a first-page search for the invoking user.
func (h *AutocompleteHandler) HandleSearch(i *discordgo.InteractionCreate, r bot.Responder) error {
	userID, err := invokerID(i)
	if err != nil {
		return respondChoices(r, nil)
	}

	var query, source string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "query":
			query = opt.StringValue()
		case "source":
			source = opt.StringValue()
		}
	}

	// Don't search for very short queries
	if len([]rune(query)) < minQueryLength {
		return respondChoices(r, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), autocompleteTimeout)
	defer cancel()

	output, err := h.autocomplete.SuggestTracks(ctx, usecases.SuggestTracksInput{
		OwnerID: userID,
		Text:    query,
		Scope:   domain.ParseSourceID(source),
		Limit:   usecases.DefaultSuggestionLimit - 1,
	})
	if err != nil {
		slog.Debug("failed to suggest tracks", "query", query, "error", err)
		return respondChoices(r, nil)
	}

	// Keep what the user typed as the first choice.
	choices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: truncate(query, maxChoiceLength), Value: truncate(query, maxChoiceLength)},
	}
	for _, track := range output.Tracks {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(fmt.Sprintf("%s - %s", track.Title, track.Artist), maxChoiceLength),
			Value: truncate(track.Title, maxChoiceLength),
		})
	}

	return respondChoices(r, choices)
}

// HandleURL handles autocomplete for the url command from the user's committed results.
func (h *AutocompleteHandler) HandleURL(i *discordgo.InteractionCreate, r bot.Responder) error {
	userID, err := invokerID(i)
	if err != nil {
		return respondChoices(r, nil)
	}

	var filter string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "track" && opt.Focused {
			filter = opt.StringValue()
			break
		}
	}

	output := h.autocomplete.CommittedTracks(usecases.CommittedTracksInput{
		OwnerID: userID,
		Filter:  filter,
		Limit:   usecases.DefaultSuggestionLimit,
	})

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(output.Tracks))
	for _, track := range output.Tracks {
		key := track.Key()
		// A truncated key would not resolve.
		if len(key) > maxChoiceLength {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name: truncate(
				fmt.Sprintf("%s - %s [%s]", track.Title, track.Artist, track.SourceID),
				maxChoiceLength,
			),
			Value: key,
		})
	}

	return respondChoices(r, choices)
}

func respondChoices(r bot.Responder, choices []*discordgo.ApplicationCommandOptionChoice) error {
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
}

// truncate truncates a string to the specified length, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
