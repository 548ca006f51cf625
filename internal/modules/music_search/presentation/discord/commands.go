package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// Discord caps the number of static choices per option.
const maxOptionChoices = 25

// Commands returns all slash commands for the music search module.
// The source option lists the aggregate scope followed by every configured backend.
func Commands(sources []domain.SourceDescriptor) []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "search",
			Description: "Search for music across the configured sources",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "query",
					Description:  "Search term",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "source",
					Description: "Source to search (defaults to all sources)",
					Required:    false,
					Choices:     sourceChoices(sources),
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page number",
					Required:    false,
					MinValue:    floatPtr(1),
				},
			},
		},
		{
			Name:        "url",
			Description: "Get a playable URL for one of your search results",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "track",
					Description:  "Track from your latest search",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "quality",
					Description: "Quality tier (defaults to the track's first tier)",
					Required:    false,
				},
			},
		},
		{
			Name:        "sources",
			Description: "List the configured search sources",
		},
	}
}

func sourceChoices(sources []domain.SourceDescriptor) []*discordgo.ApplicationCommandOptionChoice {
	choices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "All sources", Value: string(domain.ScopeAll)},
	}
	for _, src := range sources {
		if len(choices) == maxOptionChoices {
			break
		}
		name := src.Name
		if name == "" {
			name = string(src.ID)
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: string(src.ID),
		})
	}
	return choices
}

func floatPtr(f float64) *float64 {
	return &f
}
