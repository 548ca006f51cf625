package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/sgrsearch/internal/metrics"
)

// ErrDuplicateCommand is returned when two modules provide a handler for the same command.
var ErrDuplicateCommand = errors.New("command handled by more than one module")

// Bot manages the Discord bot lifecycle and module coordination.
type Bot struct {
	config        *Config
	session       *discordgo.Session
	modules       []Module
	handlers      map[string]InteractionHandler
	autocompleter map[string]AutocompleteHandler
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	return &Bot{
		config:        cfg,
		modules:       make([]Module, 0),
		handlers:      make(map[string]InteractionHandler),
		autocompleter: make(map[string]AutocompleteHandler),
	}
}

// LoadModules loads modules from the global registry.
func (b *Bot) LoadModules() {
	b.modules = Modules()
}

// Start initializes the bot, connects to Discord, and registers commands.
func (b *Bot) Start() error {
	// Create Discord session
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	b.session = session

	// Initialize modules
	if err := b.initModules(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	// Build handler map
	if err := b.buildHandlerMap(); err != nil {
		return err
	}

	// Register interaction handler
	b.session.AddHandler(b.handleInteraction)

	// Register module event handlers
	b.registerEventHandlers()

	// Open connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Register commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
	)

	return nil
}

// Stop gracefully shuts down the bot.
// Modules are shut down in reverse initialization order.
func (b *Bot) Stop() error {
	for _, mod := range slices.Backward(b.modules) {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// initModules loads module configuration and initializes all loaded modules.
func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Session: b.session,
		Config:  b.config,
	}

	for _, mod := range b.modules {
		if cm, ok := mod.(ConfigurableModule); ok {
			if err := cm.LoadConfig(); err != nil {
				return fmt.Errorf("failed to load %s module config: %w", mod.Name(), err)
			}
		}
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	slog.Info("initialized modules", "modules", moduleNames)

	return nil
}

// buildHandlerMap builds the command name to handler mappings.
func (b *Bot) buildHandlerMap() error {
	owners := make(map[string]string)
	for _, mod := range b.modules {
		for name, handler := range mod.CommandHandlers() {
			if owner, exists := owners[name]; exists {
				return fmt.Errorf("%w: /%s in %s and %s", ErrDuplicateCommand, name, owner, mod.Name())
			}
			owners[name] = mod.Name()
			b.handlers[name] = handler
		}

		if am, ok := mod.(AutocompleteModule); ok {
			for name, handler := range am.AutocompleteHandlers() {
				b.autocompleter[name] = handler
			}
		}
	}
	return nil
}

// registerEventHandlers registers all module event handlers with the session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// collectCommands gathers all commands from loaded modules.
func (b *Bot) collectCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, mod := range b.modules {
		commands = append(commands, mod.Commands()...)
	}
	return commands
}

// registerCommands replaces the registered command set with the commands of all modules.
// Commands removed from the bot disappear from Discord as well.
func (b *Bot) registerCommands() error {
	commands := b.collectCommands()

	guildID := b.config.CommandScope()
	registered, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID,
		guildID,
		commands,
	)
	if err != nil {
		return err
	}

	for _, cmd := range registered {
		slog.Debug("registered command", "command", cmd.Name, "guild_id", guildID)
	}

	return nil
}

// Embed colors for responses.
const (
	colorYellow = 0xFFFF00
	colorRed    = 0xFF0000
)

// handleInteraction routes incoming interactions to the appropriate handler.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.dispatch(s, i, NewDiscordResponder(s, i.Interaction))
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.dispatchAutocomplete(i, NewDiscordResponder(s, i.Interaction))
	}
}

// dispatchAutocomplete runs the autocomplete handler of a command, if any.
func (b *Bot) dispatchAutocomplete(i *discordgo.InteractionCreate, r Responder) {
	cmdName := i.ApplicationCommandData().Name
	handler, ok := b.autocompleter[cmdName]
	if !ok {
		return
	}

	if err := handler(i, r); err != nil {
		slog.Warn("failed to respond to autocomplete", "command", cmdName, "error", err)
	}
}

// dispatch runs the handler of a slash command and reports failures to the user.
func (b *Bot) dispatch(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) {
	cmdName := i.ApplicationCommandData().Name
	handler, ok := b.handlers[cmdName]
	if !ok {
		slog.Warn("found no handler for command", "command", cmdName)
		metrics.Interactions.WithLabelValues(cmdName, "unknown").Inc()
		respondWithEmbed(r, "Unknown Command", "This command is not recognized.", colorYellow)
		return
	}

	start := time.Now()
	err := handler(s, i, r)
	metrics.InteractionLatency.WithLabelValues(cmdName).Observe(time.Since(start).Seconds())

	if err != nil {
		slog.Error("failed to handle command", "command", cmdName, "error", err)
		metrics.Interactions.WithLabelValues(cmdName, "error").Inc()
		respondWithEmbed(r, "Error", "An error occurred while processing your command.", colorRed)
		return
	}
	metrics.Interactions.WithLabelValues(cmdName, "ok").Inc()
}

// respondWithEmbed sends an embed response to an interaction.
func respondWithEmbed(r Responder, title, description string, color int) {
	err := r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: description,
					Color:       color,
				},
			},
		},
	})
	if err != nil {
		slog.Error("failed to send embed response", "error", err)
	}
}
