package music_search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrsearch/internal/bot"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/ports"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/usecases"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/infrastructure"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/infrastructure/bilibili"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/presentation/discord"
	"github.com/sglre6355/sgrsearch/internal/plugin"
)

func init() {
	bot.Register(&MusicSearchModule{})
}

// Compile-time interface checks.
var (
	_ bot.ConfigurableModule = (*MusicSearchModule)(nil)
	_ bot.AutocompleteModule = (*MusicSearchModule)(nil)
)

var errPluginNotReady = errors.New("plugin reported it is not ready")

// pluginClosedMessage fails requests still waiting when the plugin connection drops.
const pluginClosedMessage = "plugin connection closed"

// MusicSearchModule provides federated music search commands.
type MusicSearchModule struct {
	config          *Config
	catalog         *usecases.SourceCatalog
	commandHandlers *discord.CommandHandlers
	autocomplete    *discord.AutocompleteHandler

	// Plugin channel, set when BILIBILI_MODE=plugin
	pluginClient *plugin.Client
	pluginBus    *infrastructure.PluginEventBus
	correlator   *infrastructure.RequestCorrelator

	lavalink *infrastructure.LavalinkClient

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Name returns the module name.
func (m *MusicSearchModule) Name() string {
	return "music_search"
}

// Commands returns the slash commands for this module.
func (m *MusicSearchModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands(m.catalog.Descriptors())
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicSearchModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"search":  m.commandHandlers.HandleSearch,
		"url":     m.commandHandlers.HandleURL,
		"sources": m.commandHandlers.HandleSources,
	}
}

// AutocompleteHandlers returns the autocomplete handlers for this module.
func (m *MusicSearchModule) AutocompleteHandlers() map[string]bot.AutocompleteHandler {
	return map[string]bot.AutocompleteHandler{
		"search": m.autocomplete.HandleSearch,
		"url":    m.autocomplete.HandleURL,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicSearchModule) EventHandlers() []bot.EventHandler {
	return nil
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicSearchModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicSearchModule) Init(deps bot.ModuleDependencies) error {
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	sources, err := m.initSources(deps.Session)
	if err != nil {
		m.closeResources()
		return err
	}

	catalog, err := usecases.NewSourceCatalog(sources...)
	if err != nil {
		m.closeResources()
		return err
	}
	m.catalog = catalog

	repo := infrastructure.NewMemoryRepository()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		repo.Run(m.ctx, m.config.SessionSweepInterval, m.config.SessionIdleTimeout)
	}()
	search := usecases.NewSearchCoordinator(
		catalog,
		repo,
		infrastructure.PrometheusRecorder{},
		m.config.SearchLimit,
	)
	resolve := usecases.NewResolveService(catalog, repo)
	autocomplete := usecases.NewAutocompleteService(search, repo)

	m.commandHandlers = discord.NewCommandHandlers(search, resolve, catalog)
	m.autocomplete = discord.NewAutocompleteHandler(autocomplete)

	slog.Info("music_search module initialized", "sources", catalog.IDs())

	return nil
}

// initSources builds the configured backends in display order: Bilibili first, then Lavalink.
func (m *MusicSearchModule) initSources(session *discordgo.Session) ([]ports.Source, error) {
	var sources []ports.Source

	switch m.config.BilibiliMode {
	case BilibiliModeBuiltin:
		transport, err := m.newTransport()
		if err != nil {
			return nil, err
		}
		sources = append(sources, bilibili.NewClient(transport))

	case BilibiliModePlugin:
		pluginSources, err := m.initPlugin()
		if err != nil {
			return nil, err
		}
		sources = append(sources, pluginSources...)
	}

	if m.config.LavalinkAddress != "" {
		lavalinkSources, err := m.initLavalink(session)
		if err != nil {
			return nil, err
		}
		sources = append(sources, lavalinkSources...)
	}

	return sources, nil
}

func (m *MusicSearchModule) newTransport() (ports.Transport, error) {
	if m.config.HTTPClient == HTTPClientBrowser {
		return infrastructure.NewBrowserTransport(m.config.HTTPTimeout)
	}
	return infrastructure.NewHTTPTransport(m.config.HTTPTimeout), nil
}

// initPlugin connects to the plugin, waits for its inited event, and
// returns one source per announced descriptor that can search.
func (m *MusicSearchModule) initPlugin() ([]ports.Source, error) {
	m.pluginBus = infrastructure.NewPluginEventBus(infrastructure.DefaultEventBufferSize)

	initedCh := make(chan plugin.Inited, 1)
	m.pluginBus.OnInited(func(_ context.Context, inited plugin.Inited) {
		select {
		case initedCh <- inited:
		default:
		}
	})

	initCtx, cancel := context.WithTimeout(m.ctx, m.config.PluginInitTimeout)
	defer cancel()

	client, err := plugin.Dial(initCtx, m.config.PluginURL, m.pluginBus)
	if err != nil {
		return nil, err
	}
	m.pluginClient = client

	m.correlator = infrastructure.NewRequestCorrelator(client, m.config.PluginRequestTimeout)
	m.pluginBus.OnResponse(func(_ context.Context, resp plugin.Response) {
		if !m.correlator.Dispatch(resp) {
			slog.Debug("dropped plugin response without pending request",
				"request_key", resp.RequestKey,
			)
		}
	})

	var inited plugin.Inited
	select {
	case inited = <-initedCh:
	case <-client.Done():
		return nil, fmt.Errorf("plugin closed the connection before announcing sources: %w", plugin.ErrClosed)
	case <-initCtx.Done():
		return nil, fmt.Errorf("plugin did not announce sources: %w", initCtx.Err())
	}
	if !inited.Status {
		return nil, errPluginNotReady
	}

	m.wg.Add(1)
	go m.watchPlugin(client)

	var sources []ports.Source
	for _, desc := range inited.Descriptors() {
		if !desc.Supports(domain.ActionSearchMusic) {
			slog.Warn("skipping plugin source without search support", "source", desc.ID)
			continue
		}
		sources = append(sources, infrastructure.NewPluginSource(m.correlator, desc))
	}

	slog.Info("connected to plugin", "url", m.config.PluginURL, "sources", len(sources))

	return sources, nil
}

// watchPlugin fails pending requests once the plugin connection ends.
func (m *MusicSearchModule) watchPlugin(client *plugin.Client) {
	defer m.wg.Done()

	select {
	case <-client.Done():
		m.correlator.FailAll(pluginClosedMessage)
	case <-m.ctx.Done():
	}
}

func (m *MusicSearchModule) initLavalink(session *discordgo.Session) ([]ports.Source, error) {
	if session == nil {
		slog.Warn("music_search module initialized without session, Lavalink sources disabled")
		return nil, nil
	}

	botID, err := botUserID(session)
	if err != nil {
		return nil, err
	}

	client, err := infrastructure.NewLavalinkClient(m.ctx, botID, infrastructure.LavalinkConfig{
		Address:  m.config.LavalinkAddress,
		Password: m.config.LavalinkPassword,
		Secure:   m.config.LavalinkSecure,
	})
	if err != nil {
		return nil, err
	}
	m.lavalink = client

	sources := make([]ports.Source, 0, len(m.config.LavalinkSearchPrefixes))
	for _, prefix := range m.config.LavalinkSearchPrefixes {
		sources = append(sources, infrastructure.NewLavalinkSource(client, prefix))
	}
	return sources, nil
}

// botUserID returns the bot's user ID. Modules are initialized before the
// gateway connection opens, so the state may not hold the user yet.
func botUserID(session *discordgo.Session) (snowflake.ID, error) {
	if session.State != nil && session.State.User != nil {
		return snowflake.Parse(session.State.User.ID)
	}

	user, err := session.User("@me")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return snowflake.Parse(user.ID)
}

// Shutdown cleans up module resources.
func (m *MusicSearchModule) Shutdown() error {
	m.closeResources()
	return nil
}

func (m *MusicSearchModule) closeResources() {
	if m.cancel != nil {
		m.cancel()
	}

	if m.pluginClient != nil {
		if err := m.pluginClient.Close(); err != nil {
			slog.Debug("failed to close plugin connection", "error", err)
		}
	}
	m.wg.Wait()

	if m.correlator != nil {
		m.correlator.FailAll(pluginClosedMessage)
	}
	if m.pluginBus != nil {
		m.pluginBus.Close()
	}

	if m.lavalink != nil {
		m.lavalink.Close()
	}
}
