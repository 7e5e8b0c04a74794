// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/domainchat/internal/llm"
	"github.com/jeranaias/domainchat/internal/logging"
	"github.com/jeranaias/domainchat/internal/session"
	"github.com/jeranaias/domainchat/internal/storage"
	"github.com/jeranaias/domainchat/internal/ui/components"
	"github.com/jeranaias/domainchat/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a chat Model.
type Options struct {
	Orchestrator *session.Orchestrator
	Store        *storage.HistoryStore
	Provider     llm.Provider
	Logger       *zap.Logger
	Theme        *styles.Theme

	// Model overrides the provider's default model when non-empty.
	Model string
	// StartFresh opens a new default-domain chat next to loaded history.
	StartFresh bool
	// RenderMarkdown renders model replies with glamour.
	RenderMarkdown bool

	// Send posts messages from the stream goroutine. Defaults to Post.
	Send func(tea.Msg)
	// Context bounds stream and storage calls. Defaults to Background.
	Context context.Context
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	// Application state; replaced wholesale by each transition.
	state    session.State
	loaded   bool
	orch     *session.Orchestrator
	consumer *session.Consumer
	store    *storage.HistoryStore
	writer   *snapshotWriter
	logger   *zap.Logger

	providerName string
	modelName    string
	startFresh   bool

	// reloadPending defers an external snapshot reload until the reply in
	// flight finishes.
	reloadPending bool

	// UI
	theme    *styles.Theme
	tabs     *components.DomainTabs
	history  *components.HistoryPanel
	quick    *components.QuickReplies
	status   *components.StatusBar
	typing   components.Typing
	input    textinput.Model
	viewport viewport.Model
	help     help.Model
	keys     KeyMap
	histKeys HistoryKeyMap

	markdown bool
	renderer *glamour.TermRenderer
	rendered map[string]string

	width  int
	height int
	ready  bool

	send func(tea.Msg)
	ctx  context.Context
}

// New creates the chat model. History is loaded by Init.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}
	logger := logging.OrNop(opts.Logger)
	orch := opts.Orchestrator
	if orch == nil {
		orch = session.NewOrchestrator("")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	send := opts.Send
	if send == nil {
		send = Post
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask me anything..."
	ti.CharLimit = 4096
	ti.PromptStyle = theme.InputPrompt
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	providerName := ""
	if opts.Provider != nil {
		providerName = opts.Provider.Name()
	}

	status := components.NewStatusBar(theme)
	status.SetProvider(providerName, opts.Model)

	return Model{
		orch:         orch,
		consumer:     &session.Consumer{Provider: opts.Provider, Logger: logger},
		store:        opts.Store,
		writer:       newSnapshotWriter(opts.Store, logger),
		logger:       logger,
		providerName: providerName,
		modelName:    opts.Model,
		startFresh:   opts.StartFresh,
		theme:        theme,
		tabs:         components.NewDomainTabs(theme),
		history:      components.NewHistoryPanel(theme),
		quick:        components.NewQuickReplies(theme),
		status:       status,
		typing:       components.NewTyping(theme),
		input:        ti,
		viewport:     vp,
		help:         help.New(),
		keys:         DefaultKeyMap(),
		histKeys:     DefaultHistoryKeyMap(),
		markdown:     opts.RenderMarkdown,
		rendered:     make(map[string]string),
		send:         send,
		ctx:          ctx,
	}
}

// Init loads the history.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadHistoryCmd(m.ctx, m.store, m.logger),
		textinput.Blink,
	)
}

// State returns the current application state.
func (m Model) State() session.State {
	return m.state
}

// =============================================================================
// STATE TRANSITIONS
// =============================================================================

// apply installs next as the current state, refreshes the components and
// returns the save command.
func (m *Model) apply(next session.State) tea.Cmd {
	m.state = next
	m.syncComponents()
	if !m.loaded {
		return nil
	}
	return m.writer.saveCmd(m.ctx, next.Conversations)
}

// syncComponents feeds the components from the state.
func (m *Model) syncComponents() {
	d := m.state.ActiveDomain()
	m.tabs.SetActive(d)
	m.quick.SetDomain(d)
	m.quick.Disabled = m.state.Busy
	m.history.SetItems(m.state.Sorted(), m.state.ActiveID)
	if m.state.Busy {
		m.status.SetStatus(components.StatusTyping)
	} else if m.status.Status == components.StatusTyping {
		m.status.SetStatus(components.StatusReady)
	}
	m.refreshViewport()
}
