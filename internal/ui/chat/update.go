// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/domainchat/internal/domain"
	"github.com/jeranaias/domainchat/internal/session"
	"github.com/jeranaias/domainchat/internal/storage"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and key events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.state.HistoryOpen {
			return m.handleHistoryKey(msg)
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.typing, cmd = m.typing.Update(msg)
		if m.typing.IsActive() {
			m.refreshViewport()
		}
		return m, cmd

	case HistoryLoadedMsg:
		m.loaded = true
		return m, m.apply(m.orch.Bootstrap(msg.Conversations, m.startFresh))

	case StreamFragmentMsg:
		return m, m.apply(m.orch.ApplyFragment(m.state, msg.ConversationID, msg.Fragment))

	case StreamDoneMsg:
		return m.finishStream(m.orch.FinishSend(m.state, msg.ConversationID))

	case StreamErrorMsg:
		return m.finishStream(m.orch.FailSend(m.state, msg.ConversationID))

	case SnapshotChangedMsg:
		if m.store == nil || !m.loaded {
			return m, nil
		}
		if m.state.Busy {
			m.reloadPending = true
			return m, nil
		}
		return m, reloadHistoryCmd(m.ctx, m.store)

	case HistoryReloadedMsg:
		return m.handleReload(msg)

	case PersistedMsg:
		// Save failures are logged by the writer and not surfaced.
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// finishStream installs the terminal state of a reply and runs a deferred
// reload.
func (m Model) finishStream(next session.State) (tea.Model, tea.Cmd) {
	wasBusy := m.state.Busy
	cmds := []tea.Cmd{m.apply(next)}
	if wasBusy && !m.state.Busy {
		m.typing.Stop()
		if m.reloadPending && m.store != nil {
			m.reloadPending = false
			cmds = append(cmds, reloadHistoryCmd(m.ctx, m.store))
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleReload(msg HistoryReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil && !errors.Is(msg.Err, storage.ErrSnapshotNotFound) {
		m.logger.Warn("external snapshot reload failed", zap.Error(msg.Err))
		return m, nil
	}
	if m.state.Busy {
		m.reloadPending = true
		return m, nil
	}
	m.logger.Info("chat history changed on disk, reloaded",
		zap.Int("conversations", len(msg.Conversations)))
	return m, m.apply(m.orch.Replace(m.state, msg.Conversations))
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit(m.input.Value())

	case key.Matches(msg, m.keys.NextDomain):
		return m, m.apply(m.orch.ChangeDomain(m.state, domain.Next(m.state.ActiveDomain(), 1)))

	case key.Matches(msg, m.keys.PrevDomain):
		return m, m.apply(m.orch.ChangeDomain(m.state, domain.Next(m.state.ActiveDomain(), -1)))

	case key.Matches(msg, m.keys.NewChat):
		return m, m.apply(m.orch.NewChat(m.state, m.state.ActiveDomain()))

	case key.Matches(msg, m.keys.History):
		cmd := m.apply(m.orch.OpenHistory(m.state))
		m.history.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	for i, b := range m.keys.QuickReplies {
		if key.Matches(msg, b) {
			text, ok := m.quick.Get(i)
			if !ok {
				return m, nil
			}
			return m.submit(text)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.histKeys.Close):
		return m, m.apply(m.orch.CloseHistory(m.state))

	case key.Matches(msg, m.histKeys.Up):
		m.history.MoveUp()

	case key.Matches(msg, m.histKeys.Down):
		m.history.MoveDown()

	case key.Matches(msg, m.histKeys.Select):
		id, ok := m.history.Selected()
		if !ok {
			return m, nil
		}
		next, err := m.orch.Select(m.state, id)
		if err != nil {
			m.status.SetMessage("Wait for the reply to finish")
			return m, nil
		}
		m.status.SetMessage("")
		return m, m.apply(next)

	case key.Matches(msg, m.histKeys.Delete):
		id, ok := m.history.Selected()
		if !ok {
			return m, nil
		}
		return m, m.apply(m.orch.Delete(m.state, id))

	case key.Matches(msg, m.histKeys.NewChat):
		return m, m.apply(m.orch.NewChat(m.state, m.state.ActiveDomain()))
	}
	return m, nil
}

// submit starts a reply to text. Blank text and sends while a reply is in
// flight are ignored.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	next, req, err := m.orch.BeginSend(m.state, text)
	if err != nil {
		if errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrNotIdle) {
			m.status.SetMessage("Wait for the reply to finish")
		}
		return m, nil
	}
	if m.modelName != "" {
		req.Request.Model = m.modelName
	}

	m.input.Reset()
	m.status.SetMessage("")
	save := m.apply(next)
	m.viewport.GotoBottom()
	tick := m.typing.Start()
	return m, tea.Batch(save, tick, streamCmd(m.ctx, m.consumer, req, m.send))
}
