package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/sodam-chat/sodam/internal/api"
	"github.com/sodam-chat/sodam/internal/chat"
	"github.com/sodam-chat/sodam/internal/transport"
)

const rosterWidth = 20

type chatState struct {
	room       api.Room
	input      textinput.Model
	msgChan    chan tea.Msg
	unsubs     []func()
	connState  transport.State
	showRoster bool
	loading    bool
}

type historyLoadedMsg struct {
	ok bool
}

type earlierLoadedMsg struct {
	ok bool
}

type rosterLoadedMsg struct {
	ok bool
}

type messageSentMsg struct{}

func (m model) ChatSwitch(room api.Room) (model, tea.Cmd) {
	m.deps.Rooms.SelectCurrentRoom(room.ID)

	ti := textinput.New()
	ti.Placeholder = "say something..."
	ti.CharLimit = 1024
	ti.PromptStyle = m.theme.TextBrand()
	ti.TextStyle = m.theme.TextAccent()
	ti.PlaceholderStyle = m.theme.TextBody()
	ti.Focus()

	m.state.chat = chatState{
		room:      room,
		input:     ti,
		connState: transport.StateConnecting,
		loading:   true,
	}
	m = m.SwitchPage(chatPage)

	roomID := room.ID
	pageSize := m.deps.Config.Chat.HistoryPageSize

	return m, tea.Batch(
		textinput.Blink,
		m.connectSocket(roomID),
		func() tea.Msg {
			return historyLoadedMsg{ok: m.deps.Chat.LoadHistory(m.context, roomID, pageSize, "")}
		},
		func() tea.Msg {
			return rosterLoadedMsg{ok: m.deps.Chat.LoadRoster(m.context, roomID)}
		},
	)
}

// teardownChat unsubscribes, closes the socket and drops the room's
// local state. Safe to call more than once.
func (m model) teardownChat() model {
	s := &m.state.chat

	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil

	m.deps.Socket.Close()

	if s.msgChan != nil {
		// Release the pending channel waiter, if any.
		select {
		case s.msgChan <- socketClosedMsg{}:
		default:
		}
		s.msgChan = nil
	}

	if s.room.ID != "" {
		m.deps.Chat.ClearRoom(s.room.ID)
	}

	return m
}

func (m model) ChatUpdate(msg tea.Msg) (model, tea.Cmd) {
	s := &m.state.chat

	switch msg := msg.(type) {
	case socketReadyMsg:
		s.msgChan = msg.msgChan
		s.unsubs = msg.unsubs
		s.connState = m.deps.Socket.State()
		return m, waitForSocketMsg(s.msgChan)

	case socketFailedMsg:
		s.connState = m.deps.Socket.State()
		return m, func() tea.Msg {
			return visibleError{message: msg.err.Error()}
		}

	case connStateMsg:
		s.connState = msg.state
		return m, waitForSocketMsg(s.msgChan)

	case chatUpdatedMsg, rosterUpdatedMsg, typingUpdatedMsg:
		return m, waitForSocketMsg(s.msgChan)

	case socketClosedMsg:
		return m, nil

	case historyLoadedMsg, earlierLoadedMsg, rosterLoadedMsg:
		s.loading = false
		return m, nil

	case messageSentMsg:
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Back):
			m = m.teardownChat()
			return m.RoomsSwitch()

		case key.Matches(msg, keys.Roster):
			s.showRoster = !s.showRoster
			return m, nil

		case key.Matches(msg, keys.LoadEarlier):
			roomID := s.room.ID
			pageSize := m.deps.Config.Chat.HistoryPageSize
			return m, func() tea.Msg {
				return earlierLoadedMsg{ok: m.deps.Chat.LoadEarlier(m.context, roomID, pageSize)}
			}

		case key.Matches(msg, keys.Enter):
			content := strings.TrimSpace(s.input.Value())
			if content == "" {
				return m, nil
			}
			s.input.Reset()
			roomID := s.room.ID
			return m, func() tea.Msg {
				m.deps.Chat.SendMessage(roomID, content)
				return messageSentMsg{}
			}
		}

		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)

		// Only content keystrokes count as typing activity.
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace || msg.Type == tea.KeyBackspace {
			m.deps.Chat.NotifyTyping(s.room.ID)
		}
		return m, cmd
	}

	return m, nil
}

func (m model) ChatView() string {
	s := m.state.chat
	roomID := s.room.ID

	header := m.chatHeaderView()
	input := s.input.View()
	typing := m.typingLineView()
	status := m.chatStatusView()

	bodyHeight := m.viewportHeight
	bodyHeight -= lipgloss.Height(header)
	bodyHeight -= lipgloss.Height(typing)
	bodyHeight -= lipgloss.Height(input)
	bodyHeight -= lipgloss.Height(status)
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	messagesWidth := m.viewportWidth
	if s.showRoster {
		messagesWidth -= rosterWidth + 1
	}

	messages := m.messagesView(roomID, messagesWidth, bodyHeight)
	body := messages
	if s.showRoster {
		roster := m.rosterView(roomID, bodyHeight)
		body = lipgloss.JoinHorizontal(lipgloss.Top, messages, " ", roster)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		body,
		typing,
		input,
		status,
	)
}

func (m model) chatHeaderView() string {
	s := m.state.chat

	name := m.theme.TextBrand().Bold(true).Render(s.room.Name)
	online := m.theme.TextBody().Faint(true).
		Render(fmt.Sprintf("  %d online", m.deps.Chat.OnlineCount(s.room.ID)))
	conn := m.connBadgeView()

	left := name + online
	gap := max(m.viewportWidth-lipgloss.Width(left)-lipgloss.Width(conn), 1)

	line := left + strings.Repeat(" ", gap) + conn
	rule := m.theme.TextBody().Faint(true).Render(strings.Repeat("─", max(m.viewportWidth, 1)))

	return lipgloss.JoinVertical(lipgloss.Left, line, rule)
}

func (m model) connBadgeView() string {
	switch m.state.chat.connState {
	case transport.StateOpen:
		return m.theme.TextSuccess().Render("● connected")
	case transport.StateConnecting:
		return m.theme.TextHighlight().Render("● connecting...")
	case transport.StateReconnecting:
		return m.theme.TextHighlight().Render("● reconnecting...")
	case transport.StateDisconnected:
		return m.theme.TextError().Render("● disconnected")
	default:
		return m.theme.TextBody().Render("● offline")
	}
}

// messagesView renders the grouped log bottom-anchored: when there are
// more lines than fit, the oldest scroll out of view first.
func (m model) messagesView(roomID string, width, height int) string {
	if m.state.chat.loading {
		return m.theme.Base().Width(width).Height(height).
			AlignHorizontal(lipgloss.Center).AlignVertical(lipgloss.Center).
			Render(m.theme.TextHighlight().Render("Loading messages..."))
	}

	groups := chat.GroupForDisplay(m.deps.Chat.Messages(roomID))

	lines := []string{}
	for _, dateGroup := range groups {
		divider := m.theme.TextBody().Faint(true).Render("── " + dateGroup.Date + " ──")
		lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))

		for _, group := range dateGroup.Groups {
			if group.UserID == api.SystemUserID {
				for _, msg := range group.Messages {
					sys := m.theme.TextBody().Faint(true).Italic(true).Render("· " + msg.Content)
					lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center, sys))
				}
				continue
			}

			stamp := group.Messages[0].CreatedAt.Local().Format("15:04")
			sender := m.theme.TextAccent().Bold(true).Render(group.Username) +
				m.theme.TextBody().Faint(true).Render("  "+stamp)
			lines = append(lines, sender)

			for _, msg := range group.Messages {
				wrapped := wordwrap.String(msg.Content, max(width-2, 1))
				for _, line := range strings.Split(wrapped, "\n") {
					lines = append(lines, m.theme.TextBody().Render("  "+line))
				}
			}
			lines = append(lines, "")
		}
	}

	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}

	return m.theme.Base().Width(width).Height(height).
		Render(strings.Join(lines, "\n"))
}

func (m model) rosterView(roomID string, height int) string {
	users := m.deps.Chat.Roster(roomID)

	lines := []string{m.theme.TextAccent().Bold(true).Render("Participants")}
	for _, u := range users {
		dot := m.theme.TextBody().Faint(true).Render("○ ")
		if u.IsOnline {
			dot = m.theme.TextSuccess().Render("● ")
		}
		name := u.Username
		if u.IsTyping {
			name += " ✎"
		}
		lines = append(lines, dot+m.theme.TextBody().Render(name))
	}

	return m.theme.Base().
		Width(rosterWidth).
		Height(height).
		BorderLeft(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(m.theme.Border()).
		PaddingLeft(1).
		Render(strings.Join(lines, "\n"))
}

func (m model) typingLineView() string {
	s := m.state.chat
	typing := m.deps.Chat.TypingUsers(s.room.ID)

	var text string
	switch len(typing) {
	case 0:
		text = ""
	case 1:
		text = typing[0].Username + " is typing..."
	case 2:
		text = typing[0].Username + " and " + typing[1].Username + " are typing..."
	default:
		text = "several people are typing..."
	}

	return m.theme.TextBody().Faint(true).Italic(true).Render(text)
}

func (m model) chatStatusView() string {
	s := m.state.chat

	if errMsg := m.deps.Chat.Error(s.room.ID); errMsg != "" {
		return m.theme.TextError().Render("⚠ " + errMsg)
	}

	return m.theme.TextBody().Faint(true).
		Render("enter send • pgup earlier • ctrl+p participants • esc leave")
}
