package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sodam-chat/sodam/internal/api"
)

type roomsState struct {
	index   int
	loading bool
	error   string
}

type roomsLoadedMsg struct {
	ok bool
}

type joinedRoomMsg struct {
	room api.Room
	ok   bool
}

type leftRoomMsg struct {
	ok bool
}

type loggedOutMsg struct{}

func (m model) RoomsSwitch() (model, tea.Cmd) {
	m = m.SwitchPage(roomsPage)
	m.state.rooms = roomsState{loading: true}

	m.state.footer.commands = []footerCommand{
		{key: "enter", value: "open"},
		{key: "n", value: "new room"},
		{key: "x", value: "leave"},
		{key: "r", value: "refresh"},
		{key: "ctrl+l", value: "log out"},
	}

	return m, m.loadRoomsCmd()
}

func (m model) loadRoomsCmd() tea.Cmd {
	return func() tea.Msg {
		return roomsLoadedMsg{ok: m.deps.Rooms.FetchRooms(m.context)}
	}
}

// roomList is the display order: joined rooms first, then the rest.
func (m model) roomList() []api.Room {
	joined := m.deps.Rooms.JoinedRooms()
	available := m.deps.Rooms.AvailableRooms()
	return append(joined, available...)
}

func (m model) RoomsUpdate(msg tea.Msg) (model, tea.Cmd) {
	s := &m.state.rooms

	switch msg := msg.(type) {
	case roomsLoadedMsg:
		s.loading = false
		if !msg.ok {
			s.error = m.deps.Rooms.Error()
		} else {
			s.error = ""
		}
		if n := len(m.roomList()); s.index >= n && n > 0 {
			s.index = n - 1
		}
		return m, nil

	case joinedRoomMsg:
		s.loading = false
		if !msg.ok {
			s.error = m.deps.Rooms.Error()
			return m, nil
		}
		return m.ChatSwitch(msg.room)

	case leftRoomMsg:
		s.loading = false
		if !msg.ok {
			s.error = m.deps.Rooms.Error()
		}
		return m, nil

	case loggedOutMsg:
		return m.LoginSwitch()

	case tea.KeyMsg:
		if s.loading {
			return m, nil
		}

		list := m.roomList()

		switch {
		case key.Matches(msg, keys.Up):
			if s.index > 0 {
				s.index--
			}
		case key.Matches(msg, keys.Down):
			if s.index < len(list)-1 {
				s.index++
			}
		case key.Matches(msg, keys.Refresh):
			s.loading = true
			return m, m.loadRoomsCmd()
		case key.Matches(msg, keys.NewRoomPage):
			return m.NewRoomSwitch()
		case key.Matches(msg, keys.Logout):
			return m, func() tea.Msg {
				m.deps.Session.Logout(m.context)
				return loggedOutMsg{}
			}
		case key.Matches(msg, keys.LeaveRoom):
			if len(list) == 0 {
				return m, nil
			}
			room := list[s.index]
			if !room.IsJoined {
				return m, nil
			}
			s.loading = true
			return m, func() tea.Msg {
				return leftRoomMsg{ok: m.deps.Rooms.LeaveRoom(m.context, room.ID)}
			}
		case key.Matches(msg, keys.Enter):
			if len(list) == 0 {
				return m, nil
			}
			room := list[s.index]
			if room.IsJoined {
				return m.ChatSwitch(room)
			}
			s.loading = true
			return m, func() tea.Msg {
				ok := m.deps.Rooms.JoinRoom(m.context, room.ID)
				room.IsJoined = ok
				return joinedRoomMsg{room: room, ok: ok}
			}
		}
	}

	return m, nil
}

func (m model) RoomsView() string {
	s := m.state.rooms

	var sections []string

	header := m.theme.TextBrand().
		Bold(true).
		Render("Rooms")
	sections = append(sections, header)

	if identity := m.deps.Session.Identity(); identity != nil {
		sections = append(sections, m.theme.TextBody().Faint(true).Render("signed in as "+identity.Username))
	}
	sections = append(sections, "")

	if s.loading {
		sections = append(sections, m.theme.TextHighlight().Render("Loading rooms..."))
	} else {
		list := m.roomList()
		if len(list) == 0 {
			sections = append(sections, m.theme.TextBody().Render("No rooms yet. Press n to create one."))
		}

		lastJoined := -1
		for i, room := range list {
			if room.IsJoined {
				lastJoined = i
			}
		}

		for i, room := range list {
			if i == 0 && room.IsJoined {
				sections = append(sections, m.theme.TextAccent().Bold(true).Render("Joined"))
			}
			if i == lastJoined+1 {
				if lastJoined >= 0 {
					sections = append(sections, "")
				}
				sections = append(sections, m.theme.TextAccent().Bold(true).Render("Available"))
			}
			sections = append(sections, m.roomLine(room, i == s.index))
		}
	}

	if s.error != "" {
		sections = append(sections, "")
		sections = append(sections, m.theme.TextError().Render("⚠ "+s.error))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	containerStyle := m.theme.Base().
		Width(m.widthContent).
		Height(m.heightContent).
		AlignVertical(lipgloss.Center).
		AlignHorizontal(lipgloss.Center)

	return containerStyle.Render(content)
}

func (m model) roomLine(room api.Room, selected bool) string {
	cursor := "  "
	style := m.theme.TextBody()
	if selected {
		cursor = "> "
		style = m.theme.TextHighlight()
	}

	name := room.Name
	if room.IsPrivate {
		name += " 🔒"
	}

	meta := fmt.Sprintf("  %d participants", room.ParticipantsCount)

	return style.Render(cursor+name) + m.theme.TextBody().Faint(true).Render(meta)
}
