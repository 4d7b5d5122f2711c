package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sodam-chat/sodam/internal/api"
)

const (
	newRoomFieldName = iota
	newRoomFieldDescription
	newRoomFieldPrivate
	newRoomFieldCount
)

type newRoomState struct {
	inputs   [2]textinput.Model
	focus    int
	private  bool
	creating bool
	error    string
}

type roomCreatedMsg struct {
	room *api.Room
	err  error
}

func (m model) NewRoomSwitch() (model, tea.Cmd) {
	m = m.SwitchPage(newRoomPage)
	m = m.initNewRoom()
	return m, textinput.Blink
}

func (m model) initNewRoom() model {
	name := textinput.New()
	name.Placeholder = "room name"
	name.CharLimit = 64
	name.Width = 40
	name.PromptStyle = m.theme.TextBrand()
	name.TextStyle = m.theme.TextAccent()
	name.PlaceholderStyle = m.theme.TextBody()
	name.Focus()

	description := textinput.New()
	description.Placeholder = "what is this room about? (optional)"
	description.CharLimit = 256
	description.Width = 40
	description.PromptStyle = m.theme.TextBrand()
	description.TextStyle = m.theme.TextAccent()
	description.PlaceholderStyle = m.theme.TextBody()

	m.state.newRoom = newRoomState{
		inputs: [2]textinput.Model{name, description},
	}

	m.state.footer.commands = []footerCommand{
		{key: "enter", value: "create"},
		{key: "tab", value: "next field"},
		{key: "esc", value: "cancel"},
	}

	return m
}

func (m model) NewRoomUpdate(msg tea.Msg) (model, tea.Cmd) {
	s := &m.state.newRoom

	switch msg := msg.(type) {
	case roomCreatedMsg:
		s.creating = false
		if msg.err != nil {
			s.error = msg.err.Error()
			if serverErr := m.deps.Rooms.Error(); serverErr != "" {
				s.error = serverErr
			}
			return m, nil
		}
		return m.ChatSwitch(*msg.room)

	case tea.KeyMsg:
		if s.creating {
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Back):
			return m.RoomsSwitch()

		case key.Matches(msg, keys.Tab):
			s.focus = (s.focus + 1) % newRoomFieldCount
			return m, m.focusNewRoomField()

		case key.Matches(msg, keys.Enter):
			if s.focus == newRoomFieldPrivate {
				s.private = !s.private
				return m, nil
			}
			if s.focus < newRoomFieldPrivate-1 {
				s.focus++
				return m, m.focusNewRoomField()
			}

			name := strings.TrimSpace(s.inputs[newRoomFieldName].Value())
			description := strings.TrimSpace(s.inputs[newRoomFieldDescription].Value())
			if name == "" {
				s.error = "room name cannot be empty"
				return m, nil
			}

			s.error = ""
			s.creating = true
			private := s.private
			return m, func() tea.Msg {
				room, err := m.deps.Rooms.CreateRoom(m.context, name, description, private)
				return roomCreatedMsg{room: room, err: err}
			}
		}

		if s.focus == newRoomFieldPrivate {
			if msg.String() == " " {
				s.private = !s.private
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if s.focus < len(s.inputs) {
		s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	}
	return m, cmd
}

func (m model) focusNewRoomField() tea.Cmd {
	s := &m.state.newRoom
	for i := range s.inputs {
		if i == s.focus {
			s.inputs[i].Focus()
		} else {
			s.inputs[i].Blur()
		}
	}
	return textinput.Blink
}

func (m model) NewRoomView() string {
	s := m.state.newRoom

	var sections []string

	header := m.theme.TextBrand().
		Bold(true).
		Render("Create New Room")
	sections = append(sections, header)

	sections = append(sections, "")

	sections = append(sections, m.theme.TextAccent().Render("Name:"))
	sections = append(sections, s.inputs[newRoomFieldName].View())
	sections = append(sections, "")
	sections = append(sections, m.theme.TextAccent().Render("Description:"))
	sections = append(sections, s.inputs[newRoomFieldDescription].View())
	sections = append(sections, "")

	check := "[ ]"
	if s.private {
		check = "[x]"
	}
	privateStyle := m.theme.TextBody()
	if s.focus == newRoomFieldPrivate {
		privateStyle = m.theme.TextHighlight()
	}
	sections = append(sections, privateStyle.Render(check+" Private room (invite only)"))

	if s.error != "" {
		sections = append(sections, "")
		sections = append(sections, m.theme.TextError().Render("⚠ "+s.error))
	}

	if s.creating {
		sections = append(sections, "")
		sections = append(sections, m.theme.TextHighlight().Render("Creating room..."))
	}

	sections = append(sections, "")

	help := m.theme.TextBody().
		Faint(true).
		Render("Enter to create • Esc to cancel")
	sections = append(sections, help)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	containerStyle := m.theme.Base().
		Width(m.widthContent).
		Height(m.heightContent).
		AlignVertical(lipgloss.Center).
		AlignHorizontal(lipgloss.Center)

	return containerStyle.Render(content)
}
