package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sodam-chat/sodam/internal/tui/validate"
)

const (
	registerFieldUsername = iota
	registerFieldEmail
	registerFieldPassword
	registerFieldConfirm
	registerFieldCount
)

type registerState struct {
	inputs     [registerFieldCount]textinput.Model
	focus      int
	submitting bool
	error      string
}

type registerResultMsg struct {
	ok bool
}

var (
	registerUsernameValidator = validate.Compose(
		validate.NotEmpty("username"),
		validate.WithinLen(3, 32, "username"),
	)
	registerEmailValidator = validate.Compose(
		validate.NotEmpty("email"),
		validate.Email("email"),
	)
	registerPasswordValidator = validate.Compose(
		validate.NotEmpty("password"),
		validate.WithinLen(8, 128, "password"),
	)
)

func (m model) RegisterSwitch() (model, tea.Cmd) {
	m = m.SwitchPage(registerPage)
	m = m.initRegister()
	return m, textinput.Blink
}

func (m model) initRegister() model {
	mk := func(placeholder string, secret bool) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 128
		ti.Width = 40
		ti.PromptStyle = m.theme.TextBrand()
		ti.TextStyle = m.theme.TextAccent()
		ti.PlaceholderStyle = m.theme.TextBody()
		if secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		return ti
	}

	inputs := [registerFieldCount]textinput.Model{
		mk("username", false),
		mk("you@example.com", false),
		mk("password", true),
		mk("confirm password", true),
	}
	inputs[registerFieldUsername].Focus()

	m.state.register = registerState{inputs: inputs}

	m.state.footer.commands = []footerCommand{
		{key: "enter", value: "create account"},
		{key: "tab", value: "next field"},
		{key: "esc", value: "back to sign in"},
	}

	return m
}

func (m model) RegisterUpdate(msg tea.Msg) (model, tea.Cmd) {
	s := &m.state.register

	switch msg := msg.(type) {
	case registerResultMsg:
		s.submitting = false
		if msg.ok {
			return m.RoomsSwitch()
		}
		s.error = m.deps.Session.Error()
		return m, nil

	case tea.KeyMsg:
		if s.submitting {
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Back):
			return m.LoginSwitch()

		case key.Matches(msg, keys.Tab):
			s.focus = (s.focus + 1) % registerFieldCount
			return m, m.focusRegisterField()

		case key.Matches(msg, keys.Enter):
			if s.focus < registerFieldCount-1 {
				s.focus++
				return m, m.focusRegisterField()
			}

			username := strings.TrimSpace(s.inputs[registerFieldUsername].Value())
			email := strings.TrimSpace(s.inputs[registerFieldEmail].Value())
			password := s.inputs[registerFieldPassword].Value()
			confirm := s.inputs[registerFieldConfirm].Value()

			if err := registerUsernameValidator(username); err != nil {
				s.error = err.Error()
				return m, nil
			}
			if err := registerEmailValidator(email); err != nil {
				s.error = err.Error()
				return m, nil
			}
			if err := registerPasswordValidator(password); err != nil {
				s.error = err.Error()
				return m, nil
			}
			if password != confirm {
				s.error = "passwords do not match"
				return m, nil
			}

			s.error = ""
			s.submitting = true
			return m, func() tea.Msg {
				return registerResultMsg{ok: m.deps.Session.Register(m.context, username, email, password)}
			}
		}
	}

	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return m, cmd
}

func (m model) focusRegisterField() tea.Cmd {
	s := &m.state.register
	for i := range s.inputs {
		if i == s.focus {
			s.inputs[i].Focus()
		} else {
			s.inputs[i].Blur()
		}
	}
	return textinput.Blink
}

func (m model) RegisterView() string {
	s := m.state.register

	var sections []string

	header := m.theme.TextBrand().
		Bold(true).
		Render("Create Account")
	sections = append(sections, header)

	sections = append(sections, "")

	labels := [registerFieldCount]string{"Username:", "Email:", "Password:", "Confirm Password:"}
	for i := range s.inputs {
		sections = append(sections, m.theme.TextAccent().Render(labels[i]))
		sections = append(sections, s.inputs[i].View())
	}

	if s.error != "" {
		sections = append(sections, "")
		errorMsg := m.theme.TextError().
			Render("⚠ " + s.error)
		sections = append(sections, errorMsg)
	}

	if s.submitting {
		sections = append(sections, "")
		sections = append(sections, m.theme.TextHighlight().Render("Creating account..."))
	}

	sections = append(sections, "")

	help := m.theme.TextBody().
		Faint(true).
		Render("Enter to submit • Esc to go back")
	sections = append(sections, help)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	containerStyle := m.theme.Base().
		Width(m.widthContent).
		Height(m.heightContent).
		AlignVertical(lipgloss.Center).
		AlignHorizontal(lipgloss.Center)

	return containerStyle.Render(content)
}
