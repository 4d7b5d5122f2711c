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
	loginFieldEmail = iota
	loginFieldPassword
	loginFieldCount
)

type loginState struct {
	inputs     [loginFieldCount]textinput.Model
	focus      int
	submitting bool
	error      string
}

type loginResultMsg struct {
	ok bool
}

var loginEmailValidator = validate.Compose(
	validate.NotEmpty("email"),
	validate.Email("email"),
)

func (m model) LoginSwitch() (model, tea.Cmd) {
	m = m.SwitchPage(loginPage)
	m = m.initLogin()
	return m, textinput.Blink
}

func (m model) initLogin() model {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 40
	email.PromptStyle = m.theme.TextBrand()
	email.TextStyle = m.theme.TextAccent()
	email.PlaceholderStyle = m.theme.TextBody()
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 40
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.PromptStyle = m.theme.TextBrand()
	password.TextStyle = m.theme.TextAccent()
	password.PlaceholderStyle = m.theme.TextBody()

	m.state.login = loginState{
		inputs: [loginFieldCount]textinput.Model{email, password},
	}

	m.state.footer.commands = []footerCommand{
		{key: "enter", value: "sign in"},
		{key: "tab", value: "next field"},
		{key: "ctrl+r", value: "register"},
	}

	return m
}

func (m model) LoginUpdate(msg tea.Msg) (model, tea.Cmd) {
	s := &m.state.login

	switch msg := msg.(type) {
	case loginResultMsg:
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
		case key.Matches(msg, keys.Tab):
			s.focus = (s.focus + 1) % loginFieldCount
			return m, m.focusLoginField()

		case key.Matches(msg, keys.RegisterPage):
			return m.RegisterSwitch()

		case key.Matches(msg, keys.Enter):
			if s.focus < loginFieldCount-1 {
				s.focus++
				return m, m.focusLoginField()
			}

			email := strings.TrimSpace(s.inputs[loginFieldEmail].Value())
			password := s.inputs[loginFieldPassword].Value()

			if err := loginEmailValidator(email); err != nil {
				s.error = err.Error()
				return m, nil
			}
			if err := validate.NotEmpty("password")(password); err != nil {
				s.error = err.Error()
				return m, nil
			}

			s.error = ""
			s.submitting = true
			return m, func() tea.Msg {
				return loginResultMsg{ok: m.deps.Session.Login(m.context, email, password)}
			}
		}
	}

	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return m, cmd
}

func (m model) focusLoginField() tea.Cmd {
	s := &m.state.login
	for i := range s.inputs {
		if i == s.focus {
			s.inputs[i].Focus()
		} else {
			s.inputs[i].Blur()
		}
	}
	return textinput.Blink
}

func (m model) LoginView() string {
	s := m.state.login

	var sections []string

	header := m.theme.TextBrand().
		Bold(true).
		Render("Sign In")
	sections = append(sections, header)

	sections = append(sections, "")

	sections = append(sections, m.theme.TextAccent().Render("Email:"))
	sections = append(sections, s.inputs[loginFieldEmail].View())
	sections = append(sections, "")
	sections = append(sections, m.theme.TextAccent().Render("Password:"))
	sections = append(sections, s.inputs[loginFieldPassword].View())

	if s.error != "" {
		sections = append(sections, "")
		errorMsg := m.theme.TextError().
			Render("⚠ " + s.error)
		sections = append(sections, errorMsg)
	}

	if s.submitting {
		sections = append(sections, "")
		sections = append(sections, m.theme.TextHighlight().Render("Signing in..."))
	}

	sections = append(sections, "")
	sections = append(sections, "")

	help := m.theme.TextBody().
		Faint(true).
		Render("Enter to sign in • Ctrl+R to create an account")
	sections = append(sections, help)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	containerStyle := m.theme.Base().
		Width(m.widthContent).
		Height(m.heightContent).
		AlignVertical(lipgloss.Center).
		AlignHorizontal(lipgloss.Center)

	return containerStyle.Render(content)
}
