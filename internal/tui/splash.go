package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type splashState struct {
	delay   bool
	session bool
	signed  bool
}

type DelayCompleteMsg struct{}

type sessionRestoredMsg struct {
	authenticated bool
}

func (m model) SplashInit() tea.Cmd {
	delayCmd := tea.Tick(time.Millisecond*1500, func(t time.Time) tea.Msg {
		return DelayCompleteMsg{}
	})

	restoreCmd := func() tea.Msg {
		m.deps.Session.Restore()
		ok := m.deps.Session.CheckStatus(m.context)
		return sessionRestoredMsg{authenticated: ok}
	}

	disableMouseCmd := func() tea.Msg {
		return tea.DisableMouse()
	}

	return tea.Batch(disableMouseCmd, delayCmd, restoreCmd)
}

func (m model) SplashUpdate(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case DelayCompleteMsg:
		m.state.splash.delay = true
	case sessionRestoredMsg:
		m.state.splash.session = true
		m.state.splash.signed = msg.authenticated
	}

	if m.state.splash.delay && m.state.splash.session {
		if m.state.splash.signed {
			return m.RoomsSwitch()
		}
		return m.LoginSwitch()
	}

	return m, nil
}

func (m model) SplashView() string {
	return lipgloss.Place(
		m.viewportWidth,
		m.viewportHeight,
		lipgloss.Center,
		lipgloss.Center,
		m.LogoView(),
	)
}

func (m model) LogoView() string {
	logo := m.theme.TextBrand().Bold(true).Render("sodam")
	tag := m.theme.TextBody().Faint(true).Render("a cozy place to talk")

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		tag,
	)
}
