package tui

import (
	"context"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sodam-chat/sodam/internal/chat"
	"github.com/sodam-chat/sodam/internal/config"
	"github.com/sodam-chat/sodam/internal/logging"
	"github.com/sodam-chat/sodam/internal/rooms"
	"github.com/sodam-chat/sodam/internal/session"
	"github.com/sodam-chat/sodam/internal/transport"
	"github.com/sodam-chat/sodam/internal/tui/theme"
)

type page = int
type size = int

const (
	splashPage page = iota
	loginPage
	registerPage
	roomsPage
	newRoomPage
	chatPage
)

const (
	undersized size = iota
	small
	medium
	large
)

type state struct {
	splash   splashState
	login    loginState
	register registerState
	rooms    roomsState
	newRoom  newRoomState
	chat     chatState
	footer   footerState
}

type visibleError struct {
	message string
}

// ForcedLogoutMsg is sent into the program when the server rejects the
// session's credentials outside of a user-initiated action.
type ForcedLogoutMsg struct{}

// Deps is everything the TUI reads and mutates. The stores own all chat
// state; the model only holds view state.
type Deps struct {
	Config  *config.Config
	Log     logging.Logger
	Session *session.Store
	Rooms   *rooms.Store
	Chat    *chat.Store
	Socket  *transport.Adapter
}

type model struct {
	switched bool
	renderer *lipgloss.Renderer
	page     page
	state    state
	context  context.Context
	deps     Deps
	error    *visibleError

	viewportWidth   int
	viewportHeight  int
	widthContainer  int
	heightContainer int
	widthContent    int
	heightContent   int
	size            size
	theme           theme.Theme
}

func NewModel(renderer *lipgloss.Renderer, deps Deps) (tea.Model, error) {
	m := model{
		context:  context.Background(),
		page:     splashPage,
		renderer: renderer,
		deps:     deps,
		state: state{
			splash: splashState{},
			footer: footerState{
				commands: []footerCommand{},
			},
		},
		theme: theme.BasicTheme(renderer, nil),
	}

	return m, nil
}

func (m model) Init() tea.Cmd {
	return m.SplashInit()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{}

	switch msg := msg.(type) {
	case visibleError:
		m.error = &msg
	case ForcedLogoutMsg:
		return m.forcedLogout()
	case tea.WindowSizeMsg:
		m.viewportWidth = msg.Width
		m.viewportHeight = msg.Height

		switch {
		case m.viewportWidth < 20 || m.viewportHeight < 10:
			m.size = undersized
			m.widthContainer = m.viewportWidth
			m.heightContainer = m.viewportHeight
		case m.viewportWidth < 50:
			m.size = small
			m.widthContainer = m.viewportWidth
			m.heightContainer = m.viewportHeight
		case m.viewportWidth < 80:
			m.size = medium
			m.widthContainer = 50
			m.heightContainer = int(math.Min(float64(msg.Height), 30))
		default:
			m.size = large
			m.widthContainer = 80
			m.heightContainer = int(math.Min(float64(msg.Height), 30))
		}

		m.widthContent = m.widthContainer - 2
		m.heightContent = m.heightContainer
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Back):
			if m.error != nil {
				if m.page == splashPage {
					return m, tea.Quit
				}
				m.error = nil
				return m, nil
			}
		case key.Matches(msg, keys.Quit):
			return m.quit()
		}
	}

	var cmd tea.Cmd
	switch m.page {
	case splashPage:
		m, cmd = m.SplashUpdate(msg)
	case loginPage:
		m, cmd = m.LoginUpdate(msg)
	case registerPage:
		m, cmd = m.RegisterUpdate(msg)
	case roomsPage:
		m, cmd = m.RoomsUpdate(msg)
	case newRoomPage:
		m, cmd = m.NewRoomUpdate(msg)
	case chatPage:
		m, cmd = m.ChatUpdate(msg)
	}

	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if m.switched {
		m.switched = false
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.size == undersized {
		return m.ResizeView()
	}

	switch m.page {
	case splashPage:
		return m.SplashView()
	case chatPage:
		return m.ChatView()
	default:
		footer := m.FooterView()
		content := m.getContent()

		height := m.heightContainer
		height -= lipgloss.Height(footer)

		body := m.theme.Base().Width(m.widthContainer).Height(height).Render(content)

		sb := strings.Builder{}
		sb.WriteString(body)
		sb.WriteString(footer)

		return m.renderer.Place(
			m.viewportWidth,
			m.viewportHeight,
			lipgloss.Center,
			lipgloss.Center,
			m.theme.Base().
				MaxWidth(m.widthContainer).
				MaxHeight(m.heightContainer).
				Render(sb.String()),
		)
	}
}

func (m model) getContent() string {
	page := "unknown"
	switch m.page {
	case loginPage:
		page = m.LoginView()
	case registerPage:
		page = m.RegisterView()
	case roomsPage:
		page = m.RoomsView()
	case newRoomPage:
		page = m.NewRoomView()
	}
	return page
}

func (m model) SwitchPage(page page) model {
	m.page = page
	m.switched = true
	return m
}

// forcedLogout lands on the login page from anywhere, tearing down the
// socket when a chat session was live.
func (m model) forcedLogout() (tea.Model, tea.Cmd) {
	if m.page == chatPage {
		m = m.teardownChat()
	}

	var next model
	var cmd tea.Cmd
	next, cmd = m.LoginSwitch()
	next.state.login.error = "session expired, please sign in again"
	return next, cmd
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if m.page == chatPage {
		m = m.teardownChat()
	}
	return m, tea.Quit
}

func (m model) ResizeView() string {
	return lipgloss.Place(
		m.viewportWidth,
		m.viewportHeight,
		lipgloss.Center,
		lipgloss.Center,
		"Terminal too small.",
	)
}
