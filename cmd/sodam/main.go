package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sodam-chat/sodam/internal/api"
	"github.com/sodam-chat/sodam/internal/chat"
	"github.com/sodam-chat/sodam/internal/config"
	"github.com/sodam-chat/sodam/internal/logging"
	"github.com/sodam-chat/sodam/internal/rooms"
	"github.com/sodam-chat/sodam/internal/session"
	"github.com/sodam-chat/sodam/internal/transport"
	"github.com/sodam-chat/sodam/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log := logging.NewLogger(&logging.Config{
		FilePath: cfg.Logging.FilePath,
		Level:    cfg.Logging.Level,
		Backend:  cfg.Logging.Backend,
	})
	log.Init()
	log.Info(logging.General, logging.Startup, "starting sodam", map[logging.ExtraKey]any{
		logging.AppName: "sodam",
	})

	creds := session.NewFileCredentialStore()
	notifier := session.NewAuthFailureNotifier()

	var sessionStore *session.Store

	client := api.NewClient(
		api.WithBaseURL(cfg.Server.BaseURL),
		api.WithRequestTimeout(cfg.Server.RequestTimeout),
		api.WithMaxRetries(cfg.Server.MaxRetries),
		api.WithBearerTokenSource(func() string {
			if sessionStore == nil {
				return ""
			}
			return sessionStore.Token()
		}),
		api.WithAuthFailureHandler(func() {
			notifier.Trip()
		}),
	)

	sessionStore = session.NewStore(client.Auth, creds, notifier, log)

	socketURL := cfg.Socket.URL
	if socketURL == "" {
		socketURL = cfg.Server.BaseURL
	}
	socket := transport.NewAdapter(transport.Config{
		URL:               socketURL,
		HandshakeTimeout:  cfg.Socket.HandshakeTimeout,
		ReconnectAttempts: cfg.Socket.ReconnectAttempts,
		ReconnectDelay:    cfg.Socket.ReconnectDelay,
	}, func() {
		notifier.Trip()
	}, log)

	roomsStore := rooms.NewStore(client.Rooms, log)
	chatStore := chat.NewStore(client.Chat, socket, chat.Options{
		TypingIdle:   cfg.Chat.TypingIdle,
		TypingExpiry: cfg.Chat.TypingExpiry,
	}, log)

	model, err := tui.NewModel(lipgloss.DefaultRenderer(), tui.Deps{
		Config:  cfg,
		Log:     log,
		Session: sessionStore,
		Rooms:   roomsStore,
		Chat:    chatStore,
		Socket:  socket,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize:", err)
		os.Exit(1)
	}

	program := tea.NewProgram(model, tea.WithAltScreen())

	// One forced logout no matter how many requests fail at once; the
	// notifier re-arms on the next successful sign-in.
	notifier.SetHandler(func() {
		sessionStore.ForceLogout()
		socket.Close()
		program.Send(tui.ForcedLogoutMsg{})
	})

	if _, err := program.Run(); err != nil {
		fmt.Println("Error running program:", err)
		os.Exit(1)
	}

	log.Info(logging.General, logging.Shutdown, "sodam stopped", nil)
}
