package tui

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/sodam-chat/sodam/internal/api"
	"github.com/sodam-chat/sodam/internal/transport"
)

type socketReadyMsg struct {
	msgChan chan tea.Msg
	unsubs  []func()
}

type socketFailedMsg struct {
	err error
}

type socketClosedMsg struct{}

type chatUpdatedMsg struct{}

type rosterUpdatedMsg struct{}

type typingUpdatedMsg struct{}

type connStateMsg struct {
	state transport.State
}

// connectSocket subscribes the chat store to the room's live events and
// dials. Events mutate the store on the socket's read goroutine; the
// channel only carries repaint hints back into the program loop.
func (m model) connectSocket(roomID string) tea.Cmd {
	socket := m.deps.Socket
	chatStore := m.deps.Chat
	token := m.deps.Session.Token()

	return func() tea.Msg {
		msgChan := make(chan tea.Msg, 100)
		push := func(msg tea.Msg) {
			select {
			case msgChan <- msg:
			default:
			}
		}

		unsubs := []func(){
			socket.Subscribe(transport.EventMessage, func(env transport.Envelope) {
				var p transport.MessagePayload
				if err := json.Unmarshal(env.Data, &p); err != nil {
					return
				}
				chatStore.OnMessageReceived(api.Message{
					ID:        p.ID,
					RoomID:    env.RoomID,
					UserID:    p.UserID,
					Username:  p.Username,
					Content:   p.Content,
					CreatedAt: p.CreatedAt,
				})
				push(chatUpdatedMsg{})
			}),
			socket.Subscribe(transport.EventUserJoined, func(env transport.Envelope) {
				var p transport.PresencePayload
				if err := json.Unmarshal(env.Data, &p); err != nil {
					return
				}
				chatStore.OnUserJoined(env.RoomID, api.ChatUser{
					ID:       p.UserID,
					Username: p.Username,
					JoinedAt: p.JoinedAt,
				})
				chatStore.OnMessageReceived(systemMessage(env.RoomID, p.Username+" joined the room"))
				push(rosterUpdatedMsg{})
			}),
			socket.Subscribe(transport.EventUserLeft, func(env transport.Envelope) {
				var p transport.PresencePayload
				if err := json.Unmarshal(env.Data, &p); err != nil {
					return
				}
				chatStore.OnUserLeft(env.RoomID, p.UserID)
				chatStore.OnMessageReceived(systemMessage(env.RoomID, p.Username+" left the room"))
				push(rosterUpdatedMsg{})
			}),
			socket.Subscribe(transport.EventTyping, func(env transport.Envelope) {
				var p transport.TypingPayload
				if err := json.Unmarshal(env.Data, &p); err != nil {
					return
				}
				chatStore.OnTyping(env.RoomID, p.UserID, p.Username, p.IsTyping)
				push(typingUpdatedMsg{})
			}),
			socket.OnStateChange(func(s transport.State) {
				push(connStateMsg{state: s})
			}),
		}

		if err := socket.Dial(context.Background(), token, roomID); err != nil {
			for _, unsub := range unsubs {
				unsub()
			}
			return socketFailedMsg{err: err}
		}

		return socketReadyMsg{msgChan: msgChan, unsubs: unsubs}
	}
}

func waitForSocketMsg(msgChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-msgChan
	}
}

// systemMessage is a locally synthesized announcement; the id only has
// to be unique within the log.
func systemMessage(roomID, content string) api.Message {
	return api.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		UserID:    api.SystemUserID,
		Username:  "System",
		Content:   content,
		CreatedAt: time.Now(),
	}
}
