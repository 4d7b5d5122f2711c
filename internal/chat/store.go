package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sodam-chat/sodam/internal/api"
	"github.com/sodam-chat/sodam/internal/logging"
	"github.com/sodam-chat/sodam/internal/transport"
)

const (
	defaultHistoryError = "failed to load messages"
	defaultRosterError  = "failed to load participants"
	notConnectedError   = "not connected, message not sent"
)

// ChatAPI is the slice of the REST client the session state depends on.
type ChatAPI interface {
	Messages(ctx context.Context, roomID string, limit int, before string, opts ...api.RequestOption) ([]api.Message, error)
	Users(ctx context.Context, roomID string, opts ...api.RequestOption) ([]api.ChatUser, error)
}

// Emitter is the outbound half of the transport adapter.
type Emitter interface {
	Emit(event string, data any) error
}

type TypingStatus struct {
	UserID   string
	Username string
	IsTyping bool
}

type Options struct {
	// TypingIdle is the quiet period after which the client's own
	// typing=false is emitted. TypingExpiry clears remote typing flags
	// whose stop event never arrived.
	TypingIdle   time.Duration
	TypingExpiry time.Duration
}

func (o Options) withDefaults() Options {
	if o.TypingIdle <= 0 {
		o.TypingIdle = 3 * time.Second
	}
	if o.TypingExpiry <= 0 {
		o.TypingExpiry = 5 * time.Second
	}
	return o
}

type roomState struct {
	log    *messageLog
	roster []api.ChatUser
	typing map[string]TypingStatus
	// expiry holds the per-user timer that clears a stuck remote
	// typing flag; a new typing event always cancels the old timer
	// before scheduling the next.
	expiry map[string]*time.Timer
	errMsg string

	selfTyping bool
	selfTimer  *time.Timer
}

// Store is the per-room merged view of REST history and live socket
// events: message log, roster, typing state. Mutators are called from
// the socket read goroutine, timers and the UI; a single mutex keeps
// each mutation atomic with respect to the others.
type Store struct {
	chatAPI ChatAPI
	emitter Emitter
	log     logging.Logger
	opts    Options

	mu    sync.Mutex
	rooms map[string]*roomState
}

func NewStore(chatAPI ChatAPI, emitter Emitter, opts Options, log logging.Logger) *Store {
	return &Store{
		chatAPI: chatAPI,
		emitter: emitter,
		log:     log,
		opts:    opts.withDefaults(),
		rooms:   map[string]*roomState{},
	}
}

// room must be called with the lock held.
func (s *Store) room(roomID string) *roomState {
	r, ok := s.rooms[roomID]
	if !ok {
		r = &roomState{
			log:    newMessageLog(),
			typing: map[string]TypingStatus{},
			expiry: map[string]*time.Timer{},
		}
		s.rooms[roomID] = r
	}
	return r
}

// LoadHistory fetches one page of past messages and merges it into the
// log, skipping ids already present. An empty before cursor loads the
// initial page; otherwise it pages backwards.
func (s *Store) LoadHistory(ctx context.Context, roomID string, limit int, before string) bool {
	messages, err := s.chatAPI.Messages(ctx, roomID, limit, before)
	if err != nil {
		s.failRoom(roomID, err, defaultHistoryError, logging.History)
		return false
	}

	s.mu.Lock()
	r := s.room(roomID)
	added := 0
	for _, msg := range messages {
		if r.log.append(msg) {
			added++
		}
	}
	r.errMsg = ""
	s.mu.Unlock()

	s.log.Debug(logging.Chat, logging.History, "history page merged", map[logging.ExtraKey]any{
		logging.RoomID: roomID,
		"Added":        added,
		"Fetched":      len(messages),
	})
	return true
}

// LoadEarlier pages backwards from the oldest message currently held.
func (s *Store) LoadEarlier(ctx context.Context, roomID string, limit int) bool {
	s.mu.Lock()
	before := s.room(roomID).log.oldestID()
	s.mu.Unlock()

	return s.LoadHistory(ctx, roomID, limit, before)
}

// LoadRoster replaces the room's participant list with the server's
// authoritative snapshot.
func (s *Store) LoadRoster(ctx context.Context, roomID string) bool {
	users, err := s.chatAPI.Users(ctx, roomID)
	if err != nil {
		s.failRoom(roomID, err, defaultRosterError, logging.Roster)
		return false
	}

	s.mu.Lock()
	r := s.room(roomID)
	r.roster = users
	// Prune typing state for users that left between snapshots.
	known := map[string]bool{}
	for _, u := range users {
		known[u.ID] = true
	}
	for id := range r.typing {
		if !known[id] {
			delete(r.typing, id)
			if t := r.expiry[id]; t != nil {
				t.Stop()
				delete(r.expiry, id)
			}
		}
	}
	r.errMsg = ""
	s.mu.Unlock()
	return true
}

// OnMessageReceived appends a live message unless its id is already in
// the log (covers the sender's own echo racing the broadcast). Reports
// whether the log changed.
func (s *Store) OnMessageReceived(msg api.Message) bool {
	if msg.RoomID == "" || msg.ID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room(msg.RoomID).log.append(msg)
}

// OnUserJoined marks the roster entry online, inserting it when the
// user was not yet known.
func (s *Store) OnUserJoined(roomID string, user api.ChatUser) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.room(roomID)
	for i := range r.roster {
		if r.roster[i].ID == user.ID {
			r.roster[i].IsOnline = true
			return
		}
	}
	user.IsOnline = true
	r.roster = append(r.roster, user)
}

// OnUserLeft marks the roster entry offline and drops any typing state.
func (s *Store) OnUserLeft(roomID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.room(roomID)
	for i := range r.roster {
		if r.roster[i].ID == userID {
			r.roster[i].IsOnline = false
			r.roster[i].IsTyping = false
			break
		}
	}
	delete(r.typing, userID)
	if t := r.expiry[userID]; t != nil {
		t.Stop()
		delete(r.expiry, userID)
	}
}

// OnTyping records a remote user's typing flag. A true flag schedules
// an expiry that clears it even if the stop event never arrives, and
// any previously scheduled expiry is cancelled first.
func (s *Store) OnTyping(roomID, userID, username string, isTyping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.room(roomID)
	if t := r.expiry[userID]; t != nil {
		t.Stop()
		delete(r.expiry, userID)
	}

	if isTyping {
		r.typing[userID] = TypingStatus{UserID: userID, Username: username, IsTyping: true}
		r.expiry[userID] = time.AfterFunc(s.opts.TypingExpiry, func() {
			s.clearRemoteTyping(roomID, userID)
		})
	} else {
		delete(r.typing, userID)
	}

	for i := range r.roster {
		if r.roster[i].ID == userID {
			r.roster[i].IsTyping = isTyping
			break
		}
	}
}

func (s *Store) clearRemoteTyping(roomID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.room(roomID)
	delete(r.typing, userID)
	delete(r.expiry, userID)
	for i := range r.roster {
		if r.roster[i].ID == userID {
			r.roster[i].IsTyping = false
			break
		}
	}
}

// NotifyTyping is called on every local keystroke. The first call emits
// typing=true; each call pushes back the single idle timer whose expiry
// emits typing=false exactly once.
func (s *Store) NotifyTyping(roomID string) {
	s.mu.Lock()
	r := s.room(roomID)

	start := !r.selfTyping
	r.selfTyping = true
	if r.selfTimer != nil {
		r.selfTimer.Stop()
	}
	r.selfTimer = time.AfterFunc(s.opts.TypingIdle, func() {
		s.stopTyping(roomID)
	})
	s.mu.Unlock()

	if start {
		if err := s.emitter.Emit(transport.EventTyping, transport.TypingPayload{IsTyping: true}); err != nil {
			s.log.Warn(logging.Chat, logging.Typing, "typing start not sent", map[logging.ExtraKey]any{
				logging.RoomID:       roomID,
				logging.ErrorMessage: err.Error(),
			})
		}
	}
}

// stopTyping emits typing=false once, whether the idle timer fired or a
// message send cut it short.
func (s *Store) stopTyping(roomID string) {
	s.mu.Lock()
	r := s.room(roomID)
	if !r.selfTyping {
		s.mu.Unlock()
		return
	}
	r.selfTyping = false
	if r.selfTimer != nil {
		r.selfTimer.Stop()
		r.selfTimer = nil
	}
	s.mu.Unlock()

	if err := s.emitter.Emit(transport.EventTyping, transport.TypingPayload{IsTyping: false}); err != nil {
		s.log.Warn(logging.Chat, logging.Typing, "typing stop not sent", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.ErrorMessage: err.Error(),
		})
	}
}

// SendMessage emits the message over the transport. When the socket is
// not open the send is rejected locally with a room-scoped error; it is
// never queued or silently dropped.
func (s *Store) SendMessage(roomID, content string) error {
	s.stopTyping(roomID)

	err := s.emitter.Emit(transport.EventSendMessage, transport.SendMessagePayload{Content: content})
	if err != nil {
		if errors.Is(err, transport.ErrNotOpen) {
			s.setRoomError(roomID, notConnectedError)
		} else {
			s.setRoomError(roomID, "failed to send message")
		}
		return err
	}
	return nil
}

// ClearRoom disposes per-room state after leaving a room.
func (s *Store) ClearRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rooms[roomID]; ok {
		for _, t := range r.expiry {
			t.Stop()
		}
		if r.selfTimer != nil {
			r.selfTimer.Stop()
		}
		delete(s.rooms, roomID)
	}
}

// Messages returns the room's log ordered by createdAt, arrival order
// breaking ties.
func (s *Store) Messages(roomID string) []api.Message {
	s.mu.Lock()
	out := s.room(roomID).log.snapshot()
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) MessageCount(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room(roomID).log.len()
}

func (s *Store) Roster(roomID string) []api.ChatUser {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.room(roomID)
	out := make([]api.ChatUser, len(r.roster))
	copy(out, r.roster)
	return out
}

func (s *Store) TypingUsers(roomID string) []TypingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.room(roomID)
	out := make([]TypingStatus, 0, len(r.typing))
	for _, ts := range r.typing {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (s *Store) OnlineCount(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, u := range s.room(roomID).roster {
		if u.IsOnline {
			n++
		}
	}
	return n
}

func (s *Store) Error(roomID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room(roomID).errMsg
}

func (s *Store) ClearError(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room(roomID).errMsg = ""
}

func (s *Store) setRoomError(roomID, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room(roomID).errMsg = msg
}

func (s *Store) failRoom(roomID string, err error, fallback string, sub logging.SubCategory) {
	msg := fallback
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}

	s.log.Error(logging.Chat, sub, fallback, map[logging.ExtraKey]any{
		logging.RoomID:       roomID,
		logging.ErrorMessage: err.Error(),
	})

	s.setRoomError(roomID, msg)
}
