package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/sodam-chat/sodam/internal/logging"
)

var (
	ErrMissingToken  = errors.New("transport: cannot connect without an identity token")
	ErrMissingRoomID = errors.New("transport: cannot connect without a room id")
	ErrNotOpen       = errors.New("transport: connection not open")
)

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	// StateDisconnected is terminal until the next Dial: the reconnect
	// budget is spent.
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

type Config struct {
	// URL is the server base URL; http(s) schemes are rewritten to ws(s).
	URL               string
	HandshakeTimeout  time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

type Handler func(Envelope)
type StateHandler func(State)

// Adapter maintains at most one live socket. Dialing a new room tears
// down the previous connection first; callbacks from a torn-down
// connection never fire (generation guard).
type Adapter struct {
	cfg           Config
	log           logging.Logger
	onAuthFailure func()

	mu        sync.Mutex
	conn      *websocket.Conn
	state     State
	gen       int
	roomID    string
	token     string
	nextSubID int
	subs      map[string]map[int]Handler
	stateSubs map[int]StateHandler

	// writeMu serializes frames; gorilla allows one concurrent writer.
	writeMu sync.Mutex
}

// NewAdapter wires the adapter's auth failure hook at construction.
// onAuthFailure may be nil.
func NewAdapter(cfg Config, onAuthFailure func(), log logging.Logger) *Adapter {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.ReconnectAttempts <= 0 {
		cfg.ReconnectAttempts = 5
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}

	return &Adapter{
		cfg:           cfg,
		log:           log,
		onAuthFailure: onAuthFailure,
		subs:          map[string]map[int]Handler{},
		stateSubs:     map[int]StateHandler{},
	}
}

// Dial opens the socket for one room. Calling it without a token or
// room is a caller error and makes no connection attempt.
func (a *Adapter) Dial(ctx context.Context, token, roomID string) error {
	if token == "" {
		return ErrMissingToken
	}
	if roomID == "" {
		return ErrMissingRoomID
	}

	a.mu.Lock()
	if a.conn != nil {
		// Tear down the previous room's socket before opening a new one.
		old := a.conn
		a.conn = nil
		a.gen++
		old.Close()
	}
	a.gen++
	gen := a.gen
	a.token = token
	a.roomID = roomID
	a.state = StateConnecting
	a.mu.Unlock()
	a.notifyState(StateConnecting)

	conn, err := a.dialOnce(ctx, token, roomID)
	if err != nil {
		a.setState(gen, StateIdle)
		return err
	}

	a.mu.Lock()
	if gen != a.gen {
		// Closed or re-dialed while the handshake was in flight.
		a.mu.Unlock()
		conn.Close()
		return fmt.Errorf("transport: connection superseded during dial")
	}
	a.conn = conn
	a.state = StateOpen
	a.mu.Unlock()
	a.notifyState(StateOpen)

	a.log.Info(logging.Transport, logging.Connect, "socket connected", map[logging.ExtraKey]any{
		logging.RoomID: roomID,
	})

	go a.readLoop(conn, gen)
	return nil
}

func (a *Adapter) dialOnce(ctx context.Context, token, roomID string) (*websocket.Conn, error) {
	wsURL, err := buildSocketURL(a.cfg.URL, token, roomID)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: a.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to websocket: %w", err)
	}
	return conn, nil
}

// Emit sends one event on the open connection. Before the connection is
// open this is a no-op that returns ErrNotOpen; nothing is queued.
func (a *Adapter) Emit(event string, data any) error {
	a.mu.Lock()
	if a.state != StateOpen || a.conn == nil {
		state := a.state
		a.mu.Unlock()
		a.log.Warn(logging.Transport, logging.EmitDrop, "emit while connection not open, dropping", map[logging.ExtraKey]any{
			logging.Event:        event,
			logging.ErrorMessage: state.String(),
		})
		return ErrNotOpen
	}
	conn := a.conn
	roomID := a.roomID
	a.mu.Unlock()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return conn.WriteJSON(Envelope{Event: event, RoomID: roomID, Data: payload})
}

// Subscribe registers a handler for one event name and returns its
// unsubscribe func. Handlers run on the read goroutine.
func (a *Adapter) Subscribe(event string, fn Handler) func() {
	a.mu.Lock()
	a.nextSubID++
	id := a.nextSubID
	if a.subs[event] == nil {
		a.subs[event] = map[int]Handler{}
	}
	a.subs[event][id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.subs[event], id)
		a.mu.Unlock()
	}
}

// OnStateChange observes connection lifecycle transitions.
func (a *Adapter) OnStateChange(fn StateHandler) func() {
	a.mu.Lock()
	a.nextSubID++
	id := a.nextSubID
	a.stateSubs[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.stateSubs, id)
		a.mu.Unlock()
	}
}

func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Close is idempotent and always safe, including before any Dial. It
// invalidates in-flight callbacks from the closed connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.gen++
	wasIdle := a.state == StateIdle
	a.state = StateIdle
	a.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if !wasIdle {
		a.notifyState(StateIdle)
	}
	return nil
}

func (a *Adapter) readLoop(conn *websocket.Conn, gen int) {
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if a.stale(gen) {
				return
			}
			a.log.Warn(logging.Transport, logging.Connect, "socket read failed", map[logging.ExtraKey]any{
				logging.RoomID:       a.currentRoom(),
				logging.ErrorMessage: err.Error(),
			})
			a.reconnect(gen)
			return
		}

		if a.stale(gen) {
			return
		}

		if env.Event == EventError && a.handleErrorEvent(env) {
			continue
		}

		a.dispatch(env)
	}
}

// handleErrorEvent reports whether the envelope was an authorization
// failure, which triggers the app-wide logout hook instead of normal
// dispatch.
func (a *Adapter) handleErrorEvent(env Envelope) bool {
	var payload ErrorPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return false
	}
	if payload.Code != CodeUnauthorized && payload.Code != CodeForbidden {
		return false
	}

	a.log.Warn(logging.Transport, logging.AuthFailure, "socket rejected credentials", map[logging.ExtraKey]any{
		logging.ErrorMessage: payload.Message,
	})
	if a.onAuthFailure != nil {
		a.onAuthFailure()
	}
	return true
}

func (a *Adapter) dispatch(env Envelope) {
	a.mu.Lock()
	handlers := make([]Handler, 0, len(a.subs[env.Event]))
	for _, fn := range a.subs[env.Event] {
		handlers = append(handlers, fn)
	}
	a.mu.Unlock()

	for _, fn := range handlers {
		fn(env)
	}
}

// reconnect re-dials with a fixed delay up to the configured bound.
// Exhausting the budget surfaces StateDisconnected; it never panics the
// caller.
func (a *Adapter) reconnect(gen int) {
	a.setState(gen, StateReconnecting)

	attempt := 0
	operation := func() (*websocket.Conn, error) {
		if a.stale(gen) {
			return nil, backoff.Permanent(errors.New("connection superseded"))
		}
		attempt++
		a.log.Info(logging.Transport, logging.Reconnect, "reconnecting", map[logging.ExtraKey]any{
			logging.RoomID:  a.currentRoom(),
			logging.Attempt: attempt,
		})

		a.mu.Lock()
		token, roomID := a.token, a.roomID
		a.mu.Unlock()

		return a.dialOnce(context.Background(), token, roomID)
	}

	conn, err := backoff.Retry(context.Background(), operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(a.cfg.ReconnectDelay)),
		backoff.WithMaxTries(uint(a.cfg.ReconnectAttempts)),
	)
	if err != nil {
		if !a.stale(gen) {
			a.log.Error(logging.Transport, logging.Reconnect, "reconnect budget exhausted", map[logging.ExtraKey]any{
				logging.RoomID:       a.currentRoom(),
				logging.ErrorMessage: err.Error(),
			})
			a.setState(gen, StateDisconnected)
		}
		return
	}

	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		conn.Close()
		return
	}
	a.conn = conn
	a.state = StateOpen
	a.mu.Unlock()
	a.notifyState(StateOpen)

	go a.readLoop(conn, gen)
}

func (a *Adapter) stale(gen int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return gen != a.gen
}

func (a *Adapter) currentRoom() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.roomID
}

func (a *Adapter) setState(gen int, s State) {
	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.state = s
	a.mu.Unlock()
	a.notifyState(s)
}

func (a *Adapter) notifyState(s State) {
	a.mu.Lock()
	handlers := make([]StateHandler, 0, len(a.stateSubs))
	for _, fn := range a.stateSubs {
		handlers = append(handlers, fn)
	}
	a.mu.Unlock()

	for _, fn := range handlers {
		fn(s)
	}
}

func buildSocketURL(base, token, roomID string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("transport: no socket url configured")
	}

	// Convert http(s) to ws(s)
	wsURL := base
	if after, ok := strings.CutPrefix(base, "https://"); ok {
		wsURL = "wss://" + after
	} else if after, ok := strings.CutPrefix(base, "http://"); ok {
		wsURL = "ws://" + after
	}

	query := url.Values{}
	query.Set("token", token)
	query.Set("roomId", roomID)

	return fmt.Sprintf("%s/ws?%s", strings.TrimSuffix(wsURL, "/"), query.Encode()), nil
}
