package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sodam-chat/sodam/internal/logging"
)

type serverConn struct {
	conn   *websocket.Conn
	token  string
	roomID string
}

type wsServer struct {
	srv   *httptest.Server
	conns chan serverConn
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()

	ws := &wsServer{conns: make(chan serverConn, 8)}
	upgrader := websocket.Upgrader{}

	ws.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.conns <- serverConn{
			conn:   conn,
			token:  r.URL.Query().Get("token"),
			roomID: r.URL.Query().Get("roomId"),
		}
	}))
	t.Cleanup(ws.srv.Close)

	return ws
}

func (ws *wsServer) accept(t *testing.T) serverConn {
	t.Helper()
	select {
	case sc := <-ws.conns:
		return sc
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a client connection")
		return serverConn{}
	}
}

func newTestAdapter(t *testing.T, ws *wsServer) (*Adapter, <-chan State) {
	t.Helper()

	a := NewAdapter(Config{
		URL:               ws.srv.URL,
		HandshakeTimeout:  time.Second,
		ReconnectAttempts: 2,
		ReconnectDelay:    10 * time.Millisecond,
	}, nil, logging.NewNop())
	t.Cleanup(func() { a.Close() })

	states := make(chan State, 16)
	a.OnStateChange(func(s State) { states <- s })

	return a, states
}

func waitState(t *testing.T, states <-chan State, want State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

func TestDialValidatesInput(t *testing.T) {
	a := NewAdapter(Config{URL: "http://localhost:1"}, nil, logging.NewNop())

	if err := a.Dial(t.Context(), "", "r1"); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
	if err := a.Dial(t.Context(), "t1", ""); !errors.Is(err, ErrMissingRoomID) {
		t.Errorf("expected ErrMissingRoomID, got %v", err)
	}
	if a.State() != StateIdle {
		t.Errorf("validation failure must not change state, got %v", a.State())
	}
}

func TestEmitBeforeOpenReturnsErrNotOpen(t *testing.T) {
	a := NewAdapter(Config{URL: "http://localhost:1"}, nil, logging.NewNop())

	if err := a.Emit(EventSendMessage, SendMessagePayload{Content: "hi"}); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestDialCarriesTokenAndRoom(t *testing.T) {
	ws := newWSServer(t)
	a, states := newTestAdapter(t, ws)

	if err := a.Dial(t.Context(), "t1", "r1"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitState(t, states, StateOpen)

	sc := ws.accept(t)
	if sc.token != "t1" || sc.roomID != "r1" {
		t.Errorf("handshake query = token %q room %q", sc.token, sc.roomID)
	}
}

func TestEmitWritesEnvelope(t *testing.T) {
	ws := newWSServer(t)
	a, states := newTestAdapter(t, ws)

	if err := a.Dial(t.Context(), "t1", "r1"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitState(t, states, StateOpen)
	sc := ws.accept(t)

	if err := a.Emit(EventSendMessage, SendMessagePayload{Content: "hello"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	var env Envelope
	if err := sc.conn.ReadJSON(&env); err != nil {
		t.Fatalf("server read: %v", err)
	}
	if env.Event != EventSendMessage || env.RoomID != "r1" {
		t.Errorf("unexpected envelope: %+v", env)
	}
	var payload SendMessagePayload
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.Content != "hello" {
		t.Errorf("unexpected payload %s (err %v)", env.Data, err)
	}
}

func TestSubscribeDispatchesServerEvents(t *testing.T) {
	ws := newWSServer(t)
	a, states := newTestAdapter(t, ws)

	received := make(chan Envelope, 1)
	a.Subscribe(EventMessage, func(env Envelope) { received <- env })

	if err := a.Dial(t.Context(), "t1", "r1"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitState(t, states, StateOpen)
	sc := ws.accept(t)

	data, _ := json.Marshal(MessagePayload{ID: "m1", UserID: "u1", Username: "mina", Content: "hi"})
	if err := sc.conn.WriteJSON(Envelope{Event: EventMessage, RoomID: "r1", Data: data}); err != nil {
		t.Fatalf("server write: %v", err)
	}

	select {
	case env := <-received:
		if env.Event != EventMessage || env.RoomID != "r1" {
			t.Errorf("unexpected envelope: %+v", env)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscribed handler never ran")
	}
}

func TestUnsubscribeStopsDispatch(t *testing.T) {
	ws := newWSServer(t)
	a, states := newTestAdapter(t, ws)

	received := make(chan Envelope, 1)
	unsub := a.Subscribe(EventMessage, func(env Envelope) { received <- env })
	unsub()

	if err := a.Dial(t.Context(), "t1", "r1"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitState(t, states, StateOpen)
	sc := ws.accept(t)

	data, _ := json.Marshal(MessagePayload{ID: "m1", Content: "hi"})
	sc.conn.WriteJSON(Envelope{Event: EventMessage, RoomID: "r1", Data: data})

	select {
	case <-received:
		t.Fatal("handler ran after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDialSupersedesPreviousConnection(t *testing.T) {
	ws := newWSServer(t)
	a, states := newTestAdapter(t, ws)

	if err := a.Dial(t.Context(), "t1", "r1"); err != nil {
		t.Fatalf("first Dial: %v", err)
	}
	waitState(t, states, StateOpen)
	first := ws.accept(t)

	if err := a.Dial(t.Context(), "t1", "r2"); err != nil {
		t.Fatalf("second Dial: %v", err)
	}
	waitState(t, states, StateOpen)
	second := ws.accept(t)
	if second.roomID != "r2" {
		t.Errorf("new connection room = %q, want r2", second.roomID)
	}

	// The first socket was torn down; its server side read unblocks.
	first.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := first.conn.ReadJSON(&env); err == nil {
		t.Error("expected the superseded connection to be closed")
	}

	if err := a.Emit(EventSendMessage, SendMessagePayload{Content: "to r2"}); err != nil {
		t.Fatalf("Emit after re-dial: %v", err)
	}
	if err := second.conn.ReadJSON(&env); err != nil {
		t.Fatalf("server read: %v", err)
	}
	if env.RoomID != "r2" {
		t.Errorf("emit went to room %q, want r2", env.RoomID)
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	ws := newWSServer(t)
	a, states := newTestAdapter(t, ws)

	if err := a.Dial(t.Context(), "t1", "r1"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitState(t, states, StateOpen)
	first := ws.accept(t)

	first.conn.Close()

	waitState(t, states, StateReconnecting)
	waitState(t, states, StateOpen)

	second := ws.accept(t)
	if second.roomID != "r1" {
		t.Errorf("reconnect targeted room %q, want r1", second.roomID)
	}
	if err := a.Emit(EventSendMessage, SendMessagePayload{Content: "back"}); err != nil {
		t.Errorf("Emit after reconnect: %v", err)
	}
}

func TestReconnectBudgetExhaustion(t *testing.T) {
	ws := newWSServer(t)
	a, states := newTestAdapter(t, ws)

	if err := a.Dial(t.Context(), "t1", "r1"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitState(t, states, StateOpen)
	first := ws.accept(t)

	// Take the server away entirely so every redial fails.
	ws.srv.CloseClientConnections()
	ws.srv.Close()
	first.conn.Close()

	waitState(t, states, StateDisconnected)

	if err := a.Emit(EventSendMessage, SendMessagePayload{Content: "late"}); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen after exhaustion, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	ws := newWSServer(t)
	a, states := newTestAdapter(t, ws)

	if err := a.Close(); err != nil {
		t.Fatalf("Close before Dial: %v", err)
	}

	if err := a.Dial(t.Context(), "t1", "r1"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitState(t, states, StateOpen)
	ws.accept(t)

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if a.State() != StateIdle {
		t.Errorf("state after Close = %v, want idle", a.State())
	}
}

func TestCloseSuppressesReconnect(t *testing.T) {
	ws := newWSServer(t)
	a, states := newTestAdapter(t, ws)

	if err := a.Dial(t.Context(), "t1", "r1"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitState(t, states, StateOpen)
	ws.accept(t)

	a.Close()
	waitState(t, states, StateIdle)

	// A closed adapter must not dial again on its own.
	select {
	case <-ws.conns:
		t.Fatal("adapter reconnected after Close")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestBuildSocketURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{"http to ws", "http://localhost:8080", "ws://localhost:8080/ws?roomId=r1&token=t1"},
		{"https to wss", "https://chat.example.com", "wss://chat.example.com/ws?roomId=r1&token=t1"},
		{"trailing slash", "http://localhost:8080/", "ws://localhost:8080/ws?roomId=r1&token=t1"},
		{"ws passthrough", "ws://localhost:8080", "ws://localhost:8080/ws?roomId=r1&token=t1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := buildSocketURL(tc.base, "t1", "r1")
			if err != nil {
				t.Fatalf("buildSocketURL: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildSocketURLRequiresBase(t *testing.T) {
	if _, err := buildSocketURL("", "t1", "r1"); err == nil {
		t.Fatal("expected an error for an empty base url")
	}
}

func TestErrorEventTripsAuthFailure(t *testing.T) {
	ws := newWSServer(t)

	tripped := make(chan struct{}, 1)
	a := NewAdapter(Config{
		URL:               ws.srv.URL,
		ReconnectAttempts: 1,
		ReconnectDelay:    10 * time.Millisecond,
	}, func() { tripped <- struct{}{} }, logging.NewNop())
	t.Cleanup(func() { a.Close() })

	states := make(chan State, 16)
	a.OnStateChange(func(s State) { states <- s })

	errHandled := make(chan Envelope, 1)
	a.Subscribe(EventError, func(env Envelope) { errHandled <- env })

	if err := a.Dial(t.Context(), "t1", "r1"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitState(t, states, StateOpen)
	sc := ws.accept(t)

	data, _ := json.Marshal(ErrorPayload{Code: CodeUnauthorized, Message: "token expired"})
	if err := sc.conn.WriteJSON(Envelope{Event: EventError, RoomID: "r1", Data: data}); err != nil {
		t.Fatalf("server write: %v", err)
	}

	select {
	case <-tripped:
	case <-time.After(2 * time.Second):
		t.Fatal("auth failure hook never ran")
	}

	// Authorization failures bypass normal dispatch.
	select {
	case env := <-errHandled:
		t.Fatalf("unauthorized error dispatched to subscribers: %+v", env)
	case <-time.After(100 * time.Millisecond):
	}

	// A non-auth error still reaches subscribers.
	data, _ = json.Marshal(ErrorPayload{Message: "rate limited"})
	if err := sc.conn.WriteJSON(Envelope{Event: EventError, RoomID: "r1", Data: data}); err != nil {
		t.Fatalf("server write: %v", err)
	}
	select {
	case <-errHandled:
	case <-time.After(2 * time.Second):
		t.Fatal("plain error event never dispatched")
	}
}
