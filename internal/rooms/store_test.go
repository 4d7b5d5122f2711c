package rooms

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sodam-chat/sodam/internal/api"
	"github.com/sodam-chat/sodam/internal/logging"
)

type fakeRoomsAPI struct {
	mu      sync.Mutex
	rooms   []api.Room
	created *api.Room
	err     error
	calls   int
}

func (f *fakeRoomsAPI) List(ctx context.Context, opts ...api.RequestOption) ([]api.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rooms, nil
}

func (f *fakeRoomsAPI) Get(ctx context.Context, id string, opts ...api.RequestOption) (*api.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rooms {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, &api.Error{StatusCode: 404, Message: "room not found"}
}

func (f *fakeRoomsAPI) New(ctx context.Context, body api.NewRoomParams, opts ...api.RequestOption) (*api.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	room := &api.Room{ID: "created-1", Name: body.Name, Description: body.Description, IsPrivate: body.IsPrivate}
	f.created = room
	return room, nil
}

func (f *fakeRoomsAPI) Join(ctx context.Context, id string, opts ...api.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeRoomsAPI) Leave(ctx context.Context, id string, opts ...api.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeRoomsAPI) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func newFetchedStore(t *testing.T, roomsAPI *fakeRoomsAPI) *Store {
	t.Helper()
	s := NewStore(roomsAPI, logging.NewNop())
	if !s.FetchRooms(context.Background()) {
		t.Fatal("FetchRooms failed")
	}
	return s
}

func TestJoinRoomOptimisticRollback(t *testing.T) {
	tests := []struct {
		name       string
		initial    bool
		action     func(*Store) bool
	}{
		{"join from not joined", false, func(s *Store) bool { return s.JoinRoom(context.Background(), "r1") }},
		{"leave from joined", true, func(s *Store) bool { return s.LeaveRoom(context.Background(), "r1") }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			roomsAPI := &fakeRoomsAPI{rooms: []api.Room{{ID: "r1", Name: "general", IsJoined: tc.initial}}}
			s := newFetchedStore(t, roomsAPI)

			roomsAPI.setErr(&api.Error{StatusCode: 500, Message: "server exploded"})

			if tc.action(s) {
				t.Fatal("expected failure")
			}

			got := s.Rooms()[0].IsJoined
			if got != tc.initial {
				t.Errorf("membership not rolled back: got %v, want %v", got, tc.initial)
			}
			if s.Error() != "server exploded" {
				t.Errorf("expected surfaced error, got %q", s.Error())
			}
		})
	}
}

func TestJoinRoomSuccess(t *testing.T) {
	roomsAPI := &fakeRoomsAPI{rooms: []api.Room{{ID: "r1", Name: "general"}}}
	s := newFetchedStore(t, roomsAPI)

	if !s.JoinRoom(context.Background(), "r1") {
		t.Fatal("JoinRoom failed")
	}
	if !s.Rooms()[0].IsJoined {
		t.Error("expected IsJoined true after successful join")
	}
}

func TestLeaveRoomClearsCurrentSelection(t *testing.T) {
	roomsAPI := &fakeRoomsAPI{rooms: []api.Room{
		{ID: "r1", Name: "general", IsJoined: true},
		{ID: "r2", Name: "random", IsJoined: true},
	}}
	s := newFetchedStore(t, roomsAPI)
	s.SelectCurrentRoom("r1")

	if !s.LeaveRoom(context.Background(), "r1") {
		t.Fatal("LeaveRoom failed")
	}
	if s.CurrentRoom() != nil {
		t.Error("leaving the current room should clear the selection")
	}

	s.SelectCurrentRoom("r2")
	roomsAPI.rooms = s.Rooms()
	if !s.LeaveRoom(context.Background(), "r2") {
		t.Fatal("LeaveRoom failed")
	}
}

func TestCreateRoomRequiresName(t *testing.T) {
	roomsAPI := &fakeRoomsAPI{}
	s := NewStore(roomsAPI, logging.NewNop())

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := s.CreateRoom(context.Background(), name, "", false); !errors.Is(err, ErrEmptyRoomName) {
			t.Errorf("name %q: expected ErrEmptyRoomName, got %v", name, err)
		}
	}

	roomsAPI.mu.Lock()
	calls := roomsAPI.calls
	roomsAPI.mu.Unlock()
	if calls != 0 {
		t.Errorf("validation failure must not reach the network, got %d calls", calls)
	}
}

func TestCreateRoomAppendsAndSelects(t *testing.T) {
	roomsAPI := &fakeRoomsAPI{rooms: []api.Room{{ID: "r1", Name: "general"}}}
	s := newFetchedStore(t, roomsAPI)

	room, err := s.CreateRoom(context.Background(), "  book club  ", "monthly reads", true)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.Name != "book club" {
		t.Errorf("expected trimmed name, got %q", room.Name)
	}
	if len(s.Rooms()) != 2 {
		t.Errorf("created room not appended to cache")
	}

	current := s.CurrentRoom()
	if current == nil || current.ID != room.ID {
		t.Errorf("created room should become current, got %+v", current)
	}
}

func TestFetchRoomUpserts(t *testing.T) {
	roomsAPI := &fakeRoomsAPI{rooms: []api.Room{
		{ID: "r1", Name: "general", ParticipantsCount: 3},
	}}
	s := NewStore(roomsAPI, logging.NewNop())

	if _, ok := s.FetchRoom(context.Background(), "r1"); !ok {
		t.Fatal("FetchRoom failed")
	}
	if len(s.Rooms()) != 1 {
		t.Fatalf("expected 1 cached room, got %d", len(s.Rooms()))
	}

	roomsAPI.mu.Lock()
	roomsAPI.rooms[0].ParticipantsCount = 7
	roomsAPI.mu.Unlock()

	if _, ok := s.FetchRoom(context.Background(), "r1"); !ok {
		t.Fatal("second FetchRoom failed")
	}
	if got := s.Rooms()[0].ParticipantsCount; got != 7 {
		t.Errorf("refresh should update the cached room, got count %d", got)
	}
	if len(s.Rooms()) != 1 {
		t.Errorf("refresh duplicated the room: %d entries", len(s.Rooms()))
	}
}

func TestSelectors(t *testing.T) {
	roomsAPI := &fakeRoomsAPI{rooms: []api.Room{
		{ID: "r1", IsJoined: true},
		{ID: "r2"},
		{ID: "r3", IsJoined: true},
	}}
	s := newFetchedStore(t, roomsAPI)

	if n := len(s.JoinedRooms()); n != 2 {
		t.Errorf("expected 2 joined rooms, got %d", n)
	}
	if n := len(s.AvailableRooms()); n != 1 {
		t.Errorf("expected 1 available room, got %d", n)
	}
}
