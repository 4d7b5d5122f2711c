package rooms

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sodam-chat/sodam/internal/api"
	"github.com/sodam-chat/sodam/internal/logging"
)

const (
	defaultFetchError  = "failed to load rooms"
	defaultCreateError = "failed to create room"
	defaultJoinError   = "failed to join room"
	defaultLeaveError  = "failed to leave room"
)

// ErrEmptyRoomName is a local validation failure; no request is made.
var ErrEmptyRoomName = errors.New("room name cannot be empty")

// RoomsAPI is the slice of the REST client the directory depends on.
type RoomsAPI interface {
	List(ctx context.Context, opts ...api.RequestOption) ([]api.Room, error)
	Get(ctx context.Context, id string, opts ...api.RequestOption) (*api.Room, error)
	New(ctx context.Context, body api.NewRoomParams, opts ...api.RequestOption) (*api.Room, error)
	Join(ctx context.Context, id string, opts ...api.RequestOption) error
	Leave(ctx context.Context, id string, opts ...api.RequestOption) error
}

// Store caches the room directory, join state and the current room
// selection. Join and leave flip membership optimistically and revert
// on failure.
type Store struct {
	roomsAPI RoomsAPI
	log      logging.Logger

	mu        sync.RWMutex
	rooms     []api.Room
	currentID string
	loading   bool
	errMsg    string
}

func NewStore(roomsAPI RoomsAPI, log logging.Logger) *Store {
	return &Store{
		roomsAPI: roomsAPI,
		log:      log,
	}
}

func (s *Store) FetchRooms(ctx context.Context) bool {
	s.setLoading(true)

	rooms, err := s.roomsAPI.List(ctx)
	if err != nil {
		s.fail(err, defaultFetchError)
		return false
	}

	s.mu.Lock()
	s.rooms = rooms
	s.loading = false
	s.mu.Unlock()
	return true
}

// FetchRoom refreshes a single room, upserting it into the cache.
func (s *Store) FetchRoom(ctx context.Context, id string) (*api.Room, bool) {
	s.setLoading(true)

	room, err := s.roomsAPI.Get(ctx, id)
	if err != nil {
		s.fail(err, defaultFetchError)
		return nil, false
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.rooms[i] = *room
	} else {
		s.rooms = append(s.rooms, *room)
	}
	s.loading = false
	s.mu.Unlock()

	cp := *room
	return &cp, true
}

// CreateRoom requires a non-empty trimmed name. The created room is
// appended to the cache and becomes the current selection.
func (s *Store) CreateRoom(ctx context.Context, name, description string, isPrivate bool) (*api.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyRoomName
	}

	s.setLoading(true)

	room, err := s.roomsAPI.New(ctx, api.NewRoomParams{
		Name:        name,
		Description: strings.TrimSpace(description),
		IsPrivate:   isPrivate,
	})
	if err != nil {
		s.fail(err, defaultCreateError)
		return nil, err
	}
	room.IsJoined = true

	s.mu.Lock()
	s.rooms = append(s.rooms, *room)
	s.currentID = room.ID
	s.loading = false
	s.mu.Unlock()

	cp := *room
	return &cp, nil
}

// JoinRoom flips membership optimistically; a failed request restores
// the exact prior value.
func (s *Store) JoinRoom(ctx context.Context, id string) bool {
	prev, ok := s.flipJoined(id, true)
	if !ok {
		return false
	}

	if err := s.roomsAPI.Join(ctx, id); err != nil {
		s.revertJoined(id, prev)
		s.fail(err, defaultJoinError)
		return false
	}
	return true
}

// LeaveRoom mirrors JoinRoom, and drops the current selection when the
// room being left is the current one.
func (s *Store) LeaveRoom(ctx context.Context, id string) bool {
	prev, ok := s.flipJoined(id, false)
	if !ok {
		return false
	}

	if err := s.roomsAPI.Leave(ctx, id); err != nil {
		s.revertJoined(id, prev)
		s.fail(err, defaultLeaveError)
		return false
	}

	s.mu.Lock()
	if s.currentID == id {
		s.currentID = ""
	}
	s.mu.Unlock()
	return true
}

func (s *Store) SelectCurrentRoom(id string) {
	s.mu.Lock()
	s.currentID = id
	s.mu.Unlock()
}

func (s *Store) CurrentRoom() *api.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentID == "" {
		return nil
	}
	if i := s.indexOf(s.currentID); i >= 0 {
		cp := s.rooms[i]
		return &cp
	}
	return nil
}

func (s *Store) Rooms() []api.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Room, len(s.rooms))
	copy(out, s.rooms)
	return out
}

func (s *Store) JoinedRooms() []api.Room {
	return s.filter(func(r api.Room) bool { return r.IsJoined })
}

func (s *Store) AvailableRooms() []api.Room {
	return s.filter(func(r api.Room) bool { return !r.IsJoined })
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *Store) filter(keep func(api.Room) bool) []api.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []api.Room{}
	for _, r := range s.rooms {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// indexOf must be called with the lock held.
func (s *Store) indexOf(id string) int {
	for i := range s.rooms {
		if s.rooms[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) flipJoined(id string, joined bool) (prev bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		s.errMsg = "unknown room"
		return false, false
	}
	prev = s.rooms[i].IsJoined
	s.rooms[i].IsJoined = joined
	return prev, true
}

func (s *Store) revertJoined(id string, prev bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.rooms[i].IsJoined = prev
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	if v {
		s.errMsg = ""
	}
	s.mu.Unlock()
}

func (s *Store) fail(err error, fallback string) {
	msg := fallback
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}

	s.log.Error(logging.Rooms, logging.RequestResponse, fallback, map[logging.ExtraKey]any{
		logging.ErrorMessage: err.Error(),
	})

	s.mu.Lock()
	s.loading = false
	s.errMsg = msg
	s.mu.Unlock()
}
