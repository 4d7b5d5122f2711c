package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"
)

type RoomService struct {
	Options []RequestOption
}

func NewRoomService(opts ...RequestOption) *RoomService {
	return &RoomService{opts}
}

type Room struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	ParticipantsCount int       `json:"participantsCount"`
	IsPrivate         bool      `json:"isPrivate"`
	IsJoined          bool      `json:"isJoined"`
	CreatedAt         time.Time `json:"createdAt,omitzero"`
}

type NewRoomParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}

func (s *RoomService) List(ctx context.Context, opts ...RequestOption) ([]Room, error) {
	opts = slices.Concat(s.Options, opts)

	res := []Room{}
	err := executeNewRequest(ctx, http.MethodGet, "rooms", nil, &res, opts...)

	return res, err
}

func (s *RoomService) Get(ctx context.Context, id string, opts ...RequestOption) (*Room, error) {
	opts = slices.Concat(s.Options, opts)
	if id == "" {
		return nil, ErrMissingRoomID
	}

	res := &Room{}
	err := executeNewRequest(ctx, http.MethodGet, fmt.Sprintf("rooms/%s", id), nil, res, opts...)

	return res, err
}

func (s *RoomService) New(ctx context.Context, body NewRoomParams, opts ...RequestOption) (*Room, error) {
	opts = slices.Concat(s.Options, opts)

	res := &Room{}
	err := executeNewRequest(ctx, http.MethodPost, "rooms", body, res, opts...)

	return res, err
}

func (s *RoomService) Join(ctx context.Context, id string, opts ...RequestOption) error {
	opts = slices.Concat(s.Options, opts)
	if id == "" {
		return ErrMissingRoomID
	}

	return executeNewRequest(ctx, http.MethodPost, fmt.Sprintf("rooms/%s/join", id), nil, nil, opts...)
}

func (s *RoomService) Leave(ctx context.Context, id string, opts ...RequestOption) error {
	opts = slices.Concat(s.Options, opts)
	if id == "" {
		return ErrMissingRoomID
	}

	return executeNewRequest(ctx, http.MethodPost, fmt.Sprintf("rooms/%s/leave", id), nil, nil, opts...)
}
