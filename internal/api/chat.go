package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"
)

// SystemUserID marks server-generated announcements ("x joined the
// room"). System messages never merge into user message groups.
const SystemUserID = "system"

type ChatService struct {
	Options []RequestOption
}

func NewChatService(opts ...RequestOption) *ChatService {
	return &ChatService{opts}
}

type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChatUser struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	IsOnline bool      `json:"isOnline"`
	IsTyping bool      `json:"isTyping"`
	JoinedAt time.Time `json:"joinedAt,omitzero"`
}

// Messages fetches one page of room history, newest last. A non-empty
// before cursor pages backwards from that message id.
func (s *ChatService) Messages(ctx context.Context, roomID string, limit int, before string, opts ...RequestOption) ([]Message, error) {
	opts = slices.Concat(s.Options, opts)
	if roomID == "" {
		return nil, ErrMissingRoomID
	}
	if limit <= 0 {
		return nil, ErrMissingLimit
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if before != "" {
		query.Set("before", before)
	}
	path := fmt.Sprintf("rooms/%s/messages?%s", roomID, query.Encode())

	res := []Message{}
	err := executeNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)

	return res, err
}

func (s *ChatService) Users(ctx context.Context, roomID string, opts ...RequestOption) ([]ChatUser, error) {
	opts = slices.Concat(s.Options, opts)
	if roomID == "" {
		return nil, ErrMissingRoomID
	}

	res := []ChatUser{}
	err := executeNewRequest(ctx, http.MethodGet, fmt.Sprintf("rooms/%s/users", roomID), nil, &res, opts...)

	return res, err
}
