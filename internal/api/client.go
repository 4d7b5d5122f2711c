package api

import (
	"context"
	"net/http"
	"os"
	"slices"
)

type Client struct {
	Options []RequestOption
	Auth    *AuthService
	Rooms   *RoomService
	Chat    *ChatService
}

func DefaultClientOptions() []RequestOption {
	defaults := []RequestOption{}
	if o, ok := os.LookupEnv("SODAM_BASE_URL"); ok {
		defaults = append(defaults, WithBaseURL(o))
	}
	return defaults
}

func NewClient(opts ...RequestOption) *Client {
	opts = append(DefaultClientOptions(), opts...)

	c := &Client{
		Options: opts,
		Auth:    NewAuthService(opts...),
		Rooms:   NewRoomService(opts...),
		Chat:    NewChatService(opts...),
	}

	return c
}

func (c *Client) Execute(ctx context.Context, method, path string, params, res any, opts ...RequestOption) error {
	opts = slices.Concat(c.Options, opts)
	return executeNewRequest(ctx, method, path, params, res, opts...)
}

func (c *Client) Get(ctx context.Context, path string, params, res any, opts ...RequestOption) error {
	return c.Execute(ctx, http.MethodGet, path, params, res, opts...)
}

func (c *Client) Post(ctx context.Context, path string, params, res any, opts ...RequestOption) error {
	return c.Execute(ctx, http.MethodPost, path, params, res, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, params, res any, opts ...RequestOption) error {
	return c.Execute(ctx, http.MethodDelete, path, params, res, opts...)
}
