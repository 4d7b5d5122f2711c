package api

import (
	"context"
	"net/http"
	"slices"
	"time"
)

type AuthService struct {
	Options []RequestOption
}

func NewAuthService(opts ...RequestOption) *AuthService {
	return &AuthService{opts}
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterParams struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (s *AuthService) Login(ctx context.Context, body LoginParams, opts ...RequestOption) (*AuthResponse, error) {
	opts = slices.Concat(s.Options, opts)

	res := &AuthResponse{}
	err := executeNewRequest(ctx, http.MethodPost, "auth/login", body, res, opts...)

	return res, err
}

func (s *AuthService) Register(ctx context.Context, body RegisterParams, opts ...RequestOption) (*AuthResponse, error) {
	opts = slices.Concat(s.Options, opts)

	res := &AuthResponse{}
	err := executeNewRequest(ctx, http.MethodPost, "auth/register", body, res, opts...)

	return res, err
}

func (s *AuthService) Logout(ctx context.Context, opts ...RequestOption) error {
	opts = slices.Concat(s.Options, opts)
	return executeNewRequest(ctx, http.MethodPost, "auth/logout", nil, nil, opts...)
}

func (s *AuthService) Me(ctx context.Context, opts ...RequestOption) (*User, error) {
	opts = slices.Concat(s.Options, opts)

	res := &User{}
	err := executeNewRequest(ctx, http.MethodGet, "auth/me", nil, res, opts...)

	return res, err
}
