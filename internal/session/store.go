package session

import (
	"context"
	"errors"
	"sync"

	"github.com/sodam-chat/sodam/internal/api"
	"github.com/sodam-chat/sodam/internal/logging"
)

const (
	defaultLoginError    = "login failed"
	defaultRegisterError = "registration failed"
)

// AuthAPI is the slice of the REST client the session store depends on.
type AuthAPI interface {
	Login(ctx context.Context, body api.LoginParams, opts ...api.RequestOption) (*api.AuthResponse, error)
	Register(ctx context.Context, body api.RegisterParams, opts ...api.RequestOption) (*api.AuthResponse, error)
	Logout(ctx context.Context, opts ...api.RequestOption) error
	Me(ctx context.Context, opts ...api.RequestOption) (*api.User, error)
}

// Store owns the authentication identity. It is the single writer of
// the token; everything else reads it through TokenSource.
type Store struct {
	authAPI  AuthAPI
	creds    CredentialStore
	notifier *AuthFailureNotifier
	log      logging.Logger

	mu            sync.RWMutex
	identity      *Identity
	authenticated bool
	// validated means the identity was confirmed by the server during
	// this process, not just restored from disk.
	validated bool
	loading   bool
	errMsg    string
}

func NewStore(authAPI AuthAPI, creds CredentialStore, notifier *AuthFailureNotifier, log logging.Logger) *Store {
	return &Store{
		authAPI:  authAPI,
		creds:    creds,
		notifier: notifier,
		log:      log,
	}
}

// Restore loads persisted credentials, if any. The restored identity is
// tentative until CheckStatus confirms it.
func (s *Store) Restore() {
	identity, err := s.creds.Load()
	if err != nil {
		s.log.Warn(logging.Session, logging.Credentials, "failed to restore credentials", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return
	}
	if identity == nil || identity.Token == "" {
		return
	}

	s.mu.Lock()
	s.identity = identity
	s.authenticated = true
	s.validated = false
	s.mu.Unlock()

	s.notifier.Arm()
}

func (s *Store) Login(ctx context.Context, email, password string) bool {
	s.setLoading(true)

	res, err := s.authAPI.Login(ctx, api.LoginParams{Email: email, Password: password})
	if err != nil {
		s.failAuth(err, defaultLoginError)
		return false
	}

	s.beginSession(res)
	return true
}

func (s *Store) Register(ctx context.Context, username, email, password string) bool {
	s.setLoading(true)

	res, err := s.authAPI.Register(ctx, api.RegisterParams{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		s.failAuth(err, defaultRegisterError)
		return false
	}

	s.beginSession(res)
	return true
}

// Logout is best-effort on the server side: the local identity is
// cleared no matter what the invalidation call does.
func (s *Store) Logout(ctx context.Context) {
	if err := s.authAPI.Logout(ctx); err != nil {
		s.log.Warn(logging.Session, logging.Credentials, "server logout failed, clearing local session anyway", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	s.clearSession()
}

// ForceLogout clears the session without calling the server. The auth
// failure notifier invokes it when a request comes back 401.
func (s *Store) ForceLogout() {
	s.log.Info(logging.Session, logging.AuthFailure, "session invalidated, forcing logout", nil)
	s.clearSession()
}

// CheckStatus resolves to whether the session is usable. Cheap when the
// identity was already validated this process; otherwise it asks the
// server who we are. Never returns an error.
func (s *Store) CheckStatus(ctx context.Context) bool {
	s.mu.RLock()
	validated := s.validated
	identity := s.identity
	s.mu.RUnlock()

	if identity == nil || identity.Token == "" {
		return false
	}
	if validated {
		return true
	}

	user, err := s.authAPI.Me(ctx)
	if err != nil {
		// 401 already tripped the notifier via the REST client; for
		// anything else keep the restored identity and let the next
		// request decide.
		if api.IsAuthFailure(err) {
			s.clearSession()
		}
		return false
	}

	s.mu.Lock()
	s.identity = &Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    identity.Token,
	}
	s.authenticated = true
	s.validated = true
	s.mu.Unlock()

	return true
}

func (s *Store) beginSession(res *api.AuthResponse) {
	identity := &Identity{
		ID:       res.User.ID,
		Username: res.User.Username,
		Email:    res.User.Email,
		Token:    res.Token,
	}

	s.mu.Lock()
	s.identity = identity
	s.authenticated = true
	s.validated = true
	s.loading = false
	s.errMsg = ""
	s.mu.Unlock()

	if err := s.creds.Save(identity); err != nil {
		s.log.Warn(logging.Session, logging.Credentials, "failed to persist credentials", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	s.notifier.Arm()
}

func (s *Store) failAuth(err error, fallback string) {
	msg := fallback
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}

	s.mu.Lock()
	s.identity = nil
	s.authenticated = false
	s.validated = false
	s.loading = false
	s.errMsg = msg
	s.mu.Unlock()
}

func (s *Store) clearSession() {
	s.mu.Lock()
	s.identity = nil
	s.authenticated = false
	s.validated = false
	s.errMsg = ""
	s.mu.Unlock()

	if err := s.creds.Clear(); err != nil {
		s.log.Warn(logging.Session, logging.Credentials, "failed to clear credentials", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
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

func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
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

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.Token
}

// TokenSource adapts the store for api.WithBearerTokenSource and the
// transport handshake. Readers never mutate the token.
func (s *Store) TokenSource() func() string {
	return s.Token
}
