package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sodam-chat/sodam/internal/api"
	"github.com/sodam-chat/sodam/internal/logging"
)

type fakeAuthAPI struct {
	mu          sync.Mutex
	loginRes    *api.AuthResponse
	registerRes *api.AuthResponse
	meRes       *api.User
	err         error
	logoutErr   error
	meCalls     int
}

func (f *fakeAuthAPI) Login(ctx context.Context, body api.LoginParams, opts ...api.RequestOption) (*api.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.loginRes, nil
}

func (f *fakeAuthAPI) Register(ctx context.Context, body api.RegisterParams, opts ...api.RequestOption) (*api.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.registerRes, nil
}

func (f *fakeAuthAPI) Logout(ctx context.Context, opts ...api.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logoutErr
}

func (f *fakeAuthAPI) Me(ctx context.Context, opts ...api.RequestOption) (*api.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.meRes, nil
}

func tempCredStore(t *testing.T) CredentialStore {
	t.Helper()
	return NewFileCredentialStoreAt(filepath.Join(t.TempDir(), "credentials.json"))
}

func authResponse() *api.AuthResponse {
	return &api.AuthResponse{
		Token: "t1",
		User:  api.User{ID: "1", Username: "mina", Email: "mina@example.com"},
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	authAPI := &fakeAuthAPI{loginRes: authResponse()}
	creds := tempCredStore(t)
	notifier := NewAuthFailureNotifier()
	s := NewStore(authAPI, creds, notifier, logging.NewNop())

	if !s.Login(context.Background(), "mina@example.com", "secret") {
		t.Fatal("Login failed")
	}

	id := s.Identity()
	if id == nil || id.ID != "1" || id.Token != "t1" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if !s.IsAuthenticated() {
		t.Error("expected authenticated after login")
	}
	if s.Error() != "" {
		t.Errorf("unexpected error: %q", s.Error())
	}

	saved, err := creds.Load()
	if err != nil || saved == nil || saved.Token != "t1" {
		t.Errorf("credentials not persisted: %+v, err=%v", saved, err)
	}
}

func TestLoginFailureSurfacesServerMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"api error with message", &api.Error{StatusCode: 401, Message: "invalid credentials"}, "invalid credentials"},
		{"opaque error", errors.New("dial tcp: refused"), "login failed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			authAPI := &fakeAuthAPI{err: tc.err}
			s := NewStore(authAPI, tempCredStore(t), NewAuthFailureNotifier(), logging.NewNop())

			if s.Login(context.Background(), "mina@example.com", "wrong") {
				t.Fatal("expected login failure")
			}
			if s.IsAuthenticated() {
				t.Error("failed login must not authenticate")
			}
			if s.Error() != tc.want {
				t.Errorf("expected error %q, got %q", tc.want, s.Error())
			}
		})
	}
}

func TestRegisterEstablishesSession(t *testing.T) {
	authAPI := &fakeAuthAPI{registerRes: authResponse()}
	s := NewStore(authAPI, tempCredStore(t), NewAuthFailureNotifier(), logging.NewNop())

	if !s.Register(context.Background(), "mina", "mina@example.com", "secret") {
		t.Fatal("Register failed")
	}
	if !s.IsAuthenticated() {
		t.Error("expected authenticated after register")
	}
}

func TestLogoutClearsDespiteServerFailure(t *testing.T) {
	authAPI := &fakeAuthAPI{loginRes: authResponse(), logoutErr: errors.New("503")}
	creds := tempCredStore(t)
	s := NewStore(authAPI, creds, NewAuthFailureNotifier(), logging.NewNop())

	if !s.Login(context.Background(), "mina@example.com", "secret") {
		t.Fatal("Login failed")
	}

	s.Logout(context.Background())

	if s.IsAuthenticated() || s.Identity() != nil || s.Token() != "" {
		t.Error("logout must clear the local session even when the server call fails")
	}
	if saved, _ := creds.Load(); saved != nil {
		t.Error("logout must remove persisted credentials")
	}
}

func TestRestoreIsTentativeUntilValidated(t *testing.T) {
	creds := tempCredStore(t)
	if err := creds.Save(&Identity{ID: "1", Username: "mina", Token: "t1"}); err != nil {
		t.Fatal(err)
	}

	authAPI := &fakeAuthAPI{meRes: &api.User{ID: "1", Username: "mina", Email: "mina@example.com"}}
	s := NewStore(authAPI, creds, NewAuthFailureNotifier(), logging.NewNop())

	s.Restore()
	if !s.IsAuthenticated() {
		t.Fatal("restored identity should be usable before validation")
	}

	if !s.CheckStatus(context.Background()) {
		t.Fatal("CheckStatus should confirm the restored identity")
	}
	// A second check is served from the validated flag.
	if !s.CheckStatus(context.Background()) {
		t.Fatal("validated session should pass without a round trip")
	}
	authAPI.mu.Lock()
	calls := authAPI.meCalls
	authAPI.mu.Unlock()
	if calls != 1 {
		t.Errorf("expected exactly 1 Me call, got %d", calls)
	}
}

func TestCheckStatusClearsOnAuthFailureOnly(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantIdent bool
	}{
		{"401 clears the session", &api.Error{StatusCode: 401, Message: "unauthorized"}, false},
		{"network error keeps it", errors.New("timeout"), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			creds := tempCredStore(t)
			if err := creds.Save(&Identity{ID: "1", Token: "t1"}); err != nil {
				t.Fatal(err)
			}

			s := NewStore(&fakeAuthAPI{err: tc.err}, creds, NewAuthFailureNotifier(), logging.NewNop())
			s.Restore()

			if s.CheckStatus(context.Background()) {
				t.Fatal("expected CheckStatus to report failure")
			}
			if got := s.Identity() != nil; got != tc.wantIdent {
				t.Errorf("identity kept=%v, want %v", got, tc.wantIdent)
			}
		})
	}
}

func TestCheckStatusWithoutIdentity(t *testing.T) {
	s := NewStore(&fakeAuthAPI{}, tempCredStore(t), NewAuthFailureNotifier(), logging.NewNop())
	if s.CheckStatus(context.Background()) {
		t.Error("no identity must resolve to false without a server call")
	}
}

func TestForceLogout(t *testing.T) {
	authAPI := &fakeAuthAPI{loginRes: authResponse()}
	s := NewStore(authAPI, tempCredStore(t), NewAuthFailureNotifier(), logging.NewNop())

	if !s.Login(context.Background(), "mina@example.com", "secret") {
		t.Fatal("Login failed")
	}

	s.ForceLogout()
	if s.IsAuthenticated() || s.Token() != "" {
		t.Error("ForceLogout must clear the session")
	}
}

func TestTokenSourceTracksStore(t *testing.T) {
	authAPI := &fakeAuthAPI{loginRes: authResponse()}
	s := NewStore(authAPI, tempCredStore(t), NewAuthFailureNotifier(), logging.NewNop())
	source := s.TokenSource()

	if source() != "" {
		t.Error("expected empty token before login")
	}
	if !s.Login(context.Background(), "mina@example.com", "secret") {
		t.Fatal("Login failed")
	}
	if source() != "t1" {
		t.Errorf("token source out of sync: %q", source())
	}
}
