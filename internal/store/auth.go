package store

import (
	"context"
	"errors"
	"net/http"

	"snapfeed/internal/models"
	"snapfeed/internal/observability"
	"snapfeed/internal/service"
	"snapfeed/internal/session"
)

var (
	// ErrNoSession is returned by RestoreSession when nothing is persisted.
	ErrNoSession = errors.New("no token found")
	// ErrSessionExpired is returned by RestoreSession when the persisted token has expired.
	ErrSessionExpired = errors.New("session expired")
)

// AuthState is the signed-in session.
type AuthState struct {
	User            *models.User
	Token           string
	IsLoading       bool
	Error           string
	IsAuthenticated bool
}

// Auth returns a snapshot of the auth slice.
func (s *Store) Auth() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.auth
	if a.User != nil {
		u := *a.User
		a.User = &u
	}
	return a
}

// ViewerID returns the signed-in account id, or "" when signed out.
func (s *Store) ViewerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.auth.IsAuthenticated || s.auth.User == nil {
		return ""
	}
	return s.auth.User.ID.String()
}

// Token returns the current bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth.Token
}

func (s *Store) authPending() {
	s.mu.Lock()
	s.auth.IsLoading = true
	s.auth.Error = ""
	s.mu.Unlock()
	s.notify(SliceAuth, "pending")
}

func (s *Store) authFailed(action, message string) {
	s.mu.Lock()
	s.auth.IsLoading = false
	s.auth.Error = message
	s.auth.IsAuthenticated = false
	s.mu.Unlock()
	s.notify(SliceAuth, action+"/rejected")
}

func (s *Store) authSucceeded(ctx context.Context, action string, user models.User, token string) {
	if token != "" {
		if err := s.session.Save(ctx, session.Credentials{Token: token, User: user}); err != nil {
			s.authLog.LogError(ctx, action+"/persist", err)
		}
	}
	s.mu.Lock()
	s.auth = AuthState{User: &user, Token: token, IsAuthenticated: token != ""}
	s.mu.Unlock()
	s.notify(SliceAuth, action+"/fulfilled")
}

// Login signs in and persists the token.
func (s *Store) Login(ctx context.Context, email, password string) error {
	span, ctx := observability.TraceStoreAction(ctx, string(SliceAuth), "login")
	defer span.End()

	s.authPending()
	user, token, err := s.deps.Auth.Login(ctx, email, password)
	if err != nil {
		span.SetError(err)
		s.authLog.LogError(ctx, "login", err)
		s.authFailed("login", loginMessage(err))
		return err
	}
	s.authSucceeded(ctx, "login", user, token)
	s.authLog.LogAction(ctx, "login", fields("user_id", user.ID))
	return nil
}

// Register creates an account; the session is authenticated only if the API returned a token.
func (s *Store) Register(ctx context.Context, in service.RegisterInput) error {
	span, ctx := observability.TraceStoreAction(ctx, string(SliceAuth), "register")
	defer span.End()

	s.authPending()
	user, token, err := s.deps.Auth.Register(ctx, in)
	if err != nil {
		span.SetError(err)
		s.authLog.LogError(ctx, "register", err)
		s.authFailed("register", registerMessage(err))
		return err
	}
	s.authSucceeded(ctx, "register", user, token)
	s.authLog.LogAction(ctx, "register", fields("user_id", user.ID, "signed_in", token != ""))
	return nil
}

// RestoreSession revalidates persisted credentials. An expired JWT is discarded without
// contacting the API.
func (s *Store) RestoreSession(ctx context.Context) error {
	span, ctx := observability.TraceStoreAction(ctx, string(SliceAuth), "restore")
	defer span.End()

	creds, ok, err := s.session.Load(ctx)
	if err != nil {
		s.authLog.LogError(ctx, "restore/load", err)
	}
	if !ok {
		s.authFailed("restore", "No token found")
		return ErrNoSession
	}
	if session.TokenExpired(creds.Token, s.opts.Now()) {
		s.forgetSession(ctx, "restore")
		s.authFailed("restore", "Session expired")
		return ErrSessionExpired
	}

	s.mu.Lock()
	s.auth.Token = creds.Token
	s.auth.IsLoading = true
	s.auth.Error = ""
	s.mu.Unlock()
	s.notify(SliceAuth, "restore/pending")

	user, err := s.deps.Auth.Me(ctx)
	if err != nil {
		span.SetError(err)
		s.authLog.LogError(ctx, "restore", err)
		s.forgetSession(ctx, "restore")
		s.mu.Lock()
		s.auth = AuthState{Error: "Session expired"}
		s.mu.Unlock()
		s.notify(SliceAuth, "restore/rejected")
		return err
	}
	s.authSucceeded(ctx, "restore", user, creds.Token)
	return nil
}

// Logout clears the session both in memory and on disk.
func (s *Store) Logout(ctx context.Context) error {
	err := s.session.Clear(ctx)
	s.mu.Lock()
	s.auth = AuthState{}
	s.profile.Mine = nil
	s.mu.Unlock()
	s.notify(SliceAuth, "logout")
	return err
}

// ClearError dismisses the auth error.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.auth.Error = ""
	s.mu.Unlock()
	s.notify(SliceAuth, "clear_error")
}

// HandleUnauthorized drops the session after the API rejected the token. Register it
// as the API client's unauthorized hook.
func (s *Store) HandleUnauthorized() {
	ctx := context.Background()
	s.mu.Lock()
	wasSignedIn := s.auth.Token != ""
	s.auth = AuthState{Error: "Session expired"}
	s.profile.Mine = nil
	s.mu.Unlock()
	if wasSignedIn {
		s.forgetSession(ctx, "unauthorized")
		s.authLog.LogAction(ctx, "unauthorized", nil)
	}
	s.notify(SliceAuth, "unauthorized")
}

func (s *Store) forgetSession(ctx context.Context, action string) {
	if err := s.session.Clear(ctx); err != nil {
		s.authLog.LogError(ctx, action+"/clear", err)
	}
}

func loginMessage(err error) string {
	switch models.StatusOf(err) {
	case http.StatusNotFound:
		return "API endpoint not found"
	case http.StatusBadRequest:
		return "Invalid email or password"
	}
	if models.HasCode(err, models.CodeValidation) {
		return models.MessageOf(err, "Invalid email or password")
	}
	return models.ServerMessage(err, "Login failed. Please try again.")
}

func registerMessage(err error) string {
	switch models.StatusOf(err) {
	case http.StatusBadRequest:
		return models.ServerMessage(err, "Email already exists or invalid data")
	case http.StatusNotFound:
		return "API endpoint not found"
	}
	if models.HasCode(err, models.CodeValidation) {
		return models.MessageOf(err, "Registration failed. Please try again.")
	}
	return models.ServerMessage(err, "Registration failed. Please try again.")
}
