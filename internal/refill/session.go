package refill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gacops/gacrefill/internal/api"
	"github.com/gacops/gacrefill/internal/config"
	"github.com/gacops/gacrefill/internal/notify"
)

// ErrMissingCredentials means no token is available and the config has no
// email/password to log in with.
var ErrMissingCredentials = errors.New("email and password are required to obtain a token")

// Session owns the bearer token lifecycle: initial login when the config
// carries no usable token, and a single re-login when the server rejects
// the current one mid-run.
type Session struct {
	client   *api.Client
	creds    *config.CredentialStore
	email    string
	password string
	notifier Notifier
	log      *slog.Logger
}

// NewSession wires the session manager. creds is the only mutable
// credential state in the program.
func NewSession(client *api.Client, creds *config.CredentialStore, email, password string, notifier Notifier, log *slog.Logger) *Session {
	return &Session{
		client:   client,
		creds:    creds,
		email:    email,
		password: password,
		notifier: notifier,
		log:      log,
	}
}

// EnsureToken makes sure an authenticated call can be attempted: if the
// store has no usable token it performs a login first.
func (s *Session) EnsureToken(ctx context.Context) error {
	if s.creds.HasToken() {
		s.client.SetToken(s.creds.Token())
		return nil
	}
	s.log.Info("no valid auth token found, attempting login")
	return s.refresh(ctx)
}

// refresh logs in, stores the new token, persists it, and emits a
// token_refresh notification.
func (s *Session) refresh(ctx context.Context) error {
	if s.email == "" || s.password == "" {
		return ErrMissingCredentials
	}

	token, err := s.client.Login(ctx, s.email, s.password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	s.creds.SetToken(token)
	s.client.SetToken(token)
	s.log.Info("login successful", "token", tokenPreview(token))

	if err := s.creds.Persist(); err != nil {
		// A failed save is not fatal: the token still works this run.
		s.log.Error("failed to persist token", "error", err)
	} else {
		s.log.Info("new token saved to config file")
	}

	s.notifier.Notify(notify.KindTokenRefresh, "Authentication token refreshed",
		fmt.Sprintf("Login succeeded and the auth token was updated.\nLogin time: %s\nToken (first 50 chars): %s",
			time.Now().Format(time.DateTime), tokenPreview(token)))

	return nil
}

// Do runs an authenticated call, and on a credential-expired response
// performs exactly one re-login followed by one retry. A second rejection
// is returned as-is.
func (s *Session) Do(ctx context.Context, op func(context.Context) error) error {
	err := op(ctx)
	if err == nil || !api.IsCredentialExpired(err) {
		return err
	}

	s.log.Warn("token rejected by server, attempting re-login")
	if rerr := s.refresh(ctx); rerr != nil {
		return rerr
	}
	return op(ctx)
}

func tokenPreview(token string) string {
	if len(token) <= 50 {
		return token
	}
	return token[:50] + "..."
}
