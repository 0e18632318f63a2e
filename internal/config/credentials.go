package config

import "fmt"

// CredentialStore owns the mutable bearer token. The rest of the program
// sees the Config as a read-only snapshot; only the session manager holds
// a CredentialStore, and persistence is an explicit call, not a side
// effect of assignment.
type CredentialStore struct {
	snapshot *Config
	path     string
	token    string
}

// NewCredentialStore seeds the store from the loaded snapshot. path is the
// config file the token is written back to; empty disables persistence.
func NewCredentialStore(snapshot *Config, path string) *CredentialStore {
	return &CredentialStore{
		snapshot: snapshot,
		path:     path,
		token:    snapshot.AuthToken,
	}
}

// Token returns the current bearer token ("" when unset or placeholder).
func (s *CredentialStore) Token() string {
	if s.token == PlaceholderToken {
		return ""
	}
	return s.token
}

// HasToken reports whether a usable token is present.
func (s *CredentialStore) HasToken() bool {
	return s.Token() != ""
}

// SetToken replaces the in-memory token. Call Persist to write it out.
func (s *CredentialStore) SetToken(token string) {
	s.token = token
}

// Persist rewrites the config file with the current token. The rest of the
// snapshot is written back unchanged.
func (s *CredentialStore) Persist() error {
	if s.path == "" {
		return fmt.Errorf("no config file path, cannot save token")
	}
	out := *s.snapshot
	out.AuthToken = s.token
	if err := out.Save(s.path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
