package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file not found")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		path := writeConfig(t, "{not json")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JSON")
	})

	t.Run("defaults applied", func(t *testing.T) {
		path := writeConfig(t, `{"email":"a@b.c","password":"pw"}`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
		assert.Equal(t, DefaultCategoryID, cfg.Ticket.CategoryID)
		assert.Equal(t, DefaultTitle, cfg.Ticket.Title)
		assert.Equal(t, DefaultLanguage, cfg.Ticket.Language)
	})

	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `{
			"base_url": "https://example.com/api",
			"auth_token": "tok",
			"email": "a@b.c",
			"password": "pw",
			"ticket_config": {"category_id": 5, "title": "T", "description": "D", "language": "en"},
			"email_alerts": {
				"enabled": true, "on_success": true, "on_failure": false,
				"smtp_server": "smtp.example.com", "smtp_port": 465
			}
		}`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/api", cfg.BaseURL)
		assert.Equal(t, 5, cfg.Ticket.CategoryID)
		assert.Equal(t, "en", cfg.Ticket.Language)
		assert.True(t, cfg.EmailAlerts.Enabled)
		assert.True(t, cfg.EmailAlerts.OnSuccess)
		assert.False(t, cfg.EmailAlerts.NotifyOnFailure())
		assert.Equal(t, 465, cfg.EmailAlerts.SMTPPort)
	})
}

func TestEmailAlertsDefaults(t *testing.T) {
	t.Run("on_failure and on_token_refresh default on", func(t *testing.T) {
		var alerts EmailAlerts
		assert.True(t, alerts.NotifyOnFailure())
		assert.True(t, alerts.NotifyOnTokenRefresh())
		assert.False(t, alerts.OnSuccess)
	})

	t.Run("explicit false wins", func(t *testing.T) {
		off := false
		alerts := EmailAlerts{OnFailure: &off, OnTokenRefresh: &off}
		assert.False(t, alerts.NotifyOnFailure())
		assert.False(t, alerts.NotifyOnTokenRefresh())
	})
}

func TestHasToken(t *testing.T) {
	assert.False(t, (&Config{}).HasToken())
	assert.False(t, (&Config{AuthToken: PlaceholderToken}).HasToken())
	assert.True(t, (&Config{AuthToken: "real"}).HasToken())
}

func TestApplyOverrides(t *testing.T) {
	cfg := &Config{AuthToken: "from-file"}
	cfg.EmailAlerts.SMTPPassword = "file-pw"

	cfg.Apply(Overrides{})
	assert.Equal(t, "from-file", cfg.AuthToken)

	cfg.Apply(Overrides{AuthToken: "from-env", SMTPPassword: "env-pw"})
	assert.Equal(t, "from-env", cfg.AuthToken)
	assert.Equal(t, "env-pw", cfg.EmailAlerts.SMTPPassword)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GACCODE_AUTH_TOKEN", "env-token")
	t.Setenv("GACCODE_SMTP_PASSWORD", "env-pw")

	o, err := LoadOverrides()
	require.NoError(t, err)
	assert.Equal(t, "env-token", o.AuthToken)
	assert.Equal(t, "env-pw", o.SMTPPassword)
}

func TestSaveRoundTrip(t *testing.T) {
	path := writeConfig(t, `{
		"base_url": "https://example.com/api",
		"auth_token": "old",
		"email": "a@b.c",
		"password": "pw",
		"retry_config": {"max_attempts": 5},
		"email_alerts": {"enabled": true, "smtp_server": "s"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Save(path))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Email, reloaded.Email)
	assert.Equal(t, cfg.Password, reloaded.Password)

	// retry_config must survive the round trip untouched.
	var retry map[string]any
	require.NoError(t, json.Unmarshal(reloaded.Retry, &retry))
	assert.Equal(t, float64(5), retry["max_attempts"])
}

func TestCredentialStore(t *testing.T) {
	t.Run("placeholder token is unusable", func(t *testing.T) {
		cfg := &Config{AuthToken: PlaceholderToken}
		store := NewCredentialStore(cfg, "")
		assert.False(t, store.HasToken())
		assert.Empty(t, store.Token())
	})

	t.Run("persist rewrites only the token", func(t *testing.T) {
		path := writeConfig(t, `{
			"base_url": "https://example.com/api",
			"auth_token": "old",
			"email": "a@b.c",
			"password": "pw"
		}`)
		cfg, err := Load(path)
		require.NoError(t, err)

		store := NewCredentialStore(cfg, path)
		store.SetToken("new-token")
		require.NoError(t, store.Persist())

		// The in-memory snapshot stays untouched.
		assert.Equal(t, "old", cfg.AuthToken)

		reloaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "new-token", reloaded.AuthToken)
		assert.Equal(t, "a@b.c", reloaded.Email)
		assert.Equal(t, "pw", reloaded.Password)
	})

	t.Run("persist without a path fails", func(t *testing.T) {
		store := NewCredentialStore(&Config{}, "")
		store.SetToken("tok")
		require.Error(t, store.Persist())
	})
}
