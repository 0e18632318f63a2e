package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultBaseURL is the API root used when the config file omits base_url.
const DefaultBaseURL = "https://gaccode.com/api"

// PlaceholderToken is the value shipped in config.json.example. It is
// treated the same as an empty token: the session manager logs in first.
const PlaceholderToken = "YOUR_AUTH_TOKEN_HERE"

// Ticket defaults applied when ticket_config fields are absent.
const (
	DefaultCategoryID = 3
	DefaultTitle      = "重置积分"
	DefaultLanguage   = "zh"
)

// TicketConfig is the template for the refill request ticket.
type TicketConfig struct {
	CategoryID  int    `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// EmailAlerts controls the SMTP notifier. on_failure and on_token_refresh
// default to enabled when absent, on_success defaults to disabled.
type EmailAlerts struct {
	Enabled        bool   `json:"enabled"`
	OnSuccess      bool   `json:"on_success"`
	OnFailure      *bool  `json:"on_failure,omitempty"`
	OnTokenRefresh *bool  `json:"on_token_refresh,omitempty"`
	SMTPServer     string `json:"smtp_server"`
	SMTPPort       int    `json:"smtp_port"`
	SMTPUser       string `json:"smtp_user"`
	SMTPPassword   string `json:"smtp_password"`
	FromEmail      string `json:"from_email"`
	ToEmail        string `json:"to_email"`
}

// NotifyOnFailure reports whether error events should be mailed.
func (e EmailAlerts) NotifyOnFailure() bool {
	return e.OnFailure == nil || *e.OnFailure
}

// NotifyOnTokenRefresh reports whether token_refresh events should be mailed.
func (e EmailAlerts) NotifyOnTokenRefresh() bool {
	return e.OnTokenRefresh == nil || *e.OnTokenRefresh
}

// Config is the persisted configuration. It is loaded once at startup and
// treated as an immutable snapshot; the only field that ever changes on
// disk is auth_token, and that write goes through the CredentialStore.
type Config struct {
	BaseURL   string       `json:"base_url"`
	AuthToken string       `json:"auth_token"`
	Email     string       `json:"email"`
	Password  string       `json:"password"`
	Ticket    TicketConfig `json:"ticket_config"`
	// retry_config is reserved; carried through load/save untouched.
	Retry       json.RawMessage `json:"retry_config,omitempty"`
	EmailAlerts EmailAlerts     `json:"email_alerts"`
}

// Load reads the JSON config file and applies defaults for absent fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (create one from config.json.example)", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Ticket.CategoryID == 0 {
		c.Ticket.CategoryID = DefaultCategoryID
	}
	if c.Ticket.Title == "" {
		c.Ticket.Title = DefaultTitle
	}
	if c.Ticket.Language == "" {
		c.Ticket.Language = DefaultLanguage
	}
}

// Save writes the config to path as indented JSON, the same shape the
// original file had so the operator can keep editing it by hand.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}

// HasToken reports whether the snapshot carries a usable bearer token.
func (c *Config) HasToken() bool {
	return c.AuthToken != "" && c.AuthToken != PlaceholderToken
}

// Overrides are environment-variable overrides applied on top of the file.
// A .env file next to the binary is honored via godotenv before parsing.
type Overrides struct {
	AuthToken    string `env:"GACCODE_AUTH_TOKEN"`
	SMTPPassword string `env:"GACCODE_SMTP_PASSWORD"`
}

// Apply copies non-empty override values onto the snapshot. Precedence is
// env over config file; the --token flag is applied after this by the CLI
// and wins over both.
func (c *Config) Apply(o Overrides) {
	if o.AuthToken != "" {
		c.AuthToken = o.AuthToken
	}
	if o.SMTPPassword != "" {
		c.EmailAlerts.SMTPPassword = o.SMTPPassword
	}
}
