//go:build e2e

// Package e2e runs the gacrefill binary end to end against a local fake
// of the gaccode API.
//
// Run with:
//
//	go build -o gacrefill ./cmd/gacrefill && go test -tags=e2e -v ./e2e/...
package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binPath string

func TestMain(m *testing.M) {
	var err error
	binPath, err = filepath.Abs("../gacrefill")
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot resolve binary path:", err)
		os.Exit(1)
	}
	if _, err := os.Stat(binPath); err != nil {
		fmt.Fprintln(os.Stderr, "Skipping e2e tests: build the binary first (go build -o gacrefill ./cmd/gacrefill)")
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// fakeServer serves the happy-path API unless overridden per path.
func fakeServer(t *testing.T, overrides map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	today := time.Now().UTC().Format(time.RFC3339)

	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		if o, ok := overrides[pattern]; ok {
			mux.HandleFunc(pattern, o)
			return
		}
		mux.HandleFunc(pattern, h)
	}

	handle("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token":"e2e-token"}`)
	})
	handle("GET /api/subscriptions/active", func(w http.ResponseWriter, r *http.Request) {
		end := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)
		fmt.Fprintf(w, `{"subscriptions":[{"endDate":%q,"subscription":{"tier":"pro","supportsRefill":true}}]}`, end)
	})
	handle("GET /api/tickets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tickets":[]}`)
	})
	handle("GET /api/tickets/recaptcha-required", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"requiresRecaptcha":false,"ticketCountToday":0,"dailyLimit":3}`)
	})
	handle("POST /api/tickets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"ticket":{"id":42,"status":"OPEN","createdAt":%q}}`, today)
	})
	handle("GET /api/tickets/42", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ticket":{"id":42,"status":"CLOSED","messages":[{"message":"credits reset"}]}}`)
	})
	handle("GET /api/credits/balance", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"balance":1000}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	cfg := map[string]any{
		"base_url":   baseURL + "/api",
		"auth_token": "e2e-token",
		"email":      "a@b.c",
		"password":   "pw",
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(binPath, args...)
	cmd.Env = append(os.Environ(), "GACCODE_AUTH_TOKEN=")
	out, err := cmd.CombinedOutput()
	if err == nil {
		return string(out), 0
	}
	exitErr, ok := err.(*exec.ExitError)
	require.True(t, ok, "unexpected run failure: %v\n%s", err, out)
	return string(out), exitErr.ExitCode()
}

func TestSuccessfulRun(t *testing.T) {
	srv := fakeServer(t, nil)
	cfgPath := writeConfig(t, srv.URL)

	out, code := run(t, "--config", cfgPath)
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "credits refilled")
}

func TestVerificationOpenFails(t *testing.T) {
	srv := fakeServer(t, map[string]http.HandlerFunc{
		"GET /api/tickets/42": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ticket":{"id":42,"status":"OPEN"}}`)
		},
	})
	cfgPath := writeConfig(t, srv.URL)

	out, code := run(t, "--config", cfgPath)
	assert.Equal(t, 1, code, out)
}

func TestRecaptchaBlocks(t *testing.T) {
	srv := fakeServer(t, map[string]http.HandlerFunc{
		"GET /api/tickets/recaptcha-required": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"requiresRecaptcha":true,"ticketCountToday":0,"dailyLimit":3}`)
		},
	})
	cfgPath := writeConfig(t, srv.URL)

	out, code := run(t, "--config", cfgPath)
	assert.Equal(t, 1, code, out)
	assert.Contains(t, out, "recaptcha")
}

func TestDryRunSubmitsNothing(t *testing.T) {
	submitted := false
	srv := fakeServer(t, map[string]http.HandlerFunc{
		"POST /api/tickets": func(w http.ResponseWriter, r *http.Request) {
			submitted = true
			fmt.Fprint(w, `{"ticket":{"id":42,"status":"OPEN"}}`)
		},
	})
	cfgPath := writeConfig(t, srv.URL)

	_, code := run(t, "--config", cfgPath, "--dry-run")
	assert.Equal(t, 0, code)
	assert.False(t, submitted)
}

func TestMissingConfigFails(t *testing.T) {
	out, code := run(t, "--config", filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "config file not found")
}
