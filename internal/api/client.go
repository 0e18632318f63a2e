package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 10 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"
)

// ErrLoginRejected is returned when POST /login succeeds at the transport
// level but the response carries no token field.
var ErrLoginRejected = errors.New("login response has no token")

// TransportError wraps any failure to complete a request: network errors,
// timeouts, and non-2xx responses.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response, preserved so callers can classify.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// IsCredentialExpired reports whether err means the bearer token was
// rejected and a re-login may help. The session manager retries on this
// classification, not on raw status codes, so a different auth backend
// only has to change this one function.
func IsCredentialExpired(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Client issues authenticated JSON requests against the gaccode API with
// the same browser-like header set the web app sends.
type Client struct {
	baseURL    string
	siteURL    string
	language   string
	token      string
	httpClient *http.Client
}

// NewClient builds a client for baseURL (e.g. https://gaccode.com/api).
// language is sent as accept-language; token may be empty until login.
func NewClient(baseURL, language, token string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL:  baseURL,
		siteURL:  strings.TrimSuffix(baseURL, "/api"),
		language: language,
		token:    token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetToken replaces the bearer token used for subsequent calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// SiteURL is the web origin the API belongs to (base URL without /api).
func (c *Client) SiteURL() string {
	return c.siteURL
}

// request describes one API call for do.
type request struct {
	method  string
	path    string
	referer string
	origin  bool
	authed  bool
	body    any
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	op := fmt.Sprintf("%s %s", req.method, req.path)

	var rd io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		rd = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, rd)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}

	httpReq.Header.Set("user-agent", userAgent)
	httpReq.Header.Set("accept", "*/*")
	httpReq.Header.Set("content-type", "application/json")
	if req.authed {
		httpReq.Header.Set("pragma", "no-cache")
		httpReq.Header.Set("cache-control", "no-cache")
		httpReq.Header.Set("authorization", "Bearer "+c.token)
		httpReq.Header.Set("accept-language", c.language)
		httpReq.Header.Set("sec-fetch-site", "same-origin")
		httpReq.Header.Set("sec-fetch-mode", "cors")
		httpReq.Header.Set("sec-fetch-dest", "empty")
	}
	if req.referer != "" {
		httpReq.Header.Set("referer", c.siteURL+req.referer)
	}
	if req.origin {
		httpReq.Header.Set("origin", c.siteURL)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Op: op, Err: &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// Login exchanges credentials for a bearer token. The new token is not
// stored on the client; the caller owns that decision.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/login",
		referer: "/login",
		origin:  true,
		body:    payload,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrLoginRejected
	}
	return resp.Token, nil
}

// ActiveSubscriptions fetches the account's active subscriptions, newest
// first.
func (c *Client) ActiveSubscriptions(ctx context.Context) (*SubscriptionList, error) {
	var resp SubscriptionList
	err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/subscriptions/active",
		referer: "/subscriptions",
		authed:  true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tickets fetches one page of the account's tickets, most recent first.
func (c *Client) Tickets(ctx context.Context, page, limit int) (*TicketList, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))

	var resp TicketList
	err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/tickets?" + q.Encode(),
		referer: "/tickets",
		authed:  true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Preflight queries the pre-submission gate: captcha requirement and
// today's quota usage.
func (c *Client) Preflight(ctx context.Context) (*Preflight, error) {
	var resp Preflight
	err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/tickets/recaptcha-required",
		referer: "/tickets/new",
		authed:  true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTicket posts a new support request and returns the created ticket.
func (c *Client) CreateTicket(ctx context.Context, req CreateTicketRequest) (*Ticket, error) {
	var resp TicketEnvelope
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/tickets",
		referer: "/tickets/new",
		origin:  true,
		authed:  true,
		body:    req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Ticket == nil {
		return nil, &TransportError{
			Op:  "POST /tickets",
			Err: errors.New("response has no ticket field"),
		}
	}
	return resp.Ticket, nil
}

// Ticket reads a single ticket by id.
func (c *Client) Ticket(ctx context.Context, id int) (*Ticket, error) {
	path := fmt.Sprintf("/tickets/%d", id)
	var resp TicketEnvelope
	err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    path,
		referer: path,
		authed:  true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Ticket == nil {
		return nil, &TransportError{
			Op:  "GET " + path,
			Err: errors.New("response has no ticket field"),
		}
	}
	return resp.Ticket, nil
}

// Balance fetches the current credit balance.
func (c *Client) Balance(ctx context.Context) (*Balance, error) {
	var resp Balance
	err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/credits/balance",
		referer: "/",
		authed:  true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
