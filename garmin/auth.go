package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

// OAuth1Token is the session token issued by Garmin SSO after the
// credential/MFA handshake. It is only good for requesting OAuth2Tokens.
type OAuth1Token struct {
	Token    string `json:"oauth_token"`
	Secret   string `json:"oauth_token_secret"`
	MFAToken string `json:"mfa_token,omitempty"`
}

// OAuth2Token is the bearer token attached to every Connect API request.
type OAuth2Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (t *OAuth2Token) Expired() bool {
	return t == nil || t.ExpiresAt <= time.Now().Unix()
}

type authState int

const (
	stateUnauthenticated authState = iota
	stateMFAPending
	stateAuthenticated
)

var (
	csrfRe   = regexp.MustCompile(`name="_csrf"\s+value="([^"]+)"`)
	ticketRe = regexp.MustCompile(`embed\?ticket=([^"]+)"`)
)

// Auth drives the Garmin SSO handshake and keeps the resulting token
// bundles. The HTTP client is injected by the caller and never owned here.
type Auth struct {
	client *http.Client

	// mu guards the fields below so concurrent API calls never observe a
	// half-written bundle. Refresh is not coalesced: overlapping refreshes
	// are idempotent on Garmin's side.
	mu     sync.Mutex
	state  authState
	csrf   string // carried from the signin page into MFA verification
	oauth1 *OAuth1Token
	oauth2 *OAuth2Token
}

func NewAuth(client *http.Client) *Auth {
	return &Auth{client: client}
}

// NewAuthFromTokens enters the authenticated state directly from previously
// stored token bundles, without any network calls. This is the startup path
// for long-running applications that persisted tokens from an earlier login.
func NewAuthFromTokens(client *http.Client, oauth1 *OAuth1Token, oauth2 *OAuth2Token) *Auth {
	a := &Auth{client: client, oauth1: oauth1, oauth2: oauth2}
	if oauth1 != nil && oauth2 != nil {
		a.state = stateAuthenticated
	}
	return a
}

func (a *Auth) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == stateAuthenticated && a.oauth2 != nil
}

// Tokens exposes both bundles for external persistence. The library itself
// never writes them anywhere.
func (a *Auth) Tokens() (*OAuth1Token, *OAuth2Token) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.oauth1, a.oauth2
}

func (a *Auth) accessToken() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != stateAuthenticated || a.oauth2 == nil || a.oauth2.AccessToken == "" {
		return "", ErrNotAuthenticated
	}
	return a.oauth2.AccessToken, nil
}

// Login submits credentials to Garmin SSO. If the account has MFA enabled it
// returns ErrMFARequired and the caller must follow up with CompleteMFA.
func (a *Auth) Login(ctx context.Context, email, password string) error {
	params := url.Values{
		"id":          {"gauth-widget"},
		"embedWidget": {"true"},
		"gauthHost":   {embedURL},
		"service":     {embedURL},
		"source":      {embedURL},
		"redirectAfterAccountLoginUrl": {embedURL},
	}
	page, err := a.get(ctx, signinURL, params)
	if err != nil {
		return &AuthError{Op: "login", Err: err}
	}
	csrf := csrfRe.FindSubmatch(page)
	if csrf == nil {
		return &AuthError{Op: "login", Err: fmt.Errorf("no CSRF token on signin page")}
	}
	form := url.Values{
		"username": {email},
		"password": {password},
		"embed":    {"true"},
		"_csrf":    {string(csrf[1])},
	}
	page, err = a.postForm(ctx, signinURL+"?"+params.Encode(), form)
	if err != nil {
		return &AuthError{Op: "login", Err: err}
	}
	if strings.Contains(string(page), "verifyMFA") {
		slog.Debug("garmin login challenged with MFA")
		if csrf = csrfRe.FindSubmatch(page); csrf == nil {
			return &AuthError{Op: "login", Err: fmt.Errorf("no CSRF token on MFA page")}
		}
		a.mu.Lock()
		a.state = stateMFAPending
		a.csrf = string(csrf[1])
		a.mu.Unlock()
		return ErrMFARequired
	}
	ticket := ticketRe.FindSubmatch(page)
	if ticket == nil {
		a.mu.Lock()
		a.state = stateUnauthenticated
		a.mu.Unlock()
		return &AuthError{Op: "login", Err: fmt.Errorf("no service ticket (wrong credentials?)")}
	}
	return a.exchangeTicket(ctx, string(ticket[1]))
}

// CompleteMFA finishes a login that stopped at the MFA challenge. On a bad
// code the challenge stays pending and the call can be repeated.
func (a *Auth) CompleteMFA(ctx context.Context, code string) error {
	a.mu.Lock()
	pending := a.state == stateMFAPending
	csrf := a.csrf
	a.mu.Unlock()
	if !pending {
		return &AuthError{Op: "mfa", Err: fmt.Errorf("no MFA challenge pending")}
	}
	form := url.Values{
		"mfa-code": {strings.TrimSpace(code)},
		"embed":    {"true"},
		"fromPage": {"setupEnterMfaCode"},
		"_csrf":    {csrf},
	}
	page, err := a.postForm(ctx, mfaCodeURL, form)
	if err != nil {
		return &AuthError{Op: "mfa", Err: err}
	}
	ticket := ticketRe.FindSubmatch(page)
	if ticket == nil {
		return &AuthError{Op: "mfa", Err: fmt.Errorf("code rejected")}
	}
	a.mu.Lock()
	a.csrf = ""
	a.mu.Unlock()
	return a.exchangeTicket(ctx, string(ticket[1]))
}

// RefreshTokens trades the stage-1 token for a fresh bearer token. Called by
// the client when Garmin answers 401 and usable on its own before expiry.
func (a *Auth) RefreshTokens(ctx context.Context) error {
	a.mu.Lock()
	oauth1 := a.oauth1
	a.mu.Unlock()
	if oauth1 == nil {
		return &AuthError{Op: "refresh", Err: ErrNotAuthenticated}
	}
	oauth2, err := a.exchange(ctx, oauth1)
	if err != nil {
		return &AuthError{Op: "refresh", Err: err}
	}
	a.mu.Lock()
	a.oauth2 = oauth2
	a.state = stateAuthenticated
	a.mu.Unlock()
	return nil
}

func (a *Auth) exchangeTicket(ctx context.Context, ticket string) error {
	params := url.Values{
		"ticket":             {ticket},
		"login-url":          {embedURL},
		"accepts-mfa-tokens": {"true"},
	}
	body, err := a.get(ctx, preauthURL, params)
	if err != nil {
		return &AuthError{Op: "login", Err: err}
	}
	oauth1 := OAuth1Token{}
	if err = json.Unmarshal(body, &oauth1); err != nil {
		return &AuthError{Op: "login", Err: fmt.Errorf("stage-1 token: %w", err)}
	}
	a.mu.Lock()
	a.oauth1 = &oauth1
	a.mu.Unlock()
	oauth2, err := a.exchange(ctx, &oauth1)
	if err != nil {
		return &AuthError{Op: "login", Err: err}
	}
	a.mu.Lock()
	a.oauth2 = oauth2
	a.state = stateAuthenticated
	a.mu.Unlock()
	slog.Debug("garmin login complete", "expires_at", oauth2.ExpiresAt)
	return nil
}

func (a *Auth) exchange(ctx context.Context, oauth1 *OAuth1Token) (*OAuth2Token, error) {
	form := url.Values{
		"oauth_token":        {oauth1.Token},
		"oauth_token_secret": {oauth1.Secret},
	}
	if oauth1.MFAToken != "" {
		form.Set("mfa_token", oauth1.MFAToken)
	}
	body, err := a.postForm(ctx, exchangeURL, form)
	if err != nil {
		return nil, err
	}
	oauth2 := OAuth2Token{}
	if err = json.Unmarshal(body, &oauth2); err != nil {
		return nil, fmt.Errorf("stage-2 token: %w", err)
	}
	if oauth2.AccessToken == "" {
		return nil, fmt.Errorf("exchange returned no access token")
	}
	if oauth2.ExpiresAt == 0 {
		oauth2.ExpiresAt = time.Now().Unix() + int64(oauth2.ExpiresIn)
	}
	return &oauth2, nil
}

func (a *Auth) get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return a.do(req)
}

func (a *Auth) postForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *Auth) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, &APIError{Status: resp.StatusCode, URL: req.URL.Path, Body: string(body)}
	}
	return body, nil
}
