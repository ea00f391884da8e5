package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultMaxRetries = 3

// Client issues authenticated read-only calls against the Connect API.
// Transient failures (429, 5xx, network errors) are retried with exponential
// backoff; a bearer token known to be expired is refreshed up front, and a
// single 401 triggers one token refresh and one replay.
type Client struct {
	http *http.Client
	auth *Auth

	maxRetries      uint64
	initialInterval time.Duration
	randomization   float64

	mu          sync.Mutex
	displayName string // profile display name, embedded in some endpoint URLs
}

type ClientOption func(c *Client)

func WithMaxRetries(n uint64) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithInitialInterval sets the base backoff delay. Mainly useful in tests.
func WithInitialInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.initialInterval = d
	}
}

// WithoutJitter disables backoff randomization so delays are deterministic.
func WithoutJitter() ClientOption {
	return func(c *Client) {
		c.randomization = 0
	}
}

func NewClient(httpClient *http.Client, auth *Auth, opts ...ClientOption) *Client {
	c := &Client{
		http:            httpClient,
		auth:            auth,
		maxRetries:      defaultMaxRetries,
		initialInterval: 500 * time.Millisecond,
		randomization:   backoff.DefaultRandomizationFactor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.RandomizationFactor = c.randomization
	return backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)
}

func (c *Client) request(ctx context.Context, method, rawURL string, params url.Values) ([]byte, error) {
	if _, err := c.auth.accessToken(); err != nil {
		return nil, err
	}
	refreshed := false
	if _, oauth2 := c.auth.Tokens(); oauth2.Expired() {
		slog.Debug("bearer token expired, refreshing before request", "url", rawURL)
		if err := c.auth.RefreshTokens(ctx); err != nil {
			return nil, err
		}
		refreshed = true
	}
	var body []byte
	op := func() error {
		status, respBody, err := c.do(ctx, method, rawURL, params)
		if err != nil {
			return fmt.Errorf("request to %s: %w", rawURL, err)
		}
		if status == http.StatusUnauthorized && !refreshed {
			refreshed = true
			slog.Debug("token rejected, refreshing", "url", rawURL)
			if err = c.auth.RefreshTokens(ctx); err != nil {
				return backoff.Permanent(err)
			}
			status, respBody, err = c.do(ctx, method, rawURL, params)
			if err != nil {
				return fmt.Errorf("request to %s: %w", rawURL, err)
			}
		}
		switch {
		case status/100 == 2:
			body = respBody
			return nil
		case status == http.StatusUnauthorized:
			return backoff.Permanent(&AuthError{
				Op:  "request",
				Err: &APIError{Status: status, URL: rawURL},
			})
		case status == http.StatusTooManyRequests || status/100 == 5:
			return &APIError{Status: status, URL: rawURL, Body: string(respBody)}
		default:
			return backoff.Permanent(&APIError{Status: status, URL: rawURL, Body: string(respBody)})
		}
	}
	if err := backoff.Retry(op, c.newBackOff(ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, params url.Values) (int, []byte, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	token, err := c.auth.accessToken()
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	body, err := c.request(ctx, http.MethodGet, rawURL, params)
	if err != nil {
		return err
	}
	if len(body) == 0 || string(body) == "null" {
		return nil
	}
	if err = json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("response from %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) GetUserProfile(ctx context.Context) (*UserProfile, error) {
	profile := UserProfile{}
	if err := c.getJSON(ctx, userProfileURL, nil, &profile); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.displayName = profile.DisplayName
	c.mu.Unlock()
	return &profile, nil
}

// getDisplayName returns the cached profile display name, fetching the
// profile once on first use. Summary and sleep URLs embed it.
func (c *Client) getDisplayName(ctx context.Context) (string, error) {
	c.mu.Lock()
	name := c.displayName
	c.mu.Unlock()
	if name != "" {
		return name, nil
	}
	profile, err := c.GetUserProfile(ctx)
	if err != nil {
		return "", err
	}
	return profile.DisplayName, nil
}

func (c *Client) GetUserSummary(ctx context.Context, day time.Time) (*UserSummary, error) {
	name, err := c.getDisplayName(ctx)
	if err != nil {
		return nil, err
	}
	params := url.Values{"calendarDate": {day.Format(time.DateOnly)}}
	summary := UserSummary{}
	if err := c.getJSON(ctx, userSummaryURL+"/"+name, params, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) GetActivities(ctx context.Context, limit int) ([]Activity, error) {
	params := url.Values{
		"limit": {fmt.Sprintf("%d", limit)},
		"start": {"0"},
	}
	activities := []Activity{}
	if err := c.getJSON(ctx, activitiesURL, params, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetActivityDetails returns the raw detail payload for one activity. The
// shape varies wildly per sport so it stays untyped.
func (c *Client) GetActivityDetails(ctx context.Context, activityID int64) (map[string]any, error) {
	details := map[string]any{}
	url := fmt.Sprintf("%s/%d/details", activityDetailsURL, activityID)
	if err := c.getJSON(ctx, url, nil, &details); err != nil {
		return nil, err
	}
	return details, nil
}

func (c *Client) GetSleepData(ctx context.Context, day time.Time) (*SleepData, error) {
	name, err := c.getDisplayName(ctx)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"date":                  {day.Format(time.DateOnly)},
		"nonSleepBufferMinutes": {"60"},
	}
	sleep := SleepData{}
	if err := c.getJSON(ctx, sleepURL+"/"+name, params, &sleep); err != nil {
		return nil, err
	}
	return &sleep, nil
}

func (c *Client) GetStressData(ctx context.Context, day time.Time) (*StressData, error) {
	stress := StressData{}
	if err := c.getJSON(ctx, stressURL+"/"+day.Format(time.DateOnly), nil, &stress); err != nil {
		return nil, err
	}
	return &stress, nil
}

func (c *Client) GetHRVData(ctx context.Context, day time.Time) (*HRVData, error) {
	hrv := HRVData{}
	if err := c.getJSON(ctx, hrvURL+"/"+day.Format(time.DateOnly), nil, &hrv); err != nil {
		return nil, err
	}
	return &hrv, nil
}

func (c *Client) GetBodyBattery(ctx context.Context, day time.Time) ([]BodyBattery, error) {
	resp := struct {
		Readings []BodyBattery `json:"bodyBatteryValuesArray"`
	}{}
	if err := c.getJSON(ctx, bodyBatteryURL+"/"+day.Format(time.DateOnly), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Readings, nil
}

func (c *Client) GetTrainingReadiness(ctx context.Context, day time.Time) (*TrainingReadiness, error) {
	// Garmin answers with a single-element array for a single day.
	readiness := []TrainingReadiness{}
	if err := c.getJSON(ctx, trainingReadinessURL+"/"+day.Format(time.DateOnly), nil, &readiness); err != nil {
		return nil, err
	}
	if len(readiness) == 0 {
		return nil, nil
	}
	return &readiness[0], nil
}

func (c *Client) GetDevices(ctx context.Context) ([]Device, error) {
	devices := []Device{}
	if err := c.getJSON(ctx, devicesURL, nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}
