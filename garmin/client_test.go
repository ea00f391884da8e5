package garmin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func newTestClient(responses []stubResponse, opts ...ClientOption) (*Client, *scriptedTransport) {
	tr := &scriptedTransport{responses: responses}
	httpClient := &http.Client{Transport: tr}
	auth := NewAuthFromTokens(httpClient,
		&OAuth1Token{Token: "o1-token", Secret: "o1-secret"},
		&OAuth2Token{AccessToken: "bearer-1", ExpiresAt: time.Now().Add(time.Hour).Unix()},
	)
	opts = append([]ClientOption{WithInitialInterval(time.Millisecond), WithoutJitter()}, opts...)
	return NewClient(httpClient, auth, opts...), tr
}

func TestGetUserProfile(t *testing.T) {
	client, tr := newTestClient([]stubResponse{{200, profileJSON}})
	profile, err := client.GetUserProfile(context.Background())
	if err != nil {
		t.Fatalf("GetUserProfile returned %v", err)
	}
	if profile.DisplayName != "mike-abcdef" {
		t.Errorf("displayName was '%s'", profile.DisplayName)
	}
	req := tr.requests[0]
	if got := req.Header.Get("Authorization"); got != "Bearer bearer-1" {
		t.Errorf("Authorization header was '%s'", got)
	}
	if got := req.Header.Get("User-Agent"); got != userAgent {
		t.Errorf("User-Agent header was '%s'", got)
	}
}

func TestGetUserSummaryURL(t *testing.T) {
	client, tr := newTestClient([]stubResponse{
		{200, profileJSON},
		{200, `{"totalSteps":12345}`},
	})
	day := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	summary, err := client.GetUserSummary(context.Background(), day)
	if err != nil {
		t.Fatalf("GetUserSummary returned %v", err)
	}
	if summary.TotalSteps == nil || *summary.TotalSteps != 12345 {
		t.Errorf("totalSteps was %v", summary.TotalSteps)
	}
	req := tr.requests[1]
	if want := "/usersummary-service/usersummary/daily/mike-abcdef"; req.URL.Path != want {
		t.Errorf("summary path was '%s', want '%s'", req.URL.Path, want)
	}
	if got := req.URL.Query().Get("calendarDate"); got != "2026-08-28" {
		t.Errorf("calendarDate was '%s'", got)
	}
	// profile is cached, second call must not re-fetch it
	tr.responses = []stubResponse{{200, `{"totalSteps":1}`}}
	if _, err = client.GetUserSummary(context.Background(), day); err != nil {
		t.Fatalf("second GetUserSummary returned %v", err)
	}
	if got := tr.countRequests("socialProfile"); got != 1 {
		t.Errorf("profile was fetched %d times", got)
	}
}

func TestExpiredTokenRefreshedBeforeRequest(t *testing.T) {
	tr := &scriptedTransport{responses: []stubResponse{
		{200, `{"access_token":"bearer-2","token_type":"Bearer","expires_in":3600}`},
		{200, profileJSON},
	}}
	httpClient := &http.Client{Transport: tr}
	auth := NewAuthFromTokens(httpClient,
		&OAuth1Token{Token: "o1-token", Secret: "o1-secret"},
		&OAuth2Token{AccessToken: "bearer-1", ExpiresAt: time.Now().Add(-time.Minute).Unix()},
	)
	client := NewClient(httpClient, auth, WithInitialInterval(time.Millisecond), WithoutJitter())
	if _, err := client.GetUserProfile(context.Background()); err != nil {
		t.Fatalf("GetUserProfile returned %v", err)
	}
	if got := tr.countRequests("oauth-service/oauth/exchange"); got != 1 {
		t.Errorf("token was refreshed %d times, want exactly 1", got)
	}
	if got := tr.requests[1].Header.Get("Authorization"); got != "Bearer bearer-2" {
		t.Errorf("request after refresh used '%s'", got)
	}
}

func TestRefreshOn401(t *testing.T) {
	client, tr := newTestClient([]stubResponse{
		{401, ""},
		{200, `{"access_token":"bearer-2","token_type":"Bearer","expires_in":3600}`},
		{200, profileJSON},
	})
	profile, err := client.GetUserProfile(context.Background())
	if err != nil {
		t.Fatalf("GetUserProfile returned %v", err)
	}
	if profile.ID != 42 {
		t.Errorf("profile id was %d", profile.ID)
	}
	if got := tr.countRequests("oauth-service/oauth/exchange"); got != 1 {
		t.Errorf("token was refreshed %d times, want exactly 1", got)
	}
	replay := tr.requests[len(tr.requests)-1]
	if got := replay.Header.Get("Authorization"); got != "Bearer bearer-2" {
		t.Errorf("replay used '%s'", got)
	}
}

func TestSecond401IsAuthError(t *testing.T) {
	client, tr := newTestClient([]stubResponse{
		{401, ""},
		{200, `{"access_token":"bearer-2","token_type":"Bearer","expires_in":3600}`},
		{401, ""},
	})
	_, err := client.GetUserProfile(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if len(tr.requests) != 3 {
		t.Errorf("made %d requests, want 3 (request, refresh, replay)", len(tr.requests))
	}
}

func TestRefreshFailureSurfacesWithoutRetry(t *testing.T) {
	client, tr := newTestClient([]stubResponse{
		{401, ""},
		{500, "exchange down"},
	})
	_, err := client.GetUserProfile(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if len(tr.requests) != 2 {
		t.Errorf("made %d requests after failed refresh, want 2", len(tr.requests))
	}
}

func TestRateLimitExhaustsRetries(t *testing.T) {
	responses := []stubResponse{{429, ""}, {429, ""}, {429, ""}}
	client, tr := newTestClient(responses, WithMaxRetries(2))
	_, err := client.GetUserProfile(context.Background())
	if !IsRateLimited(err) {
		t.Fatalf("expected rate-limit error, got %v", err)
	}
	if len(tr.requests) != 3 {
		t.Errorf("made %d attempts, want 3 (initial + 2 retries)", len(tr.requests))
	}
}

func TestServerErrorIsRetried(t *testing.T) {
	client, tr := newTestClient([]stubResponse{
		{503, ""},
		{200, profileJSON},
	})
	if _, err := client.GetUserProfile(context.Background()); err != nil {
		t.Fatalf("GetUserProfile returned %v", err)
	}
	if len(tr.requests) != 2 {
		t.Errorf("made %d attempts, want 2", len(tr.requests))
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	client, tr := newTestClient([]stubResponse{{404, "not found"}})
	_, err := client.GetUserProfile(context.Background())
	if !IsClientError(err) {
		t.Fatalf("expected client error, got %v", err)
	}
	if len(tr.requests) != 1 {
		t.Errorf("made %d attempts on a 404, want 1", len(tr.requests))
	}
}

func TestTransportErrorIsRetried(t *testing.T) {
	client, tr := newTestClient(nil, WithMaxRetries(1))
	tr.err = fmt.Errorf("connection reset")
	_, err := client.GetUserProfile(context.Background())
	if err == nil {
		t.Fatal("expected an error after transport failures")
	}
	if len(tr.requests) != 2 {
		t.Errorf("made %d attempts, want 2 (initial + 1 retry)", len(tr.requests))
	}
}

func TestGetActivities(t *testing.T) {
	client, tr := newTestClient([]stubResponse{
		{200, `[{"activityId":101,"activityName":"Morning Run","startTimeLocal":"2026-08-28 06:30:00","distance":5012.5,"averageHR":142.0}]`},
	})
	activities, err := client.GetActivities(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetActivities returned %v", err)
	}
	if len(activities) != 1 || activities[0].ActivityID != 101 || activities[0].ActivityName != "Morning Run" {
		t.Errorf("unexpected activities: %#v", activities)
	}
	if activities[0].Distance == nil || *activities[0].Distance != 5012.5 {
		t.Errorf("distance was %v", activities[0].Distance)
	}
	req := tr.requests[0]
	if want := "/activitylist-service/activities/search/activities"; req.URL.Path != want {
		t.Errorf("activities path was '%s', want '%s'", req.URL.Path, want)
	}
	query := req.URL.Query()
	if query.Get("limit") != "5" || query.Get("start") != "0" {
		t.Errorf("activities query was %v", query)
	}
}

func TestGetBodyBattery(t *testing.T) {
	client, tr := newTestClient([]stubResponse{
		{200, `{"bodyBatteryValuesArray":[{"startTimestampGMT":"2026-08-28T00:00:00.0","charged":55,"drained":30,"bodyBatteryLevel":61}]}`},
	})
	day := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	readings, err := client.GetBodyBattery(context.Background(), day)
	if err != nil {
		t.Fatalf("GetBodyBattery returned %v", err)
	}
	if len(readings) != 1 || readings[0].Charged == nil || *readings[0].Charged != 55 {
		t.Errorf("unexpected readings: %#v", readings)
	}
	if readings[0].Level == nil || *readings[0].Level != 61 {
		t.Errorf("level was %v", readings[0].Level)
	}
	req := tr.requests[0]
	if want := "/wellness-service/wellness/bodyBattery/2026-08-28"; req.URL.Path != want {
		t.Errorf("body battery path was '%s', want '%s'", req.URL.Path, want)
	}
}

func TestGetDevices(t *testing.T) {
	client, tr := newTestClient([]stubResponse{
		{200, `[{"deviceId":9000123,"displayName":"Forerunner 965","batteryLevel":82,"batteryStatus":"GOOD"}]`},
	})
	devices, err := client.GetDevices(context.Background())
	if err != nil {
		t.Fatalf("GetDevices returned %v", err)
	}
	if len(devices) != 1 || devices[0].DeviceID == nil || *devices[0].DeviceID != 9000123 {
		t.Errorf("unexpected devices: %#v", devices)
	}
	if devices[0].BatteryStatus == nil || *devices[0].BatteryStatus != "GOOD" {
		t.Errorf("battery status was %v", devices[0].BatteryStatus)
	}
	req := tr.requests[0]
	if want := "/device-service/deviceregistration/devices"; req.URL.Path != want {
		t.Errorf("devices path was '%s', want '%s'", req.URL.Path, want)
	}
}

func TestNotAuthenticated(t *testing.T) {
	tr := &scriptedTransport{}
	httpClient := &http.Client{Transport: tr}
	client := NewClient(httpClient, NewAuth(httpClient))
	_, err := client.GetUserProfile(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if len(tr.requests) != 0 {
		t.Errorf("made %d requests without tokens", len(tr.requests))
	}
}

func TestBackoffDelaysIncrease(t *testing.T) {
	client, _ := newTestClient(nil, WithoutJitter())
	b := client.newBackOff(context.Background())
	previous := time.Duration(0)
	for attempt := 0; attempt < 3; attempt++ {
		next := b.NextBackOff()
		if next <= previous {
			t.Errorf("attempt %d: delay %v did not increase from %v", attempt, next, previous)
		}
		previous = next
	}
}
