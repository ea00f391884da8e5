package garmin

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

// routeTransport answers by URL path prefix, for tests that fan out over
// several endpoints in no particular order.
type routeTransport struct {
	routes map[string]func(req *http.Request) stubResponse
}

func (tr *routeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp := stubResponse{status: 404, body: "no route"}
	for prefix, handler := range tr.routes {
		if strings.HasPrefix(req.URL.Path, prefix) {
			resp = handler(req)
			break
		}
	}
	return &http.Response{
		Status:     http.StatusText(resp.status),
		StatusCode: resp.status,
		Body:       io.NopCloser(strings.NewReader(resp.body)),
		Header:     http.Header{},
		Request:    req,
	}, nil
}

func respond(body string) func(req *http.Request) stubResponse {
	return func(req *http.Request) stubResponse {
		return stubResponse{status: 200, body: body}
	}
}

func newDataClient(routes map[string]func(req *http.Request) stubResponse) *Client {
	httpClient := &http.Client{Transport: &routeTransport{routes: routes}}
	auth := NewAuthFromTokens(httpClient,
		&OAuth1Token{Token: "o1-token", Secret: "o1-secret"},
		&OAuth2Token{AccessToken: "bearer-1", ExpiresAt: time.Now().Add(time.Hour).Unix()},
	)
	return NewClient(httpClient, auth, WithInitialInterval(time.Millisecond), WithoutJitter())
}

func baseRoutes() map[string]func(req *http.Request) stubResponse {
	return map[string]func(req *http.Request) stubResponse{
		"/userprofile-service": respond(profileJSON),
		"/usersummary-service": respond(`{"totalSteps":12345,"totalDistanceMeters":8450.5,"restingHeartRate":48}`),
		"/wellness-service/wellness/dailySleepData": respond(`{"sleepTimeSeconds":25200,"deepSleepSeconds":5400}`),
		"/wellness-service/wellness/dailyStress":    respond(`{"overallStressLevel":27}`),
		"/hrv-service":     respond(`{"hrvValue":52,"status":"BALANCED"}`),
		"/metrics-service": respond(`[{"calendarDate":"2026-08-28","score":77,"level":"HIGH"}]`),
	}
}

func TestGetData(t *testing.T) {
	client := newDataClient(baseRoutes())
	data, err := client.GetData(context.Background(), time.UTC)
	if err != nil {
		t.Fatalf("GetData returned %v", err)
	}
	expected := map[string]any{
		"totalSteps":             12345,
		"totalDistanceMeters":    8450.5,
		"restingHeartRate":       48,
		"sleepTimeSeconds":       25200,
		"deepSleepSeconds":       5400,
		"overallStressLevel":     27,
		"hrvValue":               52,
		"hrvStatus":              "BALANCED",
		"trainingReadinessScore": 77,
		"trainingReadinessLevel": "HIGH",
	}
	for key, want := range expected {
		if got, ok := data[key]; !ok || got != want {
			t.Errorf("data[%s] = %v (present=%t), want %v", key, got, ok, want)
		}
	}
	for _, nested := range data {
		switch nested.(type) {
		case map[string]any, []any:
			t.Errorf("aggregate contains nested value %v", nested)
		}
	}
}

func TestGetDataMidnightFallback(t *testing.T) {
	tz := time.UTC
	today := time.Now().In(tz).Format(time.DateOnly)
	routes := baseRoutes()
	routes["/wellness-service/wellness/dailySleepData"] = func(req *http.Request) stubResponse {
		if req.URL.Query().Get("date") == today {
			// vendor has not aggregated tonight's sleep yet
			return stubResponse{status: 200, body: `{"sleepTimeSeconds":null}`}
		}
		return stubResponse{status: 200, body: `{"sleepTimeSeconds":21600}`}
	}
	client := newDataClient(routes)
	data, err := client.GetData(context.Background(), tz)
	if err != nil {
		t.Fatalf("GetData returned %v", err)
	}
	if got := data["sleepTimeSeconds"]; got != 21600 {
		t.Errorf("sleepTimeSeconds = %v, want yesterday's 21600", got)
	}
}

func TestGetDataPartialOnAccessorFailure(t *testing.T) {
	routes := baseRoutes()
	routes["/wellness-service/wellness/dailyStress"] = func(req *http.Request) stubResponse {
		return stubResponse{status: 403, body: "forbidden"}
	}
	client := newDataClient(routes)
	data, err := client.GetData(context.Background(), time.UTC)
	if err != nil {
		t.Fatalf("GetData returned %v", err)
	}
	if _, ok := data["overallStressLevel"]; ok {
		t.Error("failed stress accessor still produced a value")
	}
	if got := data["totalSteps"]; got != 12345 {
		t.Errorf("totalSteps = %v, partial result was lost", got)
	}
}

func TestGetDataNotAuthenticated(t *testing.T) {
	httpClient := &http.Client{Transport: &routeTransport{}}
	client := NewClient(httpClient, NewAuth(httpClient))
	if _, err := client.GetData(context.Background(), time.UTC); err == nil {
		t.Error("GetData without tokens did not fail")
	}
}
