package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jylitalo/garminconnect/garmin"
)

func TestTokensRoundTrip(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "tokens.json")
	oauth1 := &garmin.OAuth1Token{Token: "token-1", Secret: "secret-1"}
	oauth2 := &garmin.OAuth2Token{
		AccessToken:  "bearer-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
	if err := SaveTokens(fname, oauth1, oauth2); err != nil {
		t.Fatalf("SaveTokens returned %v", err)
	}
	o1, o2, err := LoadTokens(fname)
	switch {
	case err != nil:
		t.Fatalf("LoadTokens returned %v", err)
	case o1 == nil || *o1 != *oauth1:
		t.Errorf("oauth1 was %+v", o1)
	case o2 == nil || *o2 != *oauth2:
		t.Errorf("oauth2 was %+v", o2)
	}
}

func TestLoadTokensMissingFile(t *testing.T) {
	o1, o2, err := LoadTokens(filepath.Join(t.TempDir(), "no-such.json"))
	if o1 != nil || o2 != nil || err != nil {
		t.Errorf("expected clean empty result, got %v %v %v", o1, o2, err)
	}
}

func TestLoadTokensCorruptFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(fname, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadTokens(fname); err == nil {
		t.Error("corrupt file did not raise error")
	}
}
