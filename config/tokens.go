package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/jylitalo/garminconnect/garmin"
)

// tokenFile is the on-disk token bundle: {"oauth1": {...}, "oauth2": {...}}.
type tokenFile struct {
	OAuth1 *garmin.OAuth1Token `json:"oauth1"`
	OAuth2 *garmin.OAuth2Token `json:"oauth2"`
}

// LoadTokens reads previously saved token bundles. A missing file is not an
// error; it just means login is needed.
func LoadTokens(fname string) (*garmin.OAuth1Token, *garmin.OAuth2Token, error) {
	content, err := os.ReadFile(filepath.Clean(fname))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	tokens := tokenFile{}
	if err = json.Unmarshal(content, &tokens); err != nil {
		return nil, nil, err
	}
	return tokens.OAuth1, tokens.OAuth2, nil
}

func SaveTokens(fname string, oauth1 *garmin.OAuth1Token, oauth2 *garmin.OAuth2Token) error {
	content, err := json.MarshalIndent(tokenFile{OAuth1: oauth1, OAuth2: oauth2}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fname, content, 0o600)
}
