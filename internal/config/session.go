package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/jask/foodswipe/internal/secrets"
	"github.com/jask/foodswipe/internal/settings"
	"github.com/jask/foodswipe/internal/venue"
)

// SessionSettings converts the stored session preferences. Unknown category or
// sort names fall back to the defaults.
func (c Config) SessionSettings() settings.Settings {
	s := settings.Default()
	s.RadiusMeters = c.Session.Radius
	if cat, err := settings.ParseCategory(c.Session.Category); err == nil {
		s.Category = cat
	}
	if mode, err := settings.ParseSortMode(c.Session.Sort); err == nil {
		s.SortMode = mode
	}
	s.OpenOnly = c.Session.OpenOnly
	s.MinimumRating = c.Session.MinimumRating
	return s.Normalize()
}

// WithSession returns a copy of c holding s as the session preferences.
func (c Config) WithSession(s settings.Settings) Config {
	s = s.Normalize()
	c.Session = SessionConfig{
		Radius:        s.RadiusMeters,
		Category:      string(s.Category),
		Sort:          string(s.SortMode),
		OpenOnly:      s.OpenOnly,
		MinimumRating: s.MinimumRating,
	}
	return c
}

// Reference returns the configured fixed location, if complete and valid.
func (c Config) Reference() (venue.Coordinate, bool) {
	if c.Location.Latitude == nil || c.Location.Longitude == nil {
		return venue.Coordinate{}, false
	}
	pt := venue.Coordinate{Latitude: *c.Location.Latitude, Longitude: *c.Location.Longitude}
	return pt, pt.Valid()
}

// KeyLookup fetches a stored key for a provider.
type KeyLookup func(provider string) (string, error)

// ResolveAPIKey picks the search API key from, in order: search.api_key, the
// env var named by search.api_key_env, then the key store. The result is
// validated so placeholders fail here rather than at the first request.
func (c Config) ResolveAPIKey(lookup KeyLookup) (string, error) {
	key := strings.TrimSpace(c.Search.APIKey)
	if key == "" && c.Search.APIKeyEnv != "" {
		key = strings.TrimSpace(os.Getenv(c.Search.APIKeyEnv))
	}
	if key == "" && lookup != nil {
		stored, err := lookup(c.Search.Provider)
		if err == nil {
			key = stored
		}
	}
	if err := secrets.ValidateAPIKey(key); err != nil {
		return "", fmt.Errorf("%s provider: %w", c.Search.Provider, err)
	}
	return key, nil
}
