package secrets

import (
	"errors"
	"strings"
)

var (
	ErrMissingAPIKey     = errors.New("search API key is not set")
	ErrPlaceholderAPIKey = errors.New("search API key is still a placeholder")
)

// ValidateAPIKey rejects empty keys and template values like YOUR_API_KEY.
func ValidateAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingAPIKey
	}
	if strings.HasPrefix(strings.ToUpper(key), "YOUR_") {
		return ErrPlaceholderAPIKey
	}
	return nil
}
