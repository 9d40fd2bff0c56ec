package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s := &Store{Dir: filepath.Join(t.TempDir(), "cfg")}

	_, err := s.FetchAPIKey("yelp")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.StoreAPIKey(" Yelp ", "  sk-live-123 "))
	got, err := s.FetchAPIKey("yelp")
	require.NoError(t, err)
	require.Equal(t, "sk-live-123", got)

	raw, err := os.ReadFile(filepath.Join(s.Dir, fileName))
	require.NoError(t, err)
	require.False(t, strings.Contains(string(raw), "sk-live-123"))

	providers, err := s.Providers()
	require.NoError(t, err)
	require.Equal(t, []string{"yelp"}, providers)

	require.NoError(t, s.DeleteAPIKey("yelp"))
	require.ErrorIs(t, s.DeleteAPIKey("yelp"), ErrKeyNotFound)
}

func TestStoreRejectsInvalidKeys(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	require.ErrorIs(t, s.StoreAPIKey("yelp", ""), ErrMissingAPIKey)
	require.ErrorIs(t, s.StoreAPIKey("yelp", "YOUR_YELP_KEY"), ErrPlaceholderAPIKey)
	require.Error(t, s.StoreAPIKey("  ", "abc"))
}

func TestValidateAPIKey(t *testing.T) {
	cases := map[string]error{
		"":              ErrMissingAPIKey,
		"   ":           ErrMissingAPIKey,
		"YOUR_API_KEY":  ErrPlaceholderAPIKey,
		"your_key_here": ErrPlaceholderAPIKey,
		"abc123":        nil,
	}
	for key, want := range cases {
		err := ValidateAPIKey(key)
		if want == nil {
			require.NoError(t, err, key)
			continue
		}
		require.ErrorIs(t, err, want, key)
	}
}
