package interview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAccessTokenFormat(t *testing.T) {
	token, err := GenerateAccessToken()
	require.NoError(t, err)
	require.True(t, IsValidTokenFormat(token))

	parts := strings.SplitN(token, "-", 2)
	require.Len(t, parts, 2)
	require.Len(t, parts[1], 32)
}

func TestGenerateAccessTokenUnique(t *testing.T) {
	seen := make(map[string]bool)

	for range 100 {
		token, err := GenerateAccessToken()
		require.NoError(t, err)
		require.False(t, seen[token], "duplicate token %s", token)

		seen[token] = true
	}
}

func TestIsValidTokenFormatRejectsMalformedTokens(t *testing.T) {
	invalid := []string{
		"",
		"no-dash-but-wrong-random",
		"mf8xk2p1",
		"-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"mf8xk2p1-aaaa",
		"mf8xk2p1-AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"mf8xk2p1-gggggggggggggggggggggggggggggggg",
		"MF8XK2P1-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"mf8xk2p1-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa-extra",
	}

	for _, token := range invalid {
		require.False(t, IsValidTokenFormat(token), "token %q should be invalid", token)
	}

	require.True(t, IsValidTokenFormat("mf8xk2p1-0123456789abcdef0123456789abcdef"))
}
