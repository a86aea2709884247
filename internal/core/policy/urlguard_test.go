package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestURLGuard_Strict(t *testing.T) {
	guard := strictSet(t).URLGuards["fetch"]

	cases := []struct {
		url     string
		blocked bool
		label   string
	}{
		{url: "http://127.0.0.1/x", blocked: true, label: "127.0.0.1"},
		{url: "http://LOCALHOST:3001/data", blocked: true, label: "localhost"},
		{url: "file:///etc/passwd", blocked: true, label: "file://"},
		{url: "http://example.com/../secret", blocked: true, label: ".."},
		{url: "http://metadata.google.internal/", blocked: true, label: "metadata"},
		{url: "http://172.20.1.1/", blocked: true, label: `(^|[^0-9])172\.(1[6-9]|2[0-9]|3[01])\.[0-9]{1,3}\.[0-9]{1,3}`},
		{url: "http://127.1.2.3/", blocked: true, label: `(^|[^0-9])127\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}`},
		{url: "http://example.com/", blocked: false},
		// Sem normalização: formas numéricas alternativas passam.
		{url: "http://2130706433/x", blocked: false},
		{url: "http://0x7f000001/x", blocked: false},
	}

	for _, tc := range cases {
		label, blocked := guard.Check(tc.url)
		require.Equal(t, tc.blocked, blocked, tc.url)
		if tc.blocked {
			require.Equal(t, tc.label, label, tc.url)
		}
	}
}

func TestURLGuard_RelaxedAllowsLoopback(t *testing.T) {
	guard := relaxedSet(t).URLGuards["fetch"]

	require.False(t, guard.IsBlocked("http://127.0.0.1:3001/health"))
	require.False(t, guard.IsBlocked("http://localhost:3001/health"))
	require.True(t, guard.IsBlocked("http://169.254.169.254/latest"))
	require.True(t, guard.IsBlocked("http://192.168.0.10/"))
	require.True(t, guard.IsBlocked("http://10.1.2.3/"))
}

func TestURLGuard_LiteralsCheckedBeforePatterns(t *testing.T) {
	guard, err := NewURLGuard(URLGuardSpec{
		BlockedSubstrings: []string{"192.168"},
		BlockedPatterns:   []string{`192\.168\.\d+\.\d+`},
	})
	require.NoError(t, err)

	label, blocked := guard.Check("http://192.168.1.1/")
	require.True(t, blocked)
	require.Equal(t, "192.168", label)
}
