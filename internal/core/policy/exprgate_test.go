package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

func admitStage(t *testing.T, g *Gate, code string) (string, string) {
	t.Helper()
	err := g.Admit(code)
	require.Error(t, err, code)
	v, ok := domain.AsValidationError(err)
	require.True(t, ok, code)
	return v.Stage, v.Error()
}

func TestGate_AdmitsBenignCode(t *testing.T) {
	g := strictSet(t).Gates["eval"]

	require.NoError(t, g.Admit("1+1"))
	require.NoError(t, g.Admit("[1,2,3].length * 7"))
	require.NoError(t, g.Admit(strings.Repeat("é", 150)))
}

func TestGate_Rejections(t *testing.T) {
	g := strictSet(t).Gates["eval"]

	stage, msg := admitStage(t, g, "process.env")
	require.Equal(t, domain.StageKeyword, stage)
	require.Equal(t, "Blocked keyword: process", msg)

	stage, msg = admitStage(t, g, "PROCESS")
	require.Equal(t, domain.StageKeyword, stage)
	require.Equal(t, "Blocked keyword: process", msg)

	stage, msg = admitStage(t, g, `"\x41"`)
	require.Equal(t, domain.StageEncoding, stage)
	require.Equal(t, "Encoding pattern detected and blocked", msg)

	stage, msg = admitStage(t, g, strings.Repeat("1", 151))
	require.Equal(t, domain.StageLength, stage)
	require.Equal(t, "Code too long. Maximum 150 characters allowed.", msg)

	stage, msg = admitStage(t, g, "1...2")
	require.Equal(t, domain.StageSuspicious, stage)
	require.Equal(t, "Suspicious pattern detected", msg)

	stage, _ = admitStage(t, g, "x()")
	require.Equal(t, domain.StageSuspicious, stage)
}

func TestGate_JavaScriptWhitespaceClasses(t *testing.T) {
	g := strictSet(t).Gates["eval"]

	cases := []struct {
		code  string
		stage string
	}{
		{"[\u00a0'x']", domain.StageEncoding},
		{"1+\u00a0'a'", domain.StageEncoding},
		{"'abc'[\ufeff'length']", domain.StageEncoding},
		{"1+\u2028'a'", domain.StageEncoding},
		{"Math.max(\u00a0)", domain.StageSuspicious},
		{"Math.max(\v)", domain.StageSuspicious},
		{"f(\u3000)", domain.StageSuspicious},
	}
	for _, tc := range cases {
		stage, _ := admitStage(t, g, tc.code)
		require.Equal(t, tc.stage, stage, "%q", tc.code)
	}
}

func TestGate_LengthCountsUTF16Units(t *testing.T) {
	g := strictSet(t).Gates["eval"]

	// Cada U+1F600 ocupa dois code units.
	stage, _ := admitStage(t, g, strings.Repeat("\U0001F600", 76))
	require.Equal(t, domain.StageLength, stage)

	require.NoError(t, g.Admit(strings.Repeat("\U0001F600", 75)))
}

func TestGate_CheckOrder(t *testing.T) {
	g := strictSet(t).Gates["eval"]

	stage, _ := admitStage(t, g, strings.Repeat("1", 200)+"eval")
	require.Equal(t, domain.StageKeyword, stage)

	stage, _ = admitStage(t, g, `"\x41"`+strings.Repeat("1", 200))
	require.Equal(t, domain.StageEncoding, stage)

	stage, _ = admitStage(t, g, strings.Repeat("()", 100))
	require.Equal(t, domain.StageLength, stage)
}

func TestGate_Wrap(t *testing.T) {
	g := strictSet(t).Gates["eval"]
	require.Equal(t, "(function() { return 1+1; })()", g.Wrap("1+1"))
	require.Equal(t, 150, g.MaxLength())
}

func TestNewGate_Validation(t *testing.T) {
	_, err := NewGate(GateSpec{MaxLength: 0})
	require.Error(t, err)

	_, err = NewGate(GateSpec{MaxLength: 10, Template: "return code"})
	require.Error(t, err)

	_, err = NewGate(GateSpec{MaxLength: 10, SuspiciousPatterns: []string{"("}})
	require.Error(t, err)

	g, err := NewGate(GateSpec{MaxLength: 10})
	require.NoError(t, err)
	require.NoError(t, g.Admit("anything"))
}
