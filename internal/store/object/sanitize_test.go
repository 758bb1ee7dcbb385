package object

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeComponent(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Seguridad2025", "Seguridad2025"},
		{"spaces folded", "Fire Drill March", "Fire_Drill_March"},
		{"traversal neutralized", "../../etc/passwd", "etc_passwd"},
		{"null bytes stripped", "abc\x00def", "abc_def"},
		{"separators folded", `a/b\c`, "a_b_c"},
		{"dots kept inside", "v1.2", "v1.2"},
		{"leading dots trimmed", "...hidden", "hidden"},
		{"empty becomes placeholder", "", "unnamed"},
		{"only junk becomes placeholder", "../..", "unnamed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, sanitizeComponent(tc.in))
		})
	}
}

func TestSanitizeComponentCapsLength(t *testing.T) {
	out := sanitizeComponent(strings.Repeat("a", 500))
	require.Len(t, out, maxNameComponent)
}

func TestSanitizeComponentOutputIsAlwaysSafe(t *testing.T) {
	hostile := []string{
		"..\\..\\windows\\system32",
		"a/../../b",
		"\x00\x00",
		"名前テスト",
	}
	for _, in := range hostile {
		out := sanitizeComponent(in)
		require.NotContains(t, out, "/")
		require.NotContains(t, out, "\\")
		require.NotContains(t, out, "..")
		require.NotEmpty(t, out)
	}
}
