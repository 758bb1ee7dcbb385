package object

import "strings"

const maxNameComponent = 100

// sanitizeComponent turns an externally supplied name fragment (session
// topic, date, identity number) into a string safe to embed in a filename or
// object key: null bytes stripped, path separators and dot-dot runs
// replaced, everything outside a conservative allowlist folded to
// underscores, length capped.
func sanitizeComponent(raw string) string {
	s := strings.ReplaceAll(raw, "\x00", "")
	s = strings.ReplaceAll(s, "..", "_")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if len(out) > maxNameComponent {
		out = out[:maxNameComponent]
	}
	if out == "" {
		out = "unnamed"
	}
	return out
}
