package schema

import (
	"fmt"
	"strings"
	"unicode"
)

// InvalidNameError reports a name that sanitized down to nothing.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q: empty after sanitization", e.Name)
}

// SanitizeName reduces a user-supplied name to a filesystem-safe form:
// only alphanumerics, spaces, and underscores survive, and surrounding
// whitespace is trimmed. Used for both wisdom categories and project names.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
