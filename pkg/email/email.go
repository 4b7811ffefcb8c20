// Package email contains address validation and display helpers shared by the
// registration boundary and the notifier.
package email

import (
	"regexp"
	"strings"
	"unicode"
)

var addressPattern = regexp.MustCompile(`^([\w-]+(?:\.[\w-]+)*)@((?:[\w-]+\.)*\w[\w-]{0,66})\.([a-z]{2,6}(?:\.[a-z]{2})?)$`)

// Valid reports whether s is an acceptable email address.
func Valid(s string) bool {
	return addressPattern.MatchString(s)
}

// DeriveNameFromEmail produces a best-effort (first, last) display name from
// the local part of an address. Used for greeting lines when no profile name
// is available.
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
