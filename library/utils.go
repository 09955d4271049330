// Package library contains helper functions
package library

import "strings"

const bearerPrefix = "bearer "

// StripBearerPrefix removes any number of leading "Bearer " prefixes
// (case-insensitive) and surrounding whitespace from an authorization value.
func StripBearerPrefix(value string) string {
	value = strings.TrimSpace(value)
	for len(value) >= len(bearerPrefix) && strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
		value = strings.TrimSpace(value[len(bearerPrefix):])
	}

	return value
}

// TruncateForLog limits the payload logged for debugging and reports whether truncation occurred.
func TruncateForLog(body []byte, limit int) (string, bool) {
	if limit < 0 || len(body) <= limit {
		return string(body), false
	}
	return string(body[:limit]), true
}

// Preview returns at most limit bytes of s, used to quote upstream bodies in messages.
func Preview(s string, limit int) string {
	if limit < 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}
