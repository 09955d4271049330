package upstream

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
)

// DefaultLoginMarker is a phrase only present on the identity provider's
// sign-in page, which the OAuth2 proxy serves instead of the requested content.
const DefaultLoginMarker = "Sign in to GitHub"

// Rule inspects a response and returns a terminal error, or nil to pass it on.
type Rule func(resp *Response) error

// Classify runs rules in order and returns the first terminal error.
func Classify(resp *Response, rules ...Rule) error {
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		if err := rule(resp); err != nil {
			return err
		}
	}
	return nil
}

// LooksLikeLoginRedirect reports whether the upstream answered with its
// sign-in page or a 401 instead of the requested resource.
func LooksLikeLoginRedirect(body []byte, status int, marker string) bool {
	if status == http.StatusUnauthorized {
		return true
	}
	if marker == "" {
		marker = DefaultLoginMarker
	}
	return bytes.Contains(body, []byte(marker))
}

// LooksLikeMarkup reports whether body starts with markup where structured
// data was expected, which for the search API means a login redirect.
func LooksLikeMarkup(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// RejectLoginRedirect fails with an authentication error when
// LooksLikeLoginRedirect matches.
func RejectLoginRedirect(marker string, credentialSupplied bool) Rule {
	return func(resp *Response) error {
		if LooksLikeLoginRedirect(resp.Body, resp.StatusCode, marker) {
			return AuthFailure(credentialSupplied, resp.URL, resp.StatusCode)
		}
		return nil
	}
}

// RejectMarkup fails with an authentication error when a structured
// response turns out to be markup.
func RejectMarkup(credentialSupplied bool) Rule {
	return func(resp *Response) error {
		if LooksLikeMarkup(resp.Body) {
			return AuthFailure(credentialSupplied, resp.URL, resp.StatusCode)
		}
		return nil
	}
}

// RejectNotFound fails with KindNotFound on 404.
func RejectNotFound() Rule {
	return func(resp *Response) error {
		if resp.StatusCode == http.StatusNotFound {
			return &Error{
				Kind:       KindNotFound,
				Message:    fmt.Sprintf("page not found: %s", resp.URL),
				URL:        resp.URL,
				StatusCode: resp.StatusCode,
				Reason:     resp.Reason(),
			}
		}
		return nil
	}
}

// RejectNonOK fails with KindHTTP on any status other than 200.
func RejectNonOK() Rule {
	return func(resp *Response) error {
		if resp.StatusCode != http.StatusOK {
			return &Error{
				Kind:       KindHTTP,
				Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Reason()),
				URL:        resp.URL,
				StatusCode: resp.StatusCode,
				Reason:     resp.Reason(),
			}
		}
		return nil
	}
}

// IsHTML reports whether the declared content type is an HTML flavour.
func IsHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "html")
}
