// Package auth resolves whether outbound requests run in authenticated mode
// and supplies the credentials to attach to them.
package auth

import (
	"net/http"
	"os"
	"strings"
)

const (
	// DefaultEnvKey is the environment variable holding the intranet session token.
	DefaultEnvKey = "INTRANET_SESSION_COOKIE"
	// DefaultCookieName is the session cookie set by the intranet's OAuth2 proxy.
	DefaultCookieName = "_oauth2_proxy"
)

// CredentialSource returns the current session token, or an empty string
// when none is configured. It is evaluated on every call.
type CredentialSource func() string

// EnvCredentialSource reads the token from the environment variable key.
func EnvCredentialSource(key string) CredentialSource {
	if strings.TrimSpace(key) == "" {
		key = DefaultEnvKey
	}
	return func() string {
		return os.Getenv(key)
	}
}

// StaticCredentialSource always returns token.
func StaticCredentialSource(token string) CredentialSource {
	return func() string {
		return token
	}
}

// Credentials are attached to an outbound request. The zero value is anonymous.
type Credentials struct {
	Cookies []*http.Cookie
	Headers http.Header
}

// IsZero reports whether no credential material is present.
func (c Credentials) IsZero() bool {
	return len(c.Cookies) == 0 && len(c.Headers) == 0
}

// Apply attaches the cookies and headers to req.
func (c Credentials) Apply(req *http.Request) {
	if req == nil {
		return
	}
	for _, cookie := range c.Cookies {
		req.AddCookie(cookie)
	}
	for key, values := range c.Headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
}

// Option configures a Context.
type Option func(*Context)

// WithCookieName overrides the name of the session cookie.
func WithCookieName(name string) Option {
	return func(c *Context) {
		if name = strings.TrimSpace(name); name != "" {
			c.cookieName = name
		}
	}
}

// Context decides authenticated mode from the presence of a session token.
// There is no login flow, refresh, or validation; expiry is detected from
// upstream responses.
type Context struct {
	source     CredentialSource
	cookieName string
}

// New constructs a Context reading tokens from source.
// A nil source always reports anonymous mode.
func New(source CredentialSource, opts ...Option) *Context {
	if source == nil {
		source = StaticCredentialSource("")
	}

	c := &Context{
		source:     source,
		cookieName: DefaultCookieName,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

func (c *Context) token() string {
	if c == nil || c.source == nil {
		return ""
	}
	return strings.TrimSpace(c.source())
}

// IsAuthenticated reports whether a session token is currently configured.
func (c *Context) IsAuthenticated() bool {
	return c.token() != ""
}

// AuthHeaders returns the credentials for the current token,
// or the zero value in anonymous mode.
func (c *Context) AuthHeaders() Credentials {
	token := c.token()
	if token == "" {
		return Credentials{}
	}

	return Credentials{
		Cookies: []*http.Cookie{{Name: c.cookieName, Value: token}},
	}
}
