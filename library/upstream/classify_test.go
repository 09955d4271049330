package upstream

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLooksLikeLoginRedirect(t *testing.T) {
	require.True(t, LooksLikeLoginRedirect([]byte("<html><title>Sign in to GitHub</title></html>"), http.StatusOK, ""))
	require.True(t, LooksLikeLoginRedirect([]byte(`{"hits":{}}`), http.StatusUnauthorized, ""))
	require.True(t, LooksLikeLoginRedirect([]byte("please log in here"), http.StatusOK, "log in here"))
	require.False(t, LooksLikeLoginRedirect([]byte("<html>docs</html>"), http.StatusOK, ""))
}

func TestLooksLikeMarkup(t *testing.T) {
	require.True(t, LooksLikeMarkup([]byte("  \n<!DOCTYPE html>")))
	require.False(t, LooksLikeMarkup([]byte(`{"a":1}`)))
	require.False(t, LooksLikeMarkup(nil))
}

func TestClassifyStopsAtFirstTerminalRule(t *testing.T) {
	resp := &Response{URL: "https://x/", StatusCode: http.StatusUnauthorized, Body: []byte("nope")}
	secondCalled := false

	err := Classify(resp,
		RejectLoginRedirect("", true),
		func(*Response) error {
			secondCalled = true
			return nil
		},
	)

	require.Error(t, err)
	require.False(t, secondCalled)
	require.True(t, IsKind(err, KindAuthExpired))
}

func TestAuthFailureWording(t *testing.T) {
	require.Equal(t, KindAuthExpired, AuthFailure(true, "", 0).Kind)
	require.Equal(t, KindAuthRequired, AuthFailure(false, "", 0).Kind)
}

func TestRejectMarkup(t *testing.T) {
	err := Classify(&Response{StatusCode: http.StatusOK, Body: []byte("<html></html>")}, RejectMarkup(false))
	require.True(t, IsKind(err, KindAuthRequired))

	require.NoError(t, Classify(&Response{StatusCode: http.StatusOK, Body: []byte("{}")}, RejectMarkup(false)))
}

func TestRejectStatuses(t *testing.T) {
	notFound := &Response{URL: "https://handbook.example/missing", StatusCode: http.StatusNotFound}
	err := Classify(notFound, RejectNotFound(), RejectNonOK())
	require.True(t, IsKind(err, KindNotFound))

	failed := &Response{StatusCode: http.StatusBadGateway}
	err = Classify(failed, RejectNotFound(), RejectNonOK())
	typed, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, KindHTTP, typed.Kind)
	require.Equal(t, http.StatusBadGateway, typed.StatusCode)
	require.Equal(t, "Bad Gateway", typed.Reason)

	require.NoError(t, Classify(&Response{StatusCode: http.StatusOK}, RejectNotFound(), RejectNonOK()))
}

func TestIsHTML(t *testing.T) {
	require.True(t, IsHTML("text/html; charset=utf-8"))
	require.True(t, IsHTML("application/XHTML+xml"))
	require.False(t, IsHTML("text/plain"))
}
