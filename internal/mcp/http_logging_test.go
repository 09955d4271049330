package mcp

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/docs-search-mcp/library/log"
)

func TestWithHTTPLoggingPassesBodyAndStatusThrough(t *testing.T) {
	const reqBody = `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(data)

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`))
	})

	handler := withHTTPLogging(next, log.Logger)
	req := httptest.NewRequest(http.MethodPost, "/mcp?apikey=secret", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, reqBody, seen)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, `{"jsonrpc":"2.0","id":1,"result":{}}`, rec.Body.String())
}

func TestWithHTTPLoggingWithoutLogger(t *testing.T) {
	next := http.NotFoundHandler()
	require.NotNil(t, withHTTPLogging(next, nil))
	require.Nil(t, withHTTPLogging(nil, log.Logger))
}

func TestResponseRecorderCapsCapturedBody(t *testing.T) {
	rec := &responseRecorder{ResponseWriter: httptest.NewRecorder(), limit: 4}

	n, err := rec.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	_, err = rec.Write([]byte("defg"))
	require.NoError(t, err)

	require.Equal(t, "abcd", rec.body.String())
	require.True(t, rec.truncated)
	require.Equal(t, http.StatusOK, rec.statusCode())
}

func TestRPCMethod(t *testing.T) {
	require.Equal(t, "tools/call", rpcMethod(`{"jsonrpc":"2.0","id":2,"method":"tools/call"}`))
	require.Equal(t, "", rpcMethod(`[{"method":"tools/list"}]`))
	require.Equal(t, "", rpcMethod("not json"))
}
