package tools

import (
	"context"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/docs-search-mcp/library/log"
	"github.com/Laisky/docs-search-mcp/library/upstream"
)

func mustIntranetTool(t *testing.T, reader PageReader, token string) *ReadURLTool {
	t.Helper()
	tool, err := NewReadIntranetURLTool(reader, newAuth(token), "", Messages{}, log.Logger.Named("read_url_test"))
	require.NoError(t, err)
	return tool
}

func mustHandbookTool(t *testing.T, reader PageReader) *ReadURLTool {
	t.Helper()
	tool, err := NewReadHandbookURLTool(reader, "", Messages{}, log.Logger.Named("read_url_test"))
	require.NoError(t, err)
	return tool
}

func TestNewReadURLToolsRequireDependencies(t *testing.T) {
	_, err := NewReadIntranetURLTool(&fakeReader{}, nil, "", Messages{}, log.Logger)
	require.Error(t, err)
	_, err = NewReadHandbookURLTool(nil, "", Messages{}, log.Logger)
	require.Error(t, err)
	_, err = NewReadHandbookURLTool(&fakeReader{}, "", Messages{}, nil)
	require.Error(t, err)
}

func TestReadIntranetURLWithoutAuth(t *testing.T) {
	reader := &fakeReader{text: "page"}
	tool := mustIntranetTool(t, reader, "")

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"url": "https://intranet.giantswarm.io/docs/",
	}))
	require.NoError(t, err)
	require.Equal(t, "❌ This tool requires authentication.\n\n"+
		"The intranet requires authentication via the INTRANET_SESSION_COOKIE environment variable.",
		resultText(t, result))
	require.Empty(t, reader.calls)
}

func TestReadURLRejectsForeignDomains(t *testing.T) {
	reader := &fakeReader{text: "page"}

	result, err := mustIntranetTool(t, reader, "cookie").Handle(context.Background(), callRequest(map[string]any{
		"url": "https://handbook.giantswarm.io/docs/",
	}))
	require.NoError(t, err)
	require.Equal(t, "❌ URL must be from the Giant Swarm intranet (https://intranet.giantswarm.io/).",
		resultText(t, result))

	result, err = mustHandbookTool(t, reader).Handle(context.Background(), callRequest(map[string]any{
		"url": "http://handbook.giantswarm.io/docs/",
	}))
	require.NoError(t, err)
	require.Equal(t, "❌ URL must be from the Giant Swarm handbook (https://handbook.giantswarm.io/).",
		resultText(t, result))

	require.Empty(t, reader.calls)
}

func TestReadIntranetURLAttachesCredentials(t *testing.T) {
	reader := &fakeReader{text: "# Content from https://intranet.giantswarm.io/docs/\n\nhello"}
	tool := mustIntranetTool(t, reader, "cookie")

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"url": " https://intranet.giantswarm.io/docs/ ",
	}))
	require.NoError(t, err)
	require.Equal(t, reader.text, resultText(t, result))

	require.Len(t, reader.calls, 1)
	require.Equal(t, "https://intranet.giantswarm.io/docs/", reader.calls[0].url)
	require.False(t, reader.calls[0].creds.IsZero())
}

func TestReadHandbookURLNeverSendsCredentials(t *testing.T) {
	t.Setenv("INTRANET_SESSION_COOKIE", "cookie")
	reader := &fakeReader{text: "handbook page"}
	tool := mustHandbookTool(t, reader)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"url": "https://handbook.giantswarm.io/docs/support/",
	}))
	require.NoError(t, err)
	require.Equal(t, "handbook page", resultText(t, result))

	require.Len(t, reader.calls, 1)
	require.True(t, reader.calls[0].creds.IsZero())
}

func TestReadURLMapsUpstreamErrors(t *testing.T) {
	const pageURL = "https://intranet.giantswarm.io/missing/"
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not found",
			err:  &upstream.Error{Kind: upstream.KindNotFound, URL: pageURL, StatusCode: 404},
			want: "❌ Page not found: " + pageURL,
		},
		{
			name: "expired",
			err:  upstream.AuthFailure(true, pageURL, 200),
			want: "❌ Authentication failed or expired. " +
				"Please update your INTRANET_SESSION_COOKIE environment variable with a fresh cookie value.",
		},
		{
			name: "http",
			err:  &upstream.Error{Kind: upstream.KindHTTP, StatusCode: 500, Reason: "Internal Server Error"},
			want: "❌ HTTP 500: Internal Server Error. Please check the URL or try again.",
		},
		{
			name: "unexpected",
			err:  errors.New("boom"),
			want: "❌ Unexpected error: fetch: boom",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reader := &fakeReader{err: errors.Wrap(tc.err, "fetch")}
			result, err := mustIntranetTool(t, reader, "cookie").Handle(context.Background(), callRequest(map[string]any{
				"url": pageURL,
			}))
			require.NoError(t, err)
			require.Equal(t, tc.want, resultText(t, result))
		})
	}
}

func TestReadURLDefinitions(t *testing.T) {
	intranet := mustIntranetTool(t, &fakeReader{}, "")
	require.Equal(t, ReadIntranetURLToolName, intranet.Definition().Name)
	require.Contains(t, intranet.Definition().Description, "INTRANET_SESSION_COOKIE")

	handbook := mustHandbookTool(t, &fakeReader{})
	require.Equal(t, ReadHandbookURLToolName, handbook.Definition().Name)
	require.NotContains(t, handbook.Definition().Description, "INTRANET_SESSION_COOKIE")
}
