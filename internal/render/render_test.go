package render

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/recurl/internal/httpclient"
)

func sampleResponse() *httpclient.Response {
	return &httpclient.Response{
		Status:     "200 OK",
		StatusCode: 200,
		Proto:      "HTTP/1.1",
		Headers: http.Header{
			"Content-Type": []string{"application/json"},
			"X-Request-Id": []string{"abc"},
		},
		Body:     []byte(`{"ok":true}`),
		Duration: 42 * time.Millisecond,
	}
}

func TestResponsePlainOutput(t *testing.T) {
	t.Parallel()

	out := Response(sampleResponse(), Options{SavedPath: "/tmp/out.json"})
	for _, want := range []string{
		"HTTP/1.1 200 OK (42ms)",
		"Content-Type: application/json",
		"X-Request-Id: abc",
		`{"ok":true}`,
		"body saved to /tmp/out.json",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestResponsePreviewLimit(t *testing.T) {
	t.Parallel()

	resp := sampleResponse()
	resp.Body = []byte("0123456789")
	out := Response(resp, Options{PreviewBytes: 4})
	if !strings.Contains(out, "0123\n") {
		t.Fatalf("expected truncated preview in:\n%s", out)
	}
	if strings.Contains(out, "0123456789") {
		t.Fatalf("full body leaked past preview limit:\n%s", out)
	}
}

func TestResponseBinaryBodyIsHexEncoded(t *testing.T) {
	t.Parallel()

	resp := sampleResponse()
	resp.Headers.Set("Content-Type", "application/octet-stream")
	resp.Body = []byte{0x00, 0x9f, 0x92, 0x96}
	out := Response(resp, Options{})
	if !strings.Contains(out, "009f9296") {
		t.Fatalf("expected hex preview in:\n%s", out)
	}
}

func TestLexerForContentType(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"application/json; charset=utf-8": "json",
		"text/html":                       "html",
		"application/octet-stream":        "",
	}
	for in, want := range cases {
		if got := lexerForContentType(in); got != want {
			t.Fatalf("lexer for %q: got %q want %q", in, got, want)
		}
	}
}
