package export

import (
	"strings"
	"testing"

	"github.com/unkn0wn-root/recurl/internal/errdef"
	"github.com/unkn0wn-root/recurl/internal/requestfile"
)

func baseDefinition() requestfile.Definition {
	return requestfile.Definition{
		Method: "get",
		URL:    "https://example.com",
		Headers: []requestfile.Header{
			{Name: "accept", Value: "application/json"},
		},
	}
}

func TestRenderJSFetchIncludesHeaders(t *testing.T) {
	t.Parallel()

	rendered, err := Render("js-fetch", baseDefinition())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		`await fetch("https://example.com"`,
		`method: "GET"`,
		`"accept": "application/json"`,
	} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("missing %q in:\n%s", want, rendered)
		}
	}
}

func TestRenderJSFetchBodyVariants(t *testing.T) {
	t.Parallel()

	withText := baseDefinition()
	withText.Body = requestfile.Body{Kind: requestfile.BodyText, Text: `{"ok":true}`}
	rendered, err := Render("js-fetch", withText)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(rendered, `body: "{\"ok\":true}"`) {
		t.Fatalf("text body not escaped:\n%s", rendered)
	}

	withFile := baseDefinition()
	withFile.Body = requestfile.Body{Kind: requestfile.BodyBytes, FilePath: "payload.json"}
	rendered, err = Render("js-fetch", withFile)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(rendered, "Original file: payload.json") {
		t.Fatalf("file body not referenced:\n%s", rendered)
	}
}

func TestRenderCurl(t *testing.T) {
	t.Parallel()

	def := baseDefinition()
	def.Method = "POST"
	def.Body = requestfile.Body{Kind: requestfile.BodyText, Text: `{"a":1}`}

	rendered, err := Render("curl", def)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"curl -X POST 'https://example.com'",
		"-H 'accept: application/json'",
		`--data '{"a":1}'`,
	} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("missing %q in:\n%s", want, rendered)
		}
	}
}

func TestRenderCurlQuotesSingleQuotes(t *testing.T) {
	t.Parallel()

	def := baseDefinition()
	def.URL = "https://example.com/it's"

	rendered, err := Render("curl", def)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(rendered, `'https://example.com/it'\''s'`) {
		t.Fatalf("single quote not escaped:\n%s", rendered)
	}
}

func TestRenderRejectsUnknownTemplate(t *testing.T) {
	t.Parallel()

	_, err := Render("unknown", baseDefinition())
	if err == nil {
		t.Fatalf("expected error for unknown template")
	}
	if errdef.CodeOf(err) != errdef.CodeUnknown {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(err.Error(), "unknown export template") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
