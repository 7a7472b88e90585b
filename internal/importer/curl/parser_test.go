package curl

import (
	"encoding/base64"
	"testing"

	"github.com/unkn0wn-root/recurl/internal/errdef"
	"github.com/unkn0wn-root/recurl/internal/requestfile"
)

func TestParseCommandBasicPost(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`curl -X POST https://api.example.com/items -H 'Authorization: Bearer TOK' -d '{"a":1}'`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Method != "POST" || cmd.URL != "https://api.example.com/items" {
		t.Fatalf("unexpected request line: %s %s", cmd.Method, cmd.URL)
	}
	if len(cmd.Headers) != 1 || cmd.Headers[0] != (requestfile.Header{Name: "authorization", Value: "Bearer TOK"}) {
		t.Fatalf("unexpected headers %v", cmd.Headers)
	}
	if cmd.BodyText() != `{"a":1}` {
		t.Fatalf("unexpected body %q", cmd.BodyText())
	}
}

func TestParseCommandDataPromotesToPost(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`curl https://example.com/submit -d name=alice`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Method != "POST" {
		t.Fatalf("expected POST promotion, got %q", cmd.Method)
	}
}

func TestParseCommandGluedAndJoinedForms(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`curl -XPUT --header=X-Tag:one -dpayload --url=https://example.com/put`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Method != "PUT" || cmd.URL != "https://example.com/put" {
		t.Fatalf("unexpected request line: %s %s", cmd.Method, cmd.URL)
	}
	if len(cmd.Headers) != 1 || cmd.Headers[0].Name != "x-tag" || cmd.Headers[0].Value != "one" {
		t.Fatalf("unexpected headers %v", cmd.Headers)
	}
	if cmd.BodyText() != "payload" {
		t.Fatalf("unexpected body %q", cmd.BodyText())
	}
}

func TestParseCommandInsecureFlag(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`curl -k https://self-signed.example.com`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmd.Insecure {
		t.Fatalf("expected insecure flag to be set")
	}
}

func TestParseCommandBasicAuthIsEncoded(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`curl -u alice:s3cret https://example.com`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:s3cret"))
	if len(cmd.Headers) != 1 || cmd.Headers[0].Name != "authorization" || cmd.Headers[0].Value != want {
		t.Fatalf("unexpected headers %v", cmd.Headers)
	}
}

func TestParseCommandJSONFlagSetsContentType(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`curl --json '{"x":2}' https://example.com/items`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Method != "POST" {
		t.Fatalf("expected POST, got %q", cmd.Method)
	}
	if len(cmd.Headers) != 1 || cmd.Headers[0].Name != "content-type" || cmd.Headers[0].Value != "application/json" {
		t.Fatalf("unexpected headers %v", cmd.Headers)
	}
}

func TestParseCommandMultipleDataJoinedWithNewline(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`curl https://example.com -d one -d two`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.BodyText() != "one\ntwo" {
		t.Fatalf("unexpected body %q", cmd.BodyText())
	}
}

func TestParseCommandStrictFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown option":       `curl -s https://example.com`,
		"file data reference":  `curl https://example.com -d @payload.json`,
		"extra positional":     `curl https://example.com extra`,
		"missing url":          `curl -X GET`,
		"flag without value":   `curl https://example.com -H`,
		"not a curl command":   `wget https://example.com`,
		"unterminated quoting": `curl 'https://example.com`,
	}
	for name, command := range cases {
		_, err := ParseCommand(command)
		if errdef.CodeOf(err) != errdef.CodeCurlParse {
			t.Fatalf("%s: expected parse failure, got %v", name, err)
		}
	}
}

func TestParseCommandSkipsPromptAndWrappers(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`$ sudo curl https://example.com/ping`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.URL != "https://example.com/ping" {
		t.Fatalf("unexpected url %q", cmd.URL)
	}
}

func TestSplitWordsQuoting(t *testing.T) {
	t.Parallel()

	got, err := SplitWords(`curl -H "a: b c" -d '{"k":"v"}' ''`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"curl", "-H", "a: b c", "-d", `{"k":"v"}`, ""}
	if len(got) != len(want) {
		t.Fatalf("unexpected tokens %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %q want %q", i, got[i], want[i])
		}
	}
}
