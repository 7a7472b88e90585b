package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/unkn0wn-root/recurl/internal/requestfile"
)

func TestExecuteSendsHeadersAndBody(t *testing.T) {
	t.Parallel()

	var gotMethod, gotAuth, gotBody string
	var gotTags []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotTags = r.Header.Values("X-Tag")
		payload, _ := io.ReadAll(r.Body)
		gotBody = string(payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	def := requestfile.Definition{
		Method: "POST",
		URL:    srv.URL + "/items",
		Headers: []requestfile.Header{
			{Name: "Authorization", Value: "Bearer tok"},
			{Name: "X-Tag", Value: "one"},
			{Name: "X-Tag", Value: "two"},
		},
		Body: requestfile.Body{Kind: requestfile.BodyText, Text: `{"a":1}`},
	}

	resp, err := NewClient().Execute(context.Background(), def, Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"id":1}` {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if gotMethod != "POST" || gotAuth != "Bearer tok" || gotBody != `{"a":1}` {
		t.Fatalf("request not sent as defined: %s %s %s", gotMethod, gotAuth, gotBody)
	}
	if len(gotTags) != 2 {
		t.Fatalf("duplicate headers lost: %v", gotTags)
	}
	if resp.Duration <= 0 {
		t.Fatalf("expected positive duration")
	}
}

func TestExecuteRedirectPolicy(t *testing.T) {
	t.Parallel()

	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("final"))
	}))
	defer target.Close()

	def := requestfile.Definition{Method: "GET", URL: target.URL + "/old"}

	resp, err := NewClient().Execute(context.Background(), def, Options{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect kept, got %d", resp.StatusCode)
	}

	resp, err = NewClient().Execute(context.Background(), def, Options{FollowRedirects: true})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(resp.Body) != "final" {
		t.Fatalf("expected redirect followed, got %d %q", resp.StatusCode, resp.Body)
	}
	if resp.EffectiveURL != target.URL+"/new" {
		t.Fatalf("unexpected effective url %q", resp.EffectiveURL)
	}
}

func TestExecuteContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient().Execute(ctx, requestfile.Definition{Method: "GET", URL: srv.URL}, Options{})
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
}
