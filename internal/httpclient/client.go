// Package httpclient executes parsed request definitions.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unkn0wn-root/recurl/internal/errdef"
	"github.com/unkn0wn-root/recurl/internal/requestfile"
	"github.com/unkn0wn-root/recurl/internal/telemetry"
)

type Options struct {
	Timeout            time.Duration
	FollowRedirects    bool
	InsecureSkipVerify bool
	ProxyURL           string
	// RequestName and Profile annotate the telemetry span.
	RequestName string
	Profile     string
}

type Client struct {
	httpFactory func(Options) (*http.Client, error)
	telemetry   telemetry.Instrumenter
}

func NewClient() *Client {
	c := &Client{telemetry: telemetry.Noop()}
	c.httpFactory = buildHTTPClient
	return c
}

// SetHTTPFactory overrides how http.Client instances are created.
// Passing nil restores the default factory.
func (c *Client) SetHTTPFactory(factory func(Options) (*http.Client, error)) {
	if factory == nil {
		factory = buildHTTPClient
	}
	c.httpFactory = factory
}

// SetTelemetry configures the span instrumenter. Passing nil restores
// the no-op implementation.
func (c *Client) SetTelemetry(instr telemetry.Instrumenter) {
	if instr == nil {
		instr = telemetry.Noop()
	}
	c.telemetry = instr
}

type Response struct {
	Status       string
	StatusCode   int
	Proto        string
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	EffectiveURL string
}

// Execute sends the definition and drains the response body. The span
// always ends, success or not.
func (c *Client) Execute(
	ctx context.Context,
	def requestfile.Definition,
	opts Options,
) (resp *Response, err error) {
	httpReq, err := buildHTTPRequest(ctx, def)
	if err != nil {
		return nil, err
	}

	client, err := c.httpFactory(opts)
	if err != nil {
		return nil, err
	}

	spanCtx, span := c.telemetry.Start(httpReq.Context(), telemetry.RequestStart{
		RequestName: opts.RequestName,
		Profile:     opts.Profile,
		HTTPRequest: httpReq,
	})
	httpReq = httpReq.WithContext(spanCtx)

	defer func() {
		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
		}
		span.End(telemetry.RequestResult{Err: err, StatusCode: statusCode})
	}()

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "executing %s %s", def.Method, def.URL)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "reading response body")
	}

	effective := def.URL
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		effective = httpResp.Request.URL.String()
	}

	return &Response{
		Status:       httpResp.Status,
		StatusCode:   httpResp.StatusCode,
		Proto:        httpResp.Proto,
		Headers:      httpResp.Header,
		Body:         body,
		Duration:     time.Since(start),
		EffectiveURL: effective,
	}, nil
}

func buildHTTPRequest(ctx context.Context, def requestfile.Definition) (*http.Request, error) {
	var body io.Reader
	switch def.Body.Kind {
	case requestfile.BodyText:
		body = strings.NewReader(def.Body.Text)
	case requestfile.BodyBytes:
		body = bytes.NewReader(def.Body.Bytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, def.Method, def.URL, body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "building request for %s", def.URL)
	}
	for _, h := range def.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}
	return httpReq, nil
}

func buildHTTPClient(opts Options) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if strings.TrimSpace(opts.ProxyURL) != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeHTTP, err, "parsing proxy url %s", opts.ProxyURL)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client, nil
}
