// Package render formats executed responses for the terminal.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/quick"
	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/recurl/internal/httpclient"
	"github.com/unkn0wn-root/recurl/internal/respwriter"
)

var (
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ECE6A")).Bold(true)
	redirectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0AF68")).Bold(true)
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E")).Bold(true)
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB"))
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
)

type Options struct {
	// PreviewBytes caps how much of the body is shown; zero shows all.
	PreviewBytes int
	// Color enables styling and syntax highlighting.
	Color bool
	// SavedPath, when set, is echoed so the user can find the full body.
	SavedPath string
}

// Response renders the status line, headers, a body preview and the
// saved-body pointer as one printable block.
func Response(resp *httpclient.Response, opts Options) string {
	var b strings.Builder

	b.WriteString(statusLine(resp, opts.Color))
	b.WriteString("\n")

	for _, name := range sortedHeaderNames(resp) {
		for _, value := range resp.Headers.Values(name) {
			if opts.Color {
				b.WriteString(headerStyle.Render(name+":") + " " + value)
			} else {
				b.WriteString(name + ": " + value)
			}
			b.WriteString("\n")
		}
	}

	if len(resp.Body) > 0 {
		b.WriteString("\n")
		b.WriteString(body(resp, opts))
		if !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
	}

	if opts.SavedPath != "" {
		line := fmt.Sprintf("body saved to %s", opts.SavedPath)
		if opts.Color {
			line = metaStyle.Render(line)
		}
		b.WriteString("\n" + line + "\n")
	}

	return b.String()
}

func statusLine(resp *httpclient.Response, color bool) string {
	line := fmt.Sprintf("%s %s (%s)", resp.Proto, resp.Status, resp.Duration.Round(1e6))
	if !color {
		return line
	}
	switch {
	case resp.StatusCode >= 400:
		return failureStyle.Render(line)
	case resp.StatusCode >= 300:
		return redirectStyle.Render(line)
	default:
		return successStyle.Render(line)
	}
}

func body(resp *httpclient.Response, opts Options) string {
	preview := respwriter.CreatePreview(resp.Body, opts.PreviewBytes)

	if opts.Color {
		if lexer := lexerForContentType(resp.Headers.Get("Content-Type")); lexer != "" {
			var highlighted strings.Builder
			if err := quick.Highlight(&highlighted, preview, lexer, "terminal256", "monokai"); err == nil {
				return highlighted.String()
			}
		}
	}
	return preview
}

func lexerForContentType(contentType string) string {
	media := strings.TrimSpace(strings.Split(contentType, ";")[0])
	switch media {
	case "application/json":
		return "json"
	case "text/html":
		return "html"
	case "application/xml", "text/xml":
		return "xml"
	case "application/javascript", "text/javascript":
		return "javascript"
	case "application/yaml", "text/yaml":
		return "yaml"
	default:
		return ""
	}
}

func sortedHeaderNames(resp *httpclient.Response) []string {
	names := make([]string, 0, len(resp.Headers))
	for name := range resp.Headers {
		names = append(names, name)
	}
	// http.Header is a map; fix the order for stable output.
	sort.Strings(names)
	return names
}
