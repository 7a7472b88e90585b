package importer

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// renderContents writes the request definition text for a parsed and
// substituted command: comment banner, warnings, request line, headers,
// then the body after one blank line.
func renderContents(cmd *parsedCommand, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Imported by recurl on %s\n", now.UTC().Format(time.RFC3339))
	for _, warning := range cmd.Warnings {
		fmt.Fprintf(&b, "# WARNING: %s\n", warning)
	}
	fmt.Fprintf(&b, "%s %s\n", cmd.Method, cmd.URL)
	for _, h := range cmd.Headers {
		fmt.Fprintf(&b, "%s: %s\n", h.Name, h.Value)
	}
	switch {
	case cmd.Body != "":
		b.WriteString("\n")
		b.WriteString(cmd.Body)
		b.WriteString("\n")
	case cmd.BodyFile != "":
		fmt.Fprintf(&b, "\n@body %s\n", cmd.BodyFile)
	}
	return b.String()
}

// suggestFileName derives a filesystem-friendly name from the concrete
// method and URL, before substitution turns the URL symbolic.
func suggestFileName(method, rawURL string) string {
	stem := strings.ToLower(method)
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		stem += "-" + parsed.Host
		if parsed.Path != "" && parsed.Path != "/" {
			stem += "-" + parsed.Path
		}
	} else {
		stem += "-" + rawURL
	}
	return sanitizeFileName(stem) + ".curl"
}

func sanitizeFileName(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
