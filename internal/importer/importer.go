// Package importer turns curl shell commands into request definition
// files, replacing known variable values with placeholders on the way.
package importer

import (
	"strings"
	"time"

	"github.com/unkn0wn-root/recurl/internal/errdef"
	"github.com/unkn0wn-root/recurl/internal/importer/curl"
	"github.com/unkn0wn-root/recurl/internal/requestfile"
)

type Options struct {
	// Command is the raw curl invocation, possibly spanning multiple
	// lines with trailing backslash continuations.
	Command string
	// TemplateVariables and EnvVariables feed reverse substitution.
	// Template values win on name collisions.
	TemplateVariables map[string]string
	EnvVariables      map[string]string
	Rules             HeaderRules
	// Now overrides the banner timestamp, for tests. Zero means wall
	// clock.
	Now time.Time
}

type Result struct {
	Contents          string
	SuggestedFilename string
	Method            string
	URL               string
	Warnings          []string
}

// parsedCommand is the common shape both parse strategies produce.
type parsedCommand struct {
	Method   string
	URL      string
	Headers  []requestfile.Header
	Body     string
	BodyFile string
	Warnings []string
}

// Import parses the command with the structured pass first and the
// manual fallback second. When both fail the error carries both causes,
// since either could be the real fault.
func Import(opts Options) (*Result, error) {
	command := normalizeContinuations(opts.Command)
	if strings.TrimSpace(command) == "" {
		return nil, errdef.New(errdef.CodeCurlParse, "empty curl command")
	}

	cmd, errStructured := parseStructured(command)
	if errStructured != nil {
		var errManual error
		cmd, errManual = parseManual(command)
		if errManual != nil {
			return nil, errdef.New(errdef.CodeCurlParse,
				"could not parse curl command: %v (fallback: %v)", errStructured, errManual)
		}
	}

	method, concreteURL := cmd.Method, cmd.URL
	cmd.Headers = opts.Rules.Apply(cmd.Headers)

	candidates := buildCandidates(opts.TemplateVariables, opts.EnvVariables)
	cmd.URL = substitute(cmd.URL, candidates)
	for i := range cmd.Headers {
		cmd.Headers[i].Value = substitute(cmd.Headers[i].Value, candidates)
	}
	cmd.Body = substitute(cmd.Body, candidates)

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	return &Result{
		Contents:          renderContents(cmd, now),
		SuggestedFilename: suggestFileName(method, concreteURL),
		Method:            method,
		URL:               concreteURL,
		Warnings:          cmd.Warnings,
	}, nil
}

func parseStructured(command string) (*parsedCommand, error) {
	structured, err := curl.ParseCommand(command)
	if err != nil {
		return nil, err
	}
	out := &parsedCommand{
		Method:  structured.Method,
		URL:     structured.URL,
		Headers: structured.Headers,
		Body:    structured.BodyText(),
	}
	if structured.Insecure {
		out.warn("command disables TLS verification (-k)")
	}
	return out, nil
}

// normalizeContinuations joins backslash-continued lines with a single
// space before tokenization.
func normalizeContinuations(command string) string {
	lines := strings.Split(strings.ReplaceAll(command, "\r\n", "\n"), "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		trimmed = strings.TrimSuffix(trimmed, "\\")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	return strings.Join(parts, " ")
}
