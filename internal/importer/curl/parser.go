// Package curl parses curl invocations into request parts. The parser
// is strict: options it does not understand fail the whole parse so the
// caller can fall back to a more forgiving pass.
package curl

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/unkn0wn-root/recurl/internal/errdef"
	"github.com/unkn0wn-root/recurl/internal/requestfile"
)

// Command is the structured result of a parse. Header names are
// normalized to lower case; order follows the command line.
type Command struct {
	Method    string
	URL       string
	Headers   []requestfile.Header
	BodyLines []string
	Insecure  bool
}

func (c *Command) BodyText() string {
	if len(c.BodyLines) == 0 {
		return ""
	}
	return strings.Join(c.BodyLines, "\n")
}

// ParseCommand tokenizes and parses a curl command string.
func ParseCommand(command string) (*Command, error) {
	tokens, err := SplitWords(command)
	if err != nil {
		return nil, err
	}
	return parseTokens(tokens)
}

// SplitWords is a shell-style tokenizer with single quotes (literal),
// double quotes (escape-aware) and backslash escaping. Single quotes
// disable escaping so \'doesn\'t terminate the quote.
func SplitWords(input string) ([]string, error) {
	var args []string
	var current strings.Builder
	inSingle := false
	inDouble := false
	escaped := false
	quoted := false

	flush := func() {
		if current.Len() == 0 && !quoted {
			return
		}
		args = append(args, current.String())
		current.Reset()
		quoted = false
	}

	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			if inSingle {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case r == '\'':
			if !inDouble {
				inSingle = !inSingle
				quoted = true
			} else {
				current.WriteRune(r)
			}
		case r == '"':
			if !inSingle {
				inDouble = !inDouble
				quoted = true
			} else {
				current.WriteRune(r)
			}
		case isWhitespace(r):
			if inSingle || inDouble {
				current.WriteRune(r)
			} else {
				flush()
			}
		default:
			current.WriteRune(r)
		}
	}

	if escaped {
		return nil, errdef.New(errdef.CodeCurlParse, "unterminated escape sequence")
	}
	if inSingle || inDouble {
		return nil, errdef.New(errdef.CodeCurlParse, "unterminated quoted string")
	}

	flush()
	return args, nil
}

func parseTokens(tokens []string) (*Command, error) {
	idx, err := findCurlIndex(tokens)
	if err != nil {
		return nil, err
	}

	cmd := &Command{Method: "GET"}
	var target string
	var basic string
	explicitMethod := false
	positionalOnly := false
	sawPositional := false

	for i := idx + 1; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "" {
			continue
		}

		if !positionalOnly {
			switch {
			case tok == "--":
				positionalOnly = true
				continue
			case tok == "-X" || tok == "--request":
				val, err := consumeNext(tokens, &i, tok)
				if err != nil {
					return nil, err
				}
				cmd.Method = strings.ToUpper(val)
				explicitMethod = true
				continue
			case strings.HasPrefix(tok, "-X") && len(tok) > 2:
				cmd.Method = strings.ToUpper(tok[2:])
				explicitMethod = true
				continue
			case strings.HasPrefix(tok, "--request="):
				cmd.Method = strings.ToUpper(tok[len("--request="):])
				explicitMethod = true
				continue
			case tok == "-H" || tok == "--header":
				val, err := consumeNext(tokens, &i, tok)
				if err != nil {
					return nil, err
				}
				if err := cmd.addHeader(val); err != nil {
					return nil, err
				}
				continue
			case strings.HasPrefix(tok, "-H") && len(tok) > 2:
				if err := cmd.addHeader(tok[2:]); err != nil {
					return nil, err
				}
				continue
			case strings.HasPrefix(tok, "--header="):
				if err := cmd.addHeader(tok[len("--header="):]); err != nil {
					return nil, err
				}
				continue
			case tok == "-u" || tok == "--user":
				val, err := consumeNext(tokens, &i, tok)
				if err != nil {
					return nil, err
				}
				basic = val
				continue
			case strings.HasPrefix(tok, "-u") && len(tok) > 2:
				basic = tok[2:]
				continue
			case strings.HasPrefix(tok, "--user="):
				basic = tok[len("--user="):]
				continue
			case tok == "-I" || tok == "--head":
				cmd.Method = "HEAD"
				explicitMethod = true
				continue
			case tok == "-k" || tok == "--insecure":
				cmd.Insecure = true
				continue
			case tok == "--compressed":
				// transfer encoding is the client's concern, nothing to keep
				continue
			case tok == "--url":
				val, err := consumeNext(tokens, &i, tok)
				if err != nil {
					return nil, err
				}
				target = val
				continue
			case strings.HasPrefix(tok, "--url="):
				target = tok[len("--url="):]
				continue
			case tok == "--json":
				val, err := consumeNext(tokens, &i, tok)
				if err != nil {
					return nil, err
				}
				cmd.addBodyLine(val)
				cmd.ensureJSONHeader()
				continue
			case strings.HasPrefix(tok, "--json="):
				cmd.addBodyLine(tok[len("--json="):])
				cmd.ensureJSONHeader()
				continue
			case tok == "-d" || tok == "--data" || tok == "--data-raw" ||
				tok == "--data-binary" || tok == "--data-ascii":
				val, err := consumeNext(tokens, &i, tok)
				if err != nil {
					return nil, err
				}
				if err := cmd.addData(val); err != nil {
					return nil, err
				}
				continue
			case strings.HasPrefix(tok, "-d") && len(tok) > 2:
				if err := cmd.addData(tok[2:]); err != nil {
					return nil, err
				}
				continue
			case hasDataPrefix(tok):
				_, val, _ := strings.Cut(tok, "=")
				if err := cmd.addData(val); err != nil {
					return nil, err
				}
				continue
			case tok == "--data-urlencode":
				val, err := consumeNext(tokens, &i, tok)
				if err != nil {
					return nil, err
				}
				cmd.addURLEncoded(val)
				continue
			case strings.HasPrefix(tok, "--data-urlencode="):
				cmd.addURLEncoded(tok[len("--data-urlencode="):])
				continue
			case strings.HasPrefix(tok, "-"):
				return nil, errdef.New(errdef.CodeCurlParse, "unsupported option %s", tok)
			}
		}

		if target == "" && !sawPositional {
			target = tok
			sawPositional = true
			continue
		}
		return nil, errdef.New(errdef.CodeCurlParse, "unexpected argument %q", tok)
	}

	if target == "" {
		return nil, errdef.New(errdef.CodeCurlParse, "curl command missing URL")
	}

	if len(cmd.BodyLines) > 0 && !explicitMethod && strings.EqualFold(cmd.Method, "GET") {
		cmd.Method = "POST"
	}

	cmd.URL = sanitizeURL(target)

	if basic != "" && !cmd.hasHeader("authorization") {
		cmd.Headers = append(cmd.Headers, requestfile.Header{
			Name:  "authorization",
			Value: buildBasicAuthHeader(basic),
		})
	}

	return cmd, nil
}

func (c *Command) addHeader(raw string) error {
	name, value, found := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return errdef.New(errdef.CodeCurlParse, "malformed header %q", raw)
	}
	c.Headers = append(c.Headers, requestfile.Header{
		Name:  strings.ToLower(name),
		Value: strings.TrimSpace(value),
	})
	return nil
}

func (c *Command) addBodyLine(val string) {
	c.BodyLines = append(c.BodyLines, val)
}

// addData rejects @file references so the forgiving fallback parser can
// apply its capture-once rule to them.
func (c *Command) addData(val string) error {
	if strings.HasPrefix(strings.TrimSpace(val), "@") {
		return errdef.New(errdef.CodeCurlParse, "file data references are not supported")
	}
	c.addBodyLine(val)
	return nil
}

func (c *Command) addURLEncoded(raw string) {
	var pairs []string
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		if name, value, found := strings.Cut(part, "="); found {
			pairs = append(pairs, strings.TrimSpace(name)+"="+url.QueryEscape(value))
			continue
		}
		pairs = append(pairs, url.QueryEscape(part))
	}
	c.addBodyLine(strings.Join(pairs, "&"))
	if !c.hasHeader("content-type") {
		c.Headers = append(c.Headers, requestfile.Header{
			Name:  "content-type",
			Value: "application/x-www-form-urlencoded",
		})
	}
}

func (c *Command) ensureJSONHeader() {
	if !c.hasHeader("content-type") {
		c.Headers = append(c.Headers, requestfile.Header{
			Name:  "content-type",
			Value: "application/json",
		})
	}
}

func (c *Command) hasHeader(lowerName string) bool {
	for _, h := range c.Headers {
		if strings.ToLower(h.Name) == lowerName {
			return true
		}
	}
	return false
}

func hasDataPrefix(tok string) bool {
	for _, prefix := range []string{"--data=", "--data-raw=", "--data-binary=", "--data-ascii="} {
		if strings.HasPrefix(tok, prefix) {
			return true
		}
	}
	return false
}

func consumeNext(tokens []string, idx *int, flag string) (string, error) {
	*idx++
	if *idx >= len(tokens) {
		return "", errdef.New(errdef.CodeCurlParse, "missing argument for %s", flag)
	}
	return tokens[*idx], nil
}

// findCurlIndex skips shell prompt characters and common wrappers so a
// command pasted straight from a terminal still parses.
func findCurlIndex(tokens []string) (int, error) {
	for i, tok := range tokens {
		trimmed := strings.TrimSpace(stripPromptPrefix(tok))
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if lower == "curl" {
			return i, nil
		}
		switch lower {
		case "sudo", "env", "command", "time", "noglob":
			continue
		}
		return -1, errdef.New(errdef.CodeCurlParse, "not a curl command")
	}
	return -1, errdef.New(errdef.CodeCurlParse, "not a curl command")
}

func stripPromptPrefix(token string) string {
	trimmed := strings.TrimSpace(token)
	for _, prefix := range []string{"$", "%", ">", "!"} {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return trimmed
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func sanitizeURL(raw string) string {
	return strings.Trim(raw, "\"'")
}

func buildBasicAuthHeader(creds string) string {
	return fmt.Sprintf("Basic %s", base64.StdEncoding.EncodeToString([]byte(creds)))
}
