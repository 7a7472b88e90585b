package importer

import (
	"fmt"
	"strings"

	"github.com/unkn0wn-root/recurl/internal/errdef"
	"github.com/unkn0wn-root/recurl/internal/importer/curl"
	"github.com/unkn0wn-root/recurl/internal/requestfile"
)

// parseManual is the forgiving fallback: it shrugs at options it does
// not know and keeps going, collecting warnings instead of failing.
// Only a missing URL or a value flag at the end of input is fatal.
func parseManual(command string) (*parsedCommand, error) {
	tokens, err := curl.SplitWords(command)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 || tokens[0] != "curl" {
		return nil, errdef.New(errdef.CodeCurlParse, "command does not start with curl")
	}

	out := &parsedCommand{}
	explicitMethod := false
	var urlFlag string

	next := func(i *int, flag string) (string, error) {
		*i++
		if *i >= len(tokens) {
			return "", errdef.New(errdef.CodeCurlParse, "missing value for %s", flag)
		}
		return tokens[*i], nil
	}

	setData := func(val string) {
		if strings.HasPrefix(val, "@") {
			if out.BodyFile != "" {
				out.warn("ignoring extra body file reference %s", val)
				return
			}
			out.BodyFile = strings.TrimPrefix(val, "@")
			return
		}
		out.Body = val
	}

	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "-X" || tok == "--request":
			val, err := next(&i, tok)
			if err != nil {
				return nil, err
			}
			out.Method = strings.ToUpper(val)
			explicitMethod = true
		case strings.HasPrefix(tok, "-X") && len(tok) > 2:
			out.Method = strings.ToUpper(tok[2:])
			explicitMethod = true
		case strings.HasPrefix(tok, "--request="):
			out.Method = strings.ToUpper(tok[len("--request="):])
			explicitMethod = true
		case tok == "-H" || tok == "--header":
			val, err := next(&i, tok)
			if err != nil {
				return nil, err
			}
			out.addHeaderLoose(val)
		case strings.HasPrefix(tok, "-H") && len(tok) > 2:
			out.addHeaderLoose(tok[2:])
		case strings.HasPrefix(tok, "--header="):
			out.addHeaderLoose(tok[len("--header="):])
		case tok == "--url":
			val, err := next(&i, tok)
			if err != nil {
				return nil, err
			}
			urlFlag = val
		case strings.HasPrefix(tok, "--url="):
			urlFlag = tok[len("--url="):]
		case tok == "--json":
			val, err := next(&i, tok)
			if err != nil {
				return nil, err
			}
			out.Body = val
			out.ensureContentTypeJSON()
		case strings.HasPrefix(tok, "--json="):
			out.Body = tok[len("--json="):]
			out.ensureContentTypeJSON()
		case tok == "-u" || tok == "--user":
			val, err := next(&i, tok)
			if err != nil {
				return nil, err
			}
			out.Headers = append(out.Headers, requestfile.Header{Name: "Authorization", Value: "Basic " + val})
		case strings.HasPrefix(tok, "-u") && len(tok) > 2:
			out.Headers = append(out.Headers, requestfile.Header{Name: "Authorization", Value: "Basic " + tok[2:]})
		case strings.HasPrefix(tok, "--user="):
			out.Headers = append(out.Headers, requestfile.Header{Name: "Authorization", Value: "Basic " + tok[len("--user="):]})
		case tok == "-d" || tok == "--data" || tok == "--data-raw" || tok == "--data-binary" ||
			tok == "--data-urlencode" || tok == "--data-ascii":
			val, err := next(&i, tok)
			if err != nil {
				return nil, err
			}
			setData(val)
		case strings.HasPrefix(tok, "-d") && len(tok) > 2:
			setData(tok[2:])
		case hasManualDataPrefix(tok):
			_, val, _ := strings.Cut(tok, "=")
			setData(val)
		case strings.HasPrefix(tok, "-"):
			out.warn("ignored option %s", tok)
		default:
			if out.URL == "" {
				out.URL = tok
				continue
			}
			out.warn("ignoring positional argument %q", tok)
		}
	}

	if out.URL == "" {
		out.URL = urlFlag
	}
	if out.URL == "" {
		return nil, errdef.New(errdef.CodeCurlParse, "curl command missing URL")
	}
	if !explicitMethod {
		if out.Body != "" || out.BodyFile != "" {
			out.Method = "POST"
		} else {
			out.Method = "GET"
		}
	}
	return out, nil
}

// addHeaderLoose keeps going on a header it cannot split, unlike the
// structured pass.
func (p *parsedCommand) addHeaderLoose(raw string) {
	name, value, found := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		p.warn("could not parse header %q", raw)
		return
	}
	p.Headers = append(p.Headers, requestfile.Header{Name: name, Value: strings.TrimSpace(value)})
}

func (p *parsedCommand) ensureContentTypeJSON() {
	if !hasHeaderNamed(p.Headers, "content-type") {
		p.Headers = append(p.Headers, requestfile.Header{Name: "Content-Type", Value: "application/json"})
	}
}

func (p *parsedCommand) warn(format string, args ...any) {
	p.Warnings = append(p.Warnings, fmt.Sprintf(format, args...))
}

func hasManualDataPrefix(tok string) bool {
	for _, prefix := range []string{
		"--data=", "--data-raw=", "--data-binary=", "--data-urlencode=", "--data-ascii=",
	} {
		if strings.HasPrefix(tok, prefix) {
			return true
		}
	}
	return false
}
