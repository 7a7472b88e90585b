package requestfile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/unkn0wn-root/recurl/internal/config"
	"github.com/unkn0wn-root/recurl/internal/envfile"
	"github.com/unkn0wn-root/recurl/internal/errdef"
	"github.com/unkn0wn-root/recurl/internal/placeholder"
)

var httpMethods = map[string]struct{}{
	"GET": {}, "POST": {}, "PUT": {}, "PATCH": {},
	"DELETE": {}, "OPTIONS": {}, "HEAD": {}, "TRACE": {},
}

type Options struct {
	// Restricted rejects @env and @body so untrusted previews cannot
	// touch the filesystem.
	Restricted bool
}

// ParseFile reads and parses the request file at path against env.
func ParseFile(path string, env *config.Environment) (*Parsed, error) {
	return ParseFileWith(path, env, Options{})
}

func ParseFileWith(path string, env *config.Environment, opts Options) (*Parsed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "reading request file %s", path)
	}
	return Parse(string(raw), path, env, opts)
}

// Parse walks the request text line by line: leading @env directives,
// the request line, the header block, then an optional body. The
// environment context stays untouched; directives mutate a per-call
// copy of the merged variables.
func Parse(contents, path string, env *config.Environment, opts Options) (*Parsed, error) {
	vars := make(map[string]string, len(env.InitialEnv))
	for k, v := range env.InitialEnv {
		vars[k] = v
	}
	envFiles := append([]string(nil), env.EnvFiles...)

	requestDir := filepath.Dir(path)
	if requestDir == "." && env.BaseDir != "" {
		requestDir = env.BaseDir
	}

	lines := strings.Split(strings.ReplaceAll(contents, "\r\n", "\n"), "\n")
	i := 0

	var method, url string
	haveRequestLine := false

	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}

		if strings.HasPrefix(trimmed, "@env") {
			if opts.Restricted {
				return nil, errdef.New(errdef.CodeRestrictedDirective, "@env is not allowed here")
			}
			i++
			pathRaw := strings.TrimSpace(trimmed[len("@env"):])
			if pathRaw == "" {
				return nil, errdef.New(errdef.CodeMissingDirectiveArgument, "@env directive requires a file path")
			}
			expandedPath, err := placeholder.Expand(pathRaw, vars)
			if err != nil {
				return nil, err
			}
			loaded, err := envfile.Load(resolveRelative(requestDir, expandedPath), vars)
			if err != nil {
				return nil, err
			}
			envFiles = append(envFiles, loaded)
			continue
		}

		expanded, err := placeholder.Expand(trimmed, vars)
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(expanded)
		if len(fields) > 0 {
			upper := strings.ToUpper(fields[0])
			if _, known := httpMethods[upper]; known && len(fields) > 1 {
				method = upper
				url = strings.Join(fields[1:], " ")
			} else {
				method = "GET"
				url = expanded
			}
			haveRequestLine = true
		}
		i++
		break
	}

	if !haveRequestLine || method == "" {
		return nil, errdef.New(errdef.CodeMissingRequestLine, "missing request line")
	}
	if url == "" {
		return nil, errdef.New(errdef.CodeMissingRequestURL, "missing request URL")
	}

	var headers []Header
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			i++
			break
		}
		if strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}
		if strings.HasPrefix(trimmed, "@") {
			break
		}
		i++
		expanded, err := placeholder.Expand(trimmed, vars)
		if err != nil {
			return nil, err
		}
		name, value, found := strings.Cut(expanded, ":")
		if !found {
			return nil, errdef.New(errdef.CodeInvalidHeaderLine, "invalid header line: %s", trimmed)
		}
		headers = append(headers, Header{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}

	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}

	body := Body{Kind: BodyNone}
	bodyLen := 0

	if i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "@body") {
			if opts.Restricted {
				return nil, errdef.New(errdef.CodeRestrictedDirective, "@body is not allowed here")
			}
			pathRaw := strings.TrimSpace(trimmed[len("@body"):])
			if pathRaw == "" {
				return nil, errdef.New(errdef.CodeMissingDirectiveArgument, "@body directive requires a file path")
			}
			expandedPath, err := placeholder.Expand(pathRaw, vars)
			if err != nil {
				return nil, err
			}
			resolved := resolveRelative(requestDir, expandedPath)
			bytes, err := os.ReadFile(resolved)
			if err != nil {
				return nil, errdef.Wrap(errdef.CodeFilesystem, err, "reading body file %s", resolved)
			}
			body = Body{Kind: BodyBytes, Bytes: bytes, FilePath: resolved}
			bodyLen = len(bytes)
		} else {
			rawBody := strings.TrimSpace(strings.Join(lines[i:], "\n"))
			if rawBody != "" {
				expandedBody, err := placeholder.Expand(rawBody, vars)
				if err != nil {
					return nil, err
				}
				body = Body{Kind: BodyText, Text: expandedBody}
				bodyLen = len(expandedBody)
			}
		}
	}

	return &Parsed{
		Request: Definition{
			Method:  method,
			URL:     url,
			Headers: headers,
			Body:    body,
			BodyLen: bodyLen,
		},
		EnvFiles: envFiles,
	}, nil
}

func resolveRelative(base, value string) string {
	if filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(base, value)
}
