// Package envfile reads KEY=VALUE environment files. Lines are applied
// in order, so a key assigned twice in one file keeps the later value,
// and files loaded after one another override cumulatively.
package envfile

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/unkn0wn-root/recurl/internal/errdef"
)

type quoteMode int

const (
	quoteModeNone quoteMode = iota
	quoteModeSingle
	quoteModeDouble
)

// Load reads the file at path and merges its assignments into env,
// later lines overriding earlier ones. It returns the path so callers
// can record which files contributed to the merged environment.
func Load(path string, env map[string]string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeFilesystem, err, "reading env file %s", path)
	}
	defer f.Close()

	if err := parse(f, env); err != nil {
		return "", errdef.Wrap(errdef.CodeFilesystem, err, "parsing env file %s", path)
	}
	return path, nil
}

func parse(r io.Reader, values map[string]string) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}

		key, rawValue, err := parseAssignment(trimmed, lineNumber)
		if err != nil {
			return err
		}

		value, mode, err := parseValue(rawValue, lineNumber)
		if err != nil {
			return err
		}

		if mode != quoteModeSingle {
			// single quotes purposely stay literal so '${TOKEN}' never expands
			expanded, err := expandValue(value, values, lineNumber)
			if err != nil {
				return err
			}
			value = expanded
		}
		values[key] = value
	}
	return scanner.Err()
}

func parseAssignment(line string, lineNumber int) (string, string, error) {
	trimmed := strings.TrimSpace(line)

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "export ") || strings.HasPrefix(lower, "export\t") {
		trimmed = strings.TrimSpace(trimmed[len("export"):])
	}

	idx := strings.IndexRune(trimmed, '=')
	if idx < 0 {
		return "", "", errdef.New(errdef.CodeFilesystem, "env line %d: expected KEY=value", lineNumber)
	}

	key := strings.TrimSpace(trimmed[:idx])
	if key == "" {
		return "", "", errdef.New(errdef.CodeFilesystem, "env line %d: missing key", lineNumber)
	}

	return key, trimmed[idx+1:], nil
}

func parseValue(raw string, lineNumber int) (string, quoteMode, error) {
	leadingTrimmed := strings.TrimLeft(raw, " \t")
	if leadingTrimmed == "" {
		return "", quoteModeNone, nil
	}

	switch leadingTrimmed[0] {
	case '"':
		value, err := parseQuotedValue(leadingTrimmed, quoteModeDouble, lineNumber)
		return value, quoteModeDouble, err
	case '\'':
		value, err := parseQuotedValue(leadingTrimmed, quoteModeSingle, lineNumber)
		return value, quoteModeSingle, err
	default:
		return stripInlineComment(leadingTrimmed), quoteModeNone, nil
	}
}

func parseQuotedValue(input string, mode quoteMode, lineNumber int) (string, error) {
	quote := byte('"')
	if mode == quoteModeSingle {
		quote = '\''
	}

	var b strings.Builder
	for i := 1; i < len(input); i++ {
		ch := input[i]
		if ch == '\\' {
			if i+1 >= len(input) {
				return "", errdef.New(errdef.CodeFilesystem, "env line %d: unfinished escape", lineNumber)
			}
			i++
			next := input[i]
			if mode == quoteModeDouble {
				b.WriteByte(resolveDoubleQuoteEscape(next))
			} else {
				b.WriteByte(next)
			}
			continue
		}
		if ch == quote {
			remainder := strings.TrimSpace(input[i+1:])
			if remainder != "" && remainder[0] != '#' && remainder[0] != ';' {
				return "", errdef.New(
					errdef.CodeFilesystem,
					"env line %d: unexpected content after quoted value",
					lineNumber,
				)
			}
			return b.String(), nil
		}
		b.WriteByte(ch)
	}
	return "", errdef.New(errdef.CodeFilesystem, "env line %d: unterminated quoted value", lineNumber)
}

func stripInlineComment(value string) string {
	inWhitespace := false
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case ' ', '\t':
			inWhitespace = true
		case '#', ';':
			if i == 0 || inWhitespace {
				return strings.TrimSpace(value[:i])
			}
			inWhitespace = false
		default:
			inWhitespace = false
		}
	}
	return strings.TrimSpace(value)
}

// expandValue resolves $NAME and ${NAME} against keys defined earlier in
// the same file, then the OS environment. Single pass, so expansion can
// only see values defined above it.
func expandValue(value string, resolved map[string]string, lineNumber int) (string, error) {
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		ch := value[i]
		if ch == '\\' && i+1 < len(value) && value[i+1] == '$' {
			b.WriteByte('$')
			i++
			continue
		}
		if ch != '$' || i+1 >= len(value) {
			b.WriteByte(ch)
			continue
		}
		if value[i+1] == '{' {
			end := strings.IndexByte(value[i+2:], '}')
			if end < 0 {
				return "", errdef.New(errdef.CodeFilesystem, "env line %d: missing closing brace for ${", lineNumber)
			}
			end += i + 2
			name := strings.TrimSpace(value[i+2 : end])
			if name == "" {
				return "", errdef.New(errdef.CodeFilesystem, "env line %d: empty variable name", lineNumber)
			}
			replacement, err := resolveRef(name, resolved, lineNumber)
			if err != nil {
				return "", err
			}
			b.WriteString(replacement)
			i = end
			continue
		}
		if isNameChar(value[i+1]) {
			j := i + 1
			for j < len(value) && isNameChar(value[j]) {
				j++
			}
			replacement, err := resolveRef(value[i+1:j], resolved, lineNumber)
			if err != nil {
				return "", err
			}
			b.WriteString(replacement)
			i = j - 1
			continue
		}
		b.WriteByte(ch)
	}
	return b.String(), nil
}

func resolveRef(name string, resolved map[string]string, lineNumber int) (string, error) {
	if value, ok := resolved[name]; ok {
		return value, nil
	}
	// OS fallback keeps secrets out of the file itself
	if value, ok := os.LookupEnv(name); ok {
		return value, nil
	}
	return "", errdef.New(errdef.CodeFilesystem, "env line %d: variable %q is not defined", lineNumber, name)
}

func isNameChar(ch byte) bool {
	if ch >= 'a' && ch <= 'z' {
		return true
	}
	if ch >= 'A' && ch <= 'Z' {
		return true
	}
	if ch >= '0' && ch <= '9' {
		return true
	}
	return ch == '_'
}

func resolveDoubleQuoteEscape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case '0':
		return 0
	case '"':
		return '"'
	case '\\':
		return '\\'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	default:
		return ch
	}
}
