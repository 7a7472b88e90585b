// Package placeholder substitutes {NAME} tokens in request text. The
// grammar is deliberately flat: no nesting, no expressions, just a
// key looked up in the merged environment with a process-env fallback.
package placeholder

import (
	"os"
	"strings"

	"github.com/unkn0wn-root/recurl/internal/errdef"
)

// Expand walks input once, left to right. Escaping is asymmetric on
// purpose: `\{` and `\}` emit the brace alone, while `\` before any
// other rune emits the backslash and the rune unchanged. A `{` that
// cannot open a placeholder (no key rune follows, or no closing brace
// before end of input) is emitted literally.
func Expand(input string, env map[string]string) (string, error) {
	var out strings.Builder
	out.Grow(len(input))

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch ch {
		case '\\':
			if i+1 >= len(runes) {
				out.WriteRune('\\')
				continue
			}
			next := runes[i+1]
			if next == '{' || next == '}' {
				out.WriteRune(next)
			} else {
				out.WriteRune('\\')
				out.WriteRune(next)
			}
			i++
		case '{':
			if i+1 < len(runes) && runes[i+1] == '}' {
				return "", errdef.New(errdef.CodeEmptyPlaceholder, "empty template placeholder")
			}
			if i+1 >= len(runes) || !isKeyRune(runes[i+1]) {
				out.WriteRune('{')
				continue
			}
			end := closingBrace(runes, i+1)
			if end < 0 {
				out.WriteRune('{')
				continue
			}
			key := string(runes[i+1 : end])
			if !isValidKey(key) {
				return "", errdef.New(errdef.CodeInvalidPlaceholderKey, "invalid template variable: %s", key)
			}
			value, ok := env[key]
			if !ok {
				value, ok = os.LookupEnv(key)
			}
			if !ok {
				return "", errdef.New(errdef.CodeMissingPlaceholderValue, "missing template variable: %s", key)
			}
			out.WriteString(value)
			i = end
		default:
			out.WriteRune(ch)
		}
	}

	return out.String(), nil
}

func closingBrace(runes []rune, from int) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == '}' {
			return i
		}
	}
	return -1
}

// isKeyRune reports whether r can appear anywhere in a key. A rune that
// can only continue a key (digit, dot, dash) still opens a placeholder
// so the key validation can reject it with a precise error.
func isKeyRune(r rune) bool {
	return isStartRune(r) || (r >= '0' && r <= '9') || r == '.' || r == '-'
}

func isStartRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isValidKey(key string) bool {
	for i, r := range key {
		if i == 0 {
			if !isStartRune(r) {
				return false
			}
			continue
		}
		if isStartRune(r) || (r >= '0' && r <= '9') || r == '.' || r == '-' {
			continue
		}
		return false
	}
	return key != ""
}
