package importer

import (
	"sort"
	"strings"

	"github.com/unkn0wn-root/recurl/internal/requestfile"
)

// HeaderRules filters and extends imported headers. Matching is
// case-insensitive; order and casing of surviving headers are kept.
type HeaderRules struct {
	Include []string
	Exclude []string
	Append  map[string]string
}

// Apply runs include, exclude and append in that order. Append entries
// go in lexicographic name order and never replace an existing header.
func (r HeaderRules) Apply(headers []requestfile.Header) []requestfile.Header {
	out := make([]requestfile.Header, 0, len(headers)+len(r.Append))

	include := lowerSet(r.Include)
	exclude := lowerSet(r.Exclude)
	for _, h := range headers {
		lower := strings.ToLower(h.Name)
		if len(include) > 0 {
			if _, ok := include[lower]; !ok {
				continue
			}
		}
		if _, ok := exclude[lower]; ok {
			continue
		}
		out = append(out, h)
	}

	names := make([]string, 0, len(r.Append))
	for name := range r.Append {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if hasHeaderNamed(out, name) {
			continue
		}
		out = append(out, requestfile.Header{Name: name, Value: r.Append[name]})
	}

	return out
}

func lowerSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	return set
}

func hasHeaderNamed(headers []requestfile.Header, name string) bool {
	lower := strings.ToLower(name)
	for _, h := range headers {
		if strings.ToLower(h.Name) == lower {
			return true
		}
	}
	return false
}
