package importer

import (
	"sort"
	"strings"
)

// candidate pairs a variable name with its literal value. Candidates
// are ordered longest value first so a short value never eats a chunk
// out of a longer one.
type candidate struct {
	name  string
	value string
}

func buildCandidates(template, env map[string]string) []candidate {
	merged := make(map[string]string, len(template)+len(env))
	for name, value := range env {
		merged[name] = value
	}
	for name, value := range template {
		merged[name] = value
	}

	candidates := make([]candidate, 0, len(merged))
	for name, value := range merged {
		if value == "" {
			continue
		}
		candidates = append(candidates, candidate{name: name, value: value})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].value) != len(candidates[j].value) {
			return len(candidates[i].value) > len(candidates[j].value)
		}
		return candidates[i].name < candidates[j].name
	})
	return candidates
}

func substitute(input string, candidates []candidate) string {
	for _, c := range candidates {
		input = strings.ReplaceAll(input, c.value, "{"+c.name+"}")
	}
	return input
}
