package search

import (
	"fmt"
	"strings"

	"electorsearch/internal/scrapers/erms"
)

// Query is what a user asks for, it expands into one or more combinations.
type Query struct {
	Assemblies      []string `json:"assemblies"`
	Name            string   `json:"name"`
	RelativeName    string   `json:"relativeName"`
	UsePermutations bool     `json:"usePermutations"`
}

// ValidationError reports an invalid query parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks that every parameter is present and every assembly is known.
func (q Query) Validate() error {
	if len(q.Assemblies) == 0 {
		return &ValidationError{Field: "assembly", Reason: "at least one assembly is required"}
	}
	for _, a := range q.Assemblies {
		if !erms.IsAssembly(a) {
			return &ValidationError{Field: "assembly", Reason: fmt.Sprintf("unknown assembly %q", a)}
		}
	}
	if strings.TrimSpace(q.Name) == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	if strings.TrimSpace(q.RelativeName) == "" {
		return &ValidationError{Field: "relativeName", Reason: "relative name is required"}
	}
	return nil
}

// uniqueAssemblies drops repeated assemblies, keeping the first occurrence.
func uniqueAssemblies(assemblies []string) []string {
	seen := make(map[string]struct{}, len(assemblies))
	var out []string
	for _, a := range assemblies {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
