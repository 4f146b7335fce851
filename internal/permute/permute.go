// Package permute expands a name into the spelling variants reachable by
// optionally applying substitution rules at every position they match.
package permute

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxVariants bounds the output of Default.
const DefaultMaxVariants = 256

// Generator expands strings with a fixed rule set.
type Generator struct {
	Rules []Rule
	// MaxVariants caps the number of distinct variants returned,
	// zero or negative means no cap.
	MaxVariants int
}

// Default uses GujaratiRules with DefaultMaxVariants.
var Default = Generator{
	Rules:       GujaratiRules,
	MaxVariants: DefaultMaxVariants,
}

// Expand is Default.Expand.
func Expand(input string) []string {
	return Default.Expand(input)
}

// Expand returns the sorted set of variants of `input`, which always includes
// the input itself. The input is expanded as given, callers that want
// canonically equivalent spellings to expand identically apply Normalize first.
func (g Generator) Expand(input string) []string {
	variants, _ := g.ExpandN(input)
	return variants
}

// Count is the number of variants Expand would return.
func (g Generator) Count(input string) int {
	return len(g.Expand(input))
}

// Normalize trims surrounding whitespace and converts to NFC so that
// canonically equivalent spellings expand identically.
func Normalize(input string) string {
	return norm.NFC.String(strings.TrimSpace(input))
}

// ExpandN is Expand but also reports whether the variant cap was hit.
//
// Variants are discovered depth first with the "keep" branch explored before
// the "replace" branch, so the first variant found is always the input. Once
// MaxVariants distinct variants are found, the first further distinct variant
// stops exploration and is dropped, so `truncated` is only set when something
// was actually left out.
func (g Generator) ExpandN(input string) (variants []string, truncated bool) {
	e := expansion{
		rules:   g.Rules,
		max:     g.MaxVariants,
		results: map[string]struct{}{},
	}
	e.walk(input, 0)

	variants = make([]string, 0, len(e.results))
	for v := range e.results {
		variants = append(variants, v)
	}
	sort.Strings(variants)
	return variants, e.full
}

type expansion struct {
	rules   []Rule
	max     int
	results map[string]struct{}
	full    bool
}

// walk explores every variant of s whose differences from s lie at or after
// byte offset `index`.
func (e *expansion) walk(s string, index int) {
	if e.full {
		return
	}
	if index >= len(s) {
		if _, ok := e.results[s]; ok {
			return
		}
		if e.max > 0 && len(e.results) >= e.max {
			e.full = true
			return
		}
		e.results[s] = struct{}{}
		return
	}

	matched := false
	for _, rule := range e.rules {
		if rule.From == "" || !strings.HasPrefix(s[index:], rule.From) {
			continue
		}
		matched = true

		e.walk(s, index+len(rule.From))

		replaced := s[:index] + rule.To + s[index+len(rule.From):]
		e.walk(replaced, index+len(rule.To))
	}

	if !matched {
		_, size := utf8.DecodeRuneInString(s[index:])
		e.walk(s, index+size)
	}
}
