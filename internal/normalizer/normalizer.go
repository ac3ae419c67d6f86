// Package normalizer strips configured noise from raw track titles and album
// names ("Remastered 2011", "(Deluxe Edition)", feat. suffixes, ...).
//
// A [Cleaner] is compiled once from an ordered rule list and applied as a
// pure function. Cleaning runs to a fixpoint, so Clean(Clean(s)) == Clean(s)
// holds for any rule set, and trailing separator or dangling-bracket
// artifacts left behind by a removal are trimmed as part of each pass.
package normalizer

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule removes one configured noise fragment, either a literal substring or
// a compiled regular expression.
type Rule struct {
	literal string
	pattern *regexp.Regexp
}

// Literal returns a rule removing every occurrence of the given substring.
func Literal(s string) Rule {
	return Rule{literal: s}
}

// Pattern returns a rule removing every match of the given expression.
func Pattern(re *regexp.Regexp) Rule {
	return Rule{pattern: re}
}

func (r Rule) apply(s string) string {
	if r.pattern != nil {
		return strings.TrimSpace(r.pattern.ReplaceAllString(s, ""))
	}
	return strings.TrimSpace(strings.ReplaceAll(s, r.literal, ""))
}

// Cleaner applies an ordered rule sequence to raw metadata strings.
type Cleaner struct {
	rules []Rule
}

// New compiles a Cleaner from regex pattern sources and literal suffixes.
// Patterns run before literals, each in the order given. A pattern that does
// not compile is a configuration error reported with its source text.
func New(patterns []string, literals []string) (*Cleaner, error) {
	rules := make([]Rule, 0, len(patterns)+len(literals))
	for _, src := range patterns {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("invalid cleanup pattern %q: %w", src, err)
		}
		rules = append(rules, Pattern(re))
	}
	for _, lit := range literals {
		rules = append(rules, Literal(lit))
	}
	return &Cleaner{rules: rules}, nil
}

// NewFromRules builds a Cleaner from an explicit rule sequence.
func NewFromRules(rules []Rule) *Cleaner {
	return &Cleaner{rules: rules}
}

// Clean removes every configured rule from s and trims the leftovers.
// Unmatched input is returned unchanged. Idempotent for any rule set.
func (c *Cleaner) Clean(s string) string {
	// Rules only ever remove text, so each changing pass strictly shrinks
	// the string and the loop reaches a true fixpoint on its own.
	for {
		next := c.pass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func (c *Cleaner) pass(s string) string {
	orig := s
	for _, rule := range c.rules {
		s = rule.apply(s)
	}
	if s == orig {
		// Nothing matched; leave the input untouched rather than trimming
		// punctuation that was there to begin with.
		return orig
	}
	for {
		trimmed := trimArtifacts(s)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// trimArtifacts removes the debris a substring removal can leave behind:
// empty bracket pairs, dangling separators, and doubled spaces.
func trimArtifacts(s string) string {
	s = strings.ReplaceAll(s, "()", "")
	s = strings.ReplaceAll(s, "[]", "")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = strings.TrimSpace(s)
	for _, sep := range []string{"-", "/", ";", ","} {
		s = strings.TrimSpace(strings.TrimSuffix(s, sep))
	}
	return s
}
