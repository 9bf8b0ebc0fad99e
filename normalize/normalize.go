// SPDX-License-Identifier: GPL-3.0-or-later

// Package normalize rewrites raw mail text into a lowercase, whitespace separated token stream.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LinkToken replaces every URL and mailto link. It is lowercase so a second pass leaves it alone.
const LinkToken = "urllink"

type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

func NewRule(pattern, replacement string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("could not compile pattern %q: %w", pattern, err)
	}

	return Rule{Pattern: re, Replacement: replacement}, nil
}

func MustRule(pattern, replacement string) Rule {
	r, err := NewRule(pattern, replacement)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRules is applied top to bottom. Digits go before link masking and punctuation goes before
// whitespace collapsing, which makes Normalize idempotent.
var DefaultRules = []Rule{
	MustRule(`<[^<]+?>`, ""),
	MustRule(`&[a-z]+`, ""),
	MustRule(`["']+`, ""),
	MustRule(`0d`, ""),
	MustRule(`[0-9]+`, ""),
	MustRule(`https?://[\w@:%+.~#?&/=-]+`, " "+LinkToken+" "),
	MustRule(`www\.[\w@:%+.~#?&/=-]+`, " "+LinkToken+" "),
	MustRule(`mailto:(//)?[\w@.-]+`, " "+LinkToken+" "),
	MustRule(`[^\p{L}\p{M}\p{N}_]+|[_-]+`, " "),
	MustRule(`\s{2,}`, " "),
}

// Normalize lowercases raw and runs every rule over the result of the previous one.
func Normalize(raw string, rules []Rule) string {
	if len(raw) == 0 {
		return ""
	}

	// a Caser is stateful and must not be shared between goroutines
	s := cases.Lower(language.Und).String(raw)
	for _, r := range rules {
		s = r.Pattern.ReplaceAllString(s, r.Replacement)
	}
	return s
}

func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

// Normalizer binds a rule list so callers can swap the stripping without touching decomposition.
type Normalizer struct {
	rules []Rule
}

func New(rules ...Rule) *Normalizer {
	return &Normalizer{rules: rules}
}

func Default() *Normalizer {
	return New(DefaultRules...)
}

func (n *Normalizer) Rules() []Rule {
	return n.rules
}

func (n *Normalizer) Normalize(raw string) string {
	return Normalize(raw, n.rules)
}

func (n *Normalizer) Tokens(raw string) []string {
	return Tokens(n.Normalize(raw))
}
