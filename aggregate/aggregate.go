// SPDX-License-Identifier: GPL-3.0-or-later
package aggregate

import (
	"sort"
	"unicode/utf8"

	"github.com/CrawX/go-imap-corpus/domain"
)

// Field selects which token multisets of an entry are counted.
type Field int

const (
	Body Field = 1 << iota
	Subject
)

const (
	DefaultLengthMin = 3
	DefaultLengthMax = 30
)

type Option func(a *aggregator)

// WithLengthBounds keeps tokens with min < rune length < max.
func WithLengthBounds(min, max int) Option {
	return func(a *aggregator) {
		a.min = min
		a.max = max
	}
}

func WithFields(fields Field) Option {
	return func(a *aggregator) {
		if fields != 0 {
			a.fields = fields
		}
	}
}

type aggregator struct {
	min    int
	max    int
	fields Field
}

func (a *aggregator) keep(token string) bool {
	l := utf8.RuneCountInString(token)
	return a.min < l && l < a.max
}

func (a *aggregator) count(into domain.TokenCounts, tc domain.TokenCounts) {
	for token, n := range tc {
		if a.keep(token) {
			into[token] += n
		}
	}
}

// Aggregate counts token occurrences over all entries and over the spam entries and derives the
// spam prior of every token. The result is sorted by token.
func Aggregate(entries []domain.ParsedEntry, opts ...Option) []domain.TokenStats {
	a := &aggregator{
		min:    DefaultLengthMin,
		max:    DefaultLengthMax,
		fields: Body,
	}
	for _, o := range opts {
		o(a)
	}

	all := domain.TokenCounts{}
	spam := domain.TokenCounts{}
	for _, e := range entries {
		for _, tc := range a.selected(e) {
			a.count(all, tc)
			if e.IsSpam {
				a.count(spam, tc)
			}
		}
	}

	stats := make([]domain.TokenStats, 0, len(all))
	for token, total := range all {
		s := spam[token]
		stats = append(stats, domain.TokenStats{
			Token:     token,
			SpamCount: s,
			HamCount:  total - s,
			Prior:     float64(s) / float64(total),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Token < stats[j].Token
	})
	return stats
}

func (a *aggregator) selected(e domain.ParsedEntry) []domain.TokenCounts {
	selected := []domain.TokenCounts{}
	if a.fields&Body != 0 {
		selected = append(selected, e.Body)
	}
	if a.fields&Subject != 0 {
		selected = append(selected, e.Subject)
	}
	return selected
}
