// SPDX-License-Identifier: GPL-3.0-or-later
package aggregate

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/CrawX/go-imap-corpus/corpus"
	"github.com/CrawX/go-imap-corpus/domain"
	"github.com/CrawX/go-imap-corpus/log"
	"github.com/CrawX/go-imap-corpus/mail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.InitLogging("error")
}

func entry(isSpam bool, subject, body domain.TokenCounts) domain.ParsedEntry {
	return domain.ParsedEntry{IsSpam: isSpam, Subject: subject, Body: body}
}

func statsByToken(stats []domain.TokenStats) map[string]domain.TokenStats {
	m := map[string]domain.TokenStats{}
	for _, s := range stats {
		m[s.Token] = s
	}
	return m
}

func TestEndToEnd(t *testing.T) {
	b := corpus.New(corpus.WithLogSink(func(m string, _ bool) string { return m }))

	spam := mail.NewMessage("a@b.cd", "offer", mail.Leaf("text/plain", "Buy cheap VIAGRA now http://x.co"))
	ham := mail.NewMessage("c@d.ef", "meeting", mail.Leaf("text/plain", "Let's meet for coffee tomorrow"))
	require.True(t, b.ParseMessage("A", spam, true, true).Ok())
	require.True(t, b.ParseMessage("B", ham, false, true).Ok())

	stats := statsByToken(Aggregate(b.Entries()))

	assert.Equal(t, domain.TokenStats{Token: "cheap", SpamCount: 1, HamCount: 0, Prior: 1.0}, stats["cheap"])
	assert.Equal(t, domain.TokenStats{Token: "coffee", SpamCount: 0, HamCount: 1, Prior: 0.0}, stats["coffee"])
	assert.NotContains(t, stats, "buy")
	assert.NotContains(t, stats, "now")
	assert.NotContains(t, stats, "for")
	assert.Contains(t, stats, "viagra")
	assert.Contains(t, stats, "lets")

	b.Purge()
	assert.Empty(t, Aggregate(b.Entries()))
}

func TestAggregatePriors(t *testing.T) {
	var entries []domain.ParsedEntry
	for i := 0; i < 6; i++ {
		body := domain.NewTokenCounts([]string{"common", fmt.Sprintf("word%d", i)})
		if i%2 == 0 {
			body.Add("offer", "offer")
		}
		entries = append(entries, entry(i%2 == 0, nil, body))
	}

	stats := Aggregate(entries)
	for _, s := range stats {
		assert.GreaterOrEqual(t, s.Prior, 0.0)
		assert.LessOrEqual(t, s.Prior, 1.0)
		assert.GreaterOrEqual(t, s.SpamCount+s.HamCount, 1)
	}

	byToken := statsByToken(stats)
	assert.Equal(t, domain.TokenStats{Token: "offer", SpamCount: 6, HamCount: 0, Prior: 1.0}, byToken["offer"])
	assert.Equal(t, domain.TokenStats{Token: "common", SpamCount: 3, HamCount: 3, Prior: 0.5}, byToken["common"])

	tokens := []string{}
	for _, s := range stats {
		tokens = append(tokens, s.Token)
	}
	assert.IsIncreasing(t, tokens)
}

func TestAggregateLengthBounds(t *testing.T) {
	entries := []domain.ParsedEntry{
		entry(true, nil, domain.NewTokenCounts([]string{"abc", "abcd", "grüß", "abcdefghijklmnopqrstuvwxyzabcd"})),
	}

	assert.Equal(t, []string{"abcd", "grüß"}, tokensOf(Aggregate(entries)))
	assert.Equal(t, []string{"abc", "abcd", "grüß"}, tokensOf(Aggregate(entries, WithLengthBounds(2, 5))))
	assert.Equal(t, []string{"abcdefghijklmnopqrstuvwxyzabcd"}, tokensOf(Aggregate(entries, WithLengthBounds(10, 31))))
}

func TestAggregateFields(t *testing.T) {
	entries := []domain.ParsedEntry{
		entry(true, domain.TokenCounts{"winner": 1, "money": 1}, domain.TokenCounts{"money": 2}),
		entry(false, domain.TokenCounts{"report": 1}, domain.TokenCounts{"money": 1}),
	}

	body := statsByToken(Aggregate(entries))
	assert.Len(t, body, 1)
	assert.Equal(t, domain.TokenStats{Token: "money", SpamCount: 2, HamCount: 1, Prior: 2.0 / 3.0}, body["money"])

	subject := statsByToken(Aggregate(entries, WithFields(Subject)))
	assert.Len(t, subject, 3)
	assert.Equal(t, 1.0, subject["winner"].Prior)
	assert.Equal(t, 0.0, subject["report"].Prior)

	both := statsByToken(Aggregate(entries, WithFields(Body|Subject)))
	assert.Equal(t, domain.TokenStats{Token: "money", SpamCount: 3, HamCount: 1, Prior: 0.75}, both["money"])
}

func tokensOf(stats []domain.TokenStats) []string {
	tokens := []string{}
	for _, s := range stats {
		tokens = append(tokens, s.Token)
	}
	return tokens
}

func TestReport(t *testing.T) {
	stats := []domain.TokenStats{
		{Token: "alpha", SpamCount: 3, HamCount: 0, Prior: 1.0},
		{Token: "beta", SpamCount: 9, HamCount: 1, Prior: 0.9},
		{Token: "gamma", SpamCount: 3, HamCount: 1, Prior: 0.75},
		{Token: "delta", SpamCount: 1, HamCount: 9, Prior: 0.1},
		{Token: "aardvark", SpamCount: 3, HamCount: 0, Prior: 1.0},
	}

	filtered := Filter(stats, DefaultPriorThreshold)
	assert.Equal(t, []string{"alpha", "beta", "aardvark"}, tokensOf(filtered))

	SortBySpam(filtered)
	assert.Equal(t, []string{"beta", "aardvark", "alpha"}, tokensOf(filtered))

	assert.Equal(t, []string{"beta", "aardvark"}, tokensOf(Top(filtered, 2)))
	assert.Len(t, Top(filtered, 10), 3)

	assert.Equal(t, []string{"beta", "aardvark", "alpha"}, tokensOf(Report(stats, DefaultPriorThreshold, DefaultTop)))
	assert.Empty(t, Report(nil, DefaultPriorThreshold, DefaultTop))
}

func TestWriteTable(t *testing.T) {
	buf := &bytes.Buffer{}
	err := WriteTable(buf, []domain.TokenStats{
		{Token: "cheap", SpamCount: 12, HamCount: 0, Prior: 1.0},
		{Token: "offer", SpamCount: 3, HamCount: 1, Prior: 0.75},
	})
	require.NoError(t, err)

	assert.Equal(t, ""+
		"token  spam  ham  prior\n"+
		"cheap  12    0    1.0000\n"+
		"offer  3     1    0.7500\n", buf.String())
}

func TestWriteCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	err := WriteCSV(buf, []domain.TokenStats{
		{Token: "cheap", SpamCount: 12, HamCount: 0, Prior: 1.0},
		{Token: "offer", SpamCount: 3, HamCount: 1, Prior: 0.75},
	})
	require.NoError(t, err)

	assert.Equal(t, "token,spam,ham,prior\ncheap,12,0,1\noffer,3,1,0.75\n", buf.String())
}
