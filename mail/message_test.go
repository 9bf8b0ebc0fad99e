// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"errors"
	"testing"

	"github.com/CrawX/go-imap-corpus/domain"
	"github.com/CrawX/go-imap-corpus/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanAddress(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected domain.CleanAddress
	}{
		{"display name", "John Doe <john@example.co.uk>", domain.CleanAddress{Address: "john@example.co.uk", Domain: "example.co", TLD: "uk"}},
		{"bare", "Alice@Example.COM", domain.CleanAddress{Address: "alice@example.com", Domain: "example", TLD: "com"}},
		{"dots and dashes", "<first.last-x@mail-out.example.org>", domain.CleanAddress{Address: "first.last-x@mail-out.example.org", Domain: "mail-out.example", TLD: "org"}},
		{"first of many", "a@b.cd, e@f.gh", domain.CleanAddress{Address: "a@b.cd", Domain: "b", TLD: "cd"}},
		{"no address", "not an address", domain.CleanAddress{}},
		{"no tld", "root@localhost", domain.CleanAddress{}},
		{"empty", "", domain.CleanAddress{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanAddress(tc.raw))
		})
	}
}

func TestParseSimple(t *testing.T) {
	msg, err := Parse(readTestdata(t, "simple.msg"))
	require.NoError(t, err)

	from, err := msg.From()
	assert.NoError(t, err)
	assert.Equal(t, "John Doe <john@example.co.uk>", from)

	subject, err := msg.Subject()
	assert.NoError(t, err)
	assert.Equal(t, "Lunch tomorrow?", subject)

	assert.False(t, msg.Body.IsMultipart())
	assert.Equal(t, "text/plain", msg.Body.MediaType)
	assert.Contains(t, msg.Body.Text, "Let's meet for coffee tomorrow")
}

func TestParseMultipart(t *testing.T) {
	msg, err := Parse(readTestdata(t, "multipart.msg"))
	require.NoError(t, err)

	require.True(t, msg.Body.IsMultipart())
	assert.Equal(t, "multipart/mixed", msg.Body.MediaType)
	require.Len(t, msg.Body.Parts, 2)

	alternative := msg.Body.Parts[0]
	require.True(t, alternative.IsMultipart())
	require.Len(t, alternative.Parts, 2)
	assert.Equal(t, "text/plain", alternative.Parts[0].MediaType)
	assert.Contains(t, alternative.Parts[0].Text, "http://shop.example.com/w?id=42 only today")
	assert.Equal(t, "text/html", alternative.Parts[1].MediaType)

	attachment := msg.Body.Parts[1]
	assert.False(t, attachment.IsMultipart())
	assert.Equal(t, "image/png", attachment.MediaType)
	assert.Empty(t, attachment.Text)
}

func TestParseCharsets(t *testing.T) {
	msg, err := Parse(readTestdata(t, "nonascii.msg"))
	require.NoError(t, err)

	subject, err := msg.Subject()
	assert.NoError(t, err)
	assert.Equal(t, "Grüße aus München", subject)
	assert.Contains(t, msg.Body.Text, "Schöne Grüße")
}

func TestParseAttachedMessage(t *testing.T) {
	msg, err := Parse(readTestdata(t, "wrapped.msg"))
	require.NoError(t, err)

	require.Len(t, msg.Body.Parts, 2)
	attached := msg.Body.Parts[1]
	assert.Equal(t, "message/rfc822", attached.MediaType)
	require.Len(t, attached.Parts, 1)
	assert.Contains(t, attached.Parts[0].Text, "Cheap watches only today")
}

func TestParseGarbage(t *testing.T) {
	_, err := Parse([]byte("this is not\na header: block\n"))
	assert.Error(t, err)
}

func TestDecompose(t *testing.T) {
	d := NewDecomposer()

	msg, err := Parse(readTestdata(t, "multipart.msg"))
	require.NoError(t, err)

	decomposed, err := d.Decompose(msg)
	require.NoError(t, err)

	assert.Equal(t, domain.TokenCounts{"huge": 1, "sale": 1, "today": 1}, decomposed.Subject)
	assert.Equal(t, 2, decomposed.Body["cheap"])
	assert.Equal(t, 2, decomposed.Body["watches"])
	assert.Equal(t, 1, decomposed.Body[normalize.LinkToken])
	assert.Equal(t, 1, decomposed.Body["today"])
	assert.Equal(t, 0, decomposed.Body["html"])
	assert.Equal(t, 0, decomposed.Body["shop"])
}

func TestDecomposeHTMLToText(t *testing.T) {
	d := NewDecomposer(WithHTMLToText())

	msg := NewMessage("a@b.cd", "hi", Multipart("multipart/alternative",
		Leaf("text/html", "<p>Hello&nbsp;<b>there</b></p>"),
	))

	decomposed, err := d.Decompose(msg)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenCounts{"hello": 1, "there": 1}, decomposed.Body)
}

func TestDecomposeNested(t *testing.T) {
	d := NewDecomposer()

	msg := NewMessage("a@b.cd", "Nested", Multipart("multipart/mixed",
		Leaf("text/plain", "one two "),
		Multipart("multipart/alternative",
			Leaf("text/plain", "three "),
			Multipart("multipart/related", Leaf("text/plain", "four")),
		),
	))

	decomposed, err := d.Decompose(msg)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenCounts{"one": 1, "two": 1, "three": 1, "four": 1}, decomposed.Body)
	assert.Equal(t, domain.TokenCounts{"nested": 1}, decomposed.Subject)
}

func TestDecomposeMergesAcrossParts(t *testing.T) {
	d := NewDecomposer()

	msg := NewMessage("a@b.cd", "", Multipart("multipart/mixed",
		Leaf("text/plain", "spl"),
		Leaf("text/plain", "it word"),
	))

	decomposed, err := d.Decompose(msg)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenCounts{"split": 1, "word": 1}, decomposed.Body)
	assert.Empty(t, decomposed.Subject)
}

func TestDecomposeCustomNormalizer(t *testing.T) {
	d := NewDecomposer(WithNormalizer(normalize.New(normalize.MustRule(`[^a-z0-9]+`, " "))))

	msg := NewMessage("a@b.cd", "Order 66", Leaf("text/plain", "Code 1234"))

	decomposed, err := d.Decompose(msg)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenCounts{"order": 1, "66": 1}, decomposed.Subject)
	assert.Equal(t, domain.TokenCounts{"code": 1, "1234": 1}, decomposed.Body)
}

func TestDecomposeSkipsNilParts(t *testing.T) {
	d := NewDecomposer()

	tree := Multipart("multipart/mixed", nil, Leaf("text/plain", "cheap "), Multipart("multipart/alternative", nil), Leaf("text/plain", "offer"))
	assert.Equal(t, "cheap offer", d.Payload(tree))
	assert.Equal(t, "", d.Payload(nil))

	decomposed, err := d.Decompose(NewMessage("a@b.cd", "hello", tree))
	require.NoError(t, err)
	assert.Equal(t, domain.TokenCounts{"cheap": 1, "offer": 1}, decomposed.Body)
}

func TestDecomposeErrors(t *testing.T) {
	d := NewDecomposer()

	_, err := d.Decompose(nil)
	assert.True(t, errors.Is(err, ErrNotAMessage))

	msg, err := Parse(readTestdata(t, "nosubject.msg"))
	require.NoError(t, err)
	_, err = d.Decompose(msg)
	assert.True(t, errors.Is(err, ErrMissingHeader))
	assert.EqualError(t, err, "missing header: Subject")
}
