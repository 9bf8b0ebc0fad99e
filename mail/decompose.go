// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"fmt"
	"strings"

	"github.com/CrawX/go-imap-corpus/domain"
	"github.com/CrawX/go-imap-corpus/normalize"

	"github.com/k3a/html2text"
)

type Decomposed struct {
	Subject domain.TokenCounts
	Body    domain.TokenCounts
}

type DecomposerFunc func(d *Decomposer)

func WithNormalizer(n *normalize.Normalizer) DecomposerFunc {
	return func(d *Decomposer) {
		d.normalizer = n
	}
}

// WithHTMLToText renders text/html leaves to plain text before they are normalized.
func WithHTMLToText() DecomposerFunc {
	return func(d *Decomposer) {
		d.htmlToText = true
	}
}

// Decomposer turns a Message into subject and body token multisets. It does no I/O.
type Decomposer struct {
	normalizer *normalize.Normalizer
	htmlToText bool
}

func NewDecomposer(funcs ...DecomposerFunc) *Decomposer {
	d := &Decomposer{normalizer: normalize.Default()}
	for _, f := range funcs {
		f(d)
	}
	return d
}

func (d *Decomposer) Decompose(msg *Message) (*Decomposed, error) {
	if msg == nil || msg.Body == nil {
		return nil, ErrNotAMessage
	}

	subject, err := msg.Subject()
	if err != nil {
		return nil, err
	}

	return &Decomposed{
		Subject: domain.NewTokenCounts(d.normalizer.Tokens(subject)),
		Body:    domain.NewTokenCounts(normalize.Tokens(d.Payload(msg.Body))),
	}, nil
}

// Payload normalizes every leaf below p and concatenates the results without a separator, so a
// word cut across two parts is counted as one token.
func (d *Decomposer) Payload(p *Part) string {
	b := &strings.Builder{}
	d.visit(p, b)
	return b.String()
}

func (d *Decomposer) visit(p *Part, b *strings.Builder) {
	if p == nil {
		return
	}

	switch p.Kind {
	case LeafPart:
		text := p.Text
		if d.htmlToText && p.MediaType == "text/html" {
			text = html2text.HTML2Text(text)
		}
		b.WriteString(d.normalizer.Normalize(text))
	case ListPart:
		for _, child := range p.Parts {
			d.visit(child, b)
		}
	default:
		panic(fmt.Sprintf("unknown part kind %d", p.Kind))
	}
}
