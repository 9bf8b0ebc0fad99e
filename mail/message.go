// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
)

const maxPartDepth = 32

var (
	ErrNotAMessage   = errors.New("not a message")
	ErrMissingHeader = errors.New("missing header")
)

type PartKind int

const (
	LeafPart PartKind = iota
	ListPart
)

// Part is either a leaf carrying decoded text or a list of nested parts.
type Part struct {
	Kind      PartKind
	MediaType string
	Text      string
	Parts     []*Part
}

func Leaf(mediaType, text string) *Part {
	return &Part{Kind: LeafPart, MediaType: mediaType, Text: text}
}

func Multipart(mediaType string, parts ...*Part) *Part {
	if parts == nil {
		parts = []*Part{}
	}
	return &Part{Kind: ListPart, MediaType: mediaType, Parts: parts}
}

func (p *Part) IsMultipart() bool {
	return p.Kind == ListPart
}

// Message is a mail whose headers are parsed and whose body is materialized into a Part tree.
type Message struct {
	Header message.Header
	Body   *Part
}

func NewMessage(from, subject string, body *Part) *Message {
	m := &Message{Body: body}
	m.Header.Set("From", from)
	m.Header.Set("Subject", subject)
	return m
}

func (m *Message) From() (string, error) {
	if !m.Header.Has("From") {
		return "", fmt.Errorf("%w: From", ErrMissingHeader)
	}
	return m.Header.Get("From"), nil
}

// Subject returns the RFC 2047 decoded subject, falling back to the raw value if it cannot be
// decoded.
func (m *Message) Subject() (string, error) {
	if !m.Header.Has("Subject") {
		return "", fmt.Errorf("%w: Subject", ErrMissingHeader)
	}

	h := gomail.Header{Header: m.Header}
	subject, err := h.Subject()
	if err != nil {
		return m.Header.Get("Subject"), nil
	}
	return subject, nil
}

// Parse converts flat RFC 2822 text into a Message. Transfer encodings and charsets are decoded,
// unknown ones are passed through undecoded.
func Parse(raw []byte) (*Message, error) {
	entity, err := readEntity(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("could not parse mail: %w", err)
	}

	body, err := readPart(entity, 0)
	if err != nil {
		return nil, fmt.Errorf("could not read mail body: %w", err)
	}

	return &Message{
		Header: entity.Header,
		Body:   body,
	}, nil
}

func readEntity(r io.Reader) (*message.Entity, error) {
	entity, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return nil, err
	}
	return entity, nil
}

func mediaTypeOf(entity *message.Entity) string {
	mediaType, _, err := entity.Header.ContentType()
	if err != nil || len(mediaType) == 0 {
		return "text/plain"
	}
	return strings.ToLower(mediaType)
}

func readPart(entity *message.Entity, depth int) (*Part, error) {
	if depth > maxPartDepth {
		return nil, fmt.Errorf("parts nested deeper than %d levels", maxPartDepth)
	}

	mediaType := mediaTypeOf(entity)

	if mr := entity.MultipartReader(); mr != nil {
		parts := []*Part{}
		for {
			p, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
				return nil, fmt.Errorf("could not read part %d of %s: %w", len(parts)+1, mediaType, err)
			}

			part, err := readPart(p, depth+1)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}

		return Multipart(mediaType, parts...), nil
	}

	if mediaType == "message/rfc822" {
		inner, err := readEntity(entity.Body)
		if err != nil {
			return nil, fmt.Errorf("could not read attached message: %w", err)
		}

		part, err := readPart(inner, depth+1)
		if err != nil {
			return nil, err
		}
		return Multipart(mediaType, part), nil
	}

	if !strings.HasPrefix(mediaType, "text/") {
		// attachments carry no words worth counting
		_, err := io.Copy(io.Discard, entity.Body)
		if err != nil {
			return nil, fmt.Errorf("could not skip %s part: %w", mediaType, err)
		}
		return Leaf(mediaType, ""), nil
	}

	text, err := io.ReadAll(entity.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read %s part: %w", mediaType, err)
	}

	return Leaf(mediaType, string(text)), nil
}
