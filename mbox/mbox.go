// SPDX-License-Identifier: GPL-3.0-or-later
package mbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/CrawX/go-imap-corpus/domain"
	"github.com/CrawX/go-imap-corpus/log"

	mboxlib "github.com/emersion/go-mbox"
	"github.com/sirupsen/logrus"
)

// Source streams the messages of an mbox archive in file order.
type Source struct {
	path   string
	file   *os.File
	reader *mboxlib.Reader
	index  int
	total  int
	l      *logrus.Logger
}

func Open(path string) (*Source, error) {
	total, err := CountMessages(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open mbox %s: %w", path, err)
	}

	s := &Source{
		path:   path,
		file:   file,
		reader: mboxlib.NewReader(file),
		total:  total,
		l:      log.Logger(log.LOG_MBOX),
	}
	s.l.WithFields(logrus.Fields{"path": path, "messages": total}).Debug("Opened mbox")
	return s, nil
}

// Next returns the next message, io.EOF after the last one. A message that cannot be read is
// returned with Err set, a broken archive is returned as error.
func (s *Source) Next(ctx context.Context) (*domain.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msgReader, err := s.reader.NextMessage()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("could not read message %d of %s: %w", s.index+1, s.path, err)
	}

	s.index++
	source := fmt.Sprintf("mbox:%s#%d", s.path, s.index)

	raw, err := io.ReadAll(msgReader)
	if err != nil {
		s.l.WithError(err).WithField("source", source).Warn("Could not read message")
		return &domain.RawMessage{Source: source, Err: fmt.Errorf("could not read message: %w", err)}, nil
	}

	return &domain.RawMessage{Source: source, Raw: raw}, nil
}

func (s *Source) Total() int {
	return s.total
}

func (s *Source) Close() error {
	return s.file.Close()
}

// CountMessages counts the messages of an mbox archive without parsing them.
func CountMessages(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("could not open mbox %s: %w", path, err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)
	count := 0
	for {
		msgReader, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return 0, fmt.Errorf("could not count messages of %s: %w", path, err)
		}

		_, err = io.Copy(io.Discard, msgReader)
		if err != nil {
			return 0, fmt.Errorf("could not count messages of %s: %w", path, err)
		}
		count++
	}
}
