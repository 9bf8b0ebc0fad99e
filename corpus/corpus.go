// SPDX-License-Identifier: GPL-3.0-or-later
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"github.com/CrawX/go-imap-corpus/domain"
	"github.com/CrawX/go-imap-corpus/log"
	"github.com/CrawX/go-imap-corpus/mail"

	"github.com/sirupsen/logrus"
)

var ErrNotAFolder = errors.New("not a folder")

// readFile is replaced in tests, permissions cannot make a file unreadable for root.
var readFile = os.ReadFile

// Result is the outcome of ingesting a single item: exactly one of Entry and Err is set.
type Result struct {
	Entry *domain.ParsedEntry
	Err   *domain.ParseError
}

func (r Result) Ok() bool {
	return r.Err == nil
}

// Totaler is implemented by message sources that know their size up front.
type Totaler interface {
	Total() int
}

// Builder accumulates labeled entries and a log of soft errors. A Builder owns its corpus, use
// one Builder per corpus.
type Builder struct {
	mu          sync.Mutex
	entries     []domain.ParsedEntry
	parseErrors []domain.ParseError

	progressMu sync.Mutex

	decomposer  *mail.Decomposer
	sink        domain.LogSink
	progress    domain.ProgressObserver
	concurrency int

	l *logrus.Logger
}

func New(funcs ...BuilderFunc) *Builder {
	b := &Builder{
		decomposer:  mail.NewDecomposer(),
		progress:    func(int, int) {},
		concurrency: 1,
		l:           log.Logger(log.LOG_CORPUS),
	}
	b.sink = log.Sink(b.l)

	for _, f := range funcs {
		f(b)
	}
	return b
}

// ParseMessage adds msg to the corpus. Failures are returned but never added to the error log.
// Unless silent they are passed through the log sink and carry the text it returns.
func (b *Builder) ParseMessage(source string, msg *mail.Message, isSpam, silent bool) Result {
	return b.commit(b.extract(source, msg, isSpam), silent)
}

// ParseRaw converts flat RFC 2822 text and adds it to the corpus. SpamAssassin style reports are
// unwrapped first.
func (b *Builder) ParseRaw(source string, raw []byte, isSpam, silent bool) Result {
	return b.commit(b.extractRaw(source, raw, isSpam), silent)
}

// ParseFile reads a single file containing one mail with headers and adds it to the corpus.
func (b *Builder) ParseFile(path string, isSpam, silent bool) Result {
	return b.commit(b.extractFile(path, isSpam), silent)
}

// ParseFolder parses every entry of folder. Per file failures end up in the error log, only an
// unusable folder is returned as error.
func (b *Builder) ParseFolder(folder string, isSpam bool) error {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		b.sink(fmt.Sprintf("'%s' is not a folder", folder), true)
		return fmt.Errorf("%w: %s", ErrNotAFolder, folder)
	}

	files, err := os.ReadDir(folder)
	if err != nil {
		b.sink(fmt.Sprintf("Could not read folder %s: %v", folder, err), true)
		return fmt.Errorf("could not read folder %s: %w", folder, err)
	}

	b.sink(fmt.Sprintf("Found %d files in '%s' containing %sspam", len(files), folder, spamPrefix(isSpam)), false)
	if len(files) == 0 {
		return nil
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join(folder, f.Name())
	}

	failed := 0
	for _, r := range b.extractFiles(paths, isSpam) {
		if r.Err != nil {
			failed++
			b.appendError(*r.Err)
			continue
		}
		b.commit(r, true)
	}

	b.l.WithFields(logrus.Fields{"folder": folder, "files": len(files), "failed": failed, "spam": isSpam}).Debug("Parsed folder")
	return nil
}

// ParseSource drains src. Per message failures end up in the error log, a failing source is
// returned as error.
func (b *Builder) ParseSource(ctx context.Context, src domain.MessageSource, isSpam bool) error {
	total := 0
	if t, ok := src.(Totaler); ok {
		total = t.Total()
	}

	processed, failed := 0, 0
	for {
		raw, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("could not read next message: %w", err)
		}

		var r Result
		if raw.Err != nil {
			r = fail(raw.Source, raw.Err.Error())
		} else {
			r = b.ParseRaw(raw.Source, raw.Raw, isSpam, true)
		}
		if r.Err != nil {
			failed++
			b.appendError(*r.Err)
		}

		processed++
		b.progress(processed, total)
	}

	b.l.WithFields(logrus.Fields{"messages": processed, "failed": failed, "spam": isSpam}).Debug("Parsed source")
	return nil
}

// ParseErrors returns the number of logged parse errors.
func (b *Builder) ParseErrors(silent bool) int {
	b.mu.Lock()
	count := len(b.parseErrors)
	b.mu.Unlock()

	if !silent {
		if count > 0 {
			b.sink(fmt.Sprintf("Got %d errors while parsing messages", count), true)
		} else {
			b.sink("There were no errors parsing messages", false)
		}
	}

	return count
}

// AddError records a soft error raised by a caller that feeds the corpus itself.
func (b *Builder) AddError(pe domain.ParseError) {
	b.appendError(pe)
}

func (b *Builder) ShowParseErrors() {
	for _, pe := range b.Errors() {
		b.sink(pe.Error(), true)
	}
}

func (b *Builder) Errors() []domain.ParseError {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]domain.ParseError(nil), b.parseErrors...)
}

// Entries returns a snapshot of the corpus in ingestion order.
func (b *Builder) Entries() []domain.ParsedEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]domain.ParsedEntry(nil), b.entries...)
}

func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.entries)
}

// Purge clears the parsed entries. The error log is kept, see PurgeErrors.
func (b *Builder) Purge() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = nil
}

func (b *Builder) PurgeErrors() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.parseErrors = nil
}

// Shuffle permutes the corpus order. The same seed yields the same order.
func (b *Builder) Shuffle(seed int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(b.entries), func(i, j int) {
		b.entries[i], b.entries[j] = b.entries[j], b.entries[i]
	})
}

func (b *Builder) commit(r Result, silent bool) Result {
	if r.Err != nil {
		if !silent {
			// the sink decides the final wording
			r.Err = &domain.ParseError{Source: r.Err.Source, Message: b.sink(r.Err.Message, true)}
		}
		return r
	}

	b.mu.Lock()
	b.entries = append(b.entries, *r.Entry)
	b.mu.Unlock()
	return r
}

func (b *Builder) appendError(pe domain.ParseError) {
	b.mu.Lock()
	b.parseErrors = append(b.parseErrors, pe)
	b.mu.Unlock()
}

func (b *Builder) extract(source string, msg *mail.Message, isSpam bool) (r Result) {
	defer func() {
		if p := recover(); p != nil {
			r = fail(source, fmt.Sprintf("could not extract a clean message: %v", p))
		}
	}()

	if msg == nil {
		return fail(source, fmt.Sprintf("cannot parse message: %v", mail.ErrNotAMessage))
	}

	from, err := msg.From()
	if err != nil {
		return fail(source, fmt.Sprintf("could not extract a clean message: %v", err))
	}

	decomposed, err := b.decomposer.Decompose(msg)
	if err != nil {
		return fail(source, fmt.Sprintf("could not extract a clean message: %v", err))
	}

	return Result{
		Entry: &domain.ParsedEntry{
			Source:  source,
			IsSpam:  isSpam,
			Sender:  mail.CleanAddress(from),
			Subject: decomposed.Subject,
			Body:    decomposed.Body,
		},
	}
}

func (b *Builder) extractRaw(source string, raw []byte, isSpam bool) Result {
	unwrapped, err := mail.UnwrapSpamassassinReport(raw)
	if err != nil {
		return fail(source, fmt.Sprintf("could not convert '%s' to a message: %v", source, err))
	}

	msg, err := mail.Parse(unwrapped)
	if err != nil {
		return fail(source, fmt.Sprintf("could not convert '%s' to a message: %v", source, err))
	}

	return b.extract(source, msg, isSpam)
}

func (b *Builder) extractFile(path string, isSpam bool) Result {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fail(path, fmt.Sprintf("'%s' is not a file", path))
	}

	raw, err := readFile(path)
	if err != nil {
		return fail(path, fmt.Sprintf("could not read file '%s': %v", path, err))
	}

	return b.extractRaw(path, raw, isSpam)
}

func (b *Builder) reportProgress(processed *int, total int) {
	b.progressMu.Lock()
	defer b.progressMu.Unlock()

	*processed++
	b.progress(*processed, total)
}

func fail(source, message string) Result {
	return Result{Err: &domain.ParseError{Source: source, Message: message}}
}

func spamPrefix(isSpam bool) string {
	if isSpam {
		return ""
	}
	return "not "
}
