// Package tokenizer turns a byte stream into a lazy sequence of lowercase
// words. A word is a maximal run of ASCII letters whose length falls inside
// a configured inclusive range; everything else separates words.
package tokenizer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	DefaultMinLength = 6
	DefaultMaxLength = 50

	// initialBufSize caps the up-front run buffer; longer runs grow it.
	initialBufSize = 64
)

// Options bounds the accepted word length, inclusive on both ends.
type Options struct {
	MinLength int
	MaxLength int
}

// DefaultOptions returns the 6..50 range.
func DefaultOptions() Options {
	return Options{MinLength: DefaultMinLength, MaxLength: DefaultMaxLength}
}

func (o Options) Validate() error {
	if o.MinLength < 1 {
		return fmt.Errorf("min length must be at least 1, got %d", o.MinLength)
	}
	if o.MaxLength < o.MinLength {
		return fmt.Errorf("max length %d is below min length %d", o.MaxLength, o.MinLength)
	}
	return nil
}

// Stats counts what a Scanner has seen so far.
type Stats struct {
	Accepted int64
	TooShort int64
	TooLong  int64
}

// Scanner reads words one at a time. It is not restartable: once Scan
// returns false the underlying reader is exhausted or has failed.
type Scanner struct {
	r      *bufio.Reader
	opts   Options
	buf    []byte
	runLen int
	term   string
	err    error
	done   bool
	stats  Stats
}

func NewScanner(r io.Reader, opts Options) *Scanner {
	return &Scanner{
		r:    bufio.NewReader(r),
		opts: opts,
		buf:  make([]byte, 0, min(max(opts.MaxLength, 0), initialBufSize)),
	}
}

// Scan advances to the next accepted word, which is then available through
// Term. It returns false at end of input or on a read error.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	for {
		c, err := s.r.ReadByte()
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = err
				return false
			}
			return s.emit()
		}
		if lc, ok := lowerLetter(c); ok {
			// Letters past MaxLength still count toward the run length.
			if s.runLen < s.opts.MaxLength {
				s.buf = append(s.buf, lc)
			}
			s.runLen++
			continue
		}
		if s.emit() {
			return true
		}
	}
}

// Term returns the word found by the last successful Scan.
func (s *Scanner) Term() string {
	return s.term
}

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) Stats() Stats {
	return s.stats
}

// emit closes the current run and reports whether it was accepted.
func (s *Scanner) emit() bool {
	n := s.runLen
	if n == 0 {
		return false
	}
	s.runLen = 0
	defer func() { s.buf = s.buf[:0] }()
	switch {
	case n < s.opts.MinLength:
		s.stats.TooShort++
		return false
	case n > s.opts.MaxLength:
		s.stats.TooLong++
		return false
	}
	s.term = string(s.buf)
	s.stats.Accepted++
	return true
}

func lowerLetter(c byte) (byte, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return c, true
	case c >= 'A' && c <= 'Z':
		return c + ('a' - 'A'), true
	default:
		return 0, false
	}
}

// Tokenize returns every accepted word in text.
func Tokenize(text string, opts Options) []string {
	s := NewScanner(strings.NewReader(text), opts)
	words := make([]string, 0, len(text)/(opts.MinLength+1)+1)
	for s.Scan() {
		words = append(words, s.Term())
	}
	return words
}
