package kaleido

import (
	"bufio"
	"errors"
	"io"
)

// EOF is returned by a CharSource once the input is exhausted.
const EOF rune = -1

// CharSource is the character stream the lexer scans. Implementations own the
// cursor; the lexer only peeks, consumes and asks where it is.
type CharSource interface {
	Peek() rune
	Next() rune
	Position() Position
	// Err reports the read failure that ended the stream early, if any.
	Err() error
}

// ReaderSource decodes UTF-8 from an io.Reader and tracks line and column.
type ReaderSource struct {
	reader *bufio.Reader
	pos    Position
	err    error
}

func NewReaderSource(reader io.Reader) *ReaderSource {
	return &ReaderSource{
		reader: bufio.NewReader(reader),
		pos:    Position{Line: 1, Column: 1},
	}
}

func (s *ReaderSource) Peek() rune {
	r, size := s.read()
	if size > 0 {
		_ = s.reader.UnreadRune()
	}

	return r
}

func (s *ReaderSource) Next() rune {
	r, size := s.read()
	if size == 0 {
		return r
	}

	s.pos.Offset += size
	if r == '\n' {
		s.pos.Line++
		s.pos.Column = 1
	} else {
		s.pos.Column++
	}

	return r
}

func (s *ReaderSource) Position() Position {
	return s.pos
}

func (s *ReaderSource) Err() error {
	return s.err
}

func (s *ReaderSource) read() (rune, int) {
	if s.err != nil {
		return EOF, 0
	}

	r, size, err := s.reader.ReadRune()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
		}

		return EOF, 0
	}

	// Invalid UTF-8 comes through as utf8.RuneError, which the lexer
	// reports as an unrecognized character.
	return r, size
}
