// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a streaming lexer for plural-form programs.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"nickandperla.net/plural/internal/token"
)

// SyntaxError reports source text the scanner cannot turn into a token.
type SyntaxError struct {
	Msg  string
	Pos  token.Pos
	Char string // offending text, may be empty
}

func (e *SyntaxError) Error() string {
	if e.Char != "" {
		return fmt.Sprintf("%s at (%d, %d): unexpected '%s'", e.Msg, e.Pos.Line, e.Pos.Column, e.Char)
	}
	return fmt.Sprintf("%s at (%d, %d)", e.Msg, e.Pos.Line, e.Pos.Column)
}

// Scanner tokenizes input rune-by-rune.
type Scanner struct {
	reader *bufio.Reader
	pos    token.Pos
	last   token.Pos // position before the most recent read, for unread
	seen   bool      // any rune read at all

	peeked  *token.Token
	peekErr error
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader) *Scanner {
	return &Scanner{
		reader: bufio.NewReader(r),
		pos:    token.Pos{Line: 1, Column: 1},
	}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string) *Scanner {
	return New(strings.NewReader(s))
}

// Tokenize scans the whole source and returns every token except the final
// EOF.
func Tokenize(source string) ([]token.Token, error) {
	s := NewFromString(source)
	var tokens []token.Token
	for {
		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.EOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// Pos returns the current read position.
func (s *Scanner) Pos() token.Pos {
	return s.pos
}

// Peek returns the next token without consuming it. Repeated calls return
// the same token, or the same error.
func (s *Scanner) Peek() (token.Token, error) {
	if s.peekErr != nil {
		return token.Token{}, s.peekErr
	}
	if s.peeked != nil {
		return *s.peeked, nil
	}
	tok, err := s.scan()
	if err != nil {
		s.peekErr = err
		return token.Token{}, err
	}
	s.peeked = &tok
	return tok, nil
}

// Next consumes and returns the next token.
func (s *Scanner) Next() (token.Token, error) {
	if s.peekErr != nil {
		return token.Token{}, s.peekErr
	}
	if s.peeked != nil {
		tok := *s.peeked
		s.peeked = nil
		return tok, nil
	}
	tok, err := s.scan()
	if err != nil {
		// Errors are sticky.
		s.peekErr = err
	}
	return tok, err
}

// HasTokens returns true while a non-EOF token remains. A pending scan
// error also counts, so that the following Next reports it.
func (s *Scanner) HasTokens() bool {
	tok, err := s.Peek()
	return err != nil || tok.Kind != token.EOF
}

func (s *Scanner) read() (rune, error) {
	r, size, err := s.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	s.seen = true
	s.last = s.pos
	s.pos.Offset += size
	if r == '\n' {
		s.pos.Line++
		s.pos.Column = 1
	} else {
		s.pos.Column++
	}
	return r, nil
}

// unread puts back the rune returned by the most recent read.
func (s *Scanner) unread() {
	s.reader.UnreadRune()
	s.pos = s.last
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isLetter(r rune) bool {
	return r < unicode.MaxASCII && unicode.IsLetter(r)
}

func (s *Scanner) scan() (token.Token, error) {
	var r rune
	for {
		c, err := s.read()
		if err == io.EOF {
			if !s.seen {
				return token.Token{}, &SyntaxError{Msg: "unexpected end of input", Pos: s.pos}
			}
			return token.Token{Kind: token.EOF, Pos: s.pos}, nil
		}
		if err != nil {
			return token.Token{}, err
		}
		if !isWhitespace(c) {
			r = c
			break
		}
	}
	start := s.last

	switch {
	case isDigit(r):
		return s.scanNumber(r, start)
	case isLetter(r) || r == token.Sigil:
		return s.scanIdent(r, start)
	}
	return s.scanOperator(r, start)
}

func (s *Scanner) scanNumber(first rune, start token.Pos) (token.Token, error) {
	var sb strings.Builder
	sb.WriteRune(first)
	for {
		r, err := s.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return token.Token{}, err
		}
		if isDigit(r) {
			sb.WriteRune(r)
			continue
		}
		if r == '.' || isLetter(r) {
			sb.WriteRune(r)
			return token.Token{}, &SyntaxError{Msg: "invalid number", Pos: start, Char: sb.String()}
		}
		s.unread()
		break
	}

	lexeme := sb.String()
	value, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return token.Token{}, &SyntaxError{Msg: "number out of range", Pos: start, Char: lexeme}
	}
	return token.Token{Kind: token.NUMBER, Lexeme: lexeme, Value: value, Pos: start}, nil
}

func (s *Scanner) scanIdent(first rune, start token.Pos) (token.Token, error) {
	var sb strings.Builder
	sb.WriteRune(first)
	for {
		r, err := s.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return token.Token{}, err
		}
		if !isLetter(r) && !isDigit(r) {
			s.unread()
			break
		}
		sb.WriteRune(r)
	}

	lexeme := sb.String()
	if first == token.Sigil && (len(lexeme) < 2 || !isLetter(rune(lexeme[1]))) {
		return token.Token{}, &SyntaxError{Msg: "invalid variable name", Pos: start, Char: lexeme}
	}
	return token.Token{Kind: token.IDENT, Lexeme: lexeme, Pos: start}, nil
}

func (s *Scanner) scanOperator(first rune, start token.Pos) (token.Token, error) {
	if token.StartsDouble(first) {
		r, err := s.read()
		if err != nil && err != io.EOF {
			return token.Token{}, err
		}
		if err == nil {
			if kind, ok := token.LookupDouble(first, r); ok {
				return token.Token{Kind: kind, Lexeme: string([]rune{first, r}), Pos: start}, nil
			}
			s.unread()
		}
	}

	if kind, ok := token.LookupSingle(first); ok {
		return token.Token{Kind: kind, Lexeme: string(first), Pos: start}, nil
	}
	if token.StartsDouble(first) {
		return token.Token{}, &SyntaxError{Msg: "unknown operator", Pos: start, Char: string(first)}
	}
	return token.Token{}, &SyntaxError{Msg: "unknown symbol", Pos: start, Char: string(first)}
}
