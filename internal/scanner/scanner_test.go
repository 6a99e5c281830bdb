package scanner

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"nickandperla.net/plural/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{
			name:  "Declaration",
			input: "x = 1;",
			want:  []token.Kind{token.IDENT, token.ASSIGN, token.NUMBER, token.END_OF_STATEMENT},
		},
		{
			name:  "Longest match first",
			input: "== != >= <= && || = < > ",
			want: []token.Kind{
				token.EQ, token.NE, token.GE, token.LE, token.AND, token.OR,
				token.ASSIGN, token.LT, token.GT,
			},
		},
		{
			name:  "No spaces",
			input: "n%10>=2&&n<=4",
			want: []token.Kind{
				token.IDENT, token.MOD, token.NUMBER, token.GE, token.NUMBER, token.AND,
				token.IDENT, token.LE, token.NUMBER,
			},
		},
		{
			name:  "Assignment followed by equality",
			input: "x==1",
			want:  []token.Kind{token.IDENT, token.EQ, token.NUMBER},
		},
		{
			name:  "Arithmetic and brackets",
			input: "(1+2)*3/4-5",
			want: []token.Kind{
				token.OPEN_BRACKET, token.NUMBER, token.ADD, token.NUMBER, token.CLOSE_BRACKET,
				token.MUL, token.NUMBER, token.DIV, token.NUMBER, token.SUB, token.NUMBER,
			},
		},
		{
			name:  "Ternary",
			input: "n ? 1 : 2",
			want:  []token.Kind{token.IDENT, token.TERNARY, token.NUMBER, token.TERNARY_SEP, token.NUMBER},
		},
		{
			name:  "Whitespace only",
			input: " \t \r  \n \t",
			want:  []token.Kind{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := kinds(toks); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("kinds = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenValues(t *testing.T) {
	toks, err := Tokenize("$name = 42;\nplural=n;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Lexeme != "$name" || toks[0].Name() != "name" {
		t.Errorf("ident = %q/%q", toks[0].Lexeme, toks[0].Name())
	}
	if toks[2].Kind != token.NUMBER || toks[2].Value != 42 {
		t.Errorf("number = %v", toks[2])
	}
	// plural on line 2
	p := toks[4]
	if p.Lexeme != "plural" || p.Pos.Line != 2 || p.Pos.Column != 1 {
		t.Errorf("plural token = %v", p)
	}
	if toks[5].Pos.Column != 7 || toks[5].Pos.Offset != 18 {
		t.Errorf("assign pos = %+v", toks[5].Pos)
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"Empty source", "", "unexpected end of input"},
		{"Invalid variable", "$1name", "invalid variable name"},
		{"Bare sigil", "$ = 1;", "invalid variable name"},
		{"Float", "1.5", "invalid number"},
		{"Two decimal points", "4.4.6", "invalid number"},
		{"Letter glued to number", "4a6", "invalid number"},
		{"Unknown symbol", "x=1 # 2;", "unknown symbol"},
		{"Lone ampersand", "a & b", "unknown operator"},
		{"Lone bang", "!a", "unknown operator"},
		{"Out of range", "99999999999999999999", "number out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
			if !strings.Contains(se.Error(), tt.msg) {
				t.Errorf("error %q does not contain %q", se.Error(), tt.msg)
			}
		})
	}
}

func TestUnknownSymbolPosition(t *testing.T) {
	_, err := Tokenize("x=1 # 2;")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if se.Pos.Column != 5 || se.Char != "#" {
		t.Errorf("got column %d char %q, want 5 '#'", se.Pos.Column, se.Char)
	}
}

func TestPeekIsIdempotent(t *testing.T) {
	s := NewFromString("a + b")
	for i := 0; i < 3; i++ {
		tok, err := s.Peek()
		if err != nil {
			t.Fatalf("peek: %v", err)
		}
		if tok.Lexeme != "a" {
			t.Fatalf("peek %d = %q", i, tok.Lexeme)
		}
	}

	var got []string
	for s.HasTokens() {
		tok, err := s.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		got = append(got, tok.Lexeme)
	}
	if want := []string{"a", "+", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}

	tok, err := s.Next()
	if err != nil || tok.Kind != token.EOF {
		t.Errorf("after end: %v, %v", tok, err)
	}
}

func TestErrorsAreSticky(t *testing.T) {
	s := NewFromString("a # b")
	if _, err := s.Next(); err != nil {
		t.Fatalf("first token: %v", err)
	}
	if !s.HasTokens() {
		t.Fatal("HasTokens should report the pending error")
	}
	_, err1 := s.Peek()
	_, err2 := s.Next()
	if err1 == nil || err2 == nil || err1.Error() != err2.Error() {
		t.Errorf("errors differ: %v / %v", err1, err2)
	}
}
