package parser

import "testing"

func TestNextToken(t *testing.T) {
	input := `risk >= 4 AND oversight <= 2 OR NOT (flagged == 1.5) && a != b || !done < > x`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{IDENT, "risk"},
		{GTE, ">="},
		{INT, "4"},
		{AND, "AND"},
		{IDENT, "oversight"},
		{LTE, "<="},
		{INT, "2"},
		{OR, "OR"},
		{NOT, "NOT"},
		{LPAREN, "("},
		{IDENT, "flagged"},
		{EQ, "=="},
		{FLOAT, "1.5"},
		{RPAREN, ")"},
		{AND, "&&"},
		{IDENT, "a"},
		{NOT_EQ, "!="},
		{IDENT, "b"},
		{OR, "||"},
		{NOT, "!"},
		{IDENT, "done"},
		{LT, "<"},
		{GT, ">"},
		{IDENT, "x"},
		{EOF, ""},
	}

	l := NewLexer(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong token type. expected=%s, got=%s (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - wrong literal. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestKeywordCase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  TokenType
	}{
		{name: "lowercase and", input: "and", want: AND},
		{name: "uppercase AND", input: "AND", want: AND},
		{name: "mixed And", input: "And", want: AND},
		{name: "lowercase or", input: "or", want: OR},
		{name: "uppercase NOT", input: "NOT", want: NOT},
		{name: "lowercase true literal", input: "true", want: TRUE},
		{name: "lowercase false literal", input: "false", want: FALSE},
		{name: "True is just an identifier", input: "True", want: IDENT},
		{name: "FALSE is just an identifier", input: "FALSE", want: IDENT},
		{name: "andover is an identifier", input: "andover", want: IDENT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewLexer(tt.input).NextToken()
			if tok.Type != tt.want {
				t.Errorf("NextToken().Type = %s, want %s", tok.Type, tt.want)
			}
		})
	}
}

func TestIllegalCharacters(t *testing.T) {
	tests := []struct {
		input   string
		literal string
	}{
		{input: "a @ b", literal: "@"},
		{input: "a & b", literal: "&"},
		{input: "a | b", literal: "|"},
		{input: "a = b", literal: "="},
		{input: "a # b", literal: "#"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := NewLexer(tt.input)
			l.NextToken() // a
			tok := l.NextToken()
			if tok.Type != ILLEGAL {
				t.Fatalf("token type = %s, want ILLEGAL", tok.Type)
			}
			if tok.Literal != tt.literal {
				t.Errorf("literal = %q, want %q", tok.Literal, tt.literal)
			}
		})
	}
}

func TestTokenPositions(t *testing.T) {
	l := NewLexer("risk >= 4")

	risk := l.NextToken()
	if risk.Position != 0 || risk.Column != 1 {
		t.Errorf("risk position=%d column=%d, want 0 and 1", risk.Position, risk.Column)
	}

	gte := l.NextToken()
	if gte.Position != 5 {
		t.Errorf(">= position=%d, want 5", gte.Position)
	}

	four := l.NextToken()
	if four.Position != 8 {
		t.Errorf("4 position=%d, want 8", four.Position)
	}
}

func TestNumberTokens(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{input: "42", typ: INT},
		{input: "3.25", typ: FLOAT},
		{input: "0", typ: INT},
	}

	for _, tt := range tests {
		tok := NewLexer(tt.input).NextToken()
		if tok.Type != tt.typ || tok.Literal != tt.input {
			t.Errorf("NextToken(%q) = (%s, %q), want (%s, %q)",
				tt.input, tok.Type, tok.Literal, tt.typ, tt.input)
		}
	}
}

func TestTrailingDotIsNotAFloat(t *testing.T) {
	l := NewLexer("4.x")
	tok := l.NextToken()
	if tok.Type != INT || tok.Literal != "4" {
		t.Fatalf("first token = (%s, %q), want (INT, \"4\")", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != ILLEGAL || tok.Literal != "." {
		t.Fatalf("second token = (%s, %q), want (ILLEGAL, \".\")", tok.Type, tok.Literal)
	}
}
