package parser

import (
	"fmt"
	"strconv"
)

// DefaultMaxDepth bounds parenthesis nesting. The grammar only recurses
// through parentheses, so this also bounds parser stack depth.
const DefaultMaxDepth = 32

// ParseError is a compile-time failure in a rule condition. Evaluation
// never produces errors; everything that can go wrong goes wrong here.
type ParseError struct {
	Expression string
	Position   int
	Message    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %q at position %d: %s", e.Expression, e.Position, e.Message)
}

// The condition grammar, lowest to highest binding:
//
//	expr       := term ( (AND | OR) term )*
//	term       := NOT? factor
//	factor     := '(' expr ')' | true | false | comparison | IDENT
//	comparison := IDENT COMPARATOR (NUMBER | IDENT)
//	COMPARATOR := '>=' | '<=' | '==' | '!=' | '>' | '<'
//
// AND and OR share one precedence level and fold strictly left to right:
// 'a AND b OR c' is '(a AND b) OR c' because of the fold, not because OR
// binds looser. Rules written against that behavior depend on it, so it
// is part of the language, not a bug.
type Parser struct {
	l *Lexer

	curToken  Token
	peekToken Token

	expression string
	depth      int
	maxDepth   int
}

// Parse compiles a condition into an immutable expression tree.
func Parse(input string) (Expression, error) {
	return ParseWithDepth(input, DefaultMaxDepth)
}

// ParseWithDepth is Parse with an explicit parenthesis nesting limit.
func ParseWithDepth(input string, maxDepth int) (Expression, error) {
	p := &Parser{
		l:          NewLexer(input),
		expression: input,
		maxDepth:   maxDepth,
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if !p.curTokenIs(EOF) {
		if p.curTokenIs(ILLEGAL) {
			return nil, p.errorf("unexpected character %q", p.curToken.Literal)
		}
		return nil, p.errorf("unexpected token %s after expression", tokenDesc(p.curToken))
	}

	return expr, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) parseExpression() (Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for p.curTokenIs(AND) || p.curTokenIs(OR) {
		opToken := p.curToken
		operator := "AND"
		if opToken.Type == OR {
			operator = "OR"
		}
		p.nextToken()

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}

		left = &LogicalExpression{
			Token:    opToken,
			Left:     left,
			Operator: operator,
			Right:    right,
		}
	}

	return left, nil
}

func (p *Parser) parseTerm() (Expression, error) {
	if p.curTokenIs(NOT) {
		tok := p.curToken
		p.nextToken()

		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &NotExpression{Token: tok, Operand: operand}, nil
	}

	return p.parseFactor()
}

func (p *Parser) parseFactor() (Expression, error) {
	switch p.curToken.Type {
	case LPAREN:
		p.depth++
		if p.depth > p.maxDepth {
			return nil, p.errorf("expression nesting exceeds depth limit %d", p.maxDepth)
		}
		p.nextToken()

		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		if !p.curTokenIs(RPAREN) {
			return nil, p.errorf("expected ')', got %s", tokenDesc(p.curToken))
		}
		p.depth--
		p.nextToken()
		return expr, nil

	case TRUE, FALSE:
		lit := &BooleanLiteral{Token: p.curToken, Value: p.curToken.Type == TRUE}
		p.nextToken()
		return lit, nil

	case IDENT:
		ident := &Identifier{Token: p.curToken, Value: p.curToken.Literal}
		p.nextToken()
		if isComparator(p.curToken.Type) {
			return p.parseComparison(ident)
		}
		return ident, nil

	case ILLEGAL:
		return nil, p.errorf("unexpected character %q", p.curToken.Literal)

	case EOF:
		return nil, p.errorf("unexpected end of expression")

	default:
		return nil, p.errorf("unexpected token %s", tokenDesc(p.curToken))
	}
}

func (p *Parser) parseComparison(left *Identifier) (Expression, error) {
	opToken := p.curToken
	p.nextToken()

	var right Expression
	switch p.curToken.Type {
	case INT, FLOAT:
		value, err := strconv.ParseFloat(p.curToken.Literal, 64)
		if err != nil {
			return nil, p.errorf("could not parse %q as number", p.curToken.Literal)
		}
		right = &NumberLiteral{Token: p.curToken, Value: value}

	case IDENT:
		right = &Identifier{Token: p.curToken, Value: p.curToken.Literal}

	default:
		return nil, p.errorf("expected number or identifier after %q, got %s", opToken.Literal, tokenDesc(p.curToken))
	}
	p.nextToken()

	return &ComparisonExpression{
		Token:    opToken,
		Left:     left,
		Operator: opToken.Literal,
		Right:    right,
	}, nil
}

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) errorf(format string, a ...any) *ParseError {
	return &ParseError{
		Expression: p.expression,
		Position:   p.curToken.Position,
		Message:    fmt.Sprintf(format, a...),
	}
}

func isComparator(t TokenType) bool {
	return t == EQ || t == NOT_EQ || t == LT || t == GT || t == LTE || t == GTE
}

func tokenDesc(t Token) string {
	if t.Type == EOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q", t.Literal)
}
