package parser

import "bytes"

type Node interface {
	TokenLiteral() string
	String() string
}

type Expression interface {
	Node
	expressionNode()
}

type Identifier struct {
	Token Token // the IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

type BooleanLiteral struct {
	Token Token // the true or false token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) String() string       { return bl.Token.Literal }

type NumberLiteral struct {
	Token Token // the INT or FLOAT token
	Value float64
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string       { return nl.Token.Literal }

// ComparisonExpression is 'IDENT op operand' where the operand is a number
// literal or another identifier. The left side is always an identifier.
type ComparisonExpression struct {
	Token    Token // the comparator token
	Left     *Identifier
	Operator string
	Right    Expression
}

func (ce *ComparisonExpression) expressionNode()      {}
func (ce *ComparisonExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *ComparisonExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(ce.Left.String())
	out.WriteString(" " + ce.Operator + " ")
	out.WriteString(ce.Right.String())
	out.WriteString(")")
	return out.String()
}

// LogicalExpression is a binary AND/OR. Operator is canonicalized to
// "AND" or "OR" regardless of which alias was written.
type LogicalExpression struct {
	Token    Token // the AND or OR token
	Left     Expression
	Operator string
	Right    Expression
}

func (le *LogicalExpression) expressionNode()      {}
func (le *LogicalExpression) TokenLiteral() string { return le.Token.Literal }
func (le *LogicalExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(le.Left.String())
	out.WriteString(" " + le.Operator + " ")
	out.WriteString(le.Right.String())
	out.WriteString(")")
	return out.String()
}

type NotExpression struct {
	Token   Token // the NOT or ! token
	Operand Expression
}

func (ne *NotExpression) expressionNode()      {}
func (ne *NotExpression) TokenLiteral() string { return ne.Token.Literal }
func (ne *NotExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(NOT ")
	out.WriteString(ne.Operand.String())
	out.WriteString(")")
	return out.String()
}
