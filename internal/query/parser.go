// Package query implements the course filter language used by -select,
// prune.select and the API's ?where= parameter:
//
//	level >= 2 AND code matches "^MAT" AND NOT prerequisites contains "MAT1100"
//
// Fields are code, name, url (strings), level, credits (numbers) and
// prerequisites, dependents (code lists; compared by length, searched with
// contains). Expressions are type-checked when parsed, so Match never fails.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Operator is a comparison operator.
type Operator string

const (
	OpEq       Operator = "=="
	OpNeq      Operator = "!="
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpContains Operator = "contains"
	OpMatches  Operator = "matches"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindList
)

var fieldKinds = map[string]fieldKind{
	"code":          kindString,
	"name":          kindString,
	"url":           kindString,
	"level":         kindNumber,
	"credits":       kindNumber,
	"prerequisites": kindList,
	"dependents":    kindList,
}

// node is one AST node.
type node interface {
	eval(c record) bool
}

type andNode struct{ left, right node }
type orNode struct{ left, right node }
type notNode struct{ inner node }

// cmpNode compares a field against a literal. Exactly one of str/num is
// meaningful, depending on the literal; re is set for matches.
type cmpNode struct {
	field string
	kind  fieldKind
	op    Operator
	str   string
	num   float64
	re    *regexp.Regexp
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) keyword(kw string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.val, kw)
}

func parse(src string) (node, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("query: unexpected %q at position %d", t.val, t.pos)
	}
	return n, nil
}

// or = and ( "OR" and )*
func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orNode{left, right}
	}
	return left, nil
}

// and = unary ( "AND" unary )*
func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &andNode{left, right}
	}
	return left, nil
}

// unary = "NOT" unary | "(" or ")" | comparison
func (p *parser) parseUnary() (node, error) {
	if p.keyword("NOT") {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notNode{inner}, nil
	}
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, fmt.Errorf("query: expected \")\" at position %d, got %q", t.pos, t.val)
		}
		return inner, nil
	}
	return p.parseComparison()
}

// comparison = field operator literal
func (p *parser) parseComparison() (node, error) {
	ft := p.next()
	if ft.kind != tokWord {
		return nil, fmt.Errorf("query: expected field at position %d, got %q", ft.pos, ft.val)
	}
	field := strings.ToLower(ft.val)
	kind, ok := fieldKinds[field]
	if !ok {
		return nil, fmt.Errorf("query: unknown field %q at position %d", ft.val, ft.pos)
	}

	ot := p.next()
	var op Operator
	switch {
	case ot.kind == tokOp:
		op = Operator(ot.val)
	case ot.kind == tokWord && strings.EqualFold(ot.val, "contains"):
		op = OpContains
	case ot.kind == tokWord && strings.EqualFold(ot.val, "matches"):
		op = OpMatches
	default:
		return nil, fmt.Errorf("query: expected operator after %s at position %d, got %q", field, ot.pos, ot.val)
	}

	lt := p.next()
	n := &cmpNode{field: field, kind: kind, op: op}
	switch lt.kind {
	case tokString:
		n.str = lt.val
	case tokNumber:
		f, err := strconv.ParseFloat(lt.val, 64)
		if err != nil {
			return nil, fmt.Errorf("query: invalid number %q at position %d", lt.val, lt.pos)
		}
		n.num = f
	default:
		return nil, fmt.Errorf("query: expected literal at position %d, got %q", lt.pos, lt.val)
	}
	if err := n.check(lt.kind); err != nil {
		return nil, err
	}
	return n, nil
}

// check rejects operator and literal combinations a field cannot satisfy.
func (n *cmpNode) check(lit tokenKind) error {
	bad := func() error {
		return fmt.Errorf("query: %s %s requires a different operand", n.field, n.op)
	}
	switch n.op {
	case OpEq, OpNeq:
		if (n.kind == kindString) != (lit == tokString) {
			return bad()
		}
	case OpGt, OpGte, OpLt, OpLte:
		if n.kind == kindString || lit != tokNumber {
			return bad()
		}
	case OpContains:
		if n.kind == kindNumber || lit != tokString {
			return bad()
		}
	case OpMatches:
		if n.kind != kindString || lit != tokString {
			return bad()
		}
		re, err := regexp.Compile(n.str)
		if err != nil {
			return fmt.Errorf("query: invalid pattern %q: %w", n.str, err)
		}
		n.re = re
	default:
		return fmt.Errorf("query: unknown operator %q", n.op)
	}
	return nil
}
