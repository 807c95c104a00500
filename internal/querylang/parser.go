package querylang

import (
	"fmt"
	"strings"
)

// Parse parses text against the allow-list grammar:
//
//	SELECT * FROM <container> [[AS] <alias>] [WHERE <expr>] [;]
//
// Anything outside the grammar is an error.
func Parse(text string) (Query, error) {
	toks, err := lex(text)
	if err != nil {
		return Query{}, err
	}
	return parseTokens(text, toks)
}

func parseTokens(text string, toks []token) (Query, error) {
	p := &parser{toks: toks}
	return p.parseQuery(text)
}

type parser struct {
	toks  []token
	pos   int
	alias string
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expectKeyword(kw string) error {
	if t := p.next(); !t.is(kw) {
		return fmt.Errorf("expected %s, got %s", kw, t)
	}
	return nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("expected %s, got %s", what, t)
	}
	return t, nil
}

var reservedWords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true, "NOT": true,
	"IN": true, "AS": true, "TOP": true, "DISTINCT": true, "VALUE": true, "JOIN": true,
	"ORDER": true, "GROUP": true, "BY": true, "OFFSET": true, "LIMIT": true,
	"TRUE": true, "FALSE": true, "NULL": true, "UNDEFINED": true, "BETWEEN": true, "LIKE": true,
}

func isReserved(t token) bool {
	return t.kind == tokIdent && reservedWords[strings.ToUpper(t.text)]
}

func (p *parser) parseQuery(text string) (Query, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return Query{}, err
	}
	if t := p.peek(); t.kind != tokStar {
		return Query{}, fmt.Errorf("unsupported projection %s", t)
	}
	p.next()

	if err := p.expectKeyword("FROM"); err != nil {
		return Query{}, err
	}
	container := p.next()
	if container.kind != tokIdent || isReserved(container) {
		return Query{}, fmt.Errorf("expected collection name, got %s", container)
	}
	p.alias = container.text

	if p.peek().is("AS") {
		p.next()
		alias := p.next()
		if alias.kind != tokIdent || isReserved(alias) {
			return Query{}, fmt.Errorf("expected alias, got %s", alias)
		}
		p.alias = alias.text
	} else if t := p.peek(); t.kind == tokIdent && !isReserved(t) {
		p.next()
		p.alias = t.text
	}

	q := Query{Text: strings.TrimSpace(text), Alias: p.alias}
	if p.peek().is("WHERE") {
		p.next()
		where, err := p.parseOr()
		if err != nil {
			return Query{}, err
		}
		q.Where = where
	}

	if p.peek().kind == tokSemicolon {
		p.next()
	}
	if t := p.peek(); t.kind != tokEOF {
		return Query{}, fmt.Errorf("unexpected %s", t)
	}

	q.PassThrough = q.Where == nil
	return q, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().is("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().is("AND") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().is("NOT") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	}
	if p.peek().kind == tokLParen {
		p.next()
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return x, nil
	}
	return p.parsePredicate()
}

func (p *parser) parsePredicate() (Expr, error) {
	if t := p.peek(); t.kind == tokIdent && p.peekAt(1).kind == tokLParen {
		switch Func(strings.ToUpper(t.text)) {
		case FuncContains, FuncStartsWith, FuncEndsWith:
			return p.parseCall()
		}
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	switch {
	case t.is("NOT") && p.peekAt(1).is("IN"):
		p.next()
		in, err := p.parseIn(left)
		if err != nil {
			return nil, err
		}
		return &Not{X: in}, nil
	case t.is("IN"):
		return p.parseIn(left)
	case t.kind == tokOp:
		p.next()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &Compare{Op: CompareOp(t.text), Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("expected comparison, got %s", t)
	}
}

func (p *parser) parseIn(left Operand) (Expr, error) {
	p.next() // IN
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	in := &In{Left: left}
	for {
		lit, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if !lit.IsLiteral() {
			return nil, fmt.Errorf("IN list accepts literals only")
		}
		in.List = append(in.List, lit)

		t := p.next()
		if t.kind == tokRParen {
			return in, nil
		}
		if t.kind != tokComma {
			return nil, fmt.Errorf("expected ',' or ')', got %s", t)
		}
	}
}

func (p *parser) parseCall() (Expr, error) {
	name := p.next()
	p.next() // (
	call := &Call{Func: Func(strings.ToUpper(name.text))}

	subject, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma, "','"); err != nil {
		return nil, err
	}
	arg, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	call.Subject, call.Arg = subject, arg

	if p.peek().kind == tokComma {
		p.next()
		flag, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		b, ok := flag.Value.(bool)
		if !flag.IsLiteral() || !ok {
			return nil, fmt.Errorf("%s ignore-case argument must be a boolean literal", call.Func)
		}
		call.IgnoreCase = b
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) parseOperand() (Operand, error) {
	t := p.peek()
	switch t.kind {
	case tokString:
		p.next()
		return LiteralOperand(t.text), nil
	case tokNumber:
		p.next()
		return LiteralOperand(t.num), nil
	case tokMinus:
		p.next()
		n, err := p.expect(tokNumber, "number")
		if err != nil {
			return Operand{}, err
		}
		return LiteralOperand(-n.num), nil
	case tokIdent:
		switch {
		case t.is("true"):
			p.next()
			return LiteralOperand(true), nil
		case t.is("false"):
			p.next()
			return LiteralOperand(false), nil
		case (t.is("LOWER") || t.is("UPPER")) && p.peekAt(1).kind == tokLParen:
			p.next()
			p.next()
			ref, err := p.parseFieldRef()
			if err != nil {
				return Operand{}, err
			}
			if _, err := p.expect(tokRParen, "')'"); err != nil {
				return Operand{}, err
			}
			ref.Transform = Transform(strings.ToUpper(t.text))
			return ref, nil
		case t.text == p.alias:
			return p.parseFieldRef()
		case p.peekAt(1).kind == tokLParen:
			return Operand{}, fmt.Errorf("unsupported function %s", t)
		}
	}
	return Operand{}, fmt.Errorf("unexpected %s", t)
}

func (p *parser) parseFieldRef() (Operand, error) {
	root := p.next()
	if root.kind != tokIdent || root.text != p.alias {
		return Operand{}, fmt.Errorf("field reference must use alias %q, got %s", p.alias, root)
	}

	var name string
	switch t := p.next(); t.kind {
	case tokDot:
		id, err := p.expect(tokIdent, "property name")
		if err != nil {
			return Operand{}, err
		}
		name = id.text
	case tokLBracket:
		s, err := p.expect(tokString, "quoted property name")
		if err != nil {
			return Operand{}, err
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return Operand{}, err
		}
		name = s.text
	default:
		return Operand{}, fmt.Errorf("expected property access after %q, got %s", p.alias, t)
	}

	if k := p.peek().kind; k == tokDot || k == tokLBracket {
		return Operand{}, fmt.Errorf("nested property paths are not supported")
	}
	if name == "" {
		return Operand{}, fmt.Errorf("empty property name")
	}
	return FieldOperand(name), nil
}
