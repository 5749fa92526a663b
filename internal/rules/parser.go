package rules

import "fmt"

type parser struct {
	toks  []token
	pos   int
	names map[string]struct{}
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parse() (node, error) {
	if p.peek().kind == tokEOF {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return n, nil
}

// isWord reports whether t is the keyword or operator spelled one of alts.
func isWord(t token, alts ...string) bool {
	if t.kind != tokIdent && t.kind != tokOp {
		return false
	}
	for _, a := range alts {
		if t.text == a {
			return true
		}
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for isWord(p.peek(), "or", "||") {
		p.next()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = logicNode{and: false, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseAnd() (node, error) {
	l, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for isWord(p.peek(), "and", "&&") {
		p.next()
		r, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		l = logicNode{and: true, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseNot() (node, error) {
	if isWord(p.peek(), "not", "!") {
		p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: "!", x: x}, nil
	}
	return p.parseCompare()
}

var compareOps = []string{"==", "!=", "<", "<=", ">", ">="}

func (p *parser) parseCompare() (node, error) {
	first, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if !isWord(p.peek(), compareOps...) {
		return first, nil
	}
	c := compareNode{operands: []node{first}}
	for isWord(p.peek(), compareOps...) {
		c.ops = append(c.ops, p.next().text)
		r, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		c.operands = append(c.operands, r)
	}
	return c, nil
}

func (p *parser) parseAdd() (node, error) {
	l, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for isWord(p.peek(), "+", "-") {
		op := p.next()
		r, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		l = binaryNode{op: op.text, pos: op.pos, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseMul() (node, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for isWord(p.peek(), "*", "/", "%") {
		op := p.next()
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = binaryNode{op: op.text, pos: op.pos, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseUnary() (node, error) {
	if isWord(p.peek(), "-", "+") {
		op := p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op.text, x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode{v: t.num}, nil
	case tokLParen:
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, &SyntaxError{Pos: c.pos, Msg: "expected )"}
		}
		return n, nil
	case tokIdent:
		switch t.text {
		case "true", "True":
			return boolNode{v: true}, nil
		case "false", "False":
			return boolNode{v: false}, nil
		case "and", "or", "not":
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
		}
		if p.peek().kind == tokLParen {
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("call of %q is not allowed", t.text)}
		}
		p.names[t.text] = struct{}{}
		return identNode{name: t.text, pos: t.pos}, nil
	case tokEOF:
		return nil, &SyntaxError{Pos: t.pos, Msg: "unexpected end of expression"}
	}
	return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
}
