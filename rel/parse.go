// Copyright 2026 go-polyhedra Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rel

import (
	"fmt"
	"strconv"
	"unicode"
)

// ParseMap parses a relation in the form
//
//	[N, M] -> { S[i, j] -> A[2i + 1, j] : 0 <= i < N and 0 <= j < M }
//
// The parameter block is optional.  Input tuple entries must be fresh
// identifiers; output tuple entries are either fresh identifiers or
// affine expressions over the inputs and parameters.  Conditions are
// chains of affine comparisons joined by "and".
func ParseMap(src string) (Map, error) {
	p := newParser(src)
	m, err := p.relation(true)
	if err != nil {
		return Map{}, fmt.Errorf("rel: parse %q: %w", src, err)
	}
	return m, nil
}

// ParseSet parses a set in the form
//
//	[N] -> { A[a, b] : 0 <= a < N }
func ParseSet(src string) (Set, error) {
	p := newParser(src)
	m, err := p.relation(false)
	if err != nil {
		return Set{}, fmt.Errorf("rel: parse %q: %w", src, err)
	}
	return m, nil
}

type token struct {
	kind string // "id", "int", or the symbol itself
	text string
	pos  int
}

type parser struct {
	toks []token
	i    int

	params  []string
	inVars  []string
	outVars []string
	// anonymous output expressions, by output index
	outExpr map[int]linexpr
}

type linexpr struct {
	cst   int64
	terms map[string]int64 // by variable or parameter name
}

func newParser(src string) *parser {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || unicode.IsDigit(rune(src[j])) || src[j] == '_') {
				j++
			}
			toks = append(toks, token{"id", src[i:j], i})
			i = j
		case unicode.IsDigit(c):
			j := i
			for j < len(src) && unicode.IsDigit(rune(src[j])) {
				j++
			}
			toks = append(toks, token{"int", src[i:j], i})
			i = j
		default:
			two := ""
			if i+1 < len(src) {
				two = src[i : i+2]
			}
			switch two {
			case "->", "<=", ">=", "==":
				toks = append(toks, token{two, two, i})
				i += 2
			default:
				toks = append(toks, token{string(c), string(c), i})
				i++
			}
		}
	}
	return &parser{toks: toks, outExpr: map[int]linexpr{}}
}

func (p *parser) peek() token {
	if p.i < len(p.toks) {
		return p.toks[p.i]
	}
	return token{kind: "eof", pos: -1}
}

func (p *parser) next() token {
	t := p.peek()
	p.i++
	return t
}

func (p *parser) expect(kind string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("expected %q at offset %d, found %q", kind, t.pos, t.text)
	}
	return t, nil
}

func (p *parser) relation(isMap bool) (Map, error) {
	if p.peek().kind == "[" {
		if err := p.paramBlock(); err != nil {
			return Map{}, err
		}
		if _, err := p.expect("->"); err != nil {
			return Map{}, err
		}
	}
	if _, err := p.expect("{"); err != nil {
		return Map{}, err
	}
	if k := p.peek().kind; !isMap && (k == ":" || k == "}") {
		// Parameter-only set, e.g. [N] -> { : N >= 0 }.
		return p.finishRelation(UniverseBasicMap(SetSpace(p.params, "", 0)))
	}
	inName, err := p.tuple(&p.inVars, true)
	if err != nil {
		return Map{}, err
	}
	outName := inName
	if p.peek().kind == "->" {
		p.next()
		outName, err = p.tuple(&p.outVars, false)
		if err != nil {
			return Map{}, err
		}
	} else {
		// A set: the single tuple is the output tuple.
		p.outVars, p.inVars = p.inVars, nil
		if isMap {
			return Map{}, fmt.Errorf("expected \"->\" in map at offset %d", p.peek().pos)
		}
	}

	space := MapSpace(p.params, inName, len(p.inVars), outName, len(p.outVars))
	if len(p.inVars) == 0 {
		space.In = Tuple{}
		if !isMap {
			space.In.Name = ""
		}
	}
	bm := UniverseBasicMap(space)

	// Anonymous output expressions become defining equalities.
	for idx, e := range p.outExpr {
		v, err := p.constraintView(e, idx)
		if err != nil {
			return Map{}, err
		}
		bm, err = bm.AddConstraint(v)
		if err != nil {
			return Map{}, err
		}
	}

	return p.finishRelation(bm)
}

// finishRelation parses the optional condition block and the closing
// brace, adding each comparison to bm.
func (p *parser) finishRelation(bm BasicMap) (Map, error) {
	if p.peek().kind == ":" {
		p.next()
		// An empty condition block leaves the relation unconstrained;
		// isl prints the universe parameter set as "{ : }".
		for p.peek().kind != "}" {
			views, err := p.chain()
			if err != nil {
				return Map{}, err
			}
			for _, v := range views {
				bm, err = bm.AddConstraint(v)
				if err != nil {
					return Map{}, err
				}
			}
			if t := p.peek(); t.kind == "id" && t.text == "and" {
				p.next()
				continue
			}
			break
		}
	}
	if _, err := p.expect("}"); err != nil {
		return Map{}, err
	}
	return FromBasicMap(bm), nil
}

func (p *parser) paramBlock() error {
	if _, err := p.expect("["); err != nil {
		return err
	}
	for {
		t, err := p.expect("id")
		if err != nil {
			return err
		}
		p.params = append(p.params, t.text)
		if p.peek().kind != "," {
			break
		}
		p.next()
	}
	_, err := p.expect("]")
	return err
}

// tuple parses name[entries].  For the input tuple each entry must be
// a fresh identifier; for the output tuple an entry may instead be an
// affine expression, recorded in p.outExpr.
func (p *parser) tuple(vars *[]string, input bool) (string, error) {
	name, err := p.expect("id")
	if err != nil {
		return "", err
	}
	if _, err := p.expect("["); err != nil {
		return "", err
	}
	if p.peek().kind == "]" {
		p.next()
		return name.text, nil
	}
	for {
		t := p.peek()
		if t.kind == "id" && !p.bound(t.text) {
			la := p.toks[min(p.i+1, len(p.toks)-1)]
			if la.kind == "," || la.kind == "]" {
				*vars = append(*vars, t.text)
				p.next()
				goto sep
			}
		}
		if input {
			return "", fmt.Errorf("input tuple entry at offset %d must be a fresh identifier", t.pos)
		}
		{
			e, err := p.expr()
			if err != nil {
				return "", err
			}
			*vars = append(*vars, fmt.Sprintf("#out%d", len(*vars)))
			p.outExpr[len(*vars)-1] = e
		}
	sep:
		if p.peek().kind != "," {
			break
		}
		p.next()
	}
	if _, err := p.expect("]"); err != nil {
		return "", err
	}
	return name.text, nil
}

func (p *parser) bound(name string) bool {
	for _, v := range p.inVars {
		if v == name {
			return true
		}
	}
	for _, v := range p.outVars {
		if v == name {
			return true
		}
	}
	for _, v := range p.params {
		if v == name {
			return true
		}
	}
	return false
}

// chain parses e0 op e1 op e2 ... into one constraint per adjacent pair.
func (p *parser) chain() ([]ConstraintView, error) {
	left, err := p.expr()
	if err != nil {
		return nil, err
	}
	var views []ConstraintView
	for {
		op := p.peek()
		switch op.kind {
		case "<=", "<", ">=", ">", "=", "==":
		default:
			if len(views) == 0 {
				return nil, fmt.Errorf("expected comparison at offset %d", op.pos)
			}
			return views, nil
		}
		p.next()
		right, err := p.expr()
		if err != nil {
			return nil, err
		}
		v, err := p.compare(left, op.kind, right)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
		left = right
	}
}

func (p *parser) compare(l linexpr, op string, r linexpr) (ConstraintView, error) {
	d := subExpr(r, l) // r - l
	switch op {
	case "<=":
		return p.exprView(d, false, 0)
	case "<":
		return p.exprView(d, false, -1)
	case ">=":
		return p.exprView(subExpr(l, r), false, 0)
	case ">":
		return p.exprView(subExpr(l, r), false, -1)
	case "=", "==":
		return p.exprView(d, true, 0)
	}
	return ConstraintView{}, fmt.Errorf("bad comparison %q", op)
}

// exprView lowers a linear expression plus a constant adjustment into
// a constraint view (expr + adj >= 0 or = 0).
func (p *parser) exprView(e linexpr, eq bool, adj int64) (ConstraintView, error) {
	v := ConstraintView{
		Eq:    eq,
		Cst:   e.cst + adj,
		Param: make([]int64, len(p.params)),
		In:    make([]int64, len(p.inVars)),
		Out:   make([]int64, len(p.outVars)),
		Div:   nil,
	}
	for name, c := range e.terms {
		switch {
		case indexOf(p.inVars, name) >= 0:
			v.In[indexOf(p.inVars, name)] += c
		case indexOf(p.outVars, name) >= 0:
			v.Out[indexOf(p.outVars, name)] += c
		case indexOf(p.params, name) >= 0:
			v.Param[indexOf(p.params, name)] += c
		default:
			return ConstraintView{}, fmt.Errorf("unknown identifier %q", name)
		}
	}
	return v, nil
}

// constraintView lowers "out[idx] = e" for an anonymous output.
func (p *parser) constraintView(e linexpr, idx int) (ConstraintView, error) {
	v, err := p.exprView(e, true, 0)
	if err != nil {
		return ConstraintView{}, err
	}
	v.Out[idx]--
	return v, nil
}

func (p *parser) expr() (linexpr, error) {
	e, err := p.term()
	if err != nil {
		return linexpr{}, err
	}
	for {
		op := p.peek()
		if op.kind != "+" && op.kind != "-" {
			return e, nil
		}
		p.next()
		t, err := p.term()
		if err != nil {
			return linexpr{}, err
		}
		if op.kind == "-" {
			t = subExpr(linexpr{terms: map[string]int64{}}, t)
		}
		e = addExpr(e, t)
	}
}

func (p *parser) term() (linexpr, error) {
	t := p.next()
	switch t.kind {
	case "-":
		e, err := p.term()
		if err != nil {
			return linexpr{}, err
		}
		return subExpr(linexpr{terms: map[string]int64{}}, e), nil
	case "int":
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return linexpr{}, err
		}
		// Optional "* id" or juxtaposed identifier: 2i, 2*i.
		if nt := p.peek(); nt.kind == "*" {
			p.next()
			id, err := p.expect("id")
			if err != nil {
				return linexpr{}, err
			}
			return linexpr{terms: map[string]int64{id.text: n}}, nil
		} else if nt.kind == "id" && nt.text != "and" {
			p.next()
			return linexpr{terms: map[string]int64{nt.text: n}}, nil
		}
		return linexpr{cst: n, terms: map[string]int64{}}, nil
	case "id":
		return linexpr{terms: map[string]int64{t.text: 1}}, nil
	case "(":
		e, err := p.expr()
		if err != nil {
			return linexpr{}, err
		}
		if _, err := p.expect(")"); err != nil {
			return linexpr{}, err
		}
		return e, nil
	}
	return linexpr{}, fmt.Errorf("unexpected token %q at offset %d", t.text, t.pos)
}

func addExpr(a, b linexpr) linexpr {
	out := linexpr{cst: a.cst + b.cst, terms: map[string]int64{}}
	for k, v := range a.terms {
		out.terms[k] += v
	}
	for k, v := range b.terms {
		out.terms[k] += v
	}
	return out
}

func subExpr(a, b linexpr) linexpr {
	out := linexpr{cst: a.cst - b.cst, terms: map[string]int64{}}
	for k, v := range a.terms {
		out.terms[k] += v
	}
	for k, v := range b.terms {
		out.terms[k] -= v
	}
	return out
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}

// MustParseMap is ParseMap that panics on error; for tests and
// compile-time-constant relations.
func MustParseMap(src string) Map {
	m, err := ParseMap(src)
	if err != nil {
		panic(err)
	}
	return m
}

// MustParseSet is ParseSet that panics on error.
func MustParseSet(src string) Set {
	s, err := ParseSet(src)
	if err != nil {
		panic(err)
	}
	return s
}
