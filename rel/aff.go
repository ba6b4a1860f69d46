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
	"strings"
)

// Aff is an integer affine expression over the parameters and input
// dimensions of some space,
//
//	ceil((Cst + sum Param[i]*p_i + sum In[j]*x_j) / Den)
//
// with Den >= 1.  When Den == 1 the ceiling is the identity and the
// expression is exact as written.  Aff is used for tile offsets,
// stride shifts and array extent bounds.
type Aff struct {
	Space Space
	Den   int64
	Cst   int64
	Param []int64
	In    []int64
}

// IsZero reports whether the expression is identically zero.
func (a Aff) IsZero() bool {
	if a.Cst != 0 {
		return false
	}
	for _, c := range a.Param {
		if c != 0 {
			return false
		}
	}
	for _, c := range a.In {
		if c != 0 {
			return false
		}
	}
	return true
}

// InvolvesIn reports whether input dimension j has a nonzero coefficient.
func (a Aff) InvolvesIn(j int) bool {
	return j >= 0 && j < len(a.In) && a.In[j] != 0
}

// Neg returns the negated expression.  Negating an expression with
// Den > 1 distributes over the ceiling only when the numerator is a
// multiple of Den, so Neg is restricted to Den == 1.
func (a Aff) Neg() (Aff, error) {
	if a.Den != 1 {
		return Aff{}, fmt.Errorf("rel: cannot negate ceil expression with denominator %d", a.Den)
	}
	n := a.clone()
	n.Cst = -n.Cst
	for i := range n.Param {
		n.Param[i] = -n.Param[i]
	}
	for i := range n.In {
		n.In[i] = -n.In[i]
	}
	return n, nil
}

func (a Aff) clone() Aff {
	return Aff{
		Space: a.Space,
		Den:   a.Den,
		Cst:   a.Cst,
		Param: append([]int64(nil), a.Param...),
		In:    append([]int64(nil), a.In...),
	}
}

// normalize divides through by the gcd of all coefficients and Den.
func (a Aff) normalize() Aff {
	g := absGCD(a.Den, a.Cst)
	for _, c := range a.Param {
		g = absGCD(g, c)
	}
	for _, c := range a.In {
		g = absGCD(g, c)
	}
	if g <= 1 {
		return a
	}
	n := a.clone()
	n.Den /= g
	n.Cst /= g
	for i := range n.Param {
		n.Param[i] /= g
	}
	for i := range n.In {
		n.In[i] /= g
	}
	return n
}

// String renders the expression with parameter and (when the space has
// an input tuple) input dimension names.
func (a Aff) String() string {
	var terms []string
	appendTerm := func(c int64, name string) {
		switch {
		case c == 0:
		case c == 1:
			terms = append(terms, name)
		case c == -1:
			terms = append(terms, "-"+name)
		default:
			terms = append(terms, fmt.Sprintf("%d%s", c, name))
		}
	}
	for i, c := range a.Param {
		appendTerm(c, a.Space.Params[i])
	}
	for j, c := range a.In {
		appendTerm(c, fmt.Sprintf("%s%d", dimPrefix(a.Space.In.Name), j))
	}
	if a.Cst != 0 || len(terms) == 0 {
		terms = append(terms, fmt.Sprintf("%d", a.Cst))
	}
	body := strings.Join(terms, " + ")
	body = strings.ReplaceAll(body, "+ -", "- ")
	if a.Den != 1 {
		return fmt.Sprintf("ceil((%s)/%d)", body, a.Den)
	}
	return body
}

func dimPrefix(tuple string) string {
	if tuple == "" {
		return "i"
	}
	return strings.ToLower(tuple[:1])
}
