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
	"slices"
)

// Constraint is a single affine constraint over the columns of its
// owning BasicMap:
//
//	Coef[0] + sum Coef[1+i]*v_i  (= 0 | >= 0)
//
// where the variables v are laid out as params, inputs, outputs, divs.
type Constraint struct {
	Eq   bool
	Coef []int64
}

func (c Constraint) clone() Constraint {
	return Constraint{Eq: c.Eq, Coef: append([]int64(nil), c.Coef...)}
}

// BasicMap is a single conjunction of affine constraints between the
// input and output tuples of a space, possibly involving existentially
// quantified div variables.
type BasicMap struct {
	Space Space
	NDiv  int
	Cons  []Constraint
}

// ConstraintView is a constraint split into its per-block coefficient
// slices, the form in which the engine inspects defining equalities
// and lower bounds.
type ConstraintView struct {
	Eq    bool
	Cst   int64
	Param []int64
	In    []int64
	Out   []int64
	Div   []int64
}

// InvolvesDiv reports whether any div coefficient is nonzero.
func (v ConstraintView) InvolvesDiv() bool {
	for _, c := range v.Div {
		if c != 0 {
			return true
		}
	}
	return false
}

// Negate flips the sign of every coefficient.
func (v ConstraintView) Negate() ConstraintView {
	n := ConstraintView{Eq: v.Eq, Cst: -v.Cst}
	neg := func(xs []int64) []int64 {
		out := make([]int64, len(xs))
		for i, x := range xs {
			out[i] = -x
		}
		return out
	}
	n.Param, n.In, n.Out, n.Div = neg(v.Param), neg(v.In), neg(v.Out), neg(v.Div)
	return n
}

// Column layout helpers.

func (bm BasicMap) nCol() int {
	return 1 + bm.Space.NParam() + bm.Space.In.N + bm.Space.Out.N + bm.NDiv
}

func (bm BasicMap) colParam(i int) int { return 1 + i }
func (bm BasicMap) colIn(i int) int    { return 1 + bm.Space.NParam() + i }
func (bm BasicMap) colOut(i int) int   { return 1 + bm.Space.NParam() + bm.Space.In.N + i }
func (bm BasicMap) colDiv(i int) int {
	return 1 + bm.Space.NParam() + bm.Space.In.N + bm.Space.Out.N + i
}

// UniverseBasicMap returns the unconstrained relation over a space.
func UniverseBasicMap(space Space) BasicMap {
	return BasicMap{Space: space}
}

func (bm BasicMap) clone() BasicMap {
	c := BasicMap{Space: bm.Space, NDiv: bm.NDiv, Cons: make([]Constraint, len(bm.Cons))}
	for i, con := range bm.Cons {
		c.Cons[i] = con.clone()
	}
	return c
}

// Views returns the constraints of bm in per-block form.
func (bm BasicMap) Views() []ConstraintView {
	views := make([]ConstraintView, len(bm.Cons))
	for i, c := range bm.Cons {
		views[i] = bm.view(c)
	}
	return views
}

func (bm BasicMap) view(c Constraint) ConstraintView {
	nP, nI, nO := bm.Space.NParam(), bm.Space.In.N, bm.Space.Out.N
	v := ConstraintView{Eq: c.Eq, Cst: c.Coef[0]}
	v.Param = append([]int64(nil), c.Coef[1:1+nP]...)
	v.In = append([]int64(nil), c.Coef[1+nP:1+nP+nI]...)
	v.Out = append([]int64(nil), c.Coef[1+nP+nI:1+nP+nI+nO]...)
	v.Div = append([]int64(nil), c.Coef[1+nP+nI+nO:]...)
	return v
}

func (bm BasicMap) fromView(v ConstraintView) (Constraint, error) {
	if len(v.Param) != bm.Space.NParam() || len(v.In) != bm.Space.In.N ||
		len(v.Out) != bm.Space.Out.N || len(v.Div) != bm.NDiv {
		return Constraint{}, fmt.Errorf("rel: constraint blocks %d/%d/%d/%d do not match space",
			len(v.Param), len(v.In), len(v.Out), len(v.Div))
	}
	coef := make([]int64, 0, bm.nCol())
	coef = append(coef, v.Cst)
	coef = append(coef, v.Param...)
	coef = append(coef, v.In...)
	coef = append(coef, v.Out...)
	coef = append(coef, v.Div...)
	return Constraint{Eq: v.Eq, Coef: coef}, nil
}

// AddConstraint returns bm with the constraint appended.  Nil blocks in
// the view stand for all-zero coefficient blocks.
func (bm BasicMap) AddConstraint(v ConstraintView) (BasicMap, error) {
	if v.Param == nil {
		v.Param = make([]int64, bm.Space.NParam())
	}
	if v.In == nil {
		v.In = make([]int64, bm.Space.In.N)
	}
	if v.Out == nil {
		v.Out = make([]int64, bm.Space.Out.N)
	}
	if v.Div == nil {
		v.Div = make([]int64, bm.NDiv)
	}
	c, err := bm.fromView(v)
	if err != nil {
		return BasicMap{}, err
	}
	out := bm.clone()
	out.Cons = append(out.Cons, c)
	return out, nil
}

// BasicMapFromViews builds a basic map from a space, a div count and a
// constraint list.
func BasicMapFromViews(space Space, nDiv int, views []ConstraintView) (BasicMap, error) {
	bm := BasicMap{Space: space, NDiv: nDiv}
	var err error
	for _, v := range views {
		bm, err = bm.AddConstraint(v)
		if err != nil {
			return BasicMap{}, err
		}
	}
	return bm, nil
}

// markedEmpty is the canonical infeasible basic map: 1 = 0.
func markedEmpty(space Space) BasicMap {
	bm := BasicMap{Space: space}
	coef := make([]int64, bm.nCol())
	coef[0] = 1
	bm.Cons = []Constraint{{Eq: true, Coef: coef}}
	return bm
}

func (bm BasicMap) isMarkedEmpty() bool {
	if len(bm.Cons) != 1 || !bm.Cons[0].Eq {
		return false
	}
	c := bm.Cons[0]
	if c.Coef[0] == 0 {
		return false
	}
	for _, x := range c.Coef[1:] {
		if x != 0 {
			return false
		}
	}
	return true
}

// normalize gcd-reduces every constraint, drops tautologies and
// duplicates, and returns the canonical empty map on a trivially
// infeasible conjunction.  Integrality of equalities is checked: an
// equality whose variable coefficients share a divisor that does not
// divide the constant has no integer solutions.
func (bm BasicMap) normalize() BasicMap {
	out := BasicMap{Space: bm.Space, NDiv: bm.NDiv}
	seen := map[string]bool{}
	for _, c := range bm.Cons {
		g := int64(0)
		for _, x := range c.Coef[1:] {
			g = absGCD(g, x)
		}
		if g == 0 {
			// Constant constraint.
			if c.Eq && c.Coef[0] != 0 {
				return markedEmpty(bm.Space)
			}
			if !c.Eq && c.Coef[0] < 0 {
				return markedEmpty(bm.Space)
			}
			continue
		}
		n := c.clone()
		if g > 1 {
			if n.Eq && n.Coef[0]%g != 0 {
				return markedEmpty(bm.Space)
			}
			for i := 1; i < len(n.Coef); i++ {
				n.Coef[i] /= g
			}
			if n.Eq {
				n.Coef[0] /= g
			} else {
				n.Coef[0] = floorDiv(n.Coef[0], g)
			}
		}
		if n.Eq {
			// Canonical sign: first nonzero variable coefficient positive.
			for _, x := range n.Coef[1:] {
				if x == 0 {
					continue
				}
				if x < 0 {
					for i := range n.Coef {
						n.Coef[i] = -n.Coef[i]
					}
				}
				break
			}
		}
		key := fmt.Sprintf("%v/%v", n.Eq, n.Coef)
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Cons = append(out.Cons, n)
	}
	return out
}

// permuteCols reorders the columns of every constraint; perm[old] = new
// over variable columns (the constant column stays in place).
func (bm BasicMap) permuteCols(perm []int, newSpace Space, newNDiv int) BasicMap {
	out := BasicMap{Space: newSpace, NDiv: newNDiv}
	n := 1 + newSpace.NParam() + newSpace.In.N + newSpace.Out.N + newNDiv
	for _, c := range bm.Cons {
		coef := make([]int64, n)
		coef[0] = c.Coef[0]
		for old, x := range c.Coef[1:] {
			coef[1+perm[old]] = x
		}
		out.Cons = append(out.Cons, Constraint{Eq: c.Eq, Coef: coef})
	}
	return out
}

// extendParamsTo re-embeds bm into a space with the merged parameter
// list, relocating parameter columns by name.
func (bm BasicMap) extendParamsTo(params []string) BasicMap {
	if slices.Equal(bm.Space.Params, params) {
		return bm
	}
	newSpace := bm.Space.withParams(params)
	nP := len(params)
	perm := make([]int, bm.nCol()-1)
	for i, name := range bm.Space.Params {
		perm[i] = slices.Index(params, name)
	}
	rest := bm.Space.In.N + bm.Space.Out.N + bm.NDiv
	for j := 0; j < rest; j++ {
		perm[bm.Space.NParam()+j] = nP + j
	}
	return bm.permuteCols(perm, newSpace, bm.NDiv)
}

// reverse swaps the input and output tuples.
func (bm BasicMap) reverse() BasicMap {
	nP, nI, nO := bm.Space.NParam(), bm.Space.In.N, bm.Space.Out.N
	perm := make([]int, bm.nCol()-1)
	for i := 0; i < nP; i++ {
		perm[i] = i
	}
	for i := 0; i < nI; i++ {
		perm[nP+i] = nP + nO + i
	}
	for i := 0; i < nO; i++ {
		perm[nP+nI+i] = nP + i
	}
	for i := 0; i < bm.NDiv; i++ {
		perm[nP+nI+nO+i] = nP + nI + nO + i
	}
	return bm.permuteCols(perm, bm.Space.Reverse(), bm.NDiv)
}

// intersectBasic conjoins two basic maps over the same space, keeping
// the divs of both.
func intersectBasic(a, b BasicMap) (BasicMap, error) {
	if !a.Space.Equal(b.Space) {
		return BasicMap{}, fmt.Errorf("rel: intersect of distinct spaces %v and %v", a.Space, b.Space)
	}
	out := BasicMap{Space: a.Space, NDiv: a.NDiv + b.NDiv}
	for _, c := range a.Cons {
		coef := make([]int64, out.nCol())
		copy(coef, c.Coef)
		out.Cons = append(out.Cons, Constraint{Eq: c.Eq, Coef: coef})
	}
	// b's div columns shift past a's.
	fixed := 1 + a.Space.NParam() + a.Space.In.N + a.Space.Out.N
	for _, c := range b.Cons {
		coef := make([]int64, out.nCol())
		copy(coef[:fixed], c.Coef[:fixed])
		copy(coef[fixed+a.NDiv:], c.Coef[fixed:])
		out.Cons = append(out.Cons, Constraint{Eq: c.Eq, Coef: coef})
	}
	return out.normalize().simplifyDivs(), nil
}

// applyRangeBasic composes a: x -> y with b: y -> z into x -> z.
// The shared y tuple and the divs of both operands become divs of the
// result, simplified away where an exact substitution exists.
func applyRangeBasic(a, b BasicMap) (BasicMap, error) {
	if a.Space.Out != b.Space.In {
		return BasicMap{}, fmt.Errorf("rel: compose mismatch: %q[%d] vs %q[%d]",
			a.Space.Out.Name, a.Space.Out.N, b.Space.In.Name, b.Space.In.N)
	}
	if !slices.Equal(a.Space.Params, b.Space.Params) {
		return BasicMap{}, fmt.Errorf("rel: compose with unaligned parameters")
	}
	nP := a.Space.NParam()
	nX, nY, nZ := a.Space.In.N, a.Space.Out.N, b.Space.Out.N
	space := MapSpace(a.Space.Params, a.Space.In.Name, nX, b.Space.Out.Name, nZ)
	out := BasicMap{Space: space, NDiv: nY + a.NDiv + b.NDiv}
	yCol := func(i int) int { return 1 + nP + nX + nZ + i }

	for _, c := range a.Cons {
		coef := make([]int64, out.nCol())
		coef[0] = c.Coef[0]
		copy(coef[1:1+nP+nX], c.Coef[1:1+nP+nX])
		for i := 0; i < nY; i++ {
			coef[yCol(i)] = c.Coef[1+nP+nX+i]
		}
		for i := 0; i < a.NDiv; i++ {
			coef[yCol(nY+i)] = c.Coef[1+nP+nX+nY+i]
		}
		out.Cons = append(out.Cons, Constraint{Eq: c.Eq, Coef: coef})
	}
	for _, c := range b.Cons {
		coef := make([]int64, out.nCol())
		coef[0] = c.Coef[0]
		copy(coef[1:1+nP], c.Coef[1:1+nP])
		for i := 0; i < nY; i++ {
			coef[yCol(i)] = c.Coef[1+nP+i]
		}
		copy(coef[1+nP+nX:1+nP+nX+nZ], c.Coef[1+nP+nY:1+nP+nY+nZ])
		for i := 0; i < b.NDiv; i++ {
			coef[yCol(nY+a.NDiv+i)] = c.Coef[1+nP+nY+nZ+i]
		}
		out.Cons = append(out.Cons, Constraint{Eq: c.Eq, Coef: coef})
	}
	return out.normalize().simplifyDivs(), nil
}

// projectOutBasic existentially quantifies n output dimensions starting
// at first: the columns move into the div block and are simplified
// away where possible.  Divisibility information survives as divs.
func projectOutBasic(bm BasicMap, first, n int) BasicMap {
	nP, nI, nO := bm.Space.NParam(), bm.Space.In.N, bm.Space.Out.N
	space := bm.Space
	space.Out.N = nO - n
	perm := make([]int, bm.nCol()-1)
	for i := 0; i < nP+nI; i++ {
		perm[i] = i
	}
	next := nP + nI
	moved := nP + nI + space.Out.N + bm.NDiv
	for i := 0; i < nO; i++ {
		if i >= first && i < first+n {
			perm[nP+nI+i] = moved
			moved++
		} else {
			perm[nP+nI+i] = next
			next++
		}
	}
	for i := 0; i < bm.NDiv; i++ {
		perm[nP+nI+nO+i] = nP + nI + space.Out.N + i
	}
	out := bm.permuteCols(perm, space, bm.NDiv+n)
	return out.normalize().simplifyDivs()
}

// dropCol removes one variable column (caller adjusts the space/NDiv
// bookkeeping).
func dropColFrom(cons []Constraint, col int) []Constraint {
	out := make([]Constraint, 0, len(cons))
	for _, c := range cons {
		coef := make([]int64, 0, len(c.Coef)-1)
		coef = append(coef, c.Coef[:1+col]...)
		coef = append(coef, c.Coef[1+col+1:]...)
		out = append(out, Constraint{Eq: c.Eq, Coef: coef})
	}
	return out
}

// simplifyDivs eliminates div variables that admit an exact
// substitution (unit coefficient in an equality), appear only in
// inequalities (Fourier-Motzkin) or appear nowhere.  Divs held by an
// equality with a larger coefficient encode divisibility and stay.
func (bm BasicMap) simplifyDivs() BasicMap {
	out := bm.clone()
	changed := true
	for changed {
		changed = false
		for d := 0; d < out.NDiv; d++ {
			col := out.colDiv(d) - 1 // variable-column index
			res, ok := eliminateVar(out.Cons, col, false)
			if !ok {
				continue
			}
			out.Cons = res
			out.NDiv--
			out = out.normalize()
			if out.isMarkedEmpty() {
				out.NDiv = 0
				return out
			}
			changed = true
			break
		}
	}
	return out
}

// eliminateVar removes variable column col (0-based over variable
// columns) from the constraint system.  In integer mode (rational ==
// false) it only succeeds when elimination is exact: a unit-coefficient
// equality to substitute, inequalities only (Fourier-Motzkin), or no
// occurrence.  In rational mode any equality can be scaled through,
// which is sound for feasibility and bound queries.
func eliminateVar(cons []Constraint, col int, rational bool) ([]Constraint, bool) {
	ci := 1 + col
	bestEq, bestAbs := -1, int64(0)
	onlyIneq := true
	present := false
	for i, c := range cons {
		v := c.Coef[ci]
		if v == 0 {
			continue
		}
		present = true
		if c.Eq {
			onlyIneq = false
			if a := abs64(v); bestEq < 0 || a < bestAbs {
				bestEq, bestAbs = i, a
			}
		}
	}
	if !present {
		return dropColFrom(cons, col), true
	}
	if bestEq >= 0 {
		if bestAbs != 1 && !rational {
			return nil, false
		}
		return dropColFrom(substituteEq(cons, bestEq, ci), col), true
	}
	if !onlyIneq {
		return nil, false
	}
	return dropColFrom(fourierMotzkin(cons, ci), col), true
}

// substituteEq uses equality cons[ei] to cancel column ci from every
// other constraint, then replaces the equality with a tautology row
// that still carries the column (dropped by the caller).
func substituteEq(cons []Constraint, ei, ci int) []Constraint {
	e := cons[ei]
	a := e.Coef[ci]
	out := make([]Constraint, 0, len(cons))
	for i, c := range cons {
		if i == ei {
			continue
		}
		v := c.Coef[ci]
		if v == 0 {
			out = append(out, c.clone())
			continue
		}
		// scale*c - mult*e cancels ci; scale > 0 keeps inequality sense.
		g := absGCD(a, v)
		scale := abs64(a) / g
		mult := v / g
		if a < 0 {
			mult = -mult
		}
		n := Constraint{Eq: c.Eq, Coef: make([]int64, len(c.Coef))}
		for k := range c.Coef {
			n.Coef[k] = scale*c.Coef[k] - mult*e.Coef[k]
		}
		out = append(out, n)
	}
	return out
}

// fourierMotzkin eliminates a column that occurs only in inequalities.
func fourierMotzkin(cons []Constraint, ci int) []Constraint {
	var lower, upper, rest []Constraint
	for _, c := range cons {
		switch {
		case c.Coef[ci] > 0:
			lower = append(lower, c)
		case c.Coef[ci] < 0:
			upper = append(upper, c)
		default:
			rest = append(rest, c.clone())
		}
	}
	out := rest
	for _, lo := range lower {
		for _, up := range upper {
			a, b := lo.Coef[ci], -up.Coef[ci]
			n := Constraint{Coef: make([]int64, len(lo.Coef))}
			for k := range n.Coef {
				n.Coef[k] = b*lo.Coef[k] + a*up.Coef[k]
			}
			out = append(out, n)
		}
	}
	return out
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func absGCD(a, b int64) int64 {
	a, b = abs64(a), abs64(b)
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	return -floorDiv(-a, b)
}
