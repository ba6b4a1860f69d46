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

import "fmt"

// LpResult classifies the outcome of an affine bound query.
type LpResult int

const (
	// LpOK means the optimum is a finite integer constant, uniform in
	// all parameter values.
	LpOK LpResult = iota
	// LpUnbounded means no finite constant bounds the objective.
	LpUnbounded
	// LpEmpty means the relation has no integer points.
	LpEmpty
)

// Objective is an affine objective over the constant, parameter, input
// and output coefficients of a map's space.  Nil blocks are zero.
type Objective struct {
	Cst   int64
	Param []int64
	In    []int64
	Out   []int64
}

// MaxAffine computes the maximum of the objective over all points of m,
// with parameters quantified along with the dimensions: the result is
// LpOK only when a single finite constant bounds the objective for
// every parameter value.
func MaxAffine(m Map, obj Objective) (int64, LpResult) {
	return optAffine(m, obj, 1, true)
}

// MaxQuotAffine computes the maximum of floor(obj/den) over all points
// of m.  The quotient is bracketed as a column of its own, so the
// integer tightening applies to the scaled expression directly;
// maximizing obj first and dividing afterwards can only be looser.
func MaxQuotAffine(m Map, obj Objective, den int64) (int64, LpResult) {
	if den < 1 {
		return 0, LpEmpty
	}
	return optAffine(m, obj, den, true)
}

// MinAffine is the minimizing counterpart of MaxAffine.
func MinAffine(m Map, obj Objective) (int64, LpResult) {
	return optAffine(m, obj, 1, false)
}

func optAffine(m Map, obj Objective, den int64, wantMax bool) (int64, LpResult) {
	res := LpEmpty
	var best int64
	for _, bm := range m.Bmaps {
		vec := objVector(bm, obj)
		lo, hi, r := lpBounds(bm.Cons, bm.nCol()-1, vec, den)
		if r == LpEmpty {
			continue
		}
		v, vr := hi.value, hi.bounded
		if !wantMax {
			v, vr = lo.value, lo.bounded
		}
		if !vr {
			return 0, LpUnbounded
		}
		if res == LpEmpty || (wantMax && v > best) || (!wantMax && v < best) {
			best = v
			res = LpOK
		}
	}
	return best, res
}

// objVector expands an Objective into a coefficient vector over the
// variable columns of bm (divs get zero coefficients).
func objVector(bm BasicMap, obj Objective) []int64 {
	nP, nI, nO := bm.Space.NParam(), bm.Space.In.N, bm.Space.Out.N
	vec := make([]int64, bm.nCol())
	vec[0] = obj.Cst
	copy(vec[1:1+nP], obj.Param)
	copy(vec[1+nP:1+nP+nI], obj.In)
	copy(vec[1+nP+nI:1+nP+nI+nO], obj.Out)
	return vec
}

type lpBound struct {
	bounded bool
	value   int64
}

// lpBounds computes integer lower and upper bounds of the objective
// floor(vec/den) (vec is a constant plus one coefficient per variable
// column) over the conjunction cons with nVar variable columns.  All
// variables are existentially quantified.  Elimination is
// integer-exact where a unit equality or pure Fourier-Motzkin step
// applies and rational otherwise, which is sound (never too small)
// for maxima and never reports a nonempty system empty.
func lpBounds(cons []Constraint, nVar int, vec []int64, den int64) (lo, hi lpBound, res LpResult) {
	// Append the objective variable t: for den 1 the equality t = vec,
	// otherwise the floor bracket 0 <= vec - den*t < den.
	sys := make([]Constraint, 0, len(cons)+2)
	for _, c := range cons {
		coef := make([]int64, nVar+2)
		copy(coef, c.Coef)
		sys = append(sys, Constraint{Eq: c.Eq, Coef: coef})
	}
	t := make([]int64, nVar+2)
	copy(t, vec)
	t[nVar+1] = -den
	if den == 1 {
		sys = append(sys, Constraint{Eq: true, Coef: t})
	} else {
		sys = append(sys, Constraint{Coef: t})
		n := make([]int64, nVar+2)
		for i, x := range t {
			n[i] = -x
		}
		n[0] += den - 1
		sys = append(sys, Constraint{Coef: n})
	}
	sys = reduceCons(sys)

	// Eliminate every variable column except t (the last one).
	// Columns with a unit-coefficient equality or no equality at all go
	// first: substitution and Fourier-Motzkin are integer-exact there,
	// and the gcd tightening of reduceCons then recovers divisibility
	// facts that scaling through a wider equality would erase.
	remaining := nVar
	for remaining > 0 {
		var ok bool
		sys, ok = eliminateVar(sys, pickColumn(sys, remaining), true)
		if !ok {
			// Unreachable: rational elimination always succeeds.
			return lo, hi, LpEmpty
		}
		sys = reduceCons(sys)
		remaining--
	}

	lo, hi = lpBound{}, lpBound{}
	for _, c := range sys {
		a := c.Coef[1]
		cst := c.Coef[0]
		if a == 0 {
			if c.Eq && cst != 0 {
				return lo, hi, LpEmpty
			}
			if !c.Eq && cst < 0 {
				return lo, hi, LpEmpty
			}
			continue
		}
		if a > 0 || c.Eq {
			// a*t + cst >= 0 with a > 0, or equality: lower bound.
			la, lc := a, cst
			if la < 0 {
				la, lc = -la, -lc
			}
			v := ceilDiv(-lc, la)
			if !lo.bounded || v > lo.value {
				lo = lpBound{true, v}
			}
		}
		if a < 0 || c.Eq {
			ua, uc := a, cst
			if ua > 0 {
				ua, uc = -ua, -uc
			}
			v := floorDiv(uc, -ua)
			if !hi.bounded || v < hi.value {
				hi = lpBound{true, v}
			}
		}
	}
	if lo.bounded && hi.bounded && lo.value > hi.value {
		return lo, hi, LpEmpty
	}
	return lo, hi, LpOK
}

// pickColumn chooses the next variable column to eliminate among the
// first nVar: one carrying a unit-coefficient equality if any, else one
// appearing in inequalities only, else column 0 as the rational last
// resort.
func pickColumn(cons []Constraint, nVar int) int {
	ineqOnly := -1
	for col := 0; col < nVar; col++ {
		inEquality := false
		for _, c := range cons {
			v := c.Coef[1+col]
			if v == 0 || !c.Eq {
				continue
			}
			inEquality = true
			if v == 1 || v == -1 {
				return col
			}
		}
		if !inEquality && ineqOnly < 0 {
			ineqOnly = col
		}
	}
	if ineqOnly >= 0 {
		return ineqOnly
	}
	return 0
}

// reduceCons gcd-reduces a raw constraint list, dropping tautologies.
func reduceCons(cons []Constraint) []Constraint {
	out := cons[:0]
	for _, c := range cons {
		g := int64(0)
		for _, x := range c.Coef[1:] {
			g = absGCD(g, x)
		}
		if g == 0 {
			if (c.Eq && c.Coef[0] != 0) || (!c.Eq && c.Coef[0] < 0) {
				out = append(out, c)
			}
			continue
		}
		if g > 1 {
			for i := 1; i < len(c.Coef); i++ {
				c.Coef[i] /= g
			}
			if c.Eq {
				if c.Coef[0]%g != 0 {
					// No integer solutions; keep as contradiction.
					c.Coef = append([]int64(nil), c.Coef...)
					for i := range c.Coef {
						c.Coef[i] = 0
					}
					c.Coef[0] = 1
					out = append(out, c)
					continue
				}
				c.Coef[0] /= g
			} else {
				c.Coef[0] = floorDiv(c.Coef[0], g)
			}
		}
		out = append(out, c)
	}
	return out
}

// IsEmpty reports whether m has no integer points.
func IsEmpty(m Map) bool {
	for _, bm := range m.Bmaps {
		_, _, res := lpBounds(bm.Cons, bm.nCol()-1, make([]int64, bm.nCol()), 1)
		if res != LpEmpty {
			return false
		}
	}
	return true
}

// IsSubset reports whether every point of a lies in b.  b must be a
// single conjunct without remaining divs (a convex relation); feeding
// a disjunctive or divisibility-constrained right-hand side is a
// contract violation.
func IsSubset(a, b Map) (bool, error) {
	a, b = align(a, b)
	bb, err := b.Single()
	if err != nil {
		return false, err
	}
	bb = bb.normalize().simplifyDivs()
	if bb.NDiv != 0 {
		return false, fmt.Errorf("rel: subset right-hand side has divisibility constraints")
	}
	if bb.isMarkedEmpty() {
		return IsEmpty(a), nil
	}
	for _, v := range bb.Views() {
		for _, abm := range a.Bmaps {
			viol, err := violates(abm, v)
			if err != nil {
				return false, err
			}
			if viol {
				return false, nil
			}
		}
	}
	return true, nil
}

// violates reports whether some point of bm falsifies constraint v.
func violates(bm BasicMap, v ConstraintView) (bool, error) {
	check := func(w ConstraintView) (bool, error) {
		w.Eq = false
		w.Div = make([]int64, bm.NDiv)
		sys, err := bm.AddConstraint(w)
		if err != nil {
			return false, err
		}
		return !IsEmpty(FromBasicMap(sys)), nil
	}
	// Negation of expr >= 0 is -expr - 1 >= 0.
	neg := v.Negate()
	neg.Cst--
	if nonempty, err := check(neg); err != nil || nonempty {
		return nonempty, err
	}
	if !v.Eq {
		return false, nil
	}
	// An equality is violated on either side.
	pos := v
	pos.Cst--
	return check(pos)
}

// IsSingleValued reports whether every input point maps to at most one
// output point.
func IsSingleValued(m Map) bool {
	for i := range m.Bmaps {
		for j := range m.Bmaps {
			if !pairFunctional(m.Bmaps[i], m.Bmaps[j]) {
				return false
			}
		}
	}
	return true
}

// IsInjective reports whether no two input points map to the same
// output point.
func IsInjective(m Map) bool {
	return IsSingleValued(Reverse(m))
}

// IsBijective reports whether m is both single-valued and injective.
func IsBijective(m Map) bool {
	return IsSingleValued(m) && IsInjective(m)
}

// pairFunctional builds the system relating two images y, y' of one
// input point under b1 and b2 and checks y = y' componentwise.  Each
// component is decided by two one-sided queries: the system extended
// with y[k] - y'[k] >= 1 (and with the opposite shift) must have no
// integer points.  Bounding the difference directly would pin the
// objective to a kept column and force rational scaling through
// blocked equalities such as e = 32b + i, losing the divisibility
// that makes the map functional.
func pairFunctional(b1, b2 BasicMap) bool {
	nP, nI, nO := b1.Space.NParam(), b1.Space.In.N, b1.Space.Out.N
	nVar := nP + nI + 2*nO + b1.NDiv + b2.NDiv
	outA := func(i int) int { return nP + nI + i }
	outB := func(i int) int { return nP + nI + nO + i }
	divA := func(i int) int { return nP + nI + 2*nO + i }
	divB := func(i int) int { return nP + nI + 2*nO + b1.NDiv + i }

	var sys []Constraint
	addFrom := func(bm BasicMap, out func(int) int, div func(int) int) {
		for _, c := range bm.Cons {
			coef := make([]int64, 1+nVar)
			coef[0] = c.Coef[0]
			copy(coef[1:1+nP+nI], c.Coef[1:1+nP+nI])
			for i := 0; i < nO; i++ {
				coef[1+out(i)] = c.Coef[1+nP+nI+i]
			}
			for i := 0; i < bm.NDiv; i++ {
				coef[1+div(i)] = c.Coef[1+nP+nI+nO+i]
			}
			sys = append(sys, Constraint{Eq: c.Eq, Coef: coef})
		}
	}
	addFrom(b1, outA, divA)
	addFrom(b2, outB, divB)

	for k := 0; k < nO; k++ {
		for _, sign := range []int64{1, -1} {
			shifted := Constraint{Coef: make([]int64, 1+nVar)}
			shifted.Coef[0] = -1
			shifted.Coef[1+outA(k)] = sign
			shifted.Coef[1+outB(k)] = -sign
			cand := append(append([]Constraint(nil), sys...), shifted)
			if _, _, res := lpBounds(cand, nVar, make([]int64, 1+nVar), 1); res != LpEmpty {
				return false
			}
		}
	}
	return true
}
