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

// SimpleHull computes a single conjunct containing every point of m.
// For a one-conjunct map this is the map itself, divs included.  For a
// union, the candidate constraints of every conjunct (equalities split
// into inequality pairs, div-involving constraints set aside) are kept
// when valid over the whole union; opposing pairs re-merge into
// equalities.  The result over-approximates m but never loses a
// constraint that all conjuncts share.
func SimpleHull(m Map) (BasicMap, error) {
	m = m.compact()
	if len(m.Bmaps) == 0 {
		return markedEmpty(m.Space), nil
	}
	if len(m.Bmaps) == 1 {
		return m.Bmaps[0], nil
	}

	var candidates []ConstraintView
	for _, bm := range m.Bmaps {
		flat := eliminateDivsRational(bm)
		for _, v := range flat.Views() {
			if v.Eq {
				a := v
				a.Eq = false
				b := v.Negate()
				b.Eq = false
				candidates = append(candidates, a, b)
			} else {
				candidates = append(candidates, v)
			}
		}
	}

	hull := UniverseBasicMap(m.Space)
	for _, cand := range candidates {
		valid := true
		for _, bm := range m.Bmaps {
			viol, err := violates(bm, cand)
			if err != nil {
				return BasicMap{}, err
			}
			if viol {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		cv := cand
		cv.Div = nil
		var err error
		hull, err = hull.AddConstraint(cv)
		if err != nil {
			return BasicMap{}, err
		}
	}
	return mergeOpposing(hull.normalize()), nil
}

// eliminateDivsRational removes every div by scaled substitution or
// Fourier-Motzkin, yielding a div-free over-approximation whose
// constraints are candidates for the hull.
func eliminateDivsRational(bm BasicMap) BasicMap {
	out := bm.clone()
	for out.NDiv > 0 {
		col := out.colDiv(out.NDiv-1) - 1
		res, ok := eliminateVar(out.Cons, col, true)
		if !ok {
			break
		}
		out.Cons = res
		out.NDiv--
	}
	return out.normalize()
}

// DivFreeHull is SimpleHull followed by rational div elimination: a
// single div-free conjunct containing every point of m.  Bound scans
// that cannot interpret existential variables, such as the extent of a
// strided access like A[2i+1], use it instead of SimpleHull, which
// keeps divs to preserve stride information.
func DivFreeHull(m Map) (BasicMap, error) {
	hull, err := SimpleHull(m)
	if err != nil {
		return BasicMap{}, err
	}
	return eliminateDivsRational(hull), nil
}

// mergeOpposing turns pairs {e >= 0, -e >= 0} back into equalities.
func mergeOpposing(bm BasicMap) BasicMap {
	out := BasicMap{Space: bm.Space, NDiv: bm.NDiv}
	used := make([]bool, len(bm.Cons))
	for i, c := range bm.Cons {
		if used[i] || c.Eq {
			if !used[i] {
				out.Cons = append(out.Cons, c.clone())
			}
			continue
		}
		merged := false
		for j := i + 1; j < len(bm.Cons); j++ {
			if used[j] || bm.Cons[j].Eq {
				continue
			}
			opp := true
			for k := range c.Coef {
				if bm.Cons[j].Coef[k] != -c.Coef[k] {
					opp = false
					break
				}
			}
			if opp {
				used[j] = true
				eq := c.clone()
				eq.Eq = true
				out.Cons = append(out.Cons, eq)
				merged = true
				break
			}
		}
		if !merged {
			out.Cons = append(out.Cons, c.clone())
		}
	}
	return out.normalize()
}

// AffineHull returns the equalities that hold over all of bm: its
// explicit equalities plus those implied by opposing inequality pairs.
// Div-involving equalities are kept; they carry the divisibility
// information stride detection looks for.
func AffineHull(bm BasicMap) BasicMap {
	merged := mergeOpposing(bm.normalize())
	out := BasicMap{Space: merged.Space, NDiv: merged.NDiv}
	for _, c := range merged.Cons {
		if c.Eq {
			out.Cons = append(out.Cons, c.clone())
		}
	}
	return out
}

// DefiningEquality returns an equality of bm with a nonzero
// coefficient on output dimension i, preferring one that involves no
// other output dimension.  The boolean is false when no equality
// defines the dimension.
func DefiningEquality(bm BasicMap, i int) (ConstraintView, bool) {
	if i < 0 || i >= bm.Space.Out.N {
		return ConstraintView{}, false
	}
	var fallback ConstraintView
	found := false
	for _, v := range bm.normalize().Views() {
		if !v.Eq || v.Out[i] == 0 {
			continue
		}
		other := false
		for j, c := range v.Out {
			if j != i && c != 0 {
				other = true
				break
			}
		}
		if !other {
			return v, true
		}
		if !found {
			fallback, found = v, true
		}
	}
	return fallback, found
}

// String renders a basic map for diagnostics.
func (bm BasicMap) String() string {
	return fmt.Sprintf("{ %s[%d] -> %s[%d] : %d constraints, %d divs }",
		bm.Space.In.Name, bm.Space.In.N, bm.Space.Out.Name, bm.Space.Out.N,
		len(bm.Cons), bm.NDiv)
}
