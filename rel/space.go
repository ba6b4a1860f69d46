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

// Package rel implements integer affine relations: finite unions of
// conjunctions of affine equalities and inequalities over named
// parameters, input dimensions, output dimensions and existentially
// quantified divs.  All types are immutable values; every operation
// returns a fresh value and never mutates its receiver or arguments.
//
// The operation surface is the one a polyhedral memory-hierarchy
// engine needs: composition, intersection, union, projection, hulls,
// emptiness, subset, single-valuedness/injectivity/bijectivity tests
// and affine maxima with finite-constant detection.
package rel

import (
	"fmt"
	"slices"
)

// Space identifies the parameter list and the named input and output
// tuples of a relation.  A set is a relation without input dimensions.
type Space struct {
	Params []string
	In     Tuple
	Out    Tuple
}

// Tuple is a named, fixed-arity dimension block.
type Tuple struct {
	Name string
	N    int
}

// SetSpace returns the space of a set with the given tuple.
func SetSpace(params []string, name string, n int) Space {
	return Space{Params: slices.Clone(params), Out: Tuple{Name: name, N: n}}
}

// MapSpace returns the space of a relation between two named tuples.
func MapSpace(params []string, in string, nIn int, out string, nOut int) Space {
	return Space{
		Params: slices.Clone(params),
		In:     Tuple{Name: in, N: nIn},
		Out:    Tuple{Name: out, N: nOut},
	}
}

// NParam returns the number of parameters.
func (s Space) NParam() int { return len(s.Params) }

// Reverse swaps the input and output tuples.
func (s Space) Reverse() Space {
	return Space{Params: s.Params, In: s.Out, Out: s.In}
}

// Equal reports whether two spaces have identical parameters and tuples.
func (s Space) Equal(o Space) bool {
	return slices.Equal(s.Params, o.Params) && s.In == o.In && s.Out == o.Out
}

// alignParams merges the parameter lists of two spaces, preserving the
// order of a's parameters and appending b's new ones.  It reports the
// merged list.  Parameters are identified by name.
func alignParams(a, b []string) []string {
	merged := slices.Clone(a)
	for _, p := range b {
		if !slices.Contains(merged, p) {
			merged = append(merged, p)
		}
	}
	return merged
}

func (s Space) withParams(params []string) Space {
	return Space{Params: params, In: s.In, Out: s.Out}
}

// AddParams returns the space with the given parameters appended.
// Adding a parameter that is already present is a contract violation.
func (s Space) AddParams(names ...string) (Space, error) {
	for _, n := range names {
		if slices.Contains(s.Params, n) {
			return Space{}, fmt.Errorf("rel: parameter %q already present", n)
		}
	}
	params := append(slices.Clone(s.Params), names...)
	return s.withParams(params), nil
}
