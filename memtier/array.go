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

package memtier

import (
	"fmt"
	"sort"

	"github.com/go-polyhedra/memtier/rel"
)

// Statement is one statement of the input program: a named iteration
// domain and the array references made from it.
type Statement struct {
	Name   string
	Domain rel.Set
	Refs   []*ArrayReference
}

// Program is the scheduled input program: statements plus the
// parameter context.
type Program struct {
	Context    rel.Set
	Statements []*Statement
	Arrays     []*ArrayInfo
}

// ArrayReference is one textual array access: the owning statement, an
// affine relation from the statement's iteration point to an array
// index tuple, and the read/write flag.  Group is the ordinal of the
// reference group that claimed this access in the current kernel, or
// -1 outside any kernel.
type ArrayReference struct {
	Stmt   *Statement
	Access rel.Map
	Write  bool
	Group  int
}

// ArrayName returns the target tuple name of the access.
func (r *ArrayReference) ArrayName() string {
	return r.Access.Space.Out.Name
}

// ArrayInfo describes one array of the program: its dimensionality, a
// parametric extent bound per dimension and all references to it.
// Built once per program; only the Group back-pointers of its
// references change across kernels.
type ArrayInfo struct {
	Name     string
	NIndex   int
	ElemType string

	// Extent holds, per dimension, the affine extent bounds derived
	// from the accessed elements (minimum-of semantics when several
	// candidates exist).
	Extent [][]rel.Aff

	Refs []*ArrayReference
}

// CollectArrays scans the union of all read and write target sets,
// builds one ArrayInfo per accessed array, bounds every dimension
// against the parameter context and attaches each reference to its
// array.  Element types default to "float" unless overridden.
func CollectArrays(prog *Program, elemTypes map[string]string) error {
	accessed := map[string]rel.Set{}
	refs := map[string][]*ArrayReference{}

	for _, stmt := range prog.Statements {
		for _, ref := range stmt.Refs {
			ref.Group = -1
			active, err := rel.IntersectDomain(ref.Access, stmt.Domain)
			if err != nil {
				return fmt.Errorf("memtier: array %s: %w", ref.ArrayName(), err)
			}
			rng := rel.Range(active)
			name := ref.ArrayName()
			if prev, ok := accessed[name]; ok {
				if prev.Space.Out.N != rng.Space.Out.N {
					return fmt.Errorf("memtier: array %s accessed with %d and %d indices",
						name, prev.Space.Out.N, rng.Space.Out.N)
				}
				accessed[name], err = rel.Union(prev, rng)
				if err != nil {
					return fmt.Errorf("memtier: array %s: %w", name, err)
				}
			} else {
				accessed[name] = rng
			}
			refs[name] = append(refs[name], ref)
		}
	}

	names := make([]string, 0, len(accessed))
	for name := range accessed {
		names = append(names, name)
	}
	sort.Strings(names)

	prog.Arrays = prog.Arrays[:0]
	for _, name := range names {
		set, err := rel.IntersectParams(accessed[name], prog.Context)
		if err != nil {
			return fmt.Errorf("memtier: array %s: %w", name, err)
		}
		info := &ArrayInfo{
			Name:     name,
			NIndex:   set.Space.Out.N,
			ElemType: "float",
			Refs:     refs[name],
		}
		if t, ok := elemTypes[name]; ok {
			info.ElemType = t
		}
		info.Extent = make([][]rel.Aff, info.NIndex)
		for i := 0; i < info.NIndex; i++ {
			info.Extent[i], err = dimExtent(set, i)
			if err != nil {
				return fmt.Errorf("memtier: array %s dim %d: %w", name, i, err)
			}
		}
		prog.Arrays = append(prog.Arrays, info)
	}
	return nil
}

// ArrayByName returns the named array's info, or nil.
func (p *Program) ArrayByName(name string) *ArrayInfo {
	for _, a := range p.Arrays {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// dimExtent projects the accessed set onto one dimension and converts
// its parametric upper bounds into extent expressions (index bound
// plus one).
func dimExtent(set rel.Set, dim int) ([]rel.Aff, error) {
	proj, err := rel.ProjectOutputs(set, dim+1, set.Space.Out.N-(dim+1))
	if err != nil {
		return nil, err
	}
	proj, err = rel.ProjectOutputs(proj, 0, dim)
	if err != nil {
		return nil, err
	}
	// A strided access leaves every bound on the index tied to an
	// existential (o = 2d + 1 with 0 <= d < K); eliminating the divs
	// rationally exposes plain upper bounds without losing soundness.
	hull, err := rel.DivFreeHull(proj)
	if err != nil {
		return nil, err
	}
	space := rel.SetSpace(set.Space.Params, "", 0)
	var bounds []rel.Aff
	for _, v := range hull.Views() {
		if v.InvolvesDiv() {
			continue
		}
		if v.Out[0] > 0 && v.Eq {
			// An equality a*x = e also bounds x from above.
			v = v.Negate()
		}
		if v.Out[0] >= 0 {
			continue
		}
		// a*x + e >= 0 with a < 0: x <= floor(e/-a), extent
		// ceil((e+1)/-a).
		m := -v.Out[0]
		a := rel.Aff{
			Space: space,
			Den:   m,
			Cst:   v.Cst + 1,
			Param: append([]int64(nil), v.Param...),
			In:    nil,
		}
		bounds = append(bounds, a)
	}
	if len(bounds) == 0 {
		return nil, fmt.Errorf("no parametric upper bound on accessed elements")
	}
	return bounds, nil
}
