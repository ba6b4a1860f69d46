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

// Package dsu provides a disjoint-set (union-find) structure with path
// compression.  Reference grouping uses it to track which array
// references have been merged into one group; the merge direction is
// chosen by the caller, so the structure never decides which element
// leads.
package dsu

// DSU is a disjoint-set over the elements [0, n).
type DSU struct {
	parent []int
}

// New returns a disjoint-set with every element in its own set.
func New(n int) *DSU {
	d := &DSU{parent: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
	}
	return d
}

// Find returns the representative of x's set, compressing the path.
func (d *DSU) Find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

// MergeInto makes root the representative of x's set.  Both arguments
// are resolved to their representatives first.
func (d *DSU) MergeInto(root, x int) {
	r, s := d.Find(root), d.Find(x)
	if r != s {
		d.parent[s] = r
	}
}

// Same reports whether a and b are in the same set.
func (d *DSU) Same(a, b int) bool {
	return d.Find(a) == d.Find(b)
}

// Roots returns the representatives in increasing element order.
func (d *DSU) Roots() []int {
	var roots []int
	for i := range d.parent {
		if d.Find(i) == i {
			roots = append(roots, i)
		}
	}
	return roots
}
