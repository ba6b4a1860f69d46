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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-polyhedra/memtier/rel"
)

func TestSolveBoundsWindow(t *testing.T) {
	acc := rel.MustParseMap("{ B[g] -> A[o] : 32g <= o and o < 32g + 32 }")

	bounds, ok, err := solveBounds(acc, 1)
	if err != nil {
		t.Fatalf("solveBounds error: %v", err)
	}
	if !ok {
		t.Fatalf("a 32-wide window should be tileable")
	}
	if bounds[0].Size != 32 {
		t.Errorf("size = %d, want 32", bounds[0].Size)
	}
	if bounds[0].HasStride() {
		t.Errorf("a dense window has no stride")
	}
	// The offset is 32g: every accessed index lands in [lb, lb+32).
	for g := int64(0); g < 4; g++ {
		lb := evalAff(bounds[0].LB, nil, []int64{g})
		for o := int64(-8); o < 160; o++ {
			if !acc.Contains(nil, []int64{g}, []int64{o}) {
				continue
			}
			if o < lb || o >= lb+bounds[0].Size {
				t.Fatalf("accessed index %d outside [%d, %d) for g=%d", o, lb, lb+bounds[0].Size, g)
			}
		}
	}
}

func TestSolveBoundsTwoDimensions(t *testing.T) {
	acc := rel.MustParseMap("{ B[g] -> A[i, j] : g <= i < g + 2 and 0 <= j < 5 }")

	bounds, ok, err := solveBounds(acc, 2)
	if err != nil {
		t.Fatalf("solveBounds error: %v", err)
	}
	if !ok {
		t.Fatalf("both dimensions are bounded")
	}
	got := []int64{bounds[0].Size, bounds[1].Size}
	if diff := cmp.Diff([]int64{2, 5}, got); diff != "" {
		t.Errorf("sizes mismatch (-want +got):\n%s", diff)
	}
}

// The access A[2i+1] for i in [0,8) visits only odd indices: the
// solver must detect stride 2 with shift -1 and size the re-indexed
// tile at 8, not 16.
func TestSolveBoundsStride(t *testing.T) {
	acc, err := rel.ApplyRange(
		rel.MustParseMap("{ B[g] -> S[i] : 0 <= i < 8 }"),
		rel.MustParseMap("{ S[i] -> A[2i + 1] }"))
	if err != nil {
		t.Fatalf("ApplyRange error: %v", err)
	}

	bounds, ok, err := solveBounds(acc, 1)
	if err != nil {
		t.Fatalf("solveBounds error: %v", err)
	}
	if !ok {
		t.Fatalf("a strided progression should be tileable")
	}
	b := bounds[0]
	if b.Stride != 2 {
		t.Fatalf("stride = %d, want 2", b.Stride)
	}
	if got := evalAff(b.Shift, nil, []int64{0}); got != -1 {
		t.Errorf("shift = %d, want -1", got)
	}
	if b.Size != 8 {
		t.Errorf("size = %d, want 8", b.Size)
	}
	if got := evalAff(b.LB, nil, []int64{0}); got != 0 {
		t.Errorf("lb = %d, want 0", got)
	}
	// (o + shift) / stride maps the visited indices onto [0, 8).
	for i := int64(0); i < 8; i++ {
		o := 2*i + 1
		if got := (o - 1) / b.Stride; got < 0 || got >= b.Size {
			t.Errorf("re-indexed %d outside the tile", got)
		}
	}
	if !b.ShiftMap.Contains(nil, []int64{5}, []int64{2}) {
		t.Errorf("shift map should send 5 to (5-1)/2 = 2")
	}
}

// When the binding lower bound carries a coefficient, 2o >= g, the
// offset is ceil(g/2) and the size must be measured from there: two
// elements per value of g, not the three a plain division of the
// maximal slack would admit.
func TestSolveBoundsScaledLowerBound(t *testing.T) {
	acc := rel.MustParseMap("{ B[g] -> A[o] : 2o >= g and 2o < g + 4 and 0 <= g < 4 }")

	bounds, ok, err := solveBounds(acc, 1)
	if err != nil {
		t.Fatalf("solveBounds error: %v", err)
	}
	if !ok {
		t.Fatalf("window should be tileable")
	}
	b := bounds[0]
	if b.Size != 2 {
		t.Errorf("size = %d, want 2", b.Size)
	}
	for g := int64(0); g < 4; g++ {
		lb := evalAff(b.LB, nil, []int64{g})
		if want := (g + 1) / 2; lb != want {
			t.Errorf("lb at g=%d = %d, want %d", g, lb, want)
		}
		for o := int64(-4); o < 8; o++ {
			if !acc.Contains(nil, []int64{g}, []int64{o}) {
				continue
			}
			if o < lb || o >= lb+b.Size {
				t.Fatalf("accessed index %d outside [%d, %d) for g=%d", o, lb, lb+b.Size, g)
			}
		}
	}
}

func TestSolveBoundsInfeasible(t *testing.T) {
	acc := rel.MustParseMap("[N] -> { B[g] -> A[o] : 0 <= o < N }")

	_, ok, err := solveBounds(acc, 1)
	if err != nil {
		t.Fatalf("solveBounds error: %v", err)
	}
	if ok {
		t.Errorf("a parametric extent has no constant size")
	}
}

func TestSolveBoundsPicksSmallestSize(t *testing.T) {
	// Two lower bounds hold: o >= 0 and o >= g.  The tighter one
	// (o >= g) gives size 16; the loose one would give 16+3.
	acc := rel.MustParseMap("{ B[g] -> A[o] : 0 <= g < 4 and g <= o and o < g + 16 and o >= 0 }")

	bounds, ok, err := solveBounds(acc, 1)
	if err != nil {
		t.Fatalf("solveBounds error: %v", err)
	}
	if !ok {
		t.Fatalf("window should be tileable")
	}
	if bounds[0].Size != 16 {
		t.Errorf("size = %d, want 16 from the tighter bound", bounds[0].Size)
	}
}
