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

import "testing"

func TestApplyRange(t *testing.T) {
	a := MustParseMap("{ S[i] -> T[i + 1] : 0 <= i < 10 }")
	b := MustParseMap("{ T[j] -> A[2j] }")

	c, err := ApplyRange(a, b)
	if err != nil {
		t.Fatalf("ApplyRange error: %v", err)
	}
	if c.Space.In.Name != "S" || c.Space.Out.Name != "A" {
		t.Fatalf("composed space = %+v, want S -> A", c.Space)
	}
	if !c.Contains(nil, []int64{3}, []int64{8}) {
		t.Errorf("composition should map 3 to 2*(3+1) = 8")
	}
	if c.Contains(nil, []int64{3}, []int64{7}) {
		t.Errorf("composition maps 3 to 8 only")
	}
	if c.Contains(nil, []int64{10}, []int64{22}) {
		t.Errorf("input 10 is outside the domain")
	}
}

func TestApplyDomain(t *testing.T) {
	m := MustParseMap("{ S[i] -> A[i] : 0 <= i < 8 }")
	sched := MustParseMap("{ S[i] -> K[i + 2] }")

	got, err := ApplyDomain(m, sched)
	if err != nil {
		t.Fatalf("ApplyDomain error: %v", err)
	}
	if got.Space.In.Name != "K" {
		t.Fatalf("domain tuple = %q, want K", got.Space.In.Name)
	}
	if !got.Contains(nil, []int64{5}, []int64{3}) {
		t.Errorf("K[5] should reach A[3]")
	}
	if got.Contains(nil, []int64{1}, []int64{-1}) {
		t.Errorf("K[1] maps outside the domain")
	}
}

// Projecting the domain away must keep the parity information of the
// access: the image of S[i] -> A[2i+1] contains only odd indices.
func TestRangeKeepsDivisibility(t *testing.T) {
	m := MustParseMap("[N] -> { S[i] -> A[2i + 1] : 0 <= i < N }")
	rng := Range(m)

	tests := []struct {
		name string
		n    int64
		o    int64
		want bool
	}{
		{"FirstOdd", 4, 1, true},
		{"LastOdd", 4, 7, true},
		{"Even", 4, 6, false},
		{"PastEnd", 4, 9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rng.Contains([]int64{tt.n}, nil, []int64{tt.o}); got != tt.want {
				t.Errorf("Range contains A[%d] for N=%d: %v, want %v", tt.o, tt.n, got, tt.want)
			}
		})
	}
}

func TestIntersectAndUnion(t *testing.T) {
	a := MustParseSet("{ A[i] : 0 <= i <= 5 }")
	b := MustParseSet("{ A[i] : 3 <= i <= 9 }")

	both, err := Intersect(a, b)
	if err != nil {
		t.Fatalf("Intersect error: %v", err)
	}
	if !both.Contains(nil, nil, []int64{4}) || both.Contains(nil, nil, []int64{1}) {
		t.Errorf("intersection should be [3,5]")
	}

	either, err := Union(a, b)
	if err != nil {
		t.Fatalf("Union error: %v", err)
	}
	for i := int64(0); i <= 9; i++ {
		if !either.Contains(nil, nil, []int64{i}) {
			t.Errorf("union should contain %d", i)
		}
	}
	if either.Contains(nil, nil, []int64{10}) {
		t.Errorf("union should end at 9")
	}

	disjoint, err := Intersect(a, MustParseSet("{ A[i] : i >= 100 }"))
	if err != nil {
		t.Fatalf("Intersect error: %v", err)
	}
	if !IsEmpty(disjoint) {
		t.Errorf("disjoint intersection should be empty")
	}
}

func TestIntersectDomainAndRange(t *testing.T) {
	m := MustParseMap("{ S[i] -> A[i + 1] }")

	dom, err := IntersectDomain(m, MustParseSet("{ S[i] : 0 <= i < 4 }"))
	if err != nil {
		t.Fatalf("IntersectDomain error: %v", err)
	}
	if !dom.Contains(nil, []int64{3}, []int64{4}) || dom.Contains(nil, []int64{4}, []int64{5}) {
		t.Errorf("domain restriction to [0,4) not applied")
	}

	rng, err := IntersectRange(m, MustParseSet("{ A[o] : o <= 2 }"))
	if err != nil {
		t.Fatalf("IntersectRange error: %v", err)
	}
	if !rng.Contains(nil, []int64{1}, []int64{2}) || rng.Contains(nil, []int64{2}, []int64{3}) {
		t.Errorf("range restriction to o <= 2 not applied")
	}
}

func TestReverseAndDomain(t *testing.T) {
	m := MustParseMap("{ S[i] -> A[3i] : 0 <= i < 3 }")

	rev := Reverse(m)
	if rev.Space.In.Name != "A" || rev.Space.Out.Name != "S" {
		t.Fatalf("reversed space = %+v", rev.Space)
	}
	if !rev.Contains(nil, []int64{6}, []int64{2}) {
		t.Errorf("reverse should map A[6] to S[2]")
	}

	dom := Domain(m)
	if !dom.Contains(nil, nil, []int64{2}) || dom.Contains(nil, nil, []int64{3}) {
		t.Errorf("domain should be [0,3)")
	}
}

func TestProjectOutputs(t *testing.T) {
	m := MustParseMap("{ S[i] -> A[i, 2i] : 0 <= i < 5 }")

	first, err := ProjectOutputs(m, 1, 1)
	if err != nil {
		t.Fatalf("ProjectOutputs error: %v", err)
	}
	if first.Space.Out.N != 1 {
		t.Fatalf("projected space keeps %d dims, want 1", first.Space.Out.N)
	}
	if !first.Contains(nil, []int64{4}, []int64{4}) {
		t.Errorf("first coordinate should survive the projection")
	}

	second, err := ProjectOutputs(m, 0, 1)
	if err != nil {
		t.Fatalf("ProjectOutputs error: %v", err)
	}
	if !second.Contains(nil, []int64{4}, []int64{8}) || second.Contains(nil, []int64{4}, []int64{7}) {
		t.Errorf("second coordinate should stay tied to the input")
	}
}

func TestIntersectParams(t *testing.T) {
	m := MustParseMap("[N] -> { S[i] -> A[i] : 0 <= i < N }")
	ctx := MustParseSet("[N] -> { : N <= 4 }")

	got, err := IntersectParams(m, ctx)
	if err != nil {
		t.Fatalf("IntersectParams error: %v", err)
	}
	if !got.Contains([]int64{4}, []int64{3}, []int64{3}) {
		t.Errorf("N=4 should stay feasible")
	}
	if got.Contains([]int64{8}, []int64{3}, []int64{3}) {
		t.Errorf("N=8 violates the context")
	}
}
