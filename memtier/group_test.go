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

	"github.com/go-polyhedra/memtier/rel"
)

func identityKernel(tiledLen, sharedLen int, block []int64, stmts ...string) *Kernel {
	k := &Kernel{
		TiledLen:   tiledLen,
		SharedLen:  sharedLen,
		BlockDim:   block,
		TiledSched: make(map[string]rel.Map),
	}
	for _, s := range stmts {
		k.TiledSched[s[:1]] = rel.MustParseMap(s[1:])
	}
	return k
}

func TestConflictingAccessesShareGroup(t *testing.T) {
	s := newStatement(t, "S",
		"{ S[b, i] : 0 <= b < 4 and 0 <= i < 32 }",
		[]string{"{ S[b, i] -> A[32b + i] }"},
		[]string{"{ S[b, i] -> A[32b + i] }"})
	prog := newProgram(t, nil, s)
	k := identityKernel(2, 1, []int64{32}, "S{ S[b, i] -> K[b, i] }")

	plan, err := Synthesize(prog, k)
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}

	groups := plan.Groups["A"]
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1: overlapping read and write must merge", len(groups))
	}
	if !groups[0].Write {
		t.Errorf("merged group must be marked as writing")
	}
	for _, ref := range s.Refs {
		if ref.Group != 0 {
			t.Errorf("reference group = %d, want 0", ref.Group)
		}
	}
}

func TestDisjointReadsStaySeparate(t *testing.T) {
	s := newStatement(t, "S",
		"{ S[b, i] : 0 <= b < 1 and 0 <= i < 32 }",
		[]string{"{ S[b, i] -> A[i] }", "{ S[b, i] -> A[i + 64] }"},
		nil)
	prog := newProgram(t, nil, s)
	k := identityKernel(2, 1, []int64{32}, "S{ S[b, i] -> K[b, i] }")

	plan, err := Synthesize(prog, k)
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}

	groups := plan.Groups["A"]
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2: disjoint reads never merge", len(groups))
	}
	if s.Refs[0].Group == s.Refs[1].Group {
		t.Errorf("both references point at group %d", s.Refs[0].Group)
	}
	for i, g := range groups {
		if g.Nr != i {
			t.Errorf("group %d has ordinal %d", i, g.Nr)
		}
	}
}

// Two overlapping reads that each admit a shared tile merge into one
// group carrying the union tile; the scan merges into the
// lower-numbered group.
func TestOverlappingTilesMerge(t *testing.T) {
	s := newStatement(t, "S",
		"{ S[b, i] : 0 <= b < 1 and 0 <= i < 32 }",
		[]string{"{ S[b, i] -> A[i] }", "{ S[b, i] -> A[i + 1] }"},
		nil)
	prog := newProgram(t, nil, s)
	k := identityKernel(2, 1, []int64{32}, "S{ S[b, i] -> K[b, i] }")

	plan, err := Synthesize(prog, k)
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}

	groups := plan.Groups["A"]
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1 after the tile-sharing merge", len(groups))
	}
	g := groups[0]
	if g.Tile == nil || g.Tile.Tier != TierShared {
		t.Fatalf("merged group tier = %v, want shared", g.Tile)
	}
	if g.Tile.Bounds[0].Size != 33 {
		t.Errorf("union tile size = %d, want 33", g.Tile.Bounds[0].Size)
	}
	if len(g.Refs) != 2 {
		t.Errorf("merged group holds %d refs, want 2", len(g.Refs))
	}
}

func TestUnscheduledStatementIsSkipped(t *testing.T) {
	s := newStatement(t, "S",
		"{ S[b, i] : 0 <= b < 1 and 0 <= i < 32 }",
		[]string{"{ S[b, i] -> A[i] }"}, nil)
	other := newStatement(t, "T",
		"{ T[i] : 0 <= i < 16 }",
		[]string{"{ T[i] -> B[i] }"}, nil)
	prog := newProgram(t, nil, s, other)
	k := identityKernel(2, 1, []int64{32}, "S{ S[b, i] -> K[b, i] }")

	plan, err := Synthesize(prog, k)
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if len(plan.Groups["B"]) != 0 {
		t.Errorf("a statement outside the kernel must not contribute groups")
	}
	if other.Refs[0].Group != -1 {
		t.Errorf("reference group = %d, want -1 for an unscheduled statement", other.Refs[0].Group)
	}
}

func TestKernelValidation(t *testing.T) {
	s := newStatement(t, "S",
		"{ S[b, i] : 0 <= b < 4 and 0 <= i < 32 }",
		[]string{"{ S[b, i] -> A[i] }"}, nil)
	prog := newProgram(t, nil, s)

	tests := []struct {
		name   string
		kernel *Kernel
	}{
		{"SharedPastTiled", identityKernel(2, 3, []int64{32}, "S{ S[b, i] -> K[b, i] }")},
		{"LanesDoNotFit", identityKernel(2, 2, []int64{32}, "S{ S[b, i] -> K[b, i] }")},
		{"ZeroLaneExtent", identityKernel(2, 1, []int64{0}, "S{ S[b, i] -> K[b, i] }")},
		{"ArityMismatch", identityKernel(3, 1, []int64{32}, "S{ S[b, i] -> K[b, i] }")},
		{"NoStatements", identityKernel(2, 1, []int64{32})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Synthesize(prog, tt.kernel); err == nil {
				t.Errorf("Synthesize accepted an invalid kernel")
			}
		})
	}
}
