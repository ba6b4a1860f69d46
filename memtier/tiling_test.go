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

import "testing"

func TestTile(t *testing.T) {
	m, err := Tile(nil, "K", 2, 0, 1, []int64{4})
	if err != nil {
		t.Fatalf("Tile error: %v", err)
	}

	tests := []struct {
		name string
		in   []int64
		out  []int64
		want bool
	}{
		{"SplitsIntoBlockAndOffset", []int64{5, 7}, []int64{1, 1, 7}, true},
		{"ExactMultiple", []int64{8, 0}, []int64{2, 0, 0}, true},
		{"WrongQuotient", []int64{5, 7}, []int64{2, 1, 7}, false},
		{"OffsetOutOfRange", []int64{5, 7}, []int64{0, 5, 7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Contains(nil, tt.in, tt.out); got != tt.want {
				t.Errorf("Tile contains %v -> %v: %v, want %v", tt.in, tt.out, got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	m, err := Wrap(nil, "K", 2, 0, 1, []int64{4})
	if err != nil {
		t.Fatalf("Wrap error: %v", err)
	}

	tests := []struct {
		name string
		in   []int64
		out  []int64
		want bool
	}{
		{"KeepsOriginalCoordinate", []int64{5, 7}, []int64{5, 1, 7}, true},
		{"ZeroRemainder", []int64{8, 3}, []int64{8, 0, 3}, true},
		{"WrongRemainder", []int64{5, 7}, []int64{5, 2, 7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Contains(nil, tt.in, tt.out); got != tt.want {
				t.Errorf("Wrap contains %v -> %v: %v, want %v", tt.in, tt.out, got, tt.want)
			}
		})
	}
}

func TestTileAfterFixedDims(t *testing.T) {
	// Tiling the middle dimension leaves the outer one in place and
	// shifts the trailing one.
	m, err := Tile(nil, "K", 3, 1, 1, []int64{8})
	if err != nil {
		t.Fatalf("Tile error: %v", err)
	}
	if !m.Contains(nil, []int64{2, 19, 5}, []int64{2, 2, 3, 5}) {
		t.Errorf("19 should split into 2*8+3 at position 1")
	}
}

func TestProjection(t *testing.T) {
	m, err := Projection(nil, "K", 3, 2)
	if err != nil {
		t.Fatalf("Projection error: %v", err)
	}
	if !m.Contains(nil, []int64{4, 5, 6}, []int64{4, 5}) {
		t.Errorf("projection should keep the first two coordinates")
	}
	if m.Contains(nil, []int64{4, 5, 6}, []int64{4, 6}) {
		t.Errorf("projection must not reorder coordinates")
	}
}

func TestPermutation(t *testing.T) {
	m, err := Permutation(nil, "K", []int{2, 0, 1})
	if err != nil {
		t.Fatalf("Permutation error: %v", err)
	}
	if !m.Contains(nil, []int64{7, 8, 9}, []int64{8, 9, 7}) {
		t.Errorf("permutation should place in[i] at out[pos[i]]")
	}
}

func TestNext(t *testing.T) {
	m, err := Next(nil, "K", 3, 1)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if !m.Contains(nil, []int64{1, 2, 3}, []int64{1, 3, 3}) {
		t.Errorf("Next should increment position 1 only")
	}
	if m.Contains(nil, []int64{1, 2, 3}, []int64{1, 2, 3}) {
		t.Errorf("Next must not contain the identity")
	}
}

func TestParametrize(t *testing.T) {
	s, names, err := Parametrize(nil, "K", 3, 1, 2, "t")
	if err != nil {
		t.Fatalf("Parametrize error: %v", err)
	}
	if len(names) != 2 || names[0] != "t0" || names[1] != "t1" {
		t.Fatalf("names = %v, want [t0 t1]", names)
	}
	if !s.Contains([]int64{5, 6}, nil, []int64{9, 5, 6}) {
		t.Errorf("coordinates 1 and 2 should be pinned to t0, t1")
	}
	if s.Contains([]int64{5, 6}, nil, []int64{9, 6, 5}) {
		t.Errorf("pinning must respect positions")
	}
}

func TestTileArgumentChecks(t *testing.T) {
	if _, err := Tile(nil, "K", 2, 1, 2, []int64{4, 4}); err == nil {
		t.Errorf("block past the last dimension should fail")
	}
	if _, err := Wrap(nil, "K", 3, 0, 2, []int64{4}); err == nil {
		t.Errorf("size count mismatch should fail")
	}
}
