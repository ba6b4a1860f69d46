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

package dsu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMergeInto(t *testing.T) {
	d := New(5)

	d.MergeInto(1, 3)
	if d.Find(3) != 1 {
		t.Errorf("Find(3) = %d, want 1", d.Find(3))
	}
	if !d.Same(1, 3) || d.Same(1, 2) {
		t.Errorf("membership after merge is wrong")
	}

	// The chosen root wins even when merging two existing sets.
	d.MergeInto(0, 1)
	if d.Find(3) != 0 {
		t.Errorf("Find(3) = %d, want 0 after chained merge", d.Find(3))
	}

	if diff := cmp.Diff([]int{0, 2, 4}, d.Roots()); diff != "" {
		t.Errorf("Roots mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeIntoSameSet(t *testing.T) {
	d := New(3)
	d.MergeInto(0, 1)
	d.MergeInto(1, 0)
	if d.Find(1) != 0 {
		t.Errorf("merging an element into its own set must not change the root")
	}
}
