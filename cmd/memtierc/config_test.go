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

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-polyhedra/memtier/memtier"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.yaml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAndRun(t *testing.T) {
	path := writeConfig(t, `
arrays:
  A: double
statements:
  - name: S
    domain: "{ S[b, i] : 0 <= b < 4 and 0 <= i < 32 }"
    schedule: "{ S[b, i] -> K[b, i] }"
    reads:
      - "{ S[b, i] -> A[i] }"
    writes:
      - "{ S[b, i] -> B[32b + i] }"
kernel:
  tiled_len: 2
  shared_len: 1
  block: [32]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	prog, kernel, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if a := prog.ArrayByName("A"); a == nil || a.ElemType != "double" {
		t.Fatalf("array A = %+v, want a double array", a)
	}
	if b := prog.ArrayByName("B"); b == nil || b.ElemType != "float" {
		t.Fatalf("array B = %+v, want the float default", b)
	}
	if kernel.TiledLen != 2 || kernel.SharedLen != 1 || len(kernel.BlockDim) != 1 {
		t.Fatalf("kernel = %+v not carried over from the file", kernel)
	}

	plan, err := memtier.Synthesize(prog, kernel)
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	out := plan.Dump(prog)
	if !strings.Contains(out, "array A group 0") || !strings.Contains(out, "array B group 0") {
		t.Errorf("dump lacks the expected groups:\n%s", out)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"Empty", ""},
		{"NotYAML", ":\n-  junk ["},
		{"NoStatements", "kernel:\n  tiled_len: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.text)); err == nil {
				t.Errorf("LoadConfig accepted a bad file")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Errorf("LoadConfig accepted a missing file")
	}
}

func TestBuildRejectsBadRelations(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"BadDomain", `
statements:
  - name: S
    domain: "{ S[i"
    schedule: "{ S[i] -> K[i] }"
    reads: ["{ S[i] -> A[i] }"]
kernel: {tiled_len: 1, shared_len: 0, block: [32]}
`},
		{"BadAccess", `
statements:
  - name: S
    domain: "{ S[i] : 0 <= i < 4 }"
    schedule: "{ S[i] -> K[i] }"
    reads: ["A of i"]
kernel: {tiled_len: 1, shared_len: 0, block: [32]}
`},
		{"BadContext", `
context: "{ S[i] -> K[i] }"
statements:
  - name: S
    domain: "{ S[i] : 0 <= i < 4 }"
    schedule: "{ S[i] -> K[i] }"
    reads: ["{ S[i] -> A[i] }"]
kernel: {tiled_len: 1, shared_len: 0, block: [32]}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.text))
			if err != nil {
				t.Fatalf("LoadConfig error: %v", err)
			}
			if _, _, err := cfg.Build(); err == nil {
				t.Errorf("Build accepted a bad relation")
			}
		})
	}
}
