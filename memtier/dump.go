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
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Dump renders the plan the way an emitter would consume it: one
// declaration per tiled group with its per-dimension size, offset and
// stride, followed by the unroll marker and the privately cached
// element sets.
func (p *Plan) Dump(prog *Program) string {
	var buf strings.Builder

	names := make([]string, 0, len(p.Groups))
	for name := range p.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		arr := prog.ArrayByName(name)
		for _, g := range p.Groups[name] {
			dumpGroup(&buf, arr, g)
		}
	}

	if p.FirstUnroll >= 0 {
		fmt.Fprintf(&buf, "unroll from schedule position %d\n", p.FirstUnroll)
	}
	for _, name := range names {
		if set, ok := p.PrivateAccess[name]; ok {
			fmt.Fprintf(&buf, "private elements of %s: %d conjunct(s)\n",
				name, len(set.Bmaps))
		}
	}
	return buf.String()
}

func dumpGroup(buf *strings.Builder, arr *ArrayInfo, g *RefGroup) {
	fmt.Fprintf(buf, "array %s group %d: %d ref(s)", arr.Name, g.Nr, len(g.Refs))
	if g.Write {
		buf.WriteString(" write")
	}
	if g.Tile == nil {
		buf.WriteString(" global\n")
		return
	}
	fmt.Fprintf(buf, " %s\n", g.Tile.Tier)
	fmt.Fprintf(buf, "  decl: %s %s%s\n", arr.ElemType, tileName(arr, g), dimSuffix(g))
	for i, b := range g.Tile.Bounds {
		fmt.Fprintf(buf, "  dim %d: size %d lb %s", i, b.Size, b.LB)
		if b.HasStride() {
			fmt.Fprintf(buf, " stride %d shift %s", b.Stride, b.Shift)
		}
		buf.WriteByte('\n')
	}
	if g.LastShared >= 0 {
		fmt.Fprintf(buf, "  copy below shared loop %d\n", g.LastShared)
	}
}

// tileName builds the identifier the emitter would declare the tile
// under, e.g. SharedA0 or PrivateB1.
func tileName(arr *ArrayInfo, g *RefGroup) string {
	title := cases.Title(language.English)
	return title.String(g.Tile.Tier.String()) + title.String(arr.Name) + fmt.Sprint(g.Nr)
}

func dimSuffix(g *RefGroup) string {
	var buf strings.Builder
	for _, b := range g.Tile.Bounds {
		fmt.Fprintf(&buf, "[%d]", b.Size)
	}
	return buf.String()
}
