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

	"github.com/go-polyhedra/memtier/rel"
)

// Kernel describes one kernel instantiation: the tiled schedule of
// every participating statement and the shape of its coordinate space.
//
// The tiled coordinate tuple has TiledLen dimensions laid out as
//
//	[0, SharedLen)             block-level loops (host, block ids,
//	                           shared tile loops), fixed per block
//	[SharedLen, TiledLen)      point loops executed inside a block
//
// of which the first len(BlockDim) point loops are distributed over
// the hardware lanes, blocked (Interleave false) or wrapped
// (Interleave true).  In both assignments lane i's iterations of
// point loop d are the residue class x_d = t_d mod BlockDim[d].
type Kernel struct {
	TiledLen  int
	SharedLen int

	// NParallel is the number of thread-parallel point loops.  Zero
	// means len(BlockDim).
	NParallel int

	BlockDim   []int64
	Interleave bool

	// TiledSched maps each statement name to the relation from its
	// iteration tuple to the tiled coordinate tuple.  All schedules
	// must share one output tuple of TiledLen dimensions.
	TiledSched map[string]rel.Map

	tuple        string
	blockSched   map[string]rel.Map
	projWrapped  rel.Map
	priv         rel.Map
	threadParams []string
}

// NBlock returns the number of lane dimensions.
func (k *Kernel) NBlock() int { return len(k.BlockDim) }

// init validates the kernel description against the program and
// builds the derived relations every pass shares.
func (k *Kernel) init(prog *Program) error {
	nb := k.NBlock()
	if k.TiledLen <= 0 || k.SharedLen < 0 || k.SharedLen > k.TiledLen {
		return fmt.Errorf("memtier: kernel has %d shared of %d tiled dims", k.SharedLen, k.TiledLen)
	}
	if nb == 0 || k.SharedLen+nb > k.TiledLen {
		return fmt.Errorf("memtier: %d lane dims do not fit after dim %d of %d", nb, k.SharedLen, k.TiledLen)
	}
	for i, b := range k.BlockDim {
		if b < 1 {
			return fmt.Errorf("memtier: lane dim %d has extent %d", i, b)
		}
	}
	if k.NParallel == 0 {
		k.NParallel = nb
	}
	if k.NParallel < nb || k.SharedLen+k.NParallel > k.TiledLen {
		return fmt.Errorf("memtier: %d parallel point loops out of range", k.NParallel)
	}

	k.tuple = ""
	for _, stmt := range prog.Statements {
		sched, ok := k.TiledSched[stmt.Name]
		if !ok {
			continue
		}
		out := sched.Space.Out
		if k.tuple == "" {
			if out.N != k.TiledLen {
				return fmt.Errorf("memtier: schedule of %s has %d dims, kernel has %d",
					stmt.Name, out.N, k.TiledLen)
			}
			k.tuple = out.Name
		} else if out.Name != k.tuple || out.N != k.TiledLen {
			return fmt.Errorf("memtier: schedule of %s targets %s[%d], expected %s[%d]",
				stmt.Name, out.Name, out.N, k.tuple, k.TiledLen)
		}
	}
	if k.tuple == "" {
		return fmt.Errorf("memtier: kernel schedules no statement of the program")
	}

	proj, err := Projection(nil, k.tuple, k.TiledLen, k.SharedLen)
	if err != nil {
		return err
	}
	k.blockSched = make(map[string]rel.Map, len(k.TiledSched))
	for name, sched := range k.TiledSched {
		k.blockSched[name], err = rel.ApplyRange(sched, proj)
		if err != nil {
			return fmt.Errorf("memtier: schedule of %s: %w", name, err)
		}
	}

	k.projWrapped, err = Projection(nil, k.tuple, k.TiledLen, k.SharedLen+nb)
	if err != nil {
		return err
	}
	k.priv, k.threadParams, err = k.privatization()
	return err
}

// privatization builds the map from the shared loops plus the
// lane-distributed point loops onto the shared loops alone, with each
// lane coordinate pinned to a fresh parameter t0, t1, ...  Applying
// it to the domain of an access yields the per-lane view of the
// access, parametrized over which lane is looking.
func (k *Kernel) privatization() (rel.Map, []string, error) {
	nb := k.NBlock()
	wrapped := k.SharedLen + nb

	var tiling rel.Map
	var err error
	if k.Interleave {
		tiling, err = Wrap(nil, k.tuple, wrapped, k.SharedLen, nb, k.BlockDim)
	} else {
		tiling, err = Tile(nil, k.tuple, wrapped, k.SharedLen, nb, k.BlockDim)
	}
	if err != nil {
		return rel.Map{}, nil, err
	}

	// Both tilings place the lane indices right after the wrapped
	// block, so one parametrization covers both assignments.
	par, names, err := Parametrize(nil, k.tuple, wrapped+nb, wrapped, nb, "t")
	if err != nil {
		return rel.Map{}, nil, err
	}
	priv, err := rel.IntersectRange(tiling, par)
	if err != nil {
		return rel.Map{}, nil, err
	}
	proj, err := Projection(nil, k.tuple, wrapped+nb, k.SharedLen)
	if err != nil {
		return rel.Map{}, nil, err
	}
	priv, err = rel.ApplyRange(priv, proj)
	if err != nil {
		return rel.Map{}, nil, err
	}
	return priv, names, nil
}

// tiledAccess unions the schedule-applied access relations of a
// group's references, giving the relation from tiled coordinates to
// array elements.
func (k *Kernel) tiledAccess(g *RefGroup) (rel.Map, error) {
	space := rel.MapSpace(nil, k.tuple, k.TiledLen, g.Array.Name, g.Array.NIndex)
	acc := rel.EmptyMap(space)
	for _, ref := range g.Refs {
		active, err := rel.IntersectDomain(ref.Access, ref.Stmt.Domain)
		if err != nil {
			return rel.Map{}, err
		}
		applied, err := rel.ApplyDomain(active, k.TiledSched[ref.Stmt.Name])
		if err != nil {
			return rel.Map{}, err
		}
		acc, err = rel.Union(acc, applied)
		if err != nil {
			return rel.Map{}, err
		}
	}
	return acc, nil
}

// Plan is the per-kernel output contract: the finalized groups of
// every array, the (possibly unroll-permuted) local schedules, the
// first schedule position eligible for unrolling (-1 when none) and,
// per array, the elements cached in lane-private storage.
type Plan struct {
	Groups        map[string][]*RefGroup
	Schedules     map[string]rel.Map
	FirstUnroll   int
	PrivateAccess map[string]rel.Set
}

// Synthesize runs the whole engine for one kernel instantiation:
// grouping, tier assignment and unroll interchange.  The returned
// Plan holds every kernel-scoped artifact; nothing else survives the
// call, so discarding the Plan releases the kernel.
func Synthesize(prog *Program, k *Kernel) (*Plan, error) {
	if err := k.init(prog); err != nil {
		return nil, err
	}
	for _, stmt := range prog.Statements {
		for _, ref := range stmt.Refs {
			ref.Group = -1
		}
	}

	plan := &Plan{
		Groups:        make(map[string][]*RefGroup),
		Schedules:     make(map[string]rel.Map),
		FirstUnroll:   -1,
		PrivateAccess: make(map[string]rel.Set),
	}
	for _, arr := range prog.Arrays {
		groups, err := k.groupReferences(arr)
		if err != nil {
			return nil, fmt.Errorf("memtier: array %s: %w", arr.Name, err)
		}
		for _, g := range groups {
			if err := k.promote(g, plan); err != nil {
				return nil, fmt.Errorf("memtier: array %s group %d: %w", arr.Name, g.Nr, err)
			}
		}
		plan.Groups[arr.Name] = groups
	}

	if err := k.interchangeForUnroll(plan); err != nil {
		return nil, err
	}
	return plan, nil
}
