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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-polyhedra/memtier/memtier"
	"github.com/go-polyhedra/memtier/rel"
)

// Config is the YAML description of an already-scheduled program plus
// the kernel shape to analyze it under.  Relations use the textual
// format of the rel package.
type Config struct {
	Context    string            `yaml:"context"`
	ElemTypes  map[string]string `yaml:"arrays"`
	Statements []StatementConfig `yaml:"statements"`
	Kernel     KernelConfig      `yaml:"kernel"`
}

type StatementConfig struct {
	Name     string   `yaml:"name"`
	Domain   string   `yaml:"domain"`
	Schedule string   `yaml:"schedule"`
	Reads    []string `yaml:"reads"`
	Writes   []string `yaml:"writes"`
}

type KernelConfig struct {
	TiledLen   int     `yaml:"tiled_len"`
	SharedLen  int     `yaml:"shared_len"`
	Parallel   int     `yaml:"parallel"`
	Block      []int64 `yaml:"block"`
	Interleave bool    `yaml:"interleave"`
}

// LoadConfig reads and parses a program description file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(cfg.Statements) == 0 {
		return nil, fmt.Errorf("%s: no statements", path)
	}
	return &cfg, nil
}

// Build converts the textual description into the engine's program
// and kernel inputs.
func (cfg *Config) Build() (*memtier.Program, *memtier.Kernel, error) {
	prog := &memtier.Program{}
	if cfg.Context != "" {
		ctx, err := rel.ParseSet(cfg.Context)
		if err != nil {
			return nil, nil, fmt.Errorf("context: %w", err)
		}
		prog.Context = ctx
	} else {
		prog.Context = rel.UniverseMap(rel.SetSpace(nil, "", 0))
	}

	k := &memtier.Kernel{
		TiledLen:   cfg.Kernel.TiledLen,
		SharedLen:  cfg.Kernel.SharedLen,
		NParallel:  cfg.Kernel.Parallel,
		BlockDim:   cfg.Kernel.Block,
		Interleave: cfg.Kernel.Interleave,
		TiledSched: make(map[string]rel.Map),
	}

	for _, sc := range cfg.Statements {
		dom, err := rel.ParseSet(sc.Domain)
		if err != nil {
			return nil, nil, fmt.Errorf("statement %s domain: %w", sc.Name, err)
		}
		stmt := &memtier.Statement{Name: sc.Name, Domain: dom}
		add := func(texts []string, write bool) error {
			for _, text := range texts {
				m, err := rel.ParseMap(text)
				if err != nil {
					return fmt.Errorf("statement %s access %q: %w", sc.Name, text, err)
				}
				stmt.Refs = append(stmt.Refs, &memtier.ArrayReference{
					Stmt:   stmt,
					Access: m,
					Write:  write,
					Group:  -1,
				})
			}
			return nil
		}
		if err := add(sc.Reads, false); err != nil {
			return nil, nil, err
		}
		if err := add(sc.Writes, true); err != nil {
			return nil, nil, err
		}
		prog.Statements = append(prog.Statements, stmt)

		sched, err := rel.ParseMap(sc.Schedule)
		if err != nil {
			return nil, nil, fmt.Errorf("statement %s schedule: %w", sc.Name, err)
		}
		k.TiledSched[sc.Name] = sched
	}

	if err := memtier.CollectArrays(prog, cfg.ElemTypes); err != nil {
		return nil, nil, err
	}
	return prog, k, nil
}
