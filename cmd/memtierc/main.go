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

// memtierc runs the memory-hierarchy synthesis engine over a program
// description and prints the resulting plan.
//
// Usage:
//
//	memtierc -in program.yaml
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-polyhedra/memtier/memtier"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("memtierc: ")

	in := flag.String("in", "", "program description file (YAML)")
	verbose := flag.Bool("v", false, "print array extents before the plan")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := LoadConfig(*in)
	if err != nil {
		log.Fatal(err)
	}
	prog, kernel, err := cfg.Build()
	if err != nil {
		log.Fatal(err)
	}

	if *verbose {
		for _, arr := range prog.Arrays {
			fmt.Printf("array %s: %s, %d dim(s)\n", arr.Name, arr.ElemType, arr.NIndex)
			for i, exts := range arr.Extent {
				for _, e := range exts {
					fmt.Printf("  dim %d extent <= %s\n", i, e)
				}
			}
		}
	}

	plan, err := memtier.Synthesize(prog, kernel)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(plan.Dump(prog))
}
