// Command ptaxi-asm emits one of a small set of named RV64I fixture
// programs as raw machine code, for use as test/benchmark input to
// ptaxi-run without checking binary blobs into the repository.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ptaxisim/engine/asm"
)

var (
	name = flag.String("program", "", "name of the fixture program to emit (see -list)")
	out  = flag.String("o", "", "output path (default: stdout)")
	list = flag.Bool("list", false, "list available fixture programs")
)

func main() {
	flag.Parse()

	if *list {
		for _, p := range fixtures {
			fmt.Printf("%s\t%s\n", p.Name, p.Description)
		}
		return
	}

	if *name == "" {
		fmt.Fprintln(os.Stderr, "Usage: ptaxi-asm -program <name> [-o path]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var program []byte
	found := false
	for _, p := range fixtures {
		if p.Name == *name {
			program = p.Build()
			found = true
			break
		}
	}
	if !found {
		fmt.Fprintf(os.Stderr, "ptaxi-asm: unknown program %q (-list for options)\n", *name)
		os.Exit(1)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ptaxi-asm: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if _, err := w.Write(program); err != nil {
		fmt.Fprintf(os.Stderr, "ptaxi-asm: %v\n", err)
		os.Exit(1)
	}
}

type fixture struct {
	Name        string
	Description string
	Build       func() []byte
}

var fixtures = []fixture{
	{
		Name:        "exit42",
		Description: "addi a0, zero, 42; addi a7, zero, 93; ecall",
		Build: func() []byte {
			return asm.BuildProgram(
				asm.EncodeADDI(10, 0, 42),
				asm.EncodeADDI(17, 0, 93),
				asm.EncodeECALL(),
			)
		},
	},
	{
		Name:        "taggedStore",
		Description: "a minimal program that stores a1 through a0 into memory, for BLOCK-policy fixtures",
		Build: func() []byte {
			return asm.BuildProgram(
				asm.EncodeADDI(10, 0, 0x100), // a0 = 0x100
				asm.EncodeADDI(11, 0, 0xff),  // a1 = 0xff
				asm.EncodeSD(10, 11, 0),      // sd a1, 0(a0)
				asm.EncodeADDI(17, 0, 93),
				asm.EncodeECALL(),
			)
		},
	},
}
