// Command ptaxi-run loads an RV64 ELF binary, wires a hostsim.Host to a
// ptaxi.Engine, and drives it to completion, printing the benchmark CSV
// line on exit when -bench is set.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ptaxisim/engine/hostsim"
	"github.com/ptaxisim/engine/loader"
	"github.com/ptaxisim/engine/policy"
	"github.com/ptaxisim/engine/ptaxi"
)

var (
	verbose       = flag.Bool("v", false, "enable verbose (debug-level) engine logging")
	policiesPath  = flag.String("policies", "", "path to a JSON policy-fixture file to pre-seed into the current context (allocated if none is set)")
	maxInsns      = flag.Uint64("max-insns", 0, "stop after this many retired instructions (0 = unlimited)")
	bench         = flag.Bool("bench", false, "collect benchmark counters and print the RESULT CSV line on exit")
	noReturnCopy  = flag.Bool("no-return-copy", false, "enable the NO_RETURN_COPY built-in behavior")
	noPartialCopy = flag.Bool("no-partial-copy", false, "enable the host's NO_PARTIAL_COPY store-tag convention")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: ptaxi-run [options] <program.elf>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "ptaxi-run: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	prog, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	var hostOpts []hostsim.Option
	hostOpts = append(hostOpts, hostsim.WithStackPointer(prog.InitialSP))
	if *maxInsns > 0 {
		hostOpts = append(hostOpts, hostsim.WithMaxInstructions(*maxInsns))
	}
	if *noPartialCopy {
		hostOpts = append(hostOpts, hostsim.WithNoPartialCopy())
	}
	host := hostsim.NewHost(hostOpts...)

	for _, seg := range prog.Segments {
		host.Mem.LoadProgram(seg.VirtAddr, seg.Data)
	}
	host.Regs.PC = prog.EntryPoint

	var engineOpts []ptaxi.Option
	engineOpts = append(engineOpts, ptaxi.WithLogger(log))
	if *noReturnCopy {
		engineOpts = append(engineOpts, ptaxi.WithNoReturnCopy())
	}
	engine := ptaxi.NewEngine(host, engineOpts...)
	host.AttachEngine(engine)

	if *policiesPath != "" {
		fixtures, err := loadPolicyFixtures(*policiesPath)
		if err != nil {
			return fmt.Errorf("loading policy fixtures: %w", err)
		}
		for _, p := range fixtures {
			a, b, c := policy.Encode(p)
			engine.AddPolicy(a, b, c)
		}
	}

	if *bench {
		engine.StartBenchmark()
	}

	exitCode := host.Run()

	if *bench {
		fmt.Println(engine.StopBenchmark())
	}

	if trap := host.LastTrap(); trap != nil {
		return trap
	}

	if exitCode != 0 {
		os.Exit(int(exitCode))
	}
	return nil
}
