// Package main provides the rv32sim CLI: loads a hex-image RV32I
// program into the Tomasulo engine and runs it to completion, printing
// the exit code.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rv32toma/tomasulo/emu"
	"github.com/rv32toma/tomasulo/internal/simlog"
	"github.com/rv32toma/tomasulo/loader"
	"github.com/rv32toma/tomasulo/timing/cache"
	"github.com/rv32toma/tomasulo/timing/core"
	"github.com/rv32toma/tomasulo/timing/latency"
	"github.com/rv32toma/tomasulo/timing/tomasulo"
	"github.com/rv32toma/tomasulo/trace"
)

var (
	flagICache       bool
	flagICacheConfig string
	flagTrace        string
	flagVerbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "rv32sim [image]",
	Short: "rv32sim runs an RV32I hex-image program on an out-of-order Tomasulo core",
	Long: `rv32sim loads a hex memory image (or stdin, if no image path is given) and
executes it on a Tomasulo-style out-of-order RV32I core, printing the program's
exit code as a single decimal line on standard output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSim,
}

func init() {
	rootCmd.Flags().BoolVar(&flagICache, "icache", false, "enable the optional L1 instruction cache")
	rootCmd.Flags().StringVar(&flagICacheConfig, "icache-config", "", "path to a JSON timing configuration overriding default unit latencies")
	rootCmd.Flags().StringVar(&flagTrace, "trace", "", "path to write a JSON register-dump trace, one line per commit")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "print a cycle/commit/flush summary to stderr")
}

// Execute runs the root command, exiting the process with status 1 on
// any error that RunE returns.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSim(cmd *cobra.Command, args []string) error {
	log := simlog.Default(flagVerbose)

	var src *os.File
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("rv32sim: %w", err)
		}
		defer f.Close()
		src = f
	} else {
		src = os.Stdin
	}

	mem := emu.NewMemory()
	entry, err := loader.Load(src, mem)
	if err != nil {
		return fmt.Errorf("rv32sim: %w", err)
	}
	log.Infof("loaded image, entry pc=0x%x\n", entry)

	regs := emu.NewRegFile()

	var opts []tomasulo.Option

	if flagICacheConfig != "" {
		tc, err := latency.LoadConfig(flagICacheConfig)
		if err != nil {
			return fmt.Errorf("rv32sim: %w", err)
		}
		if err := tc.Validate(); err != nil {
			return fmt.Errorf("rv32sim: invalid timing config: %w", err)
		}
		opts = append(opts, tomasulo.WithLatencyTable(latency.NewTableWithConfig(tc)))
	}

	if flagICache {
		opts = append(opts, tomasulo.WithInstructionCache(cache.DefaultL1IConfig()))
	}

	var sink *trace.Sink
	if flagTrace != "" {
		s, err := trace.Open(flagTrace)
		if err != nil {
			return fmt.Errorf("rv32sim: %w", err)
		}
		sink = s
		defer sink.Close()

		commits := uint64(0)
		opts = append(opts, tomasulo.WithCommitHook(func(pc uint32) {
			commits++
			sink.Record(trace.Event{CommitIndex: commits, InstructionPC: pc, Registers: regs.Value})
		}))
	}

	c := core.NewCore(regs, mem, opts...)
	c.SetPC(entry)

	code, capped, err := c.RunWithCap(tomasulo.DefaultCycleCap)
	if err != nil {
		return fmt.Errorf("rv32sim: %w", err)
	}
	if capped {
		log.Warnf("cycle cap of %d reached before halt; reporting a0 as-is\n", tomasulo.DefaultCycleCap)
	}

	if flagVerbose {
		stats := c.Stats()
		log.Infof("cycles=%d committed=%d flushes=%d cpi=%.3f\n", stats.Cycles, stats.Committed, stats.Flushes, stats.CPI())
		ps := c.PredictorStats()
		log.Infof("predictor: predictions=%d correct=%d mispredictions=%d accuracy=%.3f\n",
			ps.Predictions, ps.Correct, ps.Mispredictions, ps.Accuracy())
		if flagICache {
			ics := c.ICacheStats()
			log.Infof("icache: reads=%d hits=%d misses=%d evictions=%d\n", ics.Reads, ics.Hits, ics.Misses, ics.Evictions)
		}
	}

	fmt.Println(code)
	return nil
}
