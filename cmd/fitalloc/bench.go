package main

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/fitalloc/internal/workload"
	"github.com/vkngwrapper/fitalloc/memutils/metadata"
)

type benchOptions struct {
	workload   string
	iterations int
	items      int
	seed       uint64
	compare    bool
}

func newBenchCmd(opts *globalOptions) *cobra.Command {
	bench := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic allocation workload",
		Long: `The bench command runs one of the synthetic workloads against a fresh heap and
reports the time taken, the size of the heap and its fragmentation.

Workloads:
  equal  fixed 128 byte allocations freed in allocation order
  small  random sizes from 128 to 512 bytes, freed at random
  large  random sizes from 32 to 64000 bytes, freed at random

Example:
  fitalloc bench --workload small --strategy bf
  fitalloc bench --workload large --compare --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd, opts, bench)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&bench.workload, "workload", "w", "small", "Workload to run: equal, small or large")
	flags.IntVarP(&bench.iterations, "iterations", "n", 0, "Number of iterations (0 for the workload's default)")
	flags.IntVar(&bench.items, "items", 0, "Number of allocations the workload keeps live (0 for the default)")
	flags.Uint64Var(&bench.seed, "seed", 1, "Random seed")
	flags.BoolVar(&bench.compare, "compare", false, "Run the workload with both strategies, ignoring --strategy")

	return cmd
}

func runBench(cmd *cobra.Command, opts *globalOptions, bench *benchOptions) error {
	kind, err := workload.ParseKind(bench.workload)
	if err != nil {
		return err
	}

	var strategies []metadata.AllocationStrategy
	if bench.compare {
		strategies = []metadata.AllocationStrategy{
			metadata.AllocationStrategyFirstFit,
			metadata.AllocationStrategyBestFit,
		}
	} else {
		strategy, err := opts.parseStrategy()
		if err != nil {
			return err
		}
		strategies = []metadata.AllocationStrategy{strategy}
	}

	results := make([]workload.Result, 0, len(strategies))
	for _, strategy := range strategies {
		result, err := runWorkload(cmd, opts, workload.Config{
			Workload:   kind,
			Strategy:   strategy,
			Iterations: bench.iterations,
			Items:      bench.items,
			Seed:       bench.seed,
		})
		if err != nil {
			return errors.Wrapf(err, "%s workload failed with strategy %s", kind, strategy)
		}
		results = append(results, result)
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		printBenchJSON(out, results)
	} else {
		printBenchText(out, results)
	}

	return nil
}

func runWorkload(cmd *cobra.Command, opts *globalOptions, config workload.Config) (result workload.Result, err error) {
	h, release, err := opts.newHeap(cmd, config.Strategy)
	if err != nil {
		return workload.Result{}, err
	}
	defer func() {
		err = errors.CombineErrors(err, release())
	}()

	return workload.Run(cmd.Context(), h, config)
}

func printBenchText(out io.Writer, results []workload.Result) {
	p := newPrinter()

	for _, result := range results {
		p.Fprintf(out, "%s workload, %s\n", result.Workload, result.Strategy)
		p.Fprintf(out, "  Iterations:      %d\n", result.Iterations)
		p.Fprintf(out, "  Allocations:     %d\n", result.Allocations)
		p.Fprintf(out, "  Elapsed:         %v\n", result.Elapsed)
		p.Fprintf(out, "  Heap size:       %d bytes\n", result.DataSegmentSize)
		p.Fprintf(out, "  Free heap size:  %d bytes\n", result.DataSegmentFreeSpaceSize)
		p.Fprintf(out, "  Fragmentation:   %.4f\n", result.Fragmentation())
	}
}

func printBenchJSON(out io.Writer, results []workload.Result) {
	writer := jwriter.NewWriter()

	arr := writer.Array()
	for _, result := range results {
		obj := arr.Object()
		obj.Name("Workload").String(result.Workload.String())
		obj.Name("Strategy").String(result.Strategy.String())
		obj.Name("Iterations").Int(result.Iterations)
		obj.Name("Allocations").Int(result.Allocations)
		obj.Name("Frees").Int(result.Frees)
		obj.Name("ElapsedNanoseconds").Int(int(result.Elapsed.Nanoseconds()))
		obj.Name("DataSegmentSize").Int(result.DataSegmentSize)
		obj.Name("DataSegmentFreeSpaceSize").Int(result.DataSegmentFreeSpaceSize)
		obj.Name("Fragmentation").Float64(result.Fragmentation())
		obj.End()
	}
	arr.End()

	fmt.Fprintln(out, string(writer.Bytes()))
}
