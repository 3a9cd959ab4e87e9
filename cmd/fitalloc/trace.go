package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/fitalloc/heap"
	"github.com/vkngwrapper/fitalloc/internal/trace"
	"github.com/vkngwrapper/fitalloc/memutils/metadata"
)

func newTraceCmd(opts *globalOptions) *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "trace <file>",
		Short: "Replay an allocation trace",
		Long: `The trace command replays an allocation trace against a fresh heap and reports
how many operations succeeded and how large the heap grew.

Each line of a trace is either "a <id> <size>" or "f <id>". Lines starting
with # are comments. Pass - to read the trace from stdin. With --json, --dump
nests the heap map under "Heap" in the single output document.

Example:
  fitalloc trace workload.trace
  fitalloc trace workload.trace --strategy bf --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, opts, args[0], dump)
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "Print a detailed JSON map of the heap after the replay")

	return cmd
}

func openTrace(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open trace")
	}
	return file, nil
}

func runTrace(cmd *cobra.Command, opts *globalOptions, path string, dump bool) (err error) {
	strategy, err := opts.parseStrategy()
	if err != nil {
		return err
	}

	reader, err := openTrace(cmd, path)
	if err != nil {
		return err
	}
	ops, err := trace.Parse(reader)
	_ = reader.Close()
	if err != nil {
		return errors.Wrapf(err, "failed to parse %s", path)
	}

	h, release, err := opts.newHeap(cmd, strategy)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, release())
	}()

	result, err := trace.Replay(h, ops)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		var heapMap *heap.Heap
		if dump {
			heapMap = h
		}
		printTraceJSON(out, strategy, result, heapMap)
		return nil
	}

	printTraceText(out, strategy, result)
	if dump {
		fmt.Fprintln(out, h.BuildStatsString(true))
	}

	return nil
}

func printTraceText(out io.Writer, strategy metadata.AllocationStrategy, result trace.Result) {
	p := newPrinter()

	p.Fprintf(out, "Strategy:           %s\n", strategy.String())
	p.Fprintf(out, "Operations:         %d\n", result.Operations)
	p.Fprintf(out, "Allocations:        %d (%d failed)\n", result.Allocations, result.FailedAllocations)
	p.Fprintf(out, "Frees:              %d (%d failed)\n", result.Frees, result.FailedFrees)
	p.Fprintf(out, "Heap growths:       %d\n", result.HeapGrowths)
	p.Fprintf(out, "Heap size:          %d bytes\n", result.DataSegmentSize)
	p.Fprintf(out, "Free heap size:     %d bytes\n", result.DataSegmentFreeSpaceSize)
	p.Fprintf(out, "Peak allocated:     %d bytes\n", result.PeakAllocatedBytes)
	p.Fprintf(out, "Free blocks:        %d\n", result.Statistics.UnusedRangeCount)
	p.Fprintf(out, "Fragmentation:      %.4f\n", result.Heap.Fragmentation())
}

// printTraceJSON writes the replay summary as one json document. When heapMap is not nil, its
// detailed map is nested under "Heap".
func printTraceJSON(out io.Writer, strategy metadata.AllocationStrategy, result trace.Result, heapMap *heap.Heap) {
	writer := jwriter.NewWriter()

	obj := writer.Object()
	obj.Name("Strategy").String(strategy.String())
	obj.Name("Operations").Int(result.Operations)
	obj.Name("Allocations").Int(result.Allocations)
	obj.Name("FailedAllocations").Int(result.FailedAllocations)
	obj.Name("Frees").Int(result.Frees)
	obj.Name("FailedFrees").Int(result.FailedFrees)
	obj.Name("HeapGrowths").Int(result.HeapGrowths)
	obj.Name("DataSegmentSize").Int(result.DataSegmentSize)
	obj.Name("DataSegmentFreeSpaceSize").Int(result.DataSegmentFreeSpaceSize)
	obj.Name("PeakAllocatedBytes").Int(result.PeakAllocatedBytes)
	obj.Name("FreeBlocks").Int(result.Statistics.UnusedRangeCount)
	obj.Name("Fragmentation").Float64(result.Heap.Fragmentation())
	if heapMap != nil {
		heapMap.WriteStatsJSON(obj.Name("Heap"), true)
	}
	obj.End()

	fmt.Fprintln(out, string(writer.Bytes()))
}
