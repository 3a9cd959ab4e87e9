package main

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/fitalloc/heap"
	"github.com/vkngwrapper/fitalloc/memutils/metadata"
	"github.com/vkngwrapper/fitalloc/memutils/source"
	"golang.org/x/exp/slog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Address space reserved by --mapped when --max-heap is not set
const defaultMappedCapacity = 1 << 30

type globalOptions struct {
	verbose  bool
	jsonOut  bool
	mapped   bool
	strategy string
	maxHeap  int
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "fitalloc",
		Short: "Exercise first-fit and best-fit heap allocation",
		Long: `fitalloc replays allocation traces and runs synthetic workloads against a
free-list heap, reporting how much memory each placement strategy claims and how
fragmented the heap ends up.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every heap operation to stderr")
	flags.BoolVar(&opts.jsonOut, "json", false, "Output in JSON format")
	flags.StringVarP(&opts.strategy, "strategy", "s", "ff", "Placement strategy: ff or bf")
	flags.IntVar(&opts.maxHeap, "max-heap", 0, "Maximum heap size in bytes, headers included (0 for no limit)")
	flags.BoolVar(&opts.mapped, "mapped", false, "Grow the heap inside a reserved virtual memory range instead of a Go slice")

	cmd.AddCommand(newTraceCmd(opts), newBenchCmd(opts), newVersionCmd())
	return cmd
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *globalOptions) parseStrategy() (metadata.AllocationStrategy, error) {
	return metadata.ParseAllocationStrategy(o.strategy)
}

// newHeap builds a heap from the global flags. The returned function releases the heap's memory
// source and must be called once the heap is no longer used.
func (o *globalOptions) newHeap(cmd *cobra.Command, strategy metadata.AllocationStrategy) (*heap.Heap, func() error, error) {
	if o.maxHeap < 0 {
		return nil, nil, errors.Newf("--max-heap must not be negative, got %d", o.maxHeap)
	}

	options := heap.CreateOptions{Strategy: strategy}
	release := func() error { return nil }

	if o.mapped {
		capacity := o.maxHeap
		if capacity == 0 {
			capacity = defaultMappedCapacity
		}

		mapped, err := source.NewMapped(capacity)
		if err != nil {
			return nil, nil, err
		}
		options.Source = mapped
		release = mapped.Close
	} else {
		options.MaxHeapSize = o.maxHeap
	}

	h, err := heap.New(o.logger(cmd.ErrOrStderr()), options)
	if err != nil {
		_ = release()
		return nil, nil, err
	}

	return h, release, nil
}

func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}
