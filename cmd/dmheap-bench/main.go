// Command dmheap-bench exercises a dmheap.Context with a simple
// alloc/free workload over a fixed buffer and reports timing, useful for
// sizing a heap before embedding it on target hardware.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmheap/dmheap"
)

func main() {
	var (
		heapSize  = flag.Int("heap-size", 1<<20, "backing buffer size in bytes")
		alignment = flag.Int("alignment", 8, "default alignment, power of two")
		allocSize = flag.Int("alloc-size", 64, "payload size per allocation")
		count     = flag.Int("count", 10000, "number of alloc/free pairs")
		module    = flag.String("module", "bench", "module name to charge allocations to")
	)

	flag.Parse()

	buf := make([]byte, *heapSize)

	ctx, err := dmheap.NewContext(buf,
		dmheap.WithDefaultAlignment(uintptr(*alignment)),
		dmheap.WithLogger(dmheap.NewStdLogger()),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dmheap-bench: %v\n", err)
		os.Exit(1)
	}

	defer ctx.Close()

	start := time.Now()

	for i := 0; i < *count; i++ {
		p, err := ctx.Malloc(uintptr(*allocSize), *module)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dmheap-bench: malloc failed at iteration %d: %v\n", i, err)
			os.Exit(1)
		}

		ctx.Free(p, true)
	}

	elapsed := time.Since(start)

	fmt.Printf("%d alloc/free pairs of %d bytes in %s (%.0f ns/op)\n",
		*count, *allocSize, elapsed, float64(elapsed.Nanoseconds())/float64(*count))

	ctx.UnregisterModule(*module)
}
