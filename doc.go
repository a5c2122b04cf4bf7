// Package stages builds pipelines out of stages that move items between shared containers.
//
// To install stages:
//
//	go get -u github.com/andriiyaremenko/stages
//
// A stage drains its input container, applies an operation and places results into its output container.
// When the output refuses an item the result is kept in a private buffer and retried before the next item,
// so nothing taken from the input is lost. Stages are chained by observing each other's events:
// every Started, ItemProcessed and Finished event of a host runs the observing stage.
//
// How to use:
//
// Pipeline:
//
//	import (
//		"strconv"
//
//		"github.com/andriiyaremenko/stages"
//		"github.com/andriiyaremenko/stages/container"
//	)
//
//	func main() {
//		p := stages.NewSliceProducer([]string{"1", "2", "3"}, nil)
//		parse := stages.Pipe(stages.Source[string](p), func(s string) int {
//			n, _ := strconv.Atoi(s)
//			return n
//		})
//		add := stages.Pipe(stages.Source[int](parse), func(n int) int { return n + 1 })
//
//		if err := p.Run(); err != nil {
//			// ...
//		}
//
//		// 2, 3, 4
//		results := container.Drain(add.Output())
//	}
//
// Asynchronous run:
//
//	import (
//		"context"
//
//		"github.com/andriiyaremenko/stages"
//	)
//
//	func main() {
//		ctx, cancel := context.WithCancel(context.Background())
//		defer cancel()
//
//		c := stages.NewConsumer(in, op)
//		task := c.RunAsyncContext(ctx)
//
//		// the context belongs to the caller: c.Cancel() returns ErrManagedScope, call cancel() instead
//		if err := task.Wait(); err != nil {
//			// ...
//		}
//	}
//
// File to file:
//
//	import (
//		"github.com/spf13/afero"
//
//		"github.com/andriiyaremenko/stages"
//		"github.com/andriiyaremenko/stages/lines"
//		"github.com/andriiyaremenko/stages/sink"
//	)
//
//	func main() {
//		r := lines.NewReader(afero.NewOsFs(), "in-1.txt", "in-2.txt")
//		p := stages.NewProducer(r.Lines(), nil, stages.WithResource(r))
//		defer p.Dispose()
//
//		stages.WriteTo(stages.Source[string](p), sink.NewFile(nil), "out.txt")
//
//		if err := p.Run(); err != nil {
//			// ...
//		}
//	}
package stages
