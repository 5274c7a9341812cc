// Package worker provides a generic, thread-safe worker pool for concurrent
// job processing.
//
// # Overview
//
// The pool manages a fixed number of goroutines processing work items of any
// type T from a bounded channel:
//   - Bounded queue with backpressure: Submit is non-blocking and reports a
//     full queue; SubmitWait blocks until space frees or the context ends
//   - Context-aware cancellation and graceful shutdown with a drain timeout
//   - Always-on statistics plus optional Prometheus metrics through the
//     metric package's Registrar
//
// # Usage
//
//	pool := worker.NewPool(4, 256, func(ctx context.Context, job Job) error {
//	    return process(ctx, job)
//	}, worker.WithRegistrar[Job](registry, "conversion_workers"))
//
//	pool.Start(ctx)
//	for _, job := range jobs {
//	    if err := pool.SubmitWait(ctx, job); err != nil {
//	        break
//	    }
//	}
//	pool.Stop(30 * time.Second)
//
// A processor error marks the item failed in the statistics but never stops
// the pool; isolation between jobs is the point.
//
// # Known Limitations
//
//  1. No per-item timeout: implement in the processor function
//  2. No priority queue: items are processed FIFO
//  3. No dynamic scaling: the worker count is fixed at construction
package worker
