// Package batch runs independent per-item tasks in bounded, paced waves.
//
// Partner APIs cap how many requests a caller may issue per time window. The
// orchestrator approximates such a cap by launching at most MaxConcurrent
// tasks at once, waiting for the whole wave to settle, and pausing
// InterBatchDelay before the next wave:
//
//	outcomes := batch.Run(ctx, tasks, batch.Config{
//		MaxConcurrent:   39,
//		InterBatchDelay: time.Second,
//	})
//
// Guarantees:
//   - len(outcomes) == len(tasks), in input order, whatever the completion order
//   - a failing or panicking task becomes a Failure outcome; siblings keep running
//   - no early exit and no cancellation once a wave has started
//
// Pacing is approximate: wave latency and the delay add up, so effective
// throughput stays below MaxConcurrent/InterBatchDelay whenever tasks take
// any time at all. This is not a token bucket.
package batch
