package batch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds wave settings.
type Config struct {
	// MaxConcurrent is the wave size: how many tasks run at the same time.
	// Values below 1 are treated as 1.
	MaxConcurrent int

	// InterBatchDelay is the pause between two consecutive waves.
	// It is never applied before the first wave or after the last one.
	InterBatchDelay time.Duration

	// Logger receives wave progress. Defaults to the global logger.
	Logger *zerolog.Logger

	// OnWave, when set, is called synchronously after every wave settles.
	OnWave func(WaveStats)

	// Sleep waits between waves. Defaults to time.Sleep; tests replace it.
	Sleep func(time.Duration)
}

// DefaultConfig mirrors the partner's published ceiling of 39 calls per second.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:   39,
		InterBatchDelay: time.Second,
	}
}

// WaveStats describes one settled wave.
type WaveStats struct {
	Index     int
	Start     int // position of the first task of the wave
	Size      int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Waves returns how many waves n tasks need at the given wave size.
func Waves(n, maxConcurrent int) int {
	if n <= 0 {
		return 0
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return (n + maxConcurrent - 1) / maxConcurrent
}

// Run executes tasks in consecutive waves of at most cfg.MaxConcurrent and
// returns one outcome per task, in input order.
//
// Every task of a wave is started, and the next wave only starts after all of
// them have settled and cfg.InterBatchDelay has elapsed. ctx is handed to each
// task but is not consulted by the scheduler itself.
func Run[T any](ctx context.Context, tasks []Task[T], cfg Config) []Outcome[T] {
	outcomes := make([]Outcome[T], len(tasks))
	if len(tasks) == 0 {
		return outcomes
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	start := time.Now()
	total := Waves(len(tasks), cfg.MaxConcurrent)
	batchRunsTotal.Inc()

	logger.Debug().
		Int("items", len(tasks)).
		Int("waves", total).
		Int("max_concurrent", cfg.MaxConcurrent).
		Dur("inter_batch_delay", cfg.InterBatchDelay).
		Msg("Starting batch run")

	wave := 0
	for lo := 0; lo < len(tasks); lo += cfg.MaxConcurrent {
		hi := min(lo+cfg.MaxConcurrent, len(tasks))

		stats := runWave(ctx, tasks[lo:hi], outcomes[lo:hi])
		stats.Index = wave
		stats.Start = lo

		batchWavesTotal.Inc()
		batchWaveDuration.Observe(stats.Duration.Seconds())
		batchItemsTotal.WithLabelValues(string(StatusSuccess)).Add(float64(stats.Succeeded))
		batchItemsTotal.WithLabelValues(string(StatusFailure)).Add(float64(stats.Failed))

		logger.Info().
			Int("wave", wave+1).
			Int("waves", total).
			Int("wave_size", stats.Size).
			Int("succeeded", stats.Succeeded).
			Int("failed", stats.Failed).
			Dur("duration", stats.Duration).
			Msg("Wave settled")

		if cfg.OnWave != nil {
			cfg.OnWave(stats)
		}

		wave++
		if hi < len(tasks) && cfg.InterBatchDelay > 0 {
			cfg.Sleep(cfg.InterBatchDelay)
		}
	}

	batchRunDuration.Observe(time.Since(start).Seconds())
	return outcomes
}

// runWave launches every task of the wave and blocks until all have settled.
// Each goroutine writes only its own slot of out.
func runWave[T any](ctx context.Context, tasks []Task[T], out []Outcome[T]) WaveStats {
	started := time.Now()

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		i, task := i, task // per-iteration copies; go.mod targets go1.21 loop semantics
		go func() {
			defer wg.Done()
			out[i] = settle(ctx, task)
		}()
	}
	wg.Wait()

	stats := WaveStats{Size: len(tasks), Duration: time.Since(started)}
	for i := range out {
		if out[i].OK() {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// settle runs a single task and converts its result, or its panic, to an Outcome.
func settle[T any](ctx context.Context, task Task[T]) (o Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			batchPanicsTotal.Inc()
			o = Failed[T](&PanicError{Value: r})
		}
	}()

	if task == nil {
		return Failed[T](ErrUnknownFailure)
	}

	v, err := task(ctx)
	if err != nil {
		return Failed[T](err)
	}
	return Succeeded(v)
}
