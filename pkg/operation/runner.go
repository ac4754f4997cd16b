package operation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/freight-batch/pkg/batch"
	"github.com/Sternrassler/freight-batch/pkg/credential"
	"github.com/Sternrassler/freight-batch/pkg/logging"
	"github.com/Sternrassler/freight-batch/pkg/report"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ResultStore retains finished batches.
type ResultStore interface {
	Save(ctx context.Context, result *report.BatchResult) error
}

// Archiver copies finished batches to long-term storage.
type Archiver interface {
	Archive(ctx context.Context, result *report.BatchResult) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore retains every finished batch in s.
func WithStore(s ResultStore) Option {
	return func(r *Runner) { r.store = s }
}

// WithArchiver archives every finished batch with a.
func WithArchiver(a Archiver) Option {
	return func(r *Runner) { r.archiver = a }
}

// WithLogger replaces the runner logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

type registration struct {
	op       Operation
	provider credential.Provider
	waves    batch.Config
}

// Runner executes registered operations. It is safe for concurrent use.
type Runner struct {
	mu       sync.RWMutex
	ops      map[Name]registration
	store    ResultStore
	archiver Archiver
	logger   zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewRunner creates a runner without operations.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		ops:    make(map[Name]registration),
		logger: logging.NewLogger("runner"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds op. Its credential comes from provider and its items run in
// waves shaped by waves. Registering a name twice replaces the first entry.
func (r *Runner) Register(op Operation, provider credential.Provider, waves batch.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op.Info().Name] = registration{op: op, provider: provider, waves: waves}
}

// Operations lists registered operations sorted by name.
func (r *Runner) Operations() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.ops))
	for _, reg := range r.ops {
		out = append(out, reg.op.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the info of a registered operation.
func (r *Runner) Lookup(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.ops[Name(name)]
	if !ok {
		return Info{}, false
	}
	return reg.op.Info(), true
}

// Run executes one batch. Blank lines are dropped first. The credential is
// acquired once before any item runs; if that fails no item runs and the
// error is returned alone.
//
// ctx is handed to every unit of work. Callers that must not abort a batch
// half-way should pass a context without cancellation.
func (r *Runner) Run(ctx context.Context, name string, lines []string) (*report.BatchResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingOperation
	}
	r.mu.RLock()
	reg, ok := r.ops[Name(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}

	lines = CleanLines(lines)
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	id := r.newID()
	info := reg.op.Info()
	logger := logging.ForBatch(r.logger, id, name)
	started := r.now()

	logger.Info().Int("items", len(lines)).Str("partner", info.Partner).Msg("Batch started")

	if reg.provider == nil {
		batchesTotal.WithLabelValues(name, "auth_failed").Inc()
		return nil, fmt.Errorf("acquire %s credential: %w", info.Partner, credential.ErrMissingConfig)
	}
	cred, err := reg.provider.Acquire(ctx)
	if err != nil {
		batchesTotal.WithLabelValues(name, "auth_failed").Inc()
		logger.Error().Err(err).Msg("Credential acquisition failed")
		return nil, fmt.Errorf("acquire %s credential: %w", info.Partner, err)
	}

	waves := reg.waves
	waves.Logger = &logger
	records := reg.op.Execute(ctx, cred, lines, waves)

	result := report.NewBatchResult(id, name, info.Family, records, started, r.now().Sub(started))
	batchesTotal.WithLabelValues(name, "completed").Inc()
	batchDuration.WithLabelValues(name).Observe(result.Duration.Seconds())

	logger.Info().
		Int("items", len(records)).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("Batch finished")

	r.retain(ctx, logger, result)
	return result, nil
}

// retain hands the result to the store and archiver. Failures are logged only.
func (r *Runner) retain(ctx context.Context, logger zerolog.Logger, result *report.BatchResult) {
	if r.store != nil {
		if err := r.store.Save(ctx, result); err != nil {
			logger.Warn().Err(err).Msg("Failed to retain batch result")
		}
	}
	if r.archiver != nil {
		if err := r.archiver.Archive(ctx, result); err != nil {
			logger.Warn().Err(err).Msg("Failed to archive batch result")
		}
	}
}

// CleanLines drops lines that are empty after trimming. Kept lines are
// returned unchanged.
func CleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// SplitInput splits raw text into lines, accepting \n and \r\n.
func SplitInput(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
