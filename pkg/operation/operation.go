// Package operation binds input parsing, a unit of work and a normalizer into
// named batch operations, and runs them with a fresh credential per batch.
package operation

import (
	"context"
	"errors"

	"github.com/Sternrassler/freight-batch/pkg/batch"
	"github.com/Sternrassler/freight-batch/pkg/credential"
	"github.com/Sternrassler/freight-batch/pkg/report"
)

// Name selects an operation.
type Name string

const (
	CheckMC       Name = "check-mc"
	TagCarrier    Name = "tag-carrier"
	TargetRateTag Name = "target-rate-tag"
	DATRates      Name = "dat-rates"
)

var (
	// ErrEmptyInput indicates a submission without any non-blank line.
	ErrEmptyInput = errors.New("inputData must be a non-empty array")

	// ErrUnknownOperation indicates an unregistered selector.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrMissingOperation indicates a submission without a selector.
	ErrMissingOperation = errors.New("operation is required")
)

// Info describes an operation to users.
type Info struct {
	Name        Name          `json:"name"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Placeholder string        `json:"placeholder"`
	Family      report.Family `json:"family"`
	Partner     string        `json:"partner"`
}

// Operation turns input lines into records, one per line and in order.
type Operation interface {
	Info() Info
	Execute(ctx context.Context, cred credential.Credential, lines []string, cfg batch.Config) []report.Record
}

// pipeline is an Operation made of three pure-ish steps. Lines that fail to
// parse never reach the orchestrator.
type pipeline[In, Out any] struct {
	info      Info
	parse     func(line string) (In, error)
	work      func(ctx context.Context, cred credential.Credential, in In) (Out, error)
	normalize func(line string, in In, o batch.Outcome[Out]) report.Record
}

func (p *pipeline[In, Out]) Info() Info {
	return p.info
}

func (p *pipeline[In, Out]) Execute(ctx context.Context, cred credential.Credential, lines []string, cfg batch.Config) []report.Record {
	inputs := make([]In, len(lines))
	parseErrs := make([]error, len(lines))
	tasks := make([]batch.Task[Out], 0, len(lines))
	positions := make([]int, 0, len(lines))

	for i, line := range lines {
		in, err := p.parse(line)
		if err != nil {
			parseErrs[i] = err
			continue
		}
		inputs[i] = in
		tasks = append(tasks, func(ctx context.Context) (Out, error) {
			return p.work(ctx, cred, in)
		})
		positions = append(positions, i)
	}

	outcomes := batch.Run(ctx, tasks, cfg)

	records := make([]report.Record, len(lines))
	for i, err := range parseErrs {
		if err != nil {
			records[i] = p.normalize(lines[i], inputs[i], batch.Failed[Out](err))
		}
	}
	for j, o := range outcomes {
		i := positions[j]
		records[i] = p.normalize(lines[i], inputs[i], o)
	}
	return records
}
