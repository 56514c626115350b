package annotate

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Processor turns one query input (a gene symbol or variant descriptor) into a record.
type Processor func(ctx context.Context, input string) (Record, error)

// WorkResult holds the outcome of processing a single input.
type WorkResult struct {
	Seq    int
	Input  string
	Record Record
	Err    error
}

// Runner processes query inputs one at a time and collects their outcomes.
type Runner struct {
	logger  *zap.Logger
	verbose bool
}

// NewRunner creates a runner that logs nothing until SetLogger is called.
func NewRunner() *Runner {
	return &Runner{logger: zap.NewNop()}
}

// SetLogger sets the logger for progress and failure messages.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// SetVerbose makes Collect log the full error chain of each failure.
func (r *Runner) SetVerbose(v bool) {
	r.verbose = v
}

// Run calls fn for each input in order. A failing input does not stop the
// batch; its error is kept in the result. If ctx is cancelled the remaining
// inputs are skipped.
func (r *Runner) Run(ctx context.Context, kind string, inputs []string, fn Processor) []WorkResult {
	results := make([]WorkResult, 0, len(inputs))
	for i, input := range inputs {
		if ctx.Err() != nil {
			r.logger.Warn("batch cancelled",
				zap.String("kind", kind),
				zap.Int("processed", i),
				zap.Int("total", len(inputs)))
			break
		}

		r.logger.Debug("processing "+kind,
			zap.String("input", input),
			zap.Int("item", i+1),
			zap.Int("total", len(inputs)))

		rec, err := fn(ctx, input)
		results = append(results, WorkResult{Seq: i, Input: input, Record: rec, Err: err})
	}
	return results
}

// Collect returns the records of the successful results in input order and
// logs each failure with its input.
func (r *Runner) Collect(kind string, results []WorkResult) []Record {
	records := make([]Record, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			fields := []zap.Field{zap.String("input", res.Input), zap.Error(res.Err)}
			if r.verbose {
				fields = append(fields, zap.Strings("chain", errorChain(res.Err)))
			}
			r.logger.Error("failed to process "+kind, fields...)
			continue
		}
		records = append(records, res.Record)
	}
	return records
}

// Rows converts records to rows.
func Rows(records []Record) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = rec.Row()
	}
	return rows
}

// errorChain lists err and every error it wraps, outermost first.
func errorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}
