// Package batch decodes a sequence of message records and labels each one as
// a request or a response by its position.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/danmuck/tcontctl/internal/observability"
	"github.com/danmuck/tcontctl/internal/protocol"
	"github.com/danmuck/tcontctl/internal/protocol/message"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Direction int

const (
	Request Direction = iota
	Response
)

func (d Direction) String() string {
	if d == Response {
		return "Response"
	}
	return "Request"
}

// DirectionFor labels the record at 0-based index i. Odd 1-based positions
// are requests.
func DirectionFor(i int) Direction {
	if i%2 == 0 {
		return Request
	}
	return Response
}

// Result is the outcome for one record. Exactly one of Message and Err is set.
type Result struct {
	Index     int
	Direction Direction
	Message   *message.Decoded
	Err       error
}

// RecordError identifies the record that aborted a batch.
type RecordError struct {
	Index     int
	Direction Direction
	Err       error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %s: %v", e.Index+1, e.Direction, protocol.KindOf(e.Err), e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Report is the outcome of one Run.
type Report struct {
	RunID   string
	Results []Result
	Failed  int
}

type Options struct {
	// Workers bounds concurrent decodes; <= 0 uses GOMAXPROCS.
	Workers int
	// ContinueOnError keeps failed records in the report instead of aborting.
	ContinueOnError bool
	Message         message.Options
}

func DefaultOptions() Options {
	return Options{Workers: runtime.GOMAXPROCS(0)}
}

type Driver struct {
	opts    Options
	logger  zerolog.Logger
	metrics *observability.DecodeMetrics
}

func NewDriver(opts Options) *Driver {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Driver{
		opts:    opts,
		logger:  log.Logger,
		metrics: observability.Decode(),
	}
}

// WithLogger returns a copy of d that logs to logger.
func (d *Driver) WithLogger(logger zerolog.Logger) *Driver {
	cp := *d
	cp.logger = logger
	return &cp
}

// Run decodes records concurrently and returns results in input order.
//
// In abort mode the results before the lowest-index failure are returned
// together with a *RecordError. In continue mode every result is returned and
// the error is nil unless ctx is cancelled.
func (d *Driver) Run(ctx context.Context, records []message.Record) (Report, error) {
	report := Report{
		RunID:   uuid.NewString(),
		Results: make([]Result, len(records)),
	}
	logger := d.logger.With().Str("run_id", report.RunID).Logger()
	logger.Info().
		Int("records", len(records)).
		Int("workers", d.opts.Workers).
		Bool("continue_on_error", d.opts.ContinueOnError).
		Bool("strict", d.opts.Message.Strict).
		Msg("batch.Run start")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	for i := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Results[i] = d.decodeOne(i, records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("batch.Run cancelled")
		return Report{RunID: report.RunID}, err
	}
	if err := ctx.Err(); err != nil {
		logger.Warn().Err(err).Msg("batch.Run cancelled")
		return Report{RunID: report.RunID}, err
	}

	for i, res := range report.Results {
		if res.Err == nil {
			continue
		}
		report.Failed++
		logger.Error().
			Int("record", i+1).
			Str("direction", res.Direction.String()).
			Str("kind", protocol.KindOf(res.Err).String()).
			Err(res.Err).
			Msg("batch.Run record failed")
		if !d.opts.ContinueOnError {
			report.Results = report.Results[:i]
			report.Failed = 1
			return report, &RecordError{Index: i, Direction: res.Direction, Err: res.Err}
		}
	}

	logger.Info().
		Int("records", len(report.Results)).
		Int("failed", report.Failed).
		Msg("batch.Run done")
	return report, nil
}

func (d *Driver) decodeOne(i int, rec message.Record) Result {
	dir := DirectionFor(i)
	start := time.Now()
	decoded, err := message.Decode(rec, d.opts.Message)
	d.metrics.ObserveRecord(dir.String(), time.Since(start), decoded, err)
	if err != nil {
		return Result{Index: i, Direction: dir, Err: err}
	}
	return Result{Index: i, Direction: dir, Message: decoded}
}
