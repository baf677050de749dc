package ingest

import (
	"context"
	"time"

	"github.com/WessleyAI/sentwindow/engine/chunk"
	"github.com/WessleyAI/sentwindow/engine/domain"
	"github.com/WessleyAI/sentwindow/pkg/fn"
)

// Job is one extraction over a single input.
type Job struct {
	Reader *chunk.Reader
	Bounds domain.Bounds
	// Output receives the candidates first. A failed write fails the job.
	Output Sink
	// Exports receive the same ordered list afterwards. Their failures are
	// logged and counted only.
	Exports []Sink
}

// Report is the outcome of a job.
type Report struct {
	Summary
	// ExportErrors maps sink name to its final error.
	ExportErrors map[string]error
}

type collected struct {
	job     Job
	driver  *Driver
	summary Summary
}

type flushed struct {
	job     Job
	cands   []domain.Candidate
	summary Summary
}

// NewPipeline composes Collect → Flush → Export as traced stages.
func NewPipeline(deps Deps) fn.Stage[Job, Report] {
	deps = deps.withDefaults()
	log := deps.Logger

	collect := fn.TracedStage("ingest.collect", func(ctx context.Context, job Job) fn.Result[collected] {
		d := NewDriver(job.Reader, job.Bounds, deps)
		sum, err := d.Collect(ctx)
		if err != nil {
			return fn.Err[collected](err)
		}
		return fn.Ok(collected{job: job, driver: d, summary: sum})
	})

	flush := fn.TracedStage("ingest.flush", func(ctx context.Context, c collected) fn.Result[flushed] {
		res := fn.FromPair[[]domain.Candidate](c.driver.Flush(ctx, c.job.Output))
		return fn.MapResult(res, func(cands []domain.Candidate) flushed {
			return flushed{job: c.job, cands: cands, summary: c.summary}
		})
	})

	export := fn.TracedStage("ingest.export", func(ctx context.Context, f flushed) fn.Result[Report] {
		return fn.Ok(Report{Summary: f.summary, ExportErrors: exportAll(ctx, deps, f.job.Exports, f.cands)})
	})

	logged := fn.TapStage(func(_ context.Context, r Report) {
		log.Info("extraction complete", "summary", r.Summary, "export_failures", len(r.ExportErrors))
	})

	return fn.Then(collect, fn.Then(flush, fn.Then(export, logged)))
}

// exportAll writes cands to every sink in order, retrying each one.
func exportAll(ctx context.Context, deps Deps, sinks []Sink, cands []domain.Candidate) map[string]error {
	failed := make(map[string]error)
	for _, s := range sinks {
		opts := deps.Retry
		opts.OnRetry = func(attempt int, err error) {
			deps.Logger.Warn("export retry", "sink", s.Name(), "attempt", attempt, "error", err)
		}
		write := fn.RetryStage(opts, func(ctx context.Context, cands []domain.Candidate) fn.Result[struct{}] {
			return fn.FromPair(struct{}{}, s.Write(ctx, cands))
		})
		start := time.Now()
		if _, err := write(ctx, cands).Unwrap(); err != nil {
			deps.Metrics.SinkErrors(s.Name()).Inc()
			deps.Logger.Error("export failed", "sink", s.Name(), "candidates", len(cands), "error", err)
			failed[s.Name()] = err
			continue
		}
		deps.Metrics.SinkSeconds(s.Name()).Since(start)
		deps.Logger.Info("exported", "sink", s.Name(), "candidates", len(cands))
	}
	return failed
}
