package ingest

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/WessleyAI/sentwindow/engine/domain"
	"github.com/WessleyAI/sentwindow/pkg/fn"
	"github.com/WessleyAI/sentwindow/pkg/metrics"
)

func TestPipelineWritesOutputAndExports(t *testing.T) {
	out := &memSink{name: "file"}
	exp := &memSink{name: "nats"}
	run := NewPipeline(quietDeps())

	report, err := run(context.Background(), Job{
		Reader:  newReader(t, "Hi. Bye.", 4096),
		Bounds:  domain.Bounds{Min: 1, Max: 20},
		Output:  out,
		Exports: []Sink{exp},
	}).Unwrap()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{" Bye.", "Hi."}
	if !slices.Equal(out.lines, want) || !slices.Equal(exp.lines, want) {
		t.Fatalf("output %q, export %q", out.lines, exp.lines)
	}
	if report.Candidates != 2 || len(report.ExportErrors) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestPipelineOutputFailureIsFatal(t *testing.T) {
	sinkErr := errors.New("disk full")
	exp := &memSink{name: "nats"}
	run := NewPipeline(quietDeps())

	_, err := run(context.Background(), Job{
		Reader:  newReader(t, "Hi.", 4096),
		Bounds:  domain.Bounds{Min: 1, Max: 20},
		Output:  &memSink{name: "file", err: sinkErr},
		Exports: []Sink{exp},
	}).Unwrap()
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if exp.calls != 0 {
		t.Fatal("exports must not run after a failed flush")
	}
}

func TestPipelineExportFailureIsReported(t *testing.T) {
	reg := metrics.New()
	deps := quietDeps()
	deps.Metrics = NewMetrics(reg)
	deps.Retry = fn.RetryOpts{MaxAttempts: 2}

	bad := &memSink{name: "graph", err: errors.New("neo4j down")}
	good := &memSink{name: "vector"}
	run := NewPipeline(deps)

	report, err := run(context.Background(), Job{
		Reader:  newReader(t, "Hi.", 4096),
		Bounds:  domain.Bounds{Min: 1, Max: 20},
		Output:  &memSink{name: "file"},
		Exports: []Sink{bad, good},
	}).Unwrap()
	if err != nil {
		t.Fatalf("export failures must not fail the job: %v", err)
	}
	if bad.calls != 2 {
		t.Errorf("attempts = %d, want 2", bad.calls)
	}
	if report.ExportErrors["graph"] == nil || report.ExportErrors["vector"] != nil {
		t.Errorf("unexpected export errors %v", report.ExportErrors)
	}
	if !slices.Equal(good.lines, []string{"Hi."}) {
		t.Errorf("later sinks still run, got %q", good.lines)
	}
	if c := deps.Metrics.SinkErrors("graph").Value(); c != 1 {
		t.Errorf("sink errors = %d, want 1", c)
	}
}

func TestPipelineCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := &memSink{name: "file"}
	r := NewPipeline(quietDeps())(ctx, Job{
		Reader: newReader(t, "Hi.", 4096),
		Bounds: domain.Bounds{Min: 1, Max: 20},
		Output: out,
	})
	if r.IsOk() {
		t.Fatal("expected error")
	}
	if out.calls != 0 {
		t.Fatal("output must not be written after cancellation")
	}
}
