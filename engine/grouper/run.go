// Package grouper greedily partitions a chunk's sentences into runs whose
// total length falls inside a [min, max] window.
package grouper

import "github.com/WessleyAI/sentwindow/engine/domain"

// Action is what a run does after absorbing one span.
type Action int

const (
	// Continue keeps accumulating.
	Continue Action = iota
	// Emit accepts the run [From, To].
	Emit
	// Drop discards the run without emitting.
	Drop
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Emit:
		return "emit"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a single Step.
type Decision struct {
	Action Action
	From   int
	To     int
	Total  int
}

// Run is the accumulating state: the index of the first span in the run and
// the summed length so far. The zero value starts a run at span 0.
type Run struct {
	Start int
	Total int
}

// Step feeds span i of the given length into the run.
//
// An overflowing run restarts at span i itself, not the one after it. The
// window check takes priority over the overflow check, so a run that lands
// inside the window is always emitted.
func (r *Run) Step(i, length int, b domain.Bounds) Decision {
	start, total := r.Start, r.Total+length
	if total > b.Max {
		start, total = i, length
	}

	switch {
	case total > 0 && b.Contains(total):
		*r = Run{Start: i + 1}
		return Decision{Action: Emit, From: start, To: i, Total: total}
	case total > b.Max:
		*r = Run{Start: i + 1}
		return Decision{Action: Drop, From: start, To: i, Total: total}
	default:
		*r = Run{Start: start, Total: total}
		return Decision{Action: Continue, From: start, To: i, Total: total}
	}
}
