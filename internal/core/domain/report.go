package domain

import (
	"errors"
	"time"
)

// Verdict is the overall outcome of a build.
type Verdict string

const (
	// VerdictSucceeded means every planned node succeeded or was already fresh.
	VerdictSucceeded Verdict = "succeeded"
	// VerdictFailed means at least one planned node failed or was skipped.
	VerdictFailed Verdict = "failed"
)

// NodeResult is the final state of one node in a build.
type NodeResult struct {
	ID    string
	Kind  NodeKind
	State NodeState
	// Fresh is set when the node was up to date and its action did not run.
	Fresh    bool
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
	Duration time.Duration
}

// Report is the execution report of one build.
type Report struct {
	// Results holds one entry per planned node in topological order.
	Results []NodeResult
	Verdict Verdict
	// Failed lists failed node IDs in topological order.
	Failed []string
	// Skipped lists skipped node IDs in topological order.
	Skipped []string
}

// NewReport builds a Report from per-node results and derives the verdict.
func NewReport(results []NodeResult) *Report {
	r := &Report{Results: results, Verdict: VerdictSucceeded}
	for _, res := range results {
		switch res.State {
		case StateSucceeded:
		case StateFailed:
			r.Failed = append(r.Failed, res.ID)
			r.Verdict = VerdictFailed
		case StateSkipped:
			r.Skipped = append(r.Skipped, res.ID)
			r.Verdict = VerdictFailed
		default:
			r.Verdict = VerdictFailed
		}
	}
	return r
}

// Succeeded reports whether the build verdict is success.
func (r *Report) Succeeded() bool {
	return r.Verdict == VerdictSucceeded
}

// Result returns the result recorded for id.
func (r *Report) Result(id string) (NodeResult, bool) {
	for _, res := range r.Results {
		if res.ID == id {
			return res, true
		}
	}
	return NodeResult{}, false
}

// Executed returns the number of nodes whose action ran.
func (r *Report) Executed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Fresh && (res.State == StateSucceeded || res.State == StateFailed) {
			n++
		}
	}
	return n
}

// Err joins the per-node errors in report order.
func (r *Report) Err() error {
	var errs error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = errors.Join(errs, res.Err)
		}
	}
	return errs
}
