// Package scheduler implements the target graph execution scheduler.
package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

// Options configures a single scheduler run.
type Options struct {
	// Targets restricts the run to these nodes and their transitive dependencies.
	// An empty list selects every node in the graph.
	Targets []string
	// Parallelism bounds the number of concurrently running actions.
	// Zero or less means runtime.NumCPU().
	Parallelism int
	// FailFast skips every not-yet-started node after the first failure.
	FailFast bool
	// Force runs every planned node regardless of recorded signatures.
	Force bool
	// DryRun prints the command of each stale node instead of running it and records nothing.
	DryRun bool
	// OnStateChange is called on every node state transition. It must be safe for concurrent use.
	OnStateChange func(id string, state domain.NodeState)
}

// Scheduler manages the execution of nodes in the target graph.
type Scheduler struct {
	executor  ports.Executor
	tracker   ports.StalenessTracker
	telemetry ports.Telemetry
	metrics   ports.Metrics
	logger    ports.Logger

	mu         sync.RWMutex
	nodeStatus map[domain.InternedString]domain.NodeState
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	executor ports.Executor,
	tracker ports.StalenessTracker,
	telemetry ports.Telemetry,
	metrics ports.Metrics,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		executor:   executor,
		tracker:    tracker,
		telemetry:  telemetry,
		metrics:    metrics,
		logger:     logger,
		nodeStatus: make(map[domain.InternedString]domain.NodeState),
	}
}

// Status returns the current state of a node in the most recent run.
func (s *Scheduler) Status(id string) domain.NodeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodeStatus[domain.NewInternedString(id)]
}

func (s *Scheduler) updateStatus(id domain.InternedString, state domain.NodeState, notify func(string, domain.NodeState)) {
	s.mu.Lock()
	s.nodeStatus[id] = state
	s.mu.Unlock()
	if notify != nil {
		notify(id.String(), state)
	}
}

// Run executes the planned nodes of graph and returns the execution report.
//
// Graph errors such as cycles are returned before any node runs. A failed build is not an error:
// it is described by the report's verdict. Cancellation of ctx returns the partial report along
// with the context error.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, opts Options) (*domain.Report, error) {
	order, err := graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	planned := order
	if len(opts.Targets) > 0 {
		closure, err := graph.Closure(opts.Targets)
		if err != nil {
			return nil, err
		}
		planned = slices.DeleteFunc(slices.Clone(order), func(n *domain.Node) bool {
			_, ok := closure[n.ID]
			return !ok
		})
	}

	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}

	s.mu.Lock()
	clear(s.nodeStatus)
	s.mu.Unlock()
	s.tracker.Reset(graph.Root())

	state := s.newRunState(ctx, graph, planned, opts)
	state.runExecutionLoop()
	report := state.report()

	if ctx.Err() != nil {
		return report, zerr.Wrap(ctx.Err(), "build interrupted")
	}
	return report, nil
}

type result struct {
	id        domain.InternedString
	fresh     bool
	err       error
	recordErr error
	stdout    string
	stderr    string
	duration  time.Duration
}

type schedulerRunState struct {
	ctx       context.Context
	s         *Scheduler
	graph     *domain.Graph
	opts      Options
	planned   []*domain.Node
	nodes     map[domain.InternedString]*domain.Node
	inDegree  map[domain.InternedString]int
	ready     []domain.InternedString
	results   map[domain.InternedString]domain.NodeResult
	active    int
	resultsCh chan result
	halted    bool

	// gate holds the non-terminal nodes that terminal nodes wait for; open counts the unsettled ones.
	gate map[domain.InternedString]bool
	open int
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	graph *domain.Graph,
	planned []*domain.Node,
	opts Options,
) *schedulerRunState {
	state := &schedulerRunState{
		ctx:       ctx,
		s:         s,
		graph:     graph,
		opts:      opts,
		planned:   planned,
		nodes:     make(map[domain.InternedString]*domain.Node, len(planned)),
		inDegree:  make(map[domain.InternedString]int, len(planned)),
		results:   make(map[domain.InternedString]domain.NodeResult, len(planned)),
		resultsCh: make(chan result, opts.Parallelism),
		gate:      make(map[domain.InternedString]bool, len(planned)),
	}

	for _, n := range planned {
		state.nodes[n.ID] = n
	}

	// Planned order is topological, so every dependency is classified before its dependents.
	behindTerminal := make(map[domain.InternedString]bool)
	for _, n := range planned {
		blocked := n.Terminal
		for _, dep := range n.Dependencies {
			if behindTerminal[dep] {
				blocked = true
			}
		}
		behindTerminal[n.ID] = blocked
		if !blocked {
			state.gate[n.ID] = true
			state.open++
		}

		state.inDegree[n.ID] = len(n.Dependencies)
		s.updateStatus(n.ID, domain.StatePending, opts.OnStateChange)
	}

	for _, n := range planned {
		if state.inDegree[n.ID] == 0 {
			state.markReady(n.ID)
		}
	}
	return state
}

func (state *schedulerRunState) runExecutionLoop() {
	done := state.ctx.Done()
	for {
		state.schedule()

		if state.isDone() {
			return
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-done:
			done = nil
			state.halted = true
		}
	}
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

// markReady inserts id into the ready list, keeping it in declaration order.
func (state *schedulerRunState) markReady(id domain.InternedString) {
	seq := state.graph.Seq(id)
	pos, _ := slices.BinarySearchFunc(state.ready, seq, func(e domain.InternedString, target int) int {
		return state.graph.Seq(e) - target
	})
	state.ready = slices.Insert(state.ready, pos, id)
	state.s.updateStatus(id, domain.StateReady, state.opts.OnStateChange)
}

func (state *schedulerRunState) schedule() {
	if state.ctx.Err() != nil {
		state.halted = true
	}
	if state.halted {
		for _, id := range state.ready {
			state.skip(id)
		}
		state.ready = state.ready[:0]
		return
	}

	for i := 0; i < len(state.ready) && state.active < state.opts.Parallelism; {
		id := state.ready[i]
		n := state.nodes[id]
		if n.Terminal && state.open > 0 {
			i++
			continue
		}

		state.ready = slices.Delete(state.ready, i, i+1)
		state.active++
		go state.executeNode(n)
	}
}

func (state *schedulerRunState) executeNode(n *domain.Node) {
	// The vertex is completed before the result is sent so the loop never
	// observes a finished node whose telemetry is still open.
	res := func() (res result) {
		res.id = n.ID
		ctx, vertex := state.s.telemetry.Record(state.ctx, n.ID.String())
		defer func() { vertex.Complete(res.err) }()

		if !state.opts.Force && !state.s.tracker.IsStale(ctx, n) {
			vertex.Cached()
			res.fresh = true
			return res
		}

		state.s.updateStatus(n.ID, domain.StateRunning, state.opts.OnStateChange)

		var stdout, stderr bytes.Buffer
		outW := io.MultiWriter(&stdout, vertex.Stdout())
		errW := io.MultiWriter(&stderr, vertex.Stderr())

		start := time.Now()
		if state.opts.DryRun {
			_, _ = fmt.Fprintln(outW, strings.Join(n.Action.Argv, " "))
		} else {
			res.err = state.s.executor.Execute(ctx, n, outW, errW)
		}
		res.duration = time.Since(start)
		res.stdout = stdout.String()
		res.stderr = stderr.String()

		if res.err == nil && !state.opts.DryRun {
			res.recordErr = state.s.tracker.Record(ctx, n)
		}
		return res
	}()

	state.resultsCh <- res
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--
	n := state.nodes[res.id]

	nr := domain.NodeResult{
		ID:       res.id.String(),
		Kind:     n.Kind,
		Fresh:    res.fresh,
		Stdout:   res.stdout,
		Stderr:   res.stderr,
		Duration: res.duration,
	}

	if res.err != nil {
		nr.State = domain.StateFailed
		nr.ExitCode = -1
		var actionErr *domain.ActionError
		if errors.As(res.err, &actionErr) {
			nr.ExitCode = actionErr.ExitCode
		}
		nr.Err = zerr.With(zerr.Wrap(res.err, "node failed"), "node", res.id.String())
		state.settle(nr)
		state.skipDependents(res.id)
		if state.opts.FailFast {
			state.halted = true
		}
		return
	}

	if res.recordErr != nil {
		state.s.logger.Warn(res.recordErr.Error())
	}

	nr.State = domain.StateSucceeded
	state.settle(nr)

	for _, dep := range state.graph.DependentsOf(res.id) {
		if _, ok := state.nodes[dep]; !ok {
			continue
		}
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.markReady(dep)
		}
	}
}

// skipDependents marks every transitive dependent of a failed node as skipped.
func (state *schedulerRunState) skipDependents(id domain.InternedString) {
	queue := state.graph.DependentsOf(id)
	for len(queue) > 0 {
		dep := queue[0]
		queue = queue[1:]

		if _, ok := state.nodes[dep]; !ok {
			continue
		}
		if _, settled := state.results[dep]; settled {
			continue
		}
		state.skip(dep)
		queue = append(queue, state.graph.DependentsOf(dep)...)
	}
}

func (state *schedulerRunState) skip(id domain.InternedString) {
	state.settle(domain.NodeResult{
		ID:    id.String(),
		Kind:  state.nodes[id].Kind,
		State: domain.StateSkipped,
	})
}

func (state *schedulerRunState) settle(nr domain.NodeResult) {
	id := domain.NewInternedString(nr.ID)
	state.results[id] = nr
	if state.gate[id] {
		state.open--
	}
	state.s.updateStatus(id, nr.State, state.opts.OnStateChange)
	state.s.metrics.ObserveNode(nr)
}

// report skips whatever never started and collects results in topological order.
func (state *schedulerRunState) report() *domain.Report {
	results := make([]domain.NodeResult, 0, len(state.planned))
	for _, n := range state.planned {
		if _, ok := state.results[n.ID]; !ok {
			state.skip(n.ID)
		}
		results = append(results, state.results[n.ID])
	}
	return domain.NewReport(results)
}
