// Package batch runs a list of work items against one PDF provider and
// aggregates one result per item.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"pdfbatch/internal/config"
	"pdfbatch/internal/logging"
	"pdfbatch/internal/params"
	"pdfbatch/internal/pdfapi"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ExecuteFunc sends one built request with the named credential and returns
// the raw JSON response.
type ExecuteFunc func(ctx context.Context, credential string, spec pdfapi.RequestSpec) (json.RawMessage, error)

// StateFunc observes item state transitions. It is called from several
// goroutines when Concurrency > 1.
type StateFunc func(index int, state ItemState)

// Runner processes work items with an injected executor.
type Runner struct {
	execute     ExecuteFunc
	provider    pdfapi.Provider
	credential  string
	policy      string
	concurrency int
	newRunID    func() string
	onState     StateFunc
}

// RunnerOpts configures a Runner. Zero values select the defaults: the
// PDF API Hub provider, the stop policy and sequential execution.
type RunnerOpts struct {
	Provider      pdfapi.Provider
	Credential    string
	FailurePolicy string
	Concurrency   int
	NewRunID      func() string
	OnStateChange StateFunc
}

// NewRunner creates a sequential, stop-on-failure runner.
func NewRunner(execute ExecuteFunc, credential string) *Runner {
	return NewRunnerWithOpts(execute, RunnerOpts{Credential: credential})
}

// NewRunnerWithOpts creates a runner with explicit options.
func NewRunnerWithOpts(execute ExecuteFunc, opts RunnerOpts) *Runner {
	provider := opts.Provider
	if provider == nil {
		provider = pdfapi.PDFAPIHub{}
	}
	policy := strings.ToLower(opts.FailurePolicy)
	if policy == "" {
		policy = config.FailurePolicyStop
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	onState := opts.OnStateChange
	if onState == nil {
		onState = func(int, ItemState) {}
	}
	return &Runner{
		execute:     execute,
		provider:    provider,
		credential:  opts.Credential,
		policy:      policy,
		concurrency: concurrency,
		newRunID:    newRunID,
		onState:     onState,
	}
}

func (r *Runner) stopOnFailure() bool {
	return r.policy != config.FailurePolicyContinue
}

// Run processes items and returns one result per processed item, in index
// order. Under the continue policy every item is processed and failures are
// recorded. Under the stop policy the run ends at the first failure; the
// results recorded so far are returned together with an *ItemError.
func (r *Runner) Run(ctx context.Context, items []params.WorkItem) (*Report, error) {
	report := &Report{RunID: r.newRunID()}
	log := logging.Logger().With("run_id", report.RunID)
	log.Info("Starting batch",
		"items", len(items), "provider", r.provider.Name(),
		"policy", r.policy, "concurrency", r.concurrency)

	var err error
	if r.concurrency > 1 && len(items) > 1 {
		report.Results, err = r.runParallel(ctx, log, items)
	} else {
		report.Results, err = r.runSequential(ctx, log, items)
	}

	log.Info("Batch finished", "succeeded", report.Succeeded(), "failed", report.Failed())
	return report, err
}

func (r *Runner) runSequential(ctx context.Context, log *slog.Logger, items []params.WorkItem) ([]ItemResult, error) {
	results := make([]ItemResult, 0, len(items))
	for _, item := range items {
		if ctx.Err() != nil {
			return results, fmt.Errorf("batch cancelled before item %d: %w", item.Index, ctx.Err())
		}
		res := r.processItem(ctx, log, item)
		results = append(results, res)
		if res.State == Failed && r.stopOnFailure() {
			return results, &ItemError{Index: res.Index, Err: res.Err}
		}
	}
	return results, nil
}

// stopLine tracks the lowest failed position of a parallel run. Items past
// it are cancelled or never started; items before it always complete.
type stopLine struct {
	mu      sync.Mutex
	failed  int
	cancels []context.CancelFunc
}

func newStopLine(n int) *stopLine {
	return &stopLine{failed: n, cancels: make([]context.CancelFunc, n)}
}

// start returns a context for position i, or false when i is past the line.
func (s *stopLine) start(ctx context.Context, i int) (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i > s.failed {
		return nil, false
	}
	ictx, cancel := context.WithCancel(ctx)
	s.cancels[i] = cancel
	return ictx, true
}

func (s *stopLine) done(i int) {
	s.mu.Lock()
	cancel := s.cancels[i]
	s.cancels[i] = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// fail moves the line down to i and cancels every later item in flight.
func (s *stopLine) fail(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= s.failed {
		return
	}
	s.failed = i
	for j := i + 1; j < len(s.cancels); j++ {
		if s.cancels[j] != nil {
			s.cancels[j]()
		}
	}
}

func (s *stopLine) position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// runParallel bounds in-flight items by the configured concurrency. Under
// stop, a failure cancels only items after it; earlier items run to
// completion, so the results match a sequential run up to the first failure.
func (r *Runner) runParallel(ctx context.Context, log *slog.Logger, items []params.WorkItem) ([]ItemResult, error) {
	slots := make([]*ItemResult, len(items))
	line := newStopLine(len(items))
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, item := range items {
		if ctx.Err() != nil || (r.stopOnFailure() && i > line.position()) {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			ictx, ok := line.start(ctx, i)
			if !ok {
				return nil
			}
			defer line.done(i)
			res := r.processItem(ictx, log, item)
			slots[i] = &res
			if res.State == Failed && r.stopOnFailure() {
				line.fail(i)
			}
			return nil
		})
	}
	_ = g.Wait()

	last := len(items) - 1
	if r.stopOnFailure() {
		last = min(last, line.position())
	}
	results := make([]ItemResult, 0, last+1)
	for _, slot := range slots[:last+1] {
		if slot == nil {
			continue
		}
		results = append(results, *slot)
	}
	if r.stopOnFailure() && slots[last] != nil && slots[last].State == Failed {
		return results, &ItemError{Index: slots[last].Index, Err: slots[last].Err}
	}
	if ctx.Err() != nil && len(results) < len(items) {
		return results, fmt.Errorf("batch cancelled: %w", ctx.Err())
	}
	return results, nil
}

// processItem resolves, builds and executes a single item.
func (r *Runner) processItem(ctx context.Context, log *slog.Logger, item params.WorkItem) ItemResult {
	res := ItemResult{Index: item.Index, State: Pending}
	fail := func(err error) ItemResult {
		res.State = Failed
		res.Err = err
		r.onState(item.Index, Failed)
		log.Warn("Item failed", "item", item.Index, "error", err.Error())
		return res
	}

	r.onState(item.Index, Building)
	p, err := params.ResolveParams(item)
	if err != nil {
		return fail(err)
	}
	spec, err := r.provider.Build(p.Operation(), p)
	if err != nil {
		return fail(err)
	}

	r.onState(item.Index, Executing)
	log.Debug("Executing item",
		"item", item.Index, "operation", string(p.Operation()), "endpoint", spec.Endpoint())
	body, err := r.execute(ctx, r.credential, spec)
	if err != nil {
		return fail(err)
	}

	res.State = Succeeded
	res.Response = body
	r.onState(item.Index, Succeeded)
	log.Info("Item succeeded", "item", item.Index)
	return res
}
