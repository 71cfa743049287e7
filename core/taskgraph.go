package core

import (
	"context"
	"fmt"
	"sync"
)

// Task is one unit of work scheduled by a Graph: a compile step, a
// generator run, a single test case, or any other leaf or composite
// operation in the build/test pipeline. Run may itself call g.Branch to
// fan out into further Tasks; the Graph does not care how deep that
// recursion goes.
//
// CacheKey identifies the work Run performs: two Tasks asked for under the
// same non-empty key share one execution and one result, the way every
// caller of one Code's compileTask shares a single compile. An empty key
// disables memoization.
type Task interface {
	CacheKey() string
	Run(ctx context.Context, g *Graph) (any, error)
}

// Bailout is a fast, value-carrying abort: a Task returns it (as its error)
// to short-circuit an interrupt-enabled Branch without that being treated
// as a genuine failure. The Branch that requested interrupt=true stops at it
// and returns the *Bailout itself as the branch's error, for the caller to
// inspect Value; a Branch with interrupt=false propagates it like any other
// error. Graph.Run unwraps a Bailout reaching the root into its Value.
type Bailout struct{ Value any }

func (b *Bailout) Error() string { return fmt.Sprintf("bailout: %v", b.Value) }

// TaskInterrupted is placed in the result slot of every sibling Task that had
// not produced a result when another sibling Bailout-ed out of an
// interrupt=true Branch; it signals that the work being cancelled was never
// going to be used.
type TaskInterrupted struct{}

func (TaskInterrupted) Error() string { return "task interrupted" }

// Backend selects how a Graph schedules concurrent work.
type Backend int

const (
	// Serial runs one Task at a time, depth-first; Branch has no actual
	// concurrency and parallelism is always 1. This is the reference
	// backend used to validate Fiber's output and is the only backend
	// usable when -j1 is requested.
	Serial Backend = iota
	// Fiber runs Branch members concurrently, bounded by the Graph's
	// parallelism counted only over Tasks blocked on an external process
	// (ExternalProcessTask); ordinary compute-bound Tasks never consume a
	// parallelism slot.
	Fiber
)

// Graph schedules Tasks for one build/test run.
type Graph struct {
	backend     Backend
	parallelism int
	sem         chan struct{}

	mu      sync.Mutex
	results map[string]*memoEntry
}

type memoEntry struct {
	once  sync.Once
	value any
	err   error
}

// NewGraph creates a Graph with the given backend and, for Fiber, the
// number of concurrently BLOCKED external-process tasks it will allow.
// Serial ignores parallelism.
func NewGraph(backend Backend, parallelism int) *Graph {
	if backend == Serial || parallelism < 1 {
		parallelism = 1
	}
	g := &Graph{backend: backend, parallelism: parallelism, results: make(map[string]*memoEntry)}
	if backend == Fiber {
		g.sem = make(chan struct{}, parallelism)
	}
	return g
}

// Run executes task to completion and returns its result. A *Bailout
// reaching the root is unwrapped into its carried Value with a nil error,
// since nothing above the root remains to treat it as an abort signal.
func (g *Graph) Run(ctx context.Context, task Task) (any, error) {
	v, err := g.run(ctx, task)
	if b, ok := err.(*Bailout); ok {
		return b.Value, nil
	}
	return v, err
}

func (g *Graph) run(ctx context.Context, task Task) (any, error) {
	key := task.CacheKey()
	if key == "" {
		return task.Run(ctx, g)
	}

	g.mu.Lock()
	entry, ok := g.results[key]
	if !ok {
		entry = &memoEntry{}
		g.results[key] = entry
	}
	g.mu.Unlock()

	entry.once.Do(func() {
		entry.value, entry.err = task.Run(ctx, g)
	})
	return entry.value, entry.err
}

// Branch runs tasks to completion, concurrently when the Graph's backend
// is Fiber and sequentially when it is Serial, and returns one result per
// task in input order. When interrupt is true, the first Bailout observed
// from any task cancels the remaining tasks (via ctx) and is returned as
// the Branch's own error instead of being attributed to a single task;
// cancelled siblings that have not yet produced a result are reported with
// a TaskInterrupted error in their slot.
func (g *Graph) Branch(ctx context.Context, tasks []Task, interrupt bool) ([]any, error) {
	if g.backend == Serial || len(tasks) <= 1 {
		return g.branchSerial(ctx, tasks, interrupt)
	}
	return g.branchConcurrent(ctx, tasks, interrupt)
}

func (g *Graph) branchSerial(ctx context.Context, tasks []Task, interrupt bool) ([]any, error) {
	values := make([]any, len(tasks))
	for i, t := range tasks {
		v, err := g.run(ctx, t)
		if err != nil {
			if b, ok := err.(*Bailout); ok && interrupt {
				for j := i + 1; j < len(tasks); j++ {
					values[j] = TaskInterrupted{}
				}
				return values, b
			}
			return values, err
		}
		values[i] = v
	}
	return values, nil
}

func (g *Graph) branchConcurrent(ctx context.Context, tasks []Task, interrupt bool) ([]any, error) {
	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	values := make([]any, len(tasks))
	errs := make([]error, len(tasks))
	done := make([]bool, len(tasks))

	var wg sync.WaitGroup
	var bailMu sync.Mutex
	var bail *Bailout
	bailIdx := -1

	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t Task) {
			defer wg.Done()
			v, err := g.run(childCtx, t)
			if err != nil {
				if b, ok := err.(*Bailout); ok && interrupt {
					bailMu.Lock()
					if bail == nil {
						bail = b
						bailIdx = i
						cancel()
					}
					bailMu.Unlock()
					return
				}
				errs[i] = err
				if interrupt {
					cancel()
				}
				return
			}
			values[i] = v
			done[i] = true
		}(i, t)
	}
	wg.Wait()

	if bail != nil {
		for i := range tasks {
			if !done[i] && i != bailIdx {
				values[i] = TaskInterrupted{}
			}
		}
		return values, bail
	}
	for _, err := range errs {
		if err != nil {
			return values, err
		}
	}
	return values, nil
}

// acquireBlocked reserves one parallelism slot for an ExternalProcessTask.
// Serial graphs always have a single-slot semaphore-free fast path since
// parallelism is forced to 1 and Branch never runs concurrently.
func (g *Graph) acquireBlocked(ctx context.Context) error {
	if g.backend != Fiber {
		return nil
	}
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Graph) releaseBlocked() {
	if g.backend == Fiber {
		<-g.sem
	}
}
