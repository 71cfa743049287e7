package core

import "context"

// ExternalProcessTask is the Task that actually spends a Graph's bounded
// parallelism: it is BLOCKED (in the spec's terminology) for the whole
// time its child process is running, and releases its slot the moment the
// process exits, however that happened. Compute-only Tasks (enumerating
// files, comparing two buffers) never touch the semaphore at all, which is
// what makes parallelism "counted only over blocked tasks".
type ExternalProcessTask struct {
	Runner *ProcessRunner
}

// CacheKey is always empty: running a process is rarely idempotent in a way
// worth memoizing, and two distinct ExternalProcessTasks never represent
// the same logical work (unlike a shared compile step).
func (t *ExternalProcessTask) CacheKey() string { return "" }

func (t *ExternalProcessTask) Run(ctx context.Context, g *Graph) (any, error) {
	if err := g.acquireBlocked(ctx); err != nil {
		return nil, err
	}
	defer g.releaseBlocked()

	res := t.Runner.Run(ctx)
	return res, nil
}
