package core

import (
	"context"
	"io"
	"os"
	"time"
)

// CodeRunner runs a Code's compiled/interpreted program once, with the
// CPU-time-exceeded re-run discipline: a first attempt runs with relaxed
// (non-precise) timing, sharing the Graph's parallelism with other blocked
// tasks; if that attempt reports TLE, stdin/stdout are rewound and the run
// is repeated exclusively (holding every parallelism slot) with precise
// timing, since a TLE observed under contention is not trustworthy evidence
// of a real time-limit violation. Grounded on CodeBase._ExecInternal in the
// original implementation.
type CodeRunner struct {
	Graph *Graph
}

// RunOptions configures one CodeRunner.Run call.
type RunOptions struct {
	TimeLimit time.Duration
	Stdin     *os.File // must be seekable for the TLE re-run rewind
	Stdout    *os.File // must be seekable for the TLE re-run rewind
	Stderr    io.Writer
	// Precise forces the first attempt to already run exclusively; used by
	// callers (e.g. -p / --precise) that never want a relaxed first pass.
	Precise bool
}

// Run executes code.RunArgv() under opts, applying the TLE re-run rule.
// When opts.Precise is set, the first attempt already runs exclusively
// (ExternalProcessTask(..., exclusive=precise) per §4.5 step 1) instead of
// only falling back to an exclusive re-run after an unreliable TLE.
func (cr *CodeRunner) Run(ctx context.Context, code Code, opts RunOptions) (RunResult, error) {
	if opts.Precise {
		return cr.runExclusive(ctx, code, opts)
	}

	res, err := cr.runOnce(ctx, code, opts)
	if err != nil {
		return RunResult{}, err
	}
	if res.Status == RunTLE {
		if rerr := resetIO(opts.Stdin, opts.Stdout); rerr != nil {
			return RunResult{}, rerr
		}
		res, err = cr.runExclusive(ctx, code, opts)
		if err != nil {
			return RunResult{}, err
		}
	}
	return res, nil
}

func (cr *CodeRunner) runOnce(ctx context.Context, code Code, opts RunOptions) (RunResult, error) {
	pr := &ProcessRunner{
		Argv:      code.RunArgv(),
		Dir:       code.WorkDir(),
		Stdin:     opts.Stdin,
		Stdout:    opts.Stdout,
		Stderr:    opts.Stderr,
		TimeLimit: opts.TimeLimit,
	}
	task := &ExternalProcessTask{Runner: pr}
	v, err := cr.Graph.Run(ctx, task)
	if err != nil {
		return RunResult{}, err
	}
	pres := v.(ProcessResult)
	return RunResult{
		Status:     pres.Status,
		Elapsed:    pres.Elapsed,
		HasElapsed: false,
		Err:        pres.Err,
	}, nil
}

// runExclusive drains every parallelism slot before running, so the
// re-measured attempt shares the CPU with nothing else the Graph knows
// about; this is the "exclusive=True" re-run from the original.
func (cr *CodeRunner) runExclusive(ctx context.Context, code Code, opts RunOptions) (RunResult, error) {
	held := 0
	for cr.Graph.backend == Fiber && held < cr.Graph.parallelism {
		if err := cr.Graph.acquireBlocked(ctx); err != nil {
			for ; held > 0; held-- {
				cr.Graph.releaseBlocked()
			}
			return RunResult{}, err
		}
		held++
	}
	defer func() {
		for ; held > 0; held-- {
			cr.Graph.releaseBlocked()
		}
	}()

	pr := &ProcessRunner{
		Argv:      code.RunArgv(),
		Dir:       code.WorkDir(),
		Stdin:     opts.Stdin,
		Stdout:    opts.Stdout,
		Stderr:    opts.Stderr,
		TimeLimit: opts.TimeLimit,
	}
	res := pr.Run(ctx)
	return RunResult{Status: res.Status, Elapsed: res.Elapsed, HasElapsed: true, Err: res.Err}, nil
}

// resetIO rewinds stdin to its start and truncates+rewinds stdout, so a
// re-run sees exactly the input the first attempt saw and does not append
// to output the first attempt already partially wrote. The rewind is
// best-effort: seek and truncate failures are swallowed (files may
// legitimately not support seeking), so resetIO always returns nil.
func resetIO(stdin, stdout *os.File) error {
	if stdin != nil {
		if _, err := stdin.Seek(0, io.SeekStart); err != nil {
			return nil
		}
	}
	if stdout != nil {
		if _, err := stdout.Seek(0, io.SeekStart); err != nil {
			return nil
		}
		_ = stdout.Truncate(0)
	}
	return nil
}
