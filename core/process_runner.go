package core

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"
)

// ProcessRunner spawns one external process with argv/cwd/stdio redirection
// and a soft CPU-time limit enforced by a one-shot timer. It distinguishes
// TLE from RE by recording that the timer fired (and signalled the child)
// before Wait returned; the signal number in the exit status is not
// inspected.
type ProcessRunner struct {
	Argv   []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// TimeLimit is the soft CPU-time limit. Zero means unlimited.
	TimeLimit time.Duration

	cmd       *exec.Cmd
	timer     *time.Timer
	timedOut  bool
	startedAt time.Time
}

// ProcessResult is what Run leaves behind once the child has exited.
type ProcessResult struct {
	Status   RunStatus
	Elapsed  time.Duration
	ExitCode int
	Err      error
}

// Run starts the process, waits for it to exit or for the CPU-time limit to
// fire, and returns a RunStatus classifying the outcome. Run is synchronous;
// callers that need concurrency drive it from an ExternalProcessTask.
func (p *ProcessRunner) Run(ctx context.Context) ProcessResult {
	if len(p.Argv) == 0 {
		return ProcessResult{Status: RunRE, Err: errNoArgv}
	}

	cmd := exec.CommandContext(ctx, p.Argv[0], p.Argv[1:]...)
	cmd.Dir = p.Dir
	cmd.Stdin = p.Stdin
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	setupProcessGroup(cmd)
	p.cmd = cmd

	p.startedAt = time.Now()
	if err := cmd.Start(); err != nil {
		return ProcessResult{Status: RunRE, Err: err}
	}

	if p.TimeLimit > 0 {
		p.timer = time.AfterFunc(p.TimeLimit, func() {
			p.timedOut = true
			killCPULimit(cmd)
		})
		defer p.timer.Stop()
	}

	err := cmd.Wait()
	elapsed := time.Since(p.startedAt)

	if err == nil {
		return ProcessResult{Status: RunOK, Elapsed: elapsed}
	}

	if p.timedOut {
		return ProcessResult{Status: RunTLE, Elapsed: elapsed, Err: err}
	}

	exitCode := -1
	if ee, ok := err.(*exec.ExitError); ok {
		exitCode = ee.ExitCode()
	}
	return ProcessResult{Status: RunRE, Elapsed: elapsed, ExitCode: exitCode, Err: err}
}

// Kill terminates the child process group if one is running. Safe to call
// after the process has already exited.
func (p *ProcessRunner) Kill() {
	if p.cmd != nil && p.cmd.Process != nil {
		killCPULimit(p.cmd)
	}
}

var errNoArgv = &processError{"empty argv"}

type processError struct{ msg string }

func (e *processError) Error() string { return e.msg }

// captureBuffer is a small helper used by Code variants that need to collect
// a compile log or checker stderr into memory instead of streaming it.
func newCaptureBuffer() *bytes.Buffer { return &bytes.Buffer{} }

// discardOrFile opens path for writing if non-empty, else returns io.Discard.
func discardOrFile(path string) (io.Writer, io.Closer, error) {
	if path == "" {
		return io.Discard, nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}
