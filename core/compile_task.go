package core

import (
	"context"
	"path/filepath"
)

// compileTask runs one Code's Compile step and memoizes the result, so that
// a Code referenced by several downstream Tasks (a validator used by every
// generated case, a reference solution used by every test case) is only
// ever compiled once per Graph.
type compileTask struct {
	code    Code
	logPath string
}

func (t *compileTask) CacheKey() string {
	return "compile:" + t.code.SrcDir() + ":" + filepath.Join(t.code.RunArgv()...)
}

func (t *compileTask) Run(ctx context.Context, g *Graph) (any, error) {
	return t.code.Compile(ctx, t.logPath)
}

// CompileAll compiles every code in codes concurrently (subject to the
// Graph's backend) and returns every individual CompileResult in input
// order. A failed compile shows up as OK == false in its slot; the returned
// error reports only a failure to run a compile at all.
func CompileAll(ctx context.Context, g *Graph, codes []Code, logDir string) ([]CompileResult, error) {
	tasks := make([]Task, len(codes))
	for i, c := range codes {
		logPath := ""
		if logDir != "" {
			logPath = filepath.Join(logDir, filepath.Base(c.SrcDir())+LogExt)
		}
		tasks[i] = &compileTask{code: c, logPath: logPath}
	}
	results, err := g.Branch(ctx, tasks, false)
	if err != nil {
		return nil, err
	}
	out := make([]CompileResult, len(results))
	for i, r := range results {
		out[i] = r.(CompileResult)
	}
	return out, nil
}
