package core

import (
	"context"
	"os"
	"os/exec"
)

// JudgeVerdict is the raw outcome of running a judge/checker program,
// before CodeRunner/solution tester map it onto a Verdict.
type JudgeVerdict int

const (
	JudgeOK JudgeVerdict = iota
	JudgeNG
	JudgeError
)

// InternalDiffCode is the built-in exact textual checker (no whitespace
// folding) used when a Testset declares no external judge. It is invoked
// with (infile, difffile, outfile) and runs `diff -u` between the expected
// and actual output, mapping the exit code the way the original's
// InternalDiffCode.Run does: 0 -> OK, 1 -> NG, anything else -> system error.
//
// Per the branch-and-return reading of InternalDiffCode (resolved as an
// Open Question): InternalDiffCode runs to completion on a branch task and
// returns its verdict rather than raising, so a caller composing it with
// other judges does not need exception-based control flow.
type InternalDiffCode struct{}

func (InternalDiffCode) Judge(ctx context.Context, infile, difffile, outfile string) (JudgeVerdict, error) {
	if difffile == "" {
		return JudgeError, errNoArgv
	}
	cmd := exec.CommandContext(ctx, "diff", "-u", difffile, outfile)
	err := cmd.Run()
	if err == nil {
		return JudgeOK, nil
	}
	if ee, ok := err.(*exec.ExitError); ok {
		if ee.ExitCode() == 1 {
			return JudgeNG, nil
		}
		return JudgeError, err
	}
	return JudgeError, err
}

// ExternalJudgeConvention selects how a Testset's judge/checker program
// argv is built, since contest judging tools disagree on calling
// convention. See spec §4.9.
type ExternalJudgeConvention int

const (
	ConventionRime ExternalJudgeConvention = iota
	ConventionTestlib
	ConventionDOMJudge
)

// ExternalJudgeCode wraps a compiled/interpreted checker program with one of
// the calling conventions above.
type ExternalJudgeCode struct {
	Code
	Convention ExternalJudgeConvention
}

// Judge runs the wrapped checker with infile/outfile/difffile rearranged
// into the argv order its convention expects, and maps its exit status
// (or, for DOMJudge, its exit code) onto a JudgeVerdict.
func (j ExternalJudgeCode) Judge(ctx context.Context, infile, outfile, difffile string) (JudgeVerdict, error) {
	argv := append([]string(nil), j.RunArgv()...)
	pr := &ProcessRunner{Argv: argv, Dir: j.WorkDir()}

	switch j.Convention {
	case ConventionTestlib:
		// Testlib positional convention: <infile> <outfile> <difffile>.
		pr.Argv = append(pr.Argv, infile, outfile, difffile)
	case ConventionDOMJudge:
		// DOMJudge convention: <infile> <difffile> <feedback_dir>, solution
		// output fed on the judge's stdin; exit code 42 means AC and 43
		// means WA, anything else is a judge error.
		workdir, err := os.MkdirTemp("", "rime-domjudge-")
		if err != nil {
			return JudgeError, err
		}
		defer os.RemoveAll(workdir)
		pr.Argv = append(pr.Argv, infile, difffile, workdir)

		out, err := os.Open(outfile)
		if err != nil {
			return JudgeError, err
		}
		defer out.Close()
		pr.Stdin = out
	default:
		// Rime named-flag convention: --infile, --difffile, --outfile.
		pr.Argv = append(pr.Argv, "--infile", infile, "--difffile", difffile, "--outfile", outfile)
	}

	res := pr.Run(ctx)

	if j.Convention == ConventionDOMJudge {
		switch res.ExitCode {
		case 42:
			return JudgeOK, nil
		case 43:
			return JudgeNG, nil
		default:
			return JudgeError, res.Err
		}
	}

	switch res.Status {
	case RunOK:
		return JudgeOK, nil
	case RunRE:
		if res.ExitCode == 1 {
			return JudgeNG, nil
		}
		return JudgeError, res.Err
	default:
		return JudgeError, res.Err
	}
}

// ReactiveConvention selects how a reactive judge receives the solution's
// own argv. KUPC is the only convention defined.
type ReactiveConvention int

const (
	ReactiveKUPC ReactiveConvention = iota
)

// ReactiveJudgeCode wraps a reactive judge program and builds its argv. This
// package does not start reactive judges or connect them to a solution: the
// Testset build does not compile Testset.Reactives and the solution tester
// does not run them.
type ReactiveJudgeCode struct {
	Code
	Convention ReactiveConvention
}

// Argv returns the reactive judge's argv with the solution's own argv
// folded in per Convention. KUPC shell-quotes the solution argv into one
// trailing argument, matching KUPCReactiveRunner in the original.
func (j ReactiveJudgeCode) Argv(solutionArgv []string) []string {
	argv := append([]string(nil), j.RunArgv()...)
	return append(argv, shellJoin(solutionArgv))
}

func shellJoin(argv []string) string {
	out := ""
	for i, a := range argv {
		if i > 0 {
			out += " "
		}
		out += shellQuote(a)
	}
	return out
}

func shellQuote(s string) string {
	needsQuote := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.', r == '/':
		default:
			needsQuote = true
		}
	}
	if !needsQuote {
		return s
	}
	out := "'"
	for _, r := range s {
		if r == '\'' {
			out += `'\''`
		} else {
			out += string(r)
		}
	}
	return out + "'"
}
