package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellQuoteLeavesSimpleArgsUnquoted(t *testing.T) {
	assert.Equal(t, "solution.bin", shellQuote("solution.bin"))
	assert.Equal(t, "./a-b_c.1", shellQuote("./a-b_c.1"))
}

func TestShellQuoteEscapesSpecialChars(t *testing.T) {
	assert.Equal(t, `'hello world'`, shellQuote("hello world"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestShellJoinBuildsOneArgument(t *testing.T) {
	got := shellJoin([]string{"./sol", "--flag", "a b"})
	assert.Equal(t, "./sol --flag 'a b'", got)
}

func TestReactiveJudgeCodeArgvAppendsShellJoinedSolution(t *testing.T) {
	j := ReactiveJudgeCode{Code: &scriptCode{codeBase{run: []string{"./judge"}}}, Convention: ReactiveKUPC}
	argv := j.Argv([]string{"./sol", "a b"})
	assert.Equal(t, []string{"./judge", "./sol 'a b'"}, argv)
}

func TestMapJudgeVerdict(t *testing.T) {
	assert.Equal(t, VerdictAC, mapJudgeVerdict(JudgeOK))
	assert.Equal(t, VerdictWA, mapJudgeVerdict(JudgeNG))
	assert.Equal(t, VerdictERR, mapJudgeVerdict(JudgeError))
}

// newArgvDumpingJudge writes a script that records its own argv (one per
// line) to argvLog, then exits with exitCode.
func newArgvDumpingJudge(t *testing.T, dir, argvLog string, exitCode int) Code {
	t.Helper()
	script := "checker.sh"
	body := "#!/bin/sh\nfor a in \"$@\"; do echo \"$a\"; done > '" + argvLog + "'\nexit " + itoa(exitCode) + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, script), []byte(body), 0o755))
	code, err := NewScriptCode(dir, script)
	require.NoError(t, err)
	return code
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestExternalJudgeCodeRimeConventionUsesNamedFlags(t *testing.T) {
	dir := t.TempDir()
	argvLog := filepath.Join(dir, "argv.log")
	j := ExternalJudgeCode{Code: newArgvDumpingJudge(t, dir, argvLog, 0), Convention: ConventionRime}

	verdict, err := j.Judge(context.Background(), "in.txt", "out.txt", "diff.txt")
	require.NoError(t, err)
	assert.Equal(t, JudgeOK, verdict)

	got, err := os.ReadFile(argvLog)
	require.NoError(t, err)
	assert.Equal(t, "--infile\nin.txt\n--difffile\ndiff.txt\n--outfile\nout.txt\n", string(got))
}

func TestExternalJudgeCodeTestlibConventionUsesPositionalArgs(t *testing.T) {
	dir := t.TempDir()
	argvLog := filepath.Join(dir, "argv.log")
	j := ExternalJudgeCode{Code: newArgvDumpingJudge(t, dir, argvLog, 0), Convention: ConventionTestlib}

	verdict, err := j.Judge(context.Background(), "in.txt", "out.txt", "diff.txt")
	require.NoError(t, err)
	assert.Equal(t, JudgeOK, verdict)

	got, err := os.ReadFile(argvLog)
	require.NoError(t, err)
	assert.Equal(t, "in.txt\nout.txt\ndiff.txt\n", string(got))
}

func TestExternalJudgeCodeDOMJudgeConventionFeedsOutputOnStdinAndMapsExitCode(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(outFile, []byte("42 is the answer\n"), 0o644))

	script := "checker.sh"
	body := "#!/bin/sh\ncat > '" + filepath.Join(dir, "stdin.log") + "'\nexit 43\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, script), []byte(body), 0o755))
	code, err := NewScriptCode(dir, script)
	require.NoError(t, err)

	j := ExternalJudgeCode{Code: code, Convention: ConventionDOMJudge}
	verdict, err := j.Judge(context.Background(), "in.txt", outFile, "diff.txt")
	require.NoError(t, err)
	assert.Equal(t, JudgeNG, verdict, "exit code 43 must map to a wrong-answer verdict")

	stdinGot, err := os.ReadFile(filepath.Join(dir, "stdin.log"))
	require.NoError(t, err)
	assert.Equal(t, "42 is the answer\n", string(stdinGot), "the solution's own output must be fed on the judge's stdin")
}
