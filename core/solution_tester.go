package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// SolutionTester runs one Solution against one Testset's test cases,
// dispatching each case through CodeRunner and then through the Testset's
// judge, reconciling the resulting verdicts against the Solution's
// Expectation. Grounded on testset.py's TestSolution family of methods.
type SolutionTester struct {
	Graph      *Graph
	CodeRunner *CodeRunner
	Cache      *CaseCache
	KeepGoing  bool
	// Precise forces every case to run exclusively from the start instead
	// of only on a TLE re-run, for -p/--precise.
	Precise bool
}

// TestSolution tests solution against ts's enumerated test cases and
// returns a finalized TestsetResult.
func (st *SolutionTester) TestSolution(ctx context.Context, problem *Problem, solution *Solution) (*TestsetResult, error) {
	ts := problem.Testset
	files, err := ListInputFiles(ts.OutDir)
	if err != nil {
		return nil, err
	}

	if cr, err := st.Graph.Run(ctx, &compileTask{code: solution.Code}); err == nil {
		if res, ok := cr.(CompileResult); ok && !res.OK {
			result := NewTestsetResult(solution, ts, files)
			result.Finalize(string(VerdictERR), "compile error", nil, false)
			return result, nil
		}
	} else {
		return nil, err
	}

	switch solution.Expectation.Kind {
	case ExpectChallengeCases:
		return st.testWithChallengeCases(ctx, problem, solution, files)
	default:
		return st.testAllCases(ctx, problem, solution, files)
	}
}

func (st *SolutionTester) testWithChallengeCases(ctx context.Context, problem *Problem, solution *Solution, files []string) (*TestsetResult, error) {
	ts := problem.Testset
	result := NewTestsetResult(solution, ts, files)
	challenge := map[string]bool{}
	for _, c := range solution.Expectation.ChallengeCases {
		challenge[c] = true
	}

	tasks := make([]Task, len(files))
	for i, f := range files {
		tasks[i] = &testOneCaseTask{st: st, problem: problem, solution: solution, caseName: f, result: result}
	}
	// interrupt=true: a challenge solution is expected to fail somewhere,
	// so the branch bails out (and kills siblings) the moment any case's
	// verdict settles the Accepted-vs-challenged question.
	_, err := st.Graph.Branch(ctx, tasks, true)
	if err != nil {
		if _, ok := err.(*Bailout); !ok {
			return nil, err
		}
	}

	if !result.IsFinalized() {
		if result.IsAccepted() {
			result.Finalize(string(VerdictWA), "accepted but expected to fail on a challenge case", nil, false)
		} else {
			result.Finalize(string(VerdictAC), "failed as expected", nil, false)
		}
	}
	return result, nil
}

func (st *SolutionTester) testAllCases(ctx context.Context, problem *Problem, solution *Solution, files []string) (*TestsetResult, error) {
	ts := problem.Testset
	result := NewTestsetResult(solution, ts, files)

	tasks := make([]Task, len(files))
	for i, f := range files {
		tasks[i] = &testOneCaseTask{st: st, problem: problem, solution: solution, caseName: f, result: result}
	}
	interrupt := !st.KeepGoing
	_, err := st.Graph.Branch(ctx, tasks, interrupt)
	if err != nil {
		if _, ok := err.(*Bailout); !ok {
			return nil, err
		}
	}

	if !result.IsFinalized() {
		if result.IsAccepted() {
			result.Finalize(string(VerdictAC), "", nil, false)
		} else {
			result.Finalize(string(VerdictWA), "failed one or more cases", nil, false)
		}
	}
	return result, nil
}

// testOneCaseTask runs and judges one test case, then decides whether the
// containing TestsetResult should be finalized (and, for challenge-case and
// non-keep_going modes, whether to Bailout the branch).
type testOneCaseTask struct {
	st       *SolutionTester
	problem  *Problem
	solution *Solution
	caseName string
	result   *TestsetResult
}

func (t *testOneCaseTask) CacheKey() string { return "" }

func (t *testOneCaseTask) Run(ctx context.Context, g *Graph) (any, error) {
	caseResult, err := t.st.testOneCase(ctx, t.problem, t.solution, t.caseName)
	if err != nil {
		return nil, err
	}
	t.result.Cases[t.caseName] = caseResult

	isChallenge := t.solution.Expectation.Kind == ExpectChallengeCases
	wantsFail := false
	if isChallenge {
		for _, c := range t.solution.Expectation.ChallengeCases {
			if c == t.caseName {
				wantsFail = true
			}
		}
	}

	tc := &TestCase{InFile: t.caseName}

	if isChallenge {
		if caseResult.Verdict != VerdictAC && wantsFail {
			t.result.Finalize(string(VerdictAC), fmt.Sprintf("failed as expected on %s", t.caseName), tc, false)
			return nil, &Bailout{Value: t.result}
		}
		if caseResult.Verdict != VerdictAC && !wantsFail {
			t.result.Finalize(string(caseResult.Verdict), fmt.Sprintf("unexpectedly failed on non-challenge case %s", t.caseName), tc, false)
			return nil, &Bailout{Value: t.result}
		}
		return nil, nil
	}

	if caseResult.Verdict != VerdictAC && !t.st.KeepGoing {
		t.result.Finalize(string(caseResult.Verdict), fmt.Sprintf("failed on %s", t.caseName), tc, false)
		return nil, &Bailout{Value: t.result}
	}
	return nil, nil
}

// testOneCase runs the cache-then-execute-then-judge sequence for a single
// case, grounded on testset.py's _TestOneCase/_TestOneCaseNoCache.
func (st *SolutionTester) testOneCase(ctx context.Context, problem *Problem, solution *Solution, caseName string) (*TestCaseResult, error) {
	ts := problem.Testset
	inFile := filepath.Join(ts.OutDir, caseName+InExt)
	diffFile := filepath.Join(ts.OutDir, caseName+DiffExt)

	cookie := solutionCacheCookie(solution)
	if st.Cache != nil {
		srcInfo, err := statNewest(solution.Dir)
		if err == nil {
			caseInfo, cerr := statNewest(inFile, diffFile)
			if cerr == nil {
				if cached, ok := st.Cache.Get(cookie, caseName, srcInfo, caseInfo); ok {
					return cached, nil
				}
			}
		}
	}

	result, err := st.testOneCaseNoCache(ctx, problem, solution, caseName, inFile, diffFile)
	if err != nil {
		return nil, err
	}
	if st.Cache != nil {
		_ = st.Cache.Put(cookie, caseName, result)
	}
	return result, nil
}

func (st *SolutionTester) testOneCaseNoCache(ctx context.Context, problem *Problem, solution *Solution, caseName, inFile, diffFile string) (*TestCaseResult, error) {
	ts := problem.Testset

	in, err := os.Open(inFile)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	outFile := filepath.Join(ts.OutDir, caseName+".tmp"+OutExt)
	out, err := os.Create(outFile)
	if err != nil {
		return nil, err
	}
	defer func() {
		out.Close()
		os.Remove(outFile)
	}()

	runRes, err := st.CodeRunner.Run(ctx, solution.Code, RunOptions{
		Stdin: in, Stdout: out, TimeLimit: ts.TimeLimit, Precise: st.Precise,
	})
	if err != nil {
		return nil, err
	}

	if runRes.Status == RunTLE {
		return &TestCaseResult{Verdict: VerdictTLE}, nil
	}
	if runRes.Status != RunOK {
		return &TestCaseResult{Verdict: VerdictRE}, nil
	}

	verdict, err := st.judgeCase(ctx, problem, inFile, outFile, diffFile)
	if err != nil {
		return nil, err
	}

	tcResult := &TestCaseResult{Verdict: verdict}
	if runRes.HasElapsed {
		tcResult.Time = runRes.Elapsed
		tcResult.HasTime = true
	}
	return tcResult, nil
}

func (st *SolutionTester) judgeCase(ctx context.Context, problem *Problem, inFile, outFile, diffFile string) (Verdict, error) {
	ts := problem.Testset
	if len(ts.Judges) == 0 {
		v, err := InternalDiffCode{}.Judge(ctx, inFile, diffFile, outFile)
		return mapJudgeVerdict(v), err
	}
	for _, j := range ts.Judges {
		ej := ExternalJudgeCode{Code: j, Convention: ConventionRime}
		v, err := ej.Judge(ctx, inFile, outFile, diffFile)
		if err != nil {
			return VerdictERR, err
		}
		if v != JudgeOK {
			return mapJudgeVerdict(v), nil
		}
	}
	return VerdictAC, nil
}

func mapJudgeVerdict(v JudgeVerdict) Verdict {
	switch v {
	case JudgeOK:
		return VerdictAC
	case JudgeNG:
		return VerdictWA
	default:
		return VerdictERR
	}
}

func solutionCacheCookie(solution *Solution) string {
	return solution.Dir + ":" + solution.Name
}
