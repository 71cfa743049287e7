// Command rime builds and tests programming-contest problem sets.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/icpc-jag/rime/core"
)

type globalFlags struct {
	jobs      int
	chdir     string
	cacheDir  string
	precise   bool
	keepGoing bool
	quiet     bool
}

func main() {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "rime",
		Short: "Build and test programming-contest problem sets",
	}
	root.PersistentFlags().IntVarP(&flags.jobs, "jobs", "j", 0, "number of concurrent tasks (0 = default)")
	root.PersistentFlags().StringVarP(&flags.chdir, "directory", "C", "", "run as if started in this directory")
	root.PersistentFlags().StringVarP(&flags.cacheDir, "cache-dir", "d", "", "on-disk result cache directory")
	root.PersistentFlags().BoolVarP(&flags.precise, "precise", "p", false, "always run solutions exclusively for accurate timing")
	root.PersistentFlags().BoolVarP(&flags.keepGoing, "keep-going", "k", false, "keep testing after a failing case instead of stopping")
	root.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress non-error output")

	root.AddCommand(newBuildCmd(flags))
	root.AddCommand(newTestCmd(flags))
	root.AddCommand(newCleanCmd(flags))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newBuildCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "build [target]",
		Short: "Build testsets under target (default: current directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(flags, targetArg(args))
		},
	}
}

func newTestCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "test [target]",
		Short: "Build and test solutions under target (default: current directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(flags, targetArg(args))
		},
	}
}

func newCleanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [target]",
		Short: "Remove build output under target (default: current directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(flags, targetArg(args))
		},
	}
}

func targetArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "."
}

func setup(flags *globalFlags, target string) (*core.Console, *core.ErrorRecorder, *core.Graph, string, error) {
	if flags.chdir != "" {
		if err := os.Chdir(flags.chdir); err != nil {
			return nil, nil, nil, "", err
		}
	}

	cfg := core.Load()
	if flags.jobs > 0 {
		cfg.Parallelism = flags.jobs
	}
	if flags.cacheDir != "" {
		cfg.CacheDir = flags.cacheDir
	}
	cfg.Quiet = cfg.Quiet || flags.quiet
	cfg.KeepGoing = cfg.KeepGoing || flags.keepGoing
	flags.cacheDir = cfg.CacheDir
	flags.keepGoing = cfg.KeepGoing

	closer, err := core.SetupLogging(cfg, "rime.log")
	if err == nil {
		_ = closer // kept open for process lifetime, flushed on exit
	}

	console := core.NewConsole(os.Stdout, cfg.Quiet)
	recorder := &core.ErrorRecorder{}

	backend := core.Fiber
	parallelism := cfg.Parallelism
	if parallelism <= 1 {
		backend = core.Serial
		parallelism = 1
	}
	graph := core.NewGraph(backend, parallelism)

	dir, err := filepath.Abs(target)
	if err != nil {
		return nil, nil, nil, "", err
	}
	root, err := core.FindProjectRoot(dir)
	if err != nil {
		return nil, nil, nil, "", err
	}
	return console, recorder, graph, root, nil
}

func runBuild(flags *globalFlags, target string) error {
	console, recorder, graph, dir, err := setup(flags, target)
	if err != nil {
		return err
	}

	problems, err := discoverProblems(dir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, p := range problems {
		console.Action("BUILD", p.Dir, "")
		var refSolution core.Code
		var refDir string
		if p.ReferenceSolution != nil {
			refSolution = p.ReferenceSolution.Code
			refDir = p.ReferenceSolution.Dir
		}
		if err := core.BuildTestset(ctx, graph, p.Testset, refSolution, p.LibraryDir, refDir, recorder); err != nil {
			recorder.Error(p.Dir, err.Error())
		}
	}

	console.Summary(recorder)
	if recorder.HasErrors() {
		return fmt.Errorf("build failed")
	}
	return nil
}

func runTest(flags *globalFlags, target string) error {
	console, recorder, graph, dir, err := setup(flags, target)
	if err != nil {
		return err
	}

	problems, err := discoverProblems(dir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tester := &core.SolutionTester{
		Graph:      graph,
		CodeRunner: &core.CodeRunner{Graph: graph},
		Cache:      &core.CaseCache{Dir: mustCacheDir(flags)},
		KeepGoing:  flags.keepGoing,
		Precise:    flags.precise,
	}
	diag := core.NewRunDiagnostics()

	allPassed := true
	for _, p := range problems {
		console.Action("BUILD", p.Dir, "")
		var refSolution core.Code
		var refDir string
		if p.ReferenceSolution != nil {
			refSolution = p.ReferenceSolution.Code
			refDir = p.ReferenceSolution.Dir
		}
		buildStart := time.Now()
		if err := core.BuildTestset(ctx, graph, p.Testset, refSolution, p.LibraryDir, refDir, recorder); err != nil {
			recorder.Error(p.Dir, err.Error())
			continue
		}
		diag.RecordBuildSeconds(time.Since(buildStart).Seconds())

		for _, s := range p.Solutions {
			console.Action("TEST", s.Dir, "")
			result, err := tester.TestSolution(ctx, p, s)
			if err != nil {
				recorder.Error(s.Dir, err.Error())
				allPassed = false
				continue
			}
			for _, c := range result.Cases {
				diag.RecordCase(c.Verdict)
			}
			passed := result.Expected() == string(core.VerdictAC)
			if !passed {
				allPassed = false
			}
			console.Result(s.Name, passed, result.Detail())
		}
	}

	if path := mustMetricsPath(flags); path != "" {
		if err := diag.WriteTo(path); err != nil {
			recorder.Warning("metrics", err.Error())
		}
	}

	console.Summary(recorder)
	if !allPassed || recorder.HasErrors() {
		return fmt.Errorf("test failed")
	}
	return nil
}

func mustMetricsPath(flags *globalFlags) string {
	if flags.cacheDir != "" {
		return filepath.Join(flags.cacheDir, "metrics.prom")
	}
	return filepath.Join(".", core.RimeOutDir, "metrics.prom")
}

func runClean(flags *globalFlags, target string) error {
	console, _, _, dir, err := setup(flags, target)
	if err != nil {
		return err
	}
	problems, err := discoverProblems(dir)
	if err != nil {
		return err
	}
	for _, p := range problems {
		console.Action("CLEAN", p.Dir, "")
		if err := os.RemoveAll(p.Testset.OutDir); err != nil {
			return err
		}
		for _, s := range p.Solutions {
			_ = s.Code.Clean()
		}
	}
	return nil
}

func mustCacheDir(flags *globalFlags) string {
	if flags.cacheDir != "" {
		return flags.cacheDir
	}
	return filepath.Join(".", core.RimeOutDir, "cache")
}

// discoverProblems loads every Problem under dir that carries a PROBLEM
// marker file, including its Testset and Solutions.
func discoverProblems(dir string) ([]*core.Problem, error) {
	problemDirs, err := core.DiscoverProblems(dir)
	if err != nil {
		return nil, err
	}

	var problems []*core.Problem
	for _, pd := range problemDirs {
		p, err := core.LoadProblem(pd)
		if err != nil {
			return nil, err
		}

		solutionDirs, err := core.DiscoverSolutions(pd)
		if err != nil {
			return nil, err
		}
		for _, sd := range solutionDirs {
			s, err := core.LoadSolution(sd, p.LibraryDir)
			if err != nil {
				return nil, err
			}
			if s.IsCorrect && p.ReferenceSolution == nil {
				p.ReferenceSolution = s
			}
			p.Solutions = append(p.Solutions, s)
		}
		problems = append(problems, p)
	}
	return problems, nil
}
