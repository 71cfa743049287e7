package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// sortInputFiles sorts basenames with "natural" numeric ordering: each run
// of digits is treated as a zero-padded-to-8 token so that e.g. "in2.txt"
// sorts before "in10.txt". Grounded on testset.py's _SortInputFiles.
func sortInputFiles(files []string) []string {
	out := append([]string(nil), files...)
	digitRun := regexp.MustCompile(`\d+`)
	key := func(s string) string {
		return digitRun.ReplaceAllStringFunc(s, func(m string) string {
			return fmt.Sprintf("%08s", m)
		})
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}

// ListInputFiles returns the naturally sorted basenames (without the .in
// suffix) of every *.in file directly under dir.
func ListInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), InExt) {
			files = append(files, strings.TrimSuffix(e.Name(), InExt))
		}
	}
	return sortInputFiles(files), nil
}

// IsBuildCached reports whether ts's stamp file is newer than every input
// that could affect the build: the testset's source directory, the
// problem's library directory (if any), and the reference solution's
// source directory. Grounded on testset.py's Build cache check.
func IsBuildCached(ts *Testset, libraryDir string, referenceSolutionDir string) bool {
	stampPath := filepath.Join(ts.OutDir, StampFile)
	stampInfo, err := os.Stat(stampPath)
	if err != nil {
		return false
	}
	for _, dir := range []string{ts.SrcDir, libraryDir, referenceSolutionDir} {
		if dir == "" {
			continue
		}
		newer, err := anyNewerThan(dir, stampInfo.ModTime())
		if err != nil || newer {
			return false
		}
	}
	return true
}

func anyNewerThan(dir string, cutoff time.Time) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if found {
			return filepath.SkipAll
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			found = true
		}
		return nil
	})
	return found, err
}

// SetCacheStamp writes (or refreshes) ts's stamp file after a successful
// build.
func SetCacheStamp(ts *Testset) error {
	if err := os.MkdirAll(ts.OutDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ts.OutDir, StampFile), []byte(time.Now().UTC().Format(time.RFC3339)+"\n"), 0o644)
}

// BuildTestset runs the full Testset build pipeline: init out_dir, compile
// generators/validators/judges concurrently, run generators, enumerate and
// naturally-sort test cases, run validators against the cross product of
// validator x case, build and run the reference solution to produce
// missing .diff files, and finally stamp the out_dir. Grounded on
// testset.py's Build.
func BuildTestset(ctx context.Context, g *Graph, ts *Testset, referenceSolution Code, libraryDir, referenceSolutionDir string, recorder *ErrorRecorder) error {
	if IsBuildCached(ts, libraryDir, referenceSolutionDir) {
		return nil
	}

	// Recreate out_dir as a fresh snapshot of src_dir (plus any declared
	// library dependency) before anything compiles or runs inside it.
	// Testset codes share this one out_dir, so the snapshot happens once
	// here rather than redundantly inside each Code's own Compile.
	if err := recreateOutDir(ts.OutDir, ts.SrcDir); err != nil {
		return fmt.Errorf("recreate out dir: %w", err)
	}
	if libraryDir != "" {
		if err := copyTreeInto(libraryDir, ts.OutDir); err != nil {
			return fmt.Errorf("copy library dir: %w", err)
		}
	}

	allCodes := append(append(append([]Code{}, ts.Generators...), ts.Validators...), ts.Judges...)
	if len(allCodes) > 0 {
		results, err := CompileAll(ctx, g, allCodes, ts.OutDir)
		if err != nil {
			return fmt.Errorf("compile testset support code: %w", err)
		}
		for i, r := range results {
			if !r.OK {
				recorder.Error(ts.Dir, fmt.Sprintf("compile failed: %s", allCodes[i].SrcDir()))
				return fmt.Errorf("compile failed for %s", allCodes[i].SrcDir())
			}
		}
	}

	cr := &CodeRunner{Graph: g}
	if err := runGenerators(ctx, cr, ts); err != nil {
		return fmt.Errorf("run generators: %w", err)
	}

	files, err := ListInputFiles(ts.OutDir)
	if err != nil {
		return fmt.Errorf("list input files: %w", err)
	}
	if len(files) == 0 {
		recorder.Warning(ts.Dir, "no test cases found")
	}

	if err := runValidators(ctx, cr, ts, files, recorder); err != nil {
		return fmt.Errorf("run validators: %w", err)
	}

	if referenceSolution != nil {
		compiled, err := g.Run(ctx, &compileTask{code: referenceSolution})
		if err != nil {
			return fmt.Errorf("compile reference solution: %w", err)
		}
		if !compiled.(CompileResult).OK {
			recorder.Error(ts.Dir, "reference solution failed to compile")
			return fmt.Errorf("reference solution compile failed")
		}
		if err := runReferenceSolution(ctx, cr, ts, referenceSolution, files); err != nil {
			return fmt.Errorf("run reference solution: %w", err)
		}
	}

	return SetCacheStamp(ts)
}

func runGenerators(ctx context.Context, cr *CodeRunner, ts *Testset) error {
	if len(ts.Generators) == 0 {
		return nil
	}
	tasks := make([]Task, len(ts.Generators))
	for i, gen := range ts.Generators {
		tasks[i] = &runGeneratorTask{cr: cr, code: gen, timeLimit: ts.TimeLimit}
	}
	_, err := cr.Graph.Branch(ctx, tasks, false)
	return err
}

type runGeneratorTask struct {
	cr        *CodeRunner
	code      Code
	timeLimit time.Duration
}

func (t *runGeneratorTask) CacheKey() string { return "" }

func (t *runGeneratorTask) Run(ctx context.Context, g *Graph) (any, error) {
	res, err := t.cr.Run(ctx, t.code, RunOptions{TimeLimit: t.timeLimit})
	if err != nil {
		return nil, err
	}
	if res.Status != RunOK {
		return nil, fmt.Errorf("generator %s failed: %s", t.code.SrcDir(), res.Status)
	}
	return nil, nil
}

func runValidators(ctx context.Context, cr *CodeRunner, ts *Testset, files []string, recorder *ErrorRecorder) error {
	if len(ts.Validators) == 0 || len(files) == 0 {
		return nil
	}
	var tasks []Task
	for _, v := range ts.Validators {
		for _, f := range files {
			tasks = append(tasks, &runValidatorTask{cr: cr, code: v, inFile: filepath.Join(ts.OutDir, f+InExt), caseName: f, recorder: recorder, testsetDir: ts.Dir})
		}
	}
	_, err := cr.Graph.Branch(ctx, tasks, false)
	return err
}

type runValidatorTask struct {
	cr         *CodeRunner
	code       Code
	inFile     string
	caseName   string
	recorder   *ErrorRecorder
	testsetDir string
}

func (t *runValidatorTask) CacheKey() string { return "" }

func (t *runValidatorTask) Run(ctx context.Context, g *Graph) (any, error) {
	in, err := os.Open(t.inFile)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	res, err := t.cr.Run(ctx, t.code, RunOptions{Stdin: in})
	if err != nil {
		return nil, err
	}
	if res.Status != RunOK {
		t.recorder.Error(t.testsetDir, fmt.Sprintf("validation failed for case %s: %s", t.caseName, res.Status))
	}
	return nil, nil
}

func runReferenceSolution(ctx context.Context, cr *CodeRunner, ts *Testset, ref Code, files []string) error {
	tasks := make([]Task, 0, len(files))
	for _, f := range files {
		diffPath := filepath.Join(ts.OutDir, f+DiffExt)
		if _, err := os.Stat(diffPath); err == nil {
			continue // an explicit expected output already exists
		}
		tasks = append(tasks, &runReferenceTask{cr: cr, code: ref, inFile: filepath.Join(ts.OutDir, f+InExt), outFile: diffPath, timeLimit: ts.TimeLimit})
	}
	_, err := cr.Graph.Branch(ctx, tasks, false)
	return err
}

type runReferenceTask struct {
	cr        *CodeRunner
	code      Code
	inFile    string
	outFile   string
	timeLimit time.Duration
}

func (t *runReferenceTask) CacheKey() string { return "" }

func (t *runReferenceTask) Run(ctx context.Context, g *Graph) (any, error) {
	in, err := os.Open(t.inFile)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	out, err := os.Create(t.outFile)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	res, err := t.cr.Run(ctx, t.code, RunOptions{Stdin: in, Stdout: out, TimeLimit: t.timeLimit})
	if err != nil {
		return nil, err
	}
	if res.Status != RunOK {
		return nil, fmt.Errorf("reference solution failed on %s: %s", filepath.Base(t.inFile), res.Status)
	}
	return nil, nil
}
