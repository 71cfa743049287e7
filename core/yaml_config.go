package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// problemDoc is the on-disk shape of problem.yaml. Grounded on the
// yaml-tagged doc-struct pattern the teacher uses for problem.yaml parsing.
type problemDoc struct {
	Title      string  `yaml:"title"`
	ID         string  `yaml:"id"`
	TimeLimit  float64 `yaml:"time_limit"`
	LibraryDir string  `yaml:"library_dir"`
}

// testsetDoc is the on-disk shape of testset.yaml.
type testsetDoc struct {
	Generators []string `yaml:"generators"`
	Validators []string `yaml:"validators"`
	Judges     []string `yaml:"judges"`
	Reactives  []string `yaml:"reactives"`
}

// solutionDoc is the on-disk shape of solution.yaml.
type solutionDoc struct {
	Source           string   `yaml:"source"`
	Correct          *bool    `yaml:"correct"`
	ChallengeCases   []string `yaml:"challenge_cases"`
	ExpectedVerdicts []string `yaml:"expected_verdicts"`
	Reference        bool     `yaml:"reference"`
}

// LoadProblem reads problem.yaml and testset.yaml from dir and returns a
// Problem with its Testset populated (but Solutions left empty; see
// LoadSolution). The testset directory is assumed to be dir itself,
// matching the single-testset-per-problem layout.
func LoadProblem(dir string) (*Problem, error) {
	var doc problemDoc
	if err := readYAML(filepath.Join(dir, "problem.yaml"), &doc); err != nil {
		return nil, err
	}

	var tdoc testsetDoc
	_ = readYAML(filepath.Join(dir, "testset.yaml"), &tdoc) // optional

	timeLimit := time.Duration(doc.TimeLimit * float64(time.Second))
	if timeLimit <= 0 {
		timeLimit = 2 * time.Second
	}

	problem := &Problem{
		Dir:        dir,
		ID:         doc.ID,
		Title:      doc.Title,
		TimeLimit:  timeLimit,
		LibraryDir: doc.LibraryDir,
		Testset: &Testset{
			Dir:       dir,
			SrcDir:    dir,
			OutDir:    filepath.Join(dir, RimeOutDir),
			TimeLimit: timeLimit,
		},
	}

	// Testset-anchored codes (generators/validators/judges/reactives) share
	// one src_dir and so share one out_dir: the Testset build recreates that
	// snapshot once (core/testset.go's BuildTestset), and each Code here is
	// told as much via shared=true so its own Compile does not repeat it.
	codesFromGlobs := func(patterns []string) ([]Code, error) {
		var codes []Code
		for _, pattern := range patterns {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				c, err := codeForSource(dir, filepath.Base(m))
				if err != nil {
					return nil, err
				}
				c.SetOutDir(problem.Testset.OutDir, true)
				c.SetLibraryDir(doc.LibraryDir)
				codes = append(codes, c)
			}
		}
		return codes, nil
	}

	var err error
	if problem.Testset.Generators, err = codesFromGlobs(tdoc.Generators); err != nil {
		return nil, err
	}
	if problem.Testset.Validators, err = codesFromGlobs(tdoc.Validators); err != nil {
		return nil, err
	}
	if problem.Testset.Judges, err = codesFromGlobs(tdoc.Judges); err != nil {
		return nil, err
	}
	if problem.Testset.Reactives, err = codesFromGlobs(tdoc.Reactives); err != nil {
		return nil, err
	}

	return problem, nil
}

// LoadSolution reads solution.yaml from dir and returns a populated
// Solution. Its required "source" field names the solution's file, relative
// to dir. libraryDir is the owning
// Problem's declared dependency directory, if any.
func LoadSolution(dir, libraryDir string) (*Solution, error) {
	var doc solutionDoc
	if err := readYAML(filepath.Join(dir, "solution.yaml"), &doc); err != nil {
		return nil, err
	}
	if doc.Source == "" {
		return nil, fmt.Errorf("%s: solution.yaml missing required field 'source'", dir)
	}

	code, err := codeForSource(dir, doc.Source)
	if err != nil {
		return nil, err
	}
	// Unlike testset codes, a solution owns its out_dir outright: nothing
	// else shares dir, so Compile recreates its own src_dir snapshot.
	code.SetOutDir(filepath.Join(dir, RimeOutDir), false)
	code.SetLibraryDir(libraryDir)

	expectation := Expectation{Kind: ExpectCorrect}
	isCorrect := true
	switch {
	case len(doc.ChallengeCases) > 0:
		expectation = Expectation{Kind: ExpectChallengeCases, ChallengeCases: doc.ChallengeCases}
		isCorrect = false
	case len(doc.ExpectedVerdicts) > 0:
		verdicts := make([]Verdict, len(doc.ExpectedVerdicts))
		for i, v := range doc.ExpectedVerdicts {
			verdicts[i] = Verdict(v)
		}
		expectation = Expectation{Kind: ExpectVerdicts, ExpectedVerdicts: verdicts}
		isCorrect = false
	case doc.Correct != nil:
		isCorrect = *doc.Correct
	}

	return &Solution{
		Dir:         dir,
		Name:        filepath.Base(dir),
		Code:        code,
		IsCorrect:   isCorrect,
		Expectation: expectation,
	}, nil
}

// codeConstructor builds a Code for a source file known to live in dir.
type codeConstructor func(dir, srcFile string) (Code, error)

// codeRegistry maps a source extension to the constructor for its language
// variant, replacing a type switch spread across callers with one lookup
// table. Grounded on rime/util/class_registry.py's ClassRegistry, the same
// pattern Registry[T] generalizes.
var codeRegistry = NewRegistry[codeConstructor]()

func init() {
	register := func(ext string, ctor codeConstructor) {
		if err := codeRegistry.Add(ext, ctor); err != nil {
			panic(err)
		}
	}
	register(".c", func(dir, f string) (Code, error) { return NewCCode(dir, f), nil })
	register(".cc", func(dir, f string) (Code, error) { return NewCXXCode(dir, f), nil })
	register(".cpp", func(dir, f string) (Code, error) { return NewCXXCode(dir, f), nil })
	register(".cxx", func(dir, f string) (Code, error) { return NewCXXCode(dir, f), nil })
	register(".java", func(dir, f string) (Code, error) {
		return NewJavaCode(dir, f, strings.TrimSuffix(f, ".java")), nil
	})
	register(".go", func(dir, f string) (Code, error) { return NewGoCode(dir, f), nil })
	register(".rs", func(dir, f string) (Code, error) { return NewRustCode(dir, f), nil })
	register(".kt", func(dir, f string) (Code, error) { return NewKotlinCode(dir, f), nil })
}

// codeForSource builds a Code for srcFile based on its extension, covering
// the language catalogue this implementation supports. Extensions with no
// registered constructor fall back to the shebang-driven script variant.
func codeForSource(dir, srcFile string) (Code, error) {
	if ctor, ok := codeRegistry.Get(filepath.Ext(srcFile)); ok {
		return ctor(dir, srcFile)
	}
	return NewScriptCode(dir, srcFile)
}

func readYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, out)
}
