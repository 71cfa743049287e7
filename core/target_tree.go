package core

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindProjectRoot walks up from dir looking for a RIMEROOT marker file,
// returning the first directory that contains one.
func FindProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if fileExists(filepath.Join(dir, RimerootFile)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found above %s", RimerootFile, dir)
		}
		dir = parent
	}
}

// DiscoverProblems finds every immediate child directory of projectDir that
// contains a PROBLEM marker file, sorted by name.
func DiscoverProblems(projectDir string) ([]string, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(projectDir, e.Name())
		if fileExists(filepath.Join(p, ProblemFile)) {
			dirs = append(dirs, p)
		}
	}
	return dirs, nil
}

// DiscoverSolutions finds every immediate child directory of problemDir
// that contains a SOLUTION marker file, sorted by name.
func DiscoverSolutions(problemDir string) ([]string, error) {
	entries, err := os.ReadDir(problemDir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(problemDir, e.Name())
		if fileExists(filepath.Join(p, SolutionFile)) {
			dirs = append(dirs, p)
		}
	}
	return dirs, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
