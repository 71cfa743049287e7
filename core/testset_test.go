package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortInputFilesNaturalOrder(t *testing.T) {
	in := []string{"in10", "in2", "in1", "in20", "sample"}
	got := sortInputFiles(in)
	assert.Equal(t, []string{"in1", "in2", "in10", "in20", "sample"}, got)
}

func TestListInputFilesFiltersBySuffixAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"in2.in", "in10.in", "in1.in", "in1.diff", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := ListInputFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"in1", "in2", "in10"}, files)
}

func TestIsBuildCachedMissingStampIsNotCached(t *testing.T) {
	dir := t.TempDir()
	ts := &Testset{SrcDir: dir, OutDir: filepath.Join(dir, "rime-out")}
	assert.False(t, IsBuildCached(ts, "", ""))
}

func TestIsBuildCachedDetectsNewerSource(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "rime-out")
	ts := &Testset{SrcDir: dir, OutDir: outDir}
	require.NoError(t, SetCacheStamp(ts))

	assert.True(t, IsBuildCached(ts, "", ""), "freshly stamped build should be cached")

	// Touch a source file after the stamp; the build must no longer be cached.
	srcFile := filepath.Join(dir, "gen.cc")
	require.NoError(t, os.WriteFile(srcFile, []byte("int main(){}"), 0o644))

	stampInfo, err := os.Stat(filepath.Join(ts.OutDir, StampFile))
	require.NoError(t, err)
	future := stampInfo.ModTime().Add(time.Hour)
	require.NoError(t, os.Chtimes(srcFile, future, future))

	assert.False(t, IsBuildCached(ts, "", ""))
}

// TestBuildTestsetSnapshotsSrcDirIntoOutDir exercises §4.6's out_dir
// isolation invariant end to end: the generator and reference solution
// must actually run inside out_dir (a snapshot of src_dir), not inside
// src_dir itself, or generated cases would never be found.
func TestBuildTestsetSnapshotsSrcDirIntoOutDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("static\n"), 0o644))

	genFile := "gen.sh"
	require.NoError(t, os.WriteFile(filepath.Join(dir, genFile),
		[]byte("#!/bin/sh\necho '1 2' > case01.in\n"), 0o755))
	gen, err := NewScriptCode(dir, genFile)
	require.NoError(t, err)

	outDir := filepath.Join(dir, RimeOutDir)
	gen.SetOutDir(outDir, true)

	solDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(solDir, "sol.sh"),
		[]byte("#!/bin/sh\nread a b; echo $((a+b))\n"), 0o755))
	ref, err := NewScriptCode(solDir, "sol.sh")
	require.NoError(t, err)
	ref.SetOutDir(filepath.Join(solDir, RimeOutDir), false)

	ts := &Testset{Dir: dir, SrcDir: dir, OutDir: outDir, Generators: []Code{gen}}

	g := NewGraph(Serial, 1)
	recorder := &ErrorRecorder{}
	require.NoError(t, BuildTestset(context.Background(), g, ts, ref, "", "", recorder))

	assert.FileExists(t, filepath.Join(outDir, "case01.in"))
	assert.FileExists(t, filepath.Join(outDir, "README"), "out_dir must be a full snapshot of src_dir, not just generated files")

	diff, err := os.ReadFile(filepath.Join(outDir, "case01.diff"))
	require.NoError(t, err)
	assert.Equal(t, "3\n", string(diff))
}

// TestBuildTestsetCopiesLibraryDirIntoOutDir exercises §4.2's declared
// dependency library copy, which previously had nowhere to run.
func TestBuildTestsetCopiesLibraryDirIntoOutDir(t *testing.T) {
	dir := t.TempDir()
	libDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "helper.h"), []byte("// helper\n"), 0o644))

	outDir := filepath.Join(dir, RimeOutDir)
	ts := &Testset{Dir: dir, SrcDir: dir, OutDir: outDir}

	g := NewGraph(Serial, 1)
	recorder := &ErrorRecorder{}
	require.NoError(t, BuildTestset(context.Background(), g, ts, nil, libDir, "", recorder))

	assert.FileExists(t, filepath.Join(outDir, "helper.h"))
}
