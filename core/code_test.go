package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeBaseWorkDirFallsBackToSrcDirWithoutSetOutDir(t *testing.T) {
	c := &codeBase{srcDir: "/some/src"}
	assert.Equal(t, "/some/src", c.WorkDir())
}

func TestCodeBaseWorkDirUsesOutDirOnceSet(t *testing.T) {
	c := &codeBase{srcDir: "/some/src"}
	c.SetOutDir("/some/out", false)
	assert.Equal(t, "/some/out", c.WorkDir())
}

func TestCodeBaseCompileSnapshotsPrivateOutDirAndLibraryDir(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "solution.sh"), []byte("#!/bin/sh\necho hi\n"), 0o755))

	libDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "common.sh"), []byte("# shared\n"), 0o644))

	code, err := NewScriptCode(srcDir, "solution.sh")
	require.NoError(t, err)

	outDir := filepath.Join(t.TempDir(), "out")
	code.SetOutDir(outDir, false)
	code.SetLibraryDir(libDir)

	res, err := code.Compile(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, res.OK)

	assert.FileExists(t, filepath.Join(outDir, "solution.sh"))
	assert.FileExists(t, filepath.Join(outDir, "common.sh"), "declared library files must be copied into a private out_dir too")
}

func TestCodeBaseCompileSkipsSnapshotWhenOutDirIsShared(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "gen.sh"), []byte("#!/bin/sh\necho hi\n"), 0o755))

	code, err := NewScriptCode(srcDir, "gen.sh")
	require.NoError(t, err)

	outDir := t.TempDir()
	// Simulate the owning Testset build having already recreated outDir
	// with a different snapshot; a shared Compile must not overwrite it.
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "sentinel"), []byte("untouched"), 0o644))
	code.SetOutDir(outDir, true)

	_, err = code.Compile(context.Background(), "")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(outDir, "sentinel"))
	assert.NoFileExists(t, filepath.Join(outDir, "gen.sh"), "a shared out_dir must not be re-snapshotted by Compile")
}

func TestNewKotlinCodeBuildsJarCompileAndJavaRun(t *testing.T) {
	code := NewKotlinCode("/src", "solution.kt")
	assert.Equal(t, []string{"kotlinc", "solution.kt", "-include-runtime", "-d", "solution.jar"}, code.CompileArgv())
	assert.Equal(t, []string{"java", "-jar", "solution.jar"}, code.RunArgv())
}

func TestNativeCodeCleanRemovesArtifactFromWorkDir(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "solution.exe"), []byte("binary"), 0o755))

	code := NewCCode(srcDir, "solution.c")
	code.SetOutDir(outDir, true)

	require.NoError(t, code.Clean())
	assert.NoFileExists(t, filepath.Join(outDir, "solution.exe"))
}
