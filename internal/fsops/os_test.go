package fsops

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/testutil/testutils"
)

func TestOSExists(t *testing.T) {
	fsys := NewOS(nil)
	dir := t.TempDir()

	ok, err := fsys.Exists(dir)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = fsys.Exists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOSRemoveAndCreate(t *testing.T) {
	fsys := NewOS(nil)
	staging := filepath.Join(t.TempDir(), "out_temp")
	require.NoError(t, fsys.CreateDirectory(staging))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "stale.html"), []byte("old"), 0o600))

	require.NoError(t, fsys.RemoveRecursive(staging))
	_, err := os.Stat(staging)
	require.True(t, os.IsNotExist(err))

	// Removing an absent path succeeds.
	require.NoError(t, fsys.RemoveRecursive(staging))
}

func TestOSCopyRecursivePreservesTree(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks and unix modes")
	}
	fsys := NewOS(nil)
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "staging")
	require.NoError(t, os.MkdirAll(dst, 0o750))

	require.NoError(t, os.MkdirAll(filepath.Join(src, "_next", "static", "chunks"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".nojekyll"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "_next", "static", "chunks", "main.js"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "deploy.sh"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.Symlink("index.html", filepath.Join(src, "home.html")))

	require.NoError(t, fsys.CopyRecursive(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "index.html"))
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(data))

	_, err = os.Stat(filepath.Join(dst, ".nojekyll"))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dst, "_next", "static", "chunks", "main.js"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	info, err = os.Stat(filepath.Join(dst, "deploy.sh"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	link, err := os.Readlink(filepath.Join(dst, "home.html"))
	require.NoError(t, err)
	require.Equal(t, "index.html", link)
}

func TestOSCopyRecursiveMissingSource(t *testing.T) {
	fsys := NewOS(nil)
	missing := filepath.Join(t.TempDir(), "nope")
	err := fsys.CopyRecursive(missing, t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
	path, ok := ferrors.ContextString(err, "path")
	require.True(t, ok)
	require.Equal(t, missing, path)
}

func TestOSCopyRecursiveFollowsRootSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	fsys := NewOS(nil)
	base := t.TempDir()
	build := testutils.WriteExport(t, filepath.Join(base, "build"))
	out := filepath.Join(base, "out")
	require.NoError(t, os.Symlink(build, out))
	dst := filepath.Join(base, "out_temp")
	require.NoError(t, fsys.CreateDirectory(dst))

	require.NoError(t, fsys.CopyRecursive(out, dst))

	info, err := os.Lstat(filepath.Join(dst, "index.html"))
	require.NoError(t, err)
	require.True(t, info.Mode().IsRegular())
	testutils.NewFileAssertions(t, build).AssertSameTree(dst)
}

func TestOSCreateDirectoryClassifiesFailure(t *testing.T) {
	fsys := NewOS(nil)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	err := fsys.CreateDirectory(filepath.Join(file, "sub"))
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestOSRunExternalCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	fsys := NewOS(nil)
	dir := t.TempDir()

	require.NoError(t, fsys.RunExternalCommand(context.Background(), dir, []string{"sh", "-c", "touch published"}))
	_, err := os.Stat(filepath.Join(dir, "published"))
	require.NoError(t, err)

	err = fsys.RunExternalCommand(context.Background(), dir, []string{"sh", "-c", "echo remote rejected >&2; exit 3"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "remote rejected")
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 3, exitErr.ExitCode())
}

func TestOSRunExternalCommandErrors(t *testing.T) {
	fsys := NewOS(nil)
	require.ErrorIs(t, fsys.RunExternalCommand(context.Background(), "", nil), ErrEmptyCommand)

	err := fsys.RunExternalCommand(context.Background(), "", []string{"siteship-definitely-not-installed"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestOSCopyRecursiveExport(t *testing.T) {
	fsys := NewOS(nil)
	src := testutils.WriteExport(t, t.TempDir())
	dst := filepath.Join(t.TempDir(), "out_temp")
	require.NoError(t, fsys.CreateDirectory(dst))

	require.NoError(t, fsys.CopyRecursive(src, dst))
	testutils.NewFileAssertions(t, src).AssertSameTree(dst)
	testutils.NewFileAssertions(t, dst).
		AssertFileExists(".nojekyll").
		AssertDirExists("_next/static/chunks").
		AssertFileContains("index.html", "home")
}
