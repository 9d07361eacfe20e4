package testutils

import (
	"os/exec"
	"sort"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SetupBareRemote initializes a bare repository to push to.
// Tests are skipped when no git binary is available for the local transport.
func SetupBareRemote(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary required for local transport")
	}

	dir := t.TempDir()
	if _, err := git.PlainInit(dir, true); err != nil {
		t.Fatalf("failed to initialize bare repo: %v", err)
	}
	return dir
}

// BranchHead returns the tip commit of branch in the repository at dir.
func BranchHead(t *testing.T, dir, branch string) *object.Commit {
	t.Helper()

	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		t.Fatalf("failed to resolve %s: %v", branch, err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		t.Fatalf("failed to read commit: %v", err)
	}
	return commit
}

// CommitFiles lists the file paths in a commit's tree, sorted.
func CommitFiles(t *testing.T, commit *object.Commit) []string {
	t.Helper()

	tree, err := commit.Tree()
	if err != nil {
		t.Fatalf("failed to read tree: %v", err)
	}
	var names []string
	err = tree.Files().ForEach(func(f *object.File) error {
		names = append(names, f.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to list files: %v", err)
	}
	sort.Strings(names)
	return names
}
