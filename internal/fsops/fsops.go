// Package fsops provides the filesystem and process capability used by the
// publisher. OS talks to the real machine; Fake records calls for tests.
package fsops

import (
	"context"
	"errors"
)

// FS is the set of side-effecting operations a publish run needs.
type FS interface {
	// Exists reports whether path exists. A missing path is not an error.
	Exists(path string) (bool, error)
	// RemoveRecursive deletes path and everything below it.
	RemoveRecursive(path string) error
	// CreateDirectory creates path and any missing parents.
	CreateDirectory(path string) error
	// CopyRecursive copies the tree rooted at src into dst, which must exist.
	CopyRecursive(src, dst string) error
	// RunExternalCommand runs argv with dir as working directory.
	RunExternalCommand(ctx context.Context, dir string, argv []string) error
}

// ErrEmptyCommand is returned when RunExternalCommand receives no program.
var ErrEmptyCommand = errors.New("empty command")
