package fsops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	ferrors "git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/logfields"
)

// OS implements FS against the local filesystem.
type OS struct {
	logger *slog.Logger
}

// NewOS returns an OS capability logging through logger (slog.Default when nil).
func NewOS(logger *slog.Logger) *OS {
	if logger == nil {
		logger = slog.Default()
	}
	return &OS{logger: logger}
}

func (o *OS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (o *OS) RemoveRecursive(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fsError(err, "failed to remove directory", path)
	}
	return nil
}

func (o *OS) CreateDirectory(path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fsError(err, "failed to create directory", path)
	}
	return nil
}

// CopyRecursive copies regular files, directories and symlinks, preserving modes.
// Dot-files are copied like any other entry. A symlinked src root is followed;
// symlinks below it are recreated as links.
func (o *OS) CopyRecursive(src, dst string) error {
	root, err := filepath.EvalSymlinks(src)
	if err != nil {
		return fsError(err, "failed to resolve copy source", src)
	}

	var files int
	var bytesCopied uint64

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.IsDir():
			if rel == "." {
				return os.Chmod(dst, info.Mode().Perm())
			}
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode().IsRegular():
			n, err := copyFile(path, target, info.Mode().Perm())
			if err != nil {
				return err
			}
			files++
			bytesCopied += uint64(n) // #nosec G115 -- io.Copy never returns a negative count
			return nil
		default:
			o.logger.Warn("Skipping special file", logfields.Path(path), slog.String("mode", info.Mode().String()))
			return nil
		}
	})
	if err != nil {
		return ferrors.FileSystemError("failed to copy tree").
			WithCause(err).
			WithContext("src", src).
			WithContext("dst", dst).
			Build()
	}

	o.logger.Debug("Copied tree",
		slog.String("src", src),
		slog.String("dst", dst),
		logfields.Count(files),
		slog.String("size", humanize.Bytes(bytesCopied)))
	return nil
}

func fsError(err error, message, path string) error {
	return ferrors.FileSystemError(message).WithCause(err).WithContext("path", path).Build()
}

// copyFile copies a single file from src to dst with the given permissions.
func copyFile(src, dst string, perm fs.FileMode) (int64, error) {
	srcFile, err := os.Open(src) // #nosec G304 -- walking a configured tree
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm) // #nosec G304
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dstFile, srcFile)
	if err != nil {
		_ = dstFile.Close()
		return n, err
	}
	if err := dstFile.Close(); err != nil {
		return n, err
	}
	// OpenFile honours umask; restore the exact source mode.
	return n, os.Chmod(dst, perm)
}

// RunExternalCommand executes argv without a shell. Output is captured and
// logged; on failure it is folded into the returned error.
func (o *OS) RunExternalCommand(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 || argv[0] == "" {
		return ErrEmptyCommand
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return fmt.Errorf("%s not found: %w", argv[0], err)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) // #nosec G204 -- argv comes from operator config
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	o.logger.Debug("Invoking external command", logfields.Tool(argv[0]), slog.String("args", strings.Join(argv[1:], " ")))

	err := cmd.Run()

	outStr := strings.TrimSpace(stdout.String())
	errStr := strings.TrimSpace(stderr.String())
	if outStr != "" {
		o.logger.Info("command stdout", logfields.Tool(argv[0]), slog.String("output", outStr))
	}
	if errStr != "" {
		o.logger.Warn("command stderr", logfields.Tool(argv[0]), slog.String("error_output", errStr))
	}

	if err != nil {
		output := errStr
		if output == "" {
			output = outStr
		}
		if output != "" {
			return fmt.Errorf("%s: %w: %s", argv[0], err, output)
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}

var _ FS = (*OS)(nil)
