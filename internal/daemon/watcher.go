package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/siteship/internal/logfields"
)

// OutputWatcher reports changes below the output root. The parent directory
// is watched too so a root that is deleted and rebuilt is picked up again.
type OutputWatcher struct {
	root     string
	watcher  *fsnotify.Watcher
	onChange func(path string)
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewOutputWatcher creates a watcher for root calling onChange per relevant event.
func NewOutputWatcher(root string, onChange func(path string), logger *slog.Logger) (*OutputWatcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &OutputWatcher{root: abs, watcher: w, onChange: onChange, logger: logger}, nil
}

// Start adds watches and processes events until ctx is done or Close is called.
func (ow *OutputWatcher) Start(ctx context.Context) error {
	parent := filepath.Dir(ow.root)
	if err := ow.watcher.Add(parent); err != nil {
		return fmt.Errorf("failed to watch %s: %w", parent, err)
	}
	ow.addTree(ow.root)

	ow.logger.Info("Watching output directory", logfields.Path(ow.root))
	go ow.loop(ctx)
	return nil
}

// addTree watches dir and every directory below it. Missing paths are skipped.
func (ow *OutputWatcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // the tree may vanish while a build rewrites it
		}
		if d.IsDir() {
			if err := ow.watcher.Add(path); err != nil {
				ow.logger.Debug("Failed to watch directory", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// relevant reports whether path is the output root or lies below it.
func (ow *OutputWatcher) relevant(path string) bool {
	return path == ow.root || strings.HasPrefix(path, ow.root+string(filepath.Separator))
}

func (ow *OutputWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ow.watcher.Events:
			if !ok {
				return
			}
			if !ow.relevant(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					ow.addTree(event.Name)
				}
			}
			ow.logger.Debug("Output change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			ow.onChange(event.Name)
		case err, ok := <-ow.watcher.Errors:
			if !ok {
				return
			}
			ow.logger.Error("Output watcher error", logfields.Error(err))
		}
	}
}

// Close stops the watcher.
func (ow *OutputWatcher) Close() error {
	ow.mu.Lock()
	defer ow.mu.Unlock()
	if ow.closed {
		return nil
	}
	ow.closed = true
	return ow.watcher.Close()
}
