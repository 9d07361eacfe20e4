package fsops

import (
	"context"
	"path"
	"slices"
	"sync"
)

// Op names a recorded FS operation.
type Op string

const (
	OpExists Op = "exists"
	OpRemove Op = "remove"
	OpCreate Op = "create"
	OpCopy   Op = "copy"
	OpRun    Op = "run"
)

// Call is one recorded invocation on a Fake.
type Call struct {
	Op   Op
	Path string
	Dst  string
	Argv []string
}

// Fake is an in-memory FS. Paths are tracked as a set of existing entries;
// copying marks the destination as existing. Configure Failures to make an
// operation fail and OnCall to observe state at the moment of a call.
type Fake struct {
	mu       sync.Mutex
	calls    []Call
	paths    map[string]bool
	Failures map[Op]error
	OnCall   func(c Call)
}

// NewFake returns a Fake where the given paths already exist.
func NewFake(existing ...string) *Fake {
	f := &Fake{paths: map[string]bool{}, Failures: map[Op]error{}}
	for _, p := range existing {
		f.paths[path.Clean(p)] = true
	}
	return f
}

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	err := f.Failures[c.Op]
	hook := f.OnCall
	f.mu.Unlock()
	if hook != nil {
		hook(c)
	}
	return err
}

func (f *Fake) Exists(p string) (bool, error) {
	if err := f.record(Call{Op: OpExists, Path: p}); err != nil {
		return false, err
	}
	return f.Has(p), nil
}

func (f *Fake) RemoveRecursive(p string) error {
	if err := f.record(Call{Op: OpRemove, Path: p}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p = path.Clean(p)
	for existing := range f.paths {
		if existing == p || isBelow(existing, p) {
			delete(f.paths, existing)
		}
	}
	return nil
}

func (f *Fake) CreateDirectory(p string) error {
	if err := f.record(Call{Op: OpCreate, Path: p}); err != nil {
		return err
	}
	f.mu.Lock()
	f.paths[path.Clean(p)] = true
	f.mu.Unlock()
	return nil
}

func (f *Fake) CopyRecursive(src, dst string) error {
	if err := f.record(Call{Op: OpCopy, Path: src, Dst: dst}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	src, dst = path.Clean(src), path.Clean(dst)
	for existing := range f.paths {
		if isBelow(existing, src) {
			f.paths[path.Join(dst, existing[len(src)+1:])] = true
		}
	}
	f.paths[dst] = true
	return nil
}

func (f *Fake) RunExternalCommand(_ context.Context, dir string, argv []string) error {
	return f.record(Call{Op: OpRun, Path: dir, Argv: slices.Clone(argv)})
}

// Calls returns a copy of the recorded calls in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Ops returns the recorded operation names in order.
func (f *Fake) Ops() []Op {
	calls := f.Calls()
	ops := make([]Op, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// Has reports whether p currently exists in the fake.
func (f *Fake) Has(p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paths[path.Clean(p)]
}

func isBelow(p, dir string) bool {
	return len(p) > len(dir) && p[:len(dir)] == dir && p[len(dir)] == '/'
}

var _ FS = (*Fake)(nil)
