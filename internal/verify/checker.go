package verify

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"git.home.luguber.info/inful/siteship/internal/logfields"
)

// Checker runs existence checks against an output root.
type Checker struct {
	root   string
	fsys   fs.FS
	logger *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithFS overrides the filesystem the checks read from.
func WithFS(fsys fs.FS) Option {
	return func(c *Checker) { c.fsys = fsys }
}

// WithLogger sets the logger receiving one line per check.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker returns a Checker reading root from disk unless WithFS is given.
// root is only used for reporting when a custom FS is supplied.
func NewChecker(root string, opts ...Option) *Checker {
	c := &Checker{root: root, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.fsys == nil {
		c.fsys = os.DirFS(root)
	}
	return c
}

// Root returns the output root the checker reports paths against.
func (c *Checker) Root() string { return c.root }

func (c *Checker) display(name string) string {
	return path.Join(c.root, name)
}

// exists reports whether name is present. Lookup errors other than
// "not exist" count as absent so the run still fails closed.
func (c *Checker) exists(name string) (fs.FileInfo, bool) {
	info, err := fs.Stat(c.fsys, name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("Stat failed", logfields.Path(c.display(name)), logfields.Error(err))
		}
		return nil, false
	}
	return info, true
}

func (c *Checker) check(kind Kind, name string, missing Failure, label string) CheckResult {
	p := c.display(name)
	res := CheckResult{Kind: kind, Name: name, Path: p}
	if _, ok := c.exists(name); ok {
		res.Passed = true
		c.logger.Info(label+" exists", logfields.Kind(string(kind)), logfields.Name(name), logfields.Path(p))
		return res
	}
	res.Failure = missing
	c.logger.Error(label+" is missing", logfields.Kind(string(kind)), logfields.Name(name), logfields.Path(p),
		logfields.Failure(string(missing)))
	return res
}

// CheckManifest checks every file then every directory in manifest order.
// An empty manifest passes.
func (c *Checker) CheckManifest(m Manifest) Summary {
	summary := Summary{Passed: true}
	for _, name := range m.Files {
		r := c.check(KindFile, name, FailureMissingFile, "Root file")
		summary.Results = append(summary.Results, r)
		summary.Passed = summary.Passed && r.Passed
	}
	for _, name := range m.Directories {
		r := c.check(KindDirectory, name, FailureMissingDirectory, "Directory")
		summary.Results = append(summary.Results, r)
		summary.Passed = summary.Passed && r.Passed
	}
	return summary
}

// remediation is logged when the artifact directory is absent.
var remediation = []string{
	"1. Clean the output directory",
	"2. Rebuild the site",
	"3. Check the build output for errors",
	"4. Verify the build tool supports static exports",
}

// CheckArtifacts verifies the artifact directory and its parent exist and
// that at least one immediate child matches the suffix. On success one audit
// line is logged per artifact.
func (c *Checker) CheckArtifacts(p ArtifactPattern) ArtifactReport {
	dir := path.Clean(p.Dir)
	parent := path.Dir(dir)

	if parent != "." {
		if info, ok := c.exists(parent); !ok || !info.IsDir() {
			c.logger.Error("Static assets directory not found",
				logfields.Path(c.display(parent)),
				logfields.Failure(string(FailureMissingArtifactDirectory)))
			return missingArtifactDir(c.display(parent), parent)
		}
	}

	info, ok := c.exists(dir)
	if !ok || !info.IsDir() {
		c.logger.Error("Artifact directory not found",
			logfields.Path(c.display(dir)),
			logfields.Failure(string(FailureMissingArtifactDirectory)))
		c.logger.Error("This indicates an issue with the static export; try the following steps",
			slog.String("steps", strings.Join(remediation, "; ")))
		return missingArtifactDir(c.display(dir), dir)
	}

	entries, err := fs.ReadDir(c.fsys, dir)
	if err != nil {
		c.logger.Error("Artifact directory unreadable", logfields.Path(c.display(dir)), logfields.Error(err))
		return missingArtifactDir(c.display(dir), dir)
	}

	var artifacts []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), p.Suffix) {
			continue
		}
		artifacts = append(artifacts, e.Name())
	}

	if len(artifacts) == 0 {
		c.logger.Error("No artifacts found",
			logfields.Path(c.display(dir)),
			slog.String("suffix", p.Suffix),
			logfields.Failure(string(FailureNoArtifactsFound)))
		return ArtifactReport{
			Failure: FailureNoArtifactsFound,
			Results: []CheckResult{{
				Kind: KindArtifact, Name: dir, Path: c.display(dir), Failure: FailureNoArtifactsFound,
			}},
		}
	}

	report := ArtifactReport{Artifacts: artifacts}
	for _, name := range artifacts {
		report.Results = append(report.Results, c.check(KindArtifact, path.Join(dir, name), FailureNoArtifactsFound, "Artifact"))
	}
	c.logger.Debug("Artifact check complete", logfields.Path(c.display(dir)), logfields.Count(len(artifacts)))
	return report
}

func missingArtifactDir(display, name string) ArtifactReport {
	return ArtifactReport{
		Failure: FailureMissingArtifactDirectory,
		Results: []CheckResult{{
			Kind: KindArtifact, Name: name, Path: display, Failure: FailureMissingArtifactDirectory,
		}},
	}
}
