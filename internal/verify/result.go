package verify

// Kind identifies what a check looked for.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
	KindArtifact  Kind = "artifact"
)

// Failure classifies why a check did not pass.
type Failure string

const (
	FailureNone                     Failure = ""
	FailureMissingFile              Failure = "missing_file"
	FailureMissingDirectory         Failure = "missing_directory"
	FailureMissingArtifactDirectory Failure = "missing_artifact_directory"
	FailureNoArtifactsFound         Failure = "no_artifacts_found"
)

// CheckResult is the outcome of a single existence check.
type CheckResult struct {
	Kind    Kind    `json:"kind"`
	Name    string  `json:"name"`
	Path    string  `json:"path"`
	Passed  bool    `json:"passed"`
	Failure Failure `json:"failure,omitempty"`
}

// Summary aggregates the results of one check pass.
type Summary struct {
	Results []CheckResult
	Passed  bool
}

// Failed returns the results that did not pass, in check order.
func (s Summary) Failed() []CheckResult {
	var failed []CheckResult
	for _, r := range s.Results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Manifest lists required top-level files and directories of an output root.
type Manifest struct {
	Files       []string
	Directories []string
}

// ArtifactPattern locates generated bundles: immediate children of Dir whose
// names end in Suffix.
type ArtifactPattern struct {
	Dir    string
	Suffix string
}

// ArtifactReport is the outcome of the artifact check.
type ArtifactReport struct {
	// Failure is FailureNone when at least one artifact was found.
	Failure Failure
	// Artifacts holds matching file names in directory order.
	Artifacts []string
	// Results holds one audit entry per artifact, or a single failing entry.
	Results []CheckResult
}

// Passed reports whether the artifact gate is open.
func (r ArtifactReport) Passed() bool { return r.Failure == FailureNone }
