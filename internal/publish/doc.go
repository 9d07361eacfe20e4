// Package publish stages a verified static export and hands it to a publish tool.
//
// A publish run has four ordered steps: cleanup removes a stale staging
// directory, create makes a fresh one, copy duplicates the output root into it
// and invoke runs the configured Tool against the staging directory. The first
// failing step aborts the run with a classified publish error naming the step.
package publish
