// Package verify checks a static export before it is published.
//
// Two checks run against an output root: the manifest check confirms every
// configured file and directory exists, and the artifact check confirms the
// artifact directory holds at least one generated bundle. Missing entries are
// ordinary outcomes recorded in CheckResult values, never returned as errors.
package verify
