// Package report renders deployment run reports as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/siteship/internal/deploy"
)

// Markdown renders r as a Markdown document.
func Markdown(r *deploy.Report) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Deployment run %s\n\n", r.RunID)
	fmt.Fprintf(&b, "- **Outcome:** %s\n", r.Outcome)
	fmt.Fprintf(&b, "- **Trigger:** %s\n", r.Trigger)
	fmt.Fprintf(&b, "- **Started:** %s\n", r.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Duration:** %s\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "- **Output:** `%s`\n", r.OutputDir)
	if r.Tool != "" {
		fmt.Fprintf(&b, "- **Publish tool:** %s\n", r.Tool)
	}
	if r.SiteURL != "" && r.Outcome == deploy.OutcomePublished {
		fmt.Fprintf(&b, "- **Site:** <%s>\n", r.SiteURL)
	}
	if r.FailedStep != "" {
		fmt.Fprintf(&b, "- **Failed step:** %s\n", r.FailedStep)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", escapeCell(r.Error))
	}

	fmt.Fprintf(&b, "\n## Checks (%d passed, %d failed)\n\n", r.ChecksPassed(), r.ChecksFailed())
	if len(r.Checks) == 0 {
		b.WriteString("No checks were run.\n")
	} else {
		b.WriteString("| Result | Kind | Name | Failure |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for _, c := range r.Checks {
			result := "pass"
			if !c.Passed {
				result = "FAIL"
			}
			fmt.Fprintf(&b, "| %s | %s | `%s` | %s |\n", result, c.Kind, escapeCell(c.Name), c.Failure)
		}
	}

	fmt.Fprintf(&b, "\n## Artifacts (%d)\n\n", len(r.Artifacts))
	if len(r.Artifacts) == 0 {
		fmt.Fprintf(&b, "None found (%s).\n", orDash(string(r.ArtifactFailure)))
	}
	for _, a := range r.Artifacts {
		fmt.Fprintf(&b, "- `%s`\n", a)
	}
	return b.Bytes()
}

// HTML renders r as a standalone HTML page.
func HTML(r *deploy.Report) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert(Markdown(r), &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&page, "<title>siteship run %s</title></head>\n<body>\n", r.RunID)
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}

// FileWriter writes every report to a fixed path, choosing HTML when the
// path ends in .html or .htm and Markdown otherwise.
type FileWriter struct {
	Path string
}

func (w FileWriter) Write(r *deploy.Report) error {
	var data []byte
	switch strings.ToLower(filepath.Ext(w.Path)) {
	case ".html", ".htm":
		html, err := HTML(r)
		if err != nil {
			return err
		}
		data = html
	default:
		data = Markdown(r)
	}
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(w.Path, data, 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

var _ deploy.ReportWriter = FileWriter{}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
