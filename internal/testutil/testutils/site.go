// Package testutils holds helpers shared by package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
)

// ExportFiles is a minimal static export with one script bundle.
var ExportFiles = map[string]string{
	"index.html":                       "<html><body>home</body></html>",
	"404.html":                         "<html><body>not found</body></html>",
	".nojekyll":                        "",
	"_next/static/chunks/main-1a2b.js": "console.log('main')",
	"_next/static/chunks/pages/app.js": "console.log('app')",
	"_next/static/css/styles-9f8e.css": "body{}",
	"images/logo.png":                  "\x89PNG",
}

// WriteSite writes files (slash-separated relative paths) under root.
func WriteSite(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
}

// WriteExport writes ExportFiles under root and returns root.
func WriteExport(t *testing.T, root string) string {
	t.Helper()
	WriteSite(t, root, ExportFiles)
	return root
}
