package commands

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/testutil/testutils"
)

type testEnv struct {
	dir    string
	output string
	cli    *CLI
	out    *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		dir:    dir,
		output: filepath.Join(dir, "out"),
		cli:    &CLI{Config: filepath.Join(dir, "siteship.yaml")},
		out:    &bytes.Buffer{},
	}
}

func (e *testEnv) global() *Global {
	return &Global{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Out: e.out}
}

// writeSite creates a complete static export.
func (e *testEnv) writeSite(t *testing.T) {
	t.Helper()
	testutils.WriteExport(t, e.output)
}

func (e *testEnv) writeConfig(t *testing.T, extra string) {
	t.Helper()
	content := fmt.Sprintf(`output_dir: %q
staging_dir: %q
manifest:
  files: [index.html]
  directories: [_next]
%s`, e.output, filepath.Join(e.dir, "staging"), extra)
	require.NoError(t, os.WriteFile(e.cli.Config, []byte(content), 0o600))
}

func exitCode(err error) int {
	return errors.NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithOutput(io.Discard).
		Report(err)
}

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestParseFlags(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("siteship"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"-c", "custom.yaml", "publish", "--strict"})
	require.NoError(t, err)
	require.Equal(t, "publish", ctx.Command())
	require.Equal(t, "custom.yaml", cli.Config)
	require.True(t, cli.Publish.Strict)

	ctx, err = parser.Parse([]string{"history", "abc-123", "-n", "5"})
	require.NoError(t, err)
	require.Equal(t, "history <id>", ctx.Command())
	require.Equal(t, "abc-123", cli.History.ID)
	require.Equal(t, 5, cli.History.Limit)
}

func TestInitWritesConfigOnce(t *testing.T) {
	env := newTestEnv(t)
	cmd := &InitCmd{}

	require.NoError(t, cmd.Run(env.global(), env.cli))
	require.FileExists(t, env.cli.Config)
	require.Contains(t, env.out.String(), "Configuration written to")

	err := cmd.Run(env.global(), env.cli)
	require.Error(t, err)
	require.Equal(t, 7, exitCode(err))

	require.NoError(t, (&InitCmd{Force: true}).Run(env.global(), env.cli))
}

func TestCheckPasses(t *testing.T) {
	env := newTestEnv(t)
	env.writeSite(t)
	env.writeConfig(t, "")

	require.NoError(t, (&CheckCmd{}).Run(env.global(), env.cli))
	require.Contains(t, env.out.String(), "All 3 checks passed")
	require.NoDirExists(t, filepath.Join(env.dir, "staging"))
}

func TestCheckFailsWithValidationExitCode(t *testing.T) {
	env := newTestEnv(t)
	env.writeSite(t)
	require.NoError(t, os.Remove(filepath.Join(env.output, "index.html")))
	env.writeConfig(t, "")

	err := (&CheckCmd{}).Run(env.global(), env.cli)
	require.Error(t, err)
	require.Equal(t, 2, exitCode(err))
	require.Contains(t, env.out.String(), "file index.html (missing_file)")
}

func TestPublishSkippedWhenChecksFail(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.output, 0o750))
	env.writeConfig(t, "publish:\n  command: [\"false\"]\n")

	err := (&PublishCmd{}).Run(env.global(), env.cli)
	require.NoError(t, err)
	require.Contains(t, env.out.String(), "Checks failed, publish skipped")
	require.NoDirExists(t, filepath.Join(env.dir, "staging"))

	err = (&PublishCmd{Strict: true}).Run(env.global(), env.cli)
	require.Error(t, err)
	require.Equal(t, 2, exitCode(err))
}

func TestPublishCopiesStagingAndRunsTool(t *testing.T) {
	requireBinary(t, "cp")
	env := newTestEnv(t)
	env.writeSite(t)
	dest := filepath.Join(env.dir, "published")
	history := filepath.Join(env.dir, "history.db")
	textfile := filepath.Join(env.dir, "siteship.prom")
	env.writeConfig(t, fmt.Sprintf(`site_url: https://example.com
publish:
  command: [cp, -R, "{staging}", %q]
history:
  path: %q
metrics:
  textfile: %q
report:
  path: %q
`, dest, history, textfile, filepath.Join(env.dir, "reports", "last.md")))

	require.NoError(t, (&PublishCmd{}).Run(env.global(), env.cli))
	testutils.NewFileAssertions(t, env.output).AssertSameTree(dest)
	testutils.NewFileAssertions(t, env.dir).
		AssertDirExists("staging").
		AssertFileContains(filepath.Join("reports", "last.md"), "published")
	require.Contains(t, env.out.String(), "Published 1 artifacts")
	require.Contains(t, env.out.String(), "Site: https://example.com")

	prom, err := os.ReadFile(textfile)
	require.NoError(t, err)
	require.Contains(t, string(prom), `siteship_runs_total{outcome="published"} 1`)

	env.out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 10}).Run(env.global(), env.cli))
	require.Contains(t, env.out.String(), "published")
	require.Contains(t, env.out.String(), "3/3")
}

func TestPublishToolFailureExitCode(t *testing.T) {
	requireBinary(t, "false")
	env := newTestEnv(t)
	env.writeSite(t)
	env.writeConfig(t, "publish:\n  command: [\"false\"]\n")

	err := (&PublishCmd{}).Run(env.global(), env.cli)
	require.Error(t, err)
	require.Equal(t, 11, exitCode(err))
	require.Contains(t, env.out.String(), `Publish failed at step "invoke"`)
}

func TestHistoryRequiresPath(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, "")

	err := (&HistoryCmd{Limit: 5}).Run(env.global(), env.cli)
	require.Error(t, err)
	require.Equal(t, 7, exitCode(err))
}

func TestHistoryShowUnknownRun(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, fmt.Sprintf("history:\n  path: %q\n", filepath.Join(env.dir, "history.db")))

	err := (&HistoryCmd{ID: "does-not-exist"}).Run(env.global(), env.cli)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	env.out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 5}).Run(env.global(), env.cli))
	require.Contains(t, env.out.String(), "No runs recorded yet")
}

func TestDaemonRequiresTrigger(t *testing.T) {
	env := newTestEnv(t)
	env.writeSite(t)
	env.writeConfig(t, "")

	err := (&DaemonCmd{}).Run(env.global(), env.cli)
	require.Error(t, err)
	require.Equal(t, 12, exitCode(err))
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, (&VersionCmd{}).Run(env.global(), env.cli))
	require.Contains(t, env.out.String(), "siteship")
}
