package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasnoah/manimator/internal/config"
	"github.com/lucasnoah/manimator/internal/runner"
)

// fakeEngine records invocations and plays back a scripted result.
type fakeEngine struct {
	result   runner.Result
	err      error
	args     []string
	dir      string
	source   string // scene file content observed during the call
	onRun    func(args []string)
	sawScene bool
}

func (f *fakeEngine) Run(_ context.Context, dir, name string, args ...string) (runner.Result, error) {
	f.dir = dir
	f.args = append([]string{name}, args...)
	scene := args[len(args)-2]
	if data, err := os.ReadFile(scene); err == nil {
		f.sawScene = true
		f.source = string(data)
	}
	if f.onRun != nil {
		f.onRun(args)
	}
	return f.result, f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Render.MediaDir = filepath.Join(base, "media")
	cfg.Render.WorkDir = filepath.Join(base, "work")
	return cfg
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("mp4"), 0o644))
}

func sceneFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "scene_*.py"))
	require.NoError(t, err)
	return matches
}

func TestAssemble(t *testing.T) {
	got := Assemble("title = Text(\"Hi\")\n\nself.play(Write(title))\n", "GeneratedScene")
	want := "from manim import *\n\n" +
		"class GeneratedScene(Scene):\n" +
		"    def construct(self):\n" +
		"        title = Text(\"Hi\")\n" +
		"\n" +
		"        self.play(Write(title))\n"
	assert.Equal(t, want, got)
}

func TestAssemble_EmptyBody(t *testing.T) {
	got := Assemble("  \n", "S")
	assert.True(t, strings.HasSuffix(got, "        pass\n"), got)
}

func TestRender_ReportedPath(t *testing.T) {
	cfg := testConfig(t)
	artifact := filepath.Join(cfg.Render.MediaDir, "videos", "x", "480p15", "intro.mp4")
	touch(t, artifact)

	// The engine wraps long paths across lines.
	half := len(artifact) / 2
	stdout := "INFO     File ready at '" + artifact[:half] + "\n         " + artifact[half:] + "'\n"
	engine := &fakeEngine{result: runner.Result{Stdout: stdout, Combined: stdout}}

	out, err := NewRenderer(engine, cfg).Render(context.Background(), Request{
		UnitSlug: "intro",
		Code:     "self.wait(1)",
		Token:    "abcdef0123456789",
	})
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.True(t, out.Resolved)
	assert.Equal(t, artifact, out.Path)

	mediaAbs, _ := filepath.Abs(cfg.Render.MediaDir)
	assert.Equal(t, []string{
		"manim", "-ql", "--media_dir", mediaAbs, "-o", "intro.mp4",
		filepath.Join(cfg.Render.WorkDir, "scene_intro_abcdef01.py"), "GeneratedScene",
	}, engine.args)
	assert.True(t, engine.sawScene)
	assert.Contains(t, engine.source, "        self.wait(1)")
}

func TestRender_ConventionPathFallback(t *testing.T) {
	cfg := testConfig(t)
	mediaAbs, _ := filepath.Abs(cfg.Render.MediaDir)
	artifact := filepath.Join(mediaAbs, "videos", "scene_intro_tok", "480p15", "intro.mp4")
	engine := &fakeEngine{onRun: func([]string) { touch(t, artifact) }}

	out, err := NewRenderer(engine, cfg).Render(context.Background(), Request{UnitSlug: "intro", Code: "x = 1", Token: "tok"})
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.True(t, out.Resolved)
	assert.Equal(t, artifact, out.Path)
}

func TestRender_Unresolved(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{result: runner.Result{Stdout: "done"}}

	out, err := NewRenderer(engine, cfg).Render(context.Background(), Request{UnitSlug: "intro", Code: "x = 1", Token: "tok"})
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.False(t, out.Resolved)
	assert.Empty(t, out.Path)
}

func TestRender_FailureKeepsDiagnostics(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{result: runner.Result{
		ExitCode: 1,
		Combined: "Traceback...\nNameError: name 'Clear' is not defined",
	}}

	out, err := NewRenderer(engine, cfg).Render(context.Background(), Request{UnitSlug: "intro", Code: "Clear()", Token: "tok"})
	require.NoError(t, err)
	assert.False(t, out.Succeeded)
	assert.Equal(t, 1, out.ExitCode)
	assert.Contains(t, out.Diagnostics, "NameError")
	assert.Empty(t, sceneFiles(t, cfg.Render.WorkDir), "temp scene file left behind")
}

func TestRender_TimeoutIsFailure(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{result: runner.Result{ExitCode: -1, TimedOut: true}}

	out, err := NewRenderer(engine, cfg).Render(context.Background(), Request{UnitSlug: "intro", Code: "x = 1", Token: "tok"})
	require.NoError(t, err)
	assert.False(t, out.Succeeded)
	assert.Contains(t, out.Diagnostics, "timed out")
}

func TestRender_StartErrorRemovesTempFile(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{err: errors.New("executable file not found"), result: runner.Result{ExitCode: -1}}

	_, err := NewRenderer(engine, cfg).Render(context.Background(), Request{UnitSlug: "intro", Code: "x = 1", Token: "tok"})
	require.Error(t, err)
	assert.True(t, engine.sawScene)
	assert.Empty(t, sceneFiles(t, cfg.Render.WorkDir))
}

func TestRender_SuccessRemovesTempFile(t *testing.T) {
	cfg := testConfig(t)
	engine := &fakeEngine{}

	_, err := NewRenderer(engine, cfg).Render(context.Background(), Request{UnitSlug: "intro", Code: "x = 1", Token: "tok"})
	require.NoError(t, err)
	assert.Empty(t, sceneFiles(t, cfg.Render.WorkDir))
}

func TestParseFileReady(t *testing.T) {
	assert.Equal(t, "/a/b.mp4", parseFileReady("File ready at '/a/b.mp4'"))
	assert.Equal(t, "/a/b.mp4", parseFileReady("File ready at\n   '/a/b.mp4'"))
	assert.Empty(t, parseFileReady("nothing here"))
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "scene_intro_12345678", moduleName("intro", "1234567890"))
	assert.Equal(t, "scene_intro", moduleName("intro", ""))
}
