// Package render runs the manim CLI on synthesized scene code and locates
// the produced video.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lucasnoah/manimator/internal/config"
	"github.com/lucasnoah/manimator/internal/runner"
)

var (
	fileReadyRe = regexp.MustCompile(`File ready at\s*'([^']+)'`)
	wrapRe      = regexp.MustCompile(`[ \t]*\r?\n[ \t]*`)
)

// Request is one render attempt.
type Request struct {
	UnitSlug string
	Code     string // construct body
	Token    string // run-unique, keeps concurrent runs from sharing temp files
}

// Outcome describes a finished render attempt.
type Outcome struct {
	Succeeded   bool
	Resolved    bool   // Path points at an existing file
	Path        string // artifact path when Resolved
	Diagnostics string // combined engine output
	ExitCode    int
	TimedOut    bool
	Duration    time.Duration
}

// Renderer drives the render engine through a CommandRunner.
type Renderer struct {
	cmd runner.CommandRunner
	cfg *config.Config
}

// NewRenderer creates a Renderer.
func NewRenderer(cmd runner.CommandRunner, cfg *config.Config) *Renderer {
	return &Renderer{cmd: cmd, cfg: cfg}
}

// Render writes the assembled scene to a temporary file, runs the engine on
// it and resolves the artifact path. The temporary file is removed on every
// path. A non-nil error means the attempt could not be made at all (temp
// file or engine start failure); engine failures are reported in Outcome.
func (r *Renderer) Render(ctx context.Context, req Request) (Outcome, error) {
	workDir := r.cfg.Render.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("create work dir: %w", err)
	}
	mediaDir, err := filepath.Abs(r.cfg.Render.MediaDir)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve media dir: %w", err)
	}

	module := moduleName(req.UnitSlug, req.Token)
	scenePath := filepath.Join(workDir, module+".py")
	source := Assemble(req.Code, r.cfg.Render.SceneClass)
	if err := os.WriteFile(scenePath, []byte(source), 0o644); err != nil {
		return Outcome{}, fmt.Errorf("write scene file: %w", err)
	}
	defer os.Remove(scenePath)

	if t := r.cfg.RenderTimeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	outputName := req.UnitSlug + ".mp4"
	res, err := r.cmd.Run(ctx, workDir, r.cfg.Render.Command,
		"-q"+r.cfg.Render.Quality,
		"--media_dir", mediaDir,
		"-o", outputName,
		scenePath,
		r.cfg.Render.SceneClass,
	)
	out := Outcome{
		Diagnostics: res.Combined,
		ExitCode:    res.ExitCode,
		TimedOut:    res.TimedOut,
		Duration:    res.Duration,
	}
	if err != nil {
		return out, fmt.Errorf("run %s: %w", r.cfg.Render.Command, err)
	}
	if res.TimedOut {
		out.Diagnostics += fmt.Sprintf("\nrender timed out after %s", r.cfg.RenderTimeout())
		return out, nil
	}
	if res.ExitCode != 0 {
		return out, nil
	}

	out.Succeeded = true
	fallback := filepath.Join(mediaDir, "videos", module, r.cfg.QualityDir(), outputName)
	out.Path, out.Resolved = resolveArtifact(res.Stdout, res.Stderr, fallback)
	return out, nil
}

// resolveArtifact finds the rendered file: the path the engine reported,
// then the engine's conventional output location.
func resolveArtifact(stdout, stderr, fallback string) (string, bool) {
	for _, stream := range []string{stdout, stderr} {
		if p := parseFileReady(stream); p != "" && exists(p) {
			return p, true
		}
	}
	if exists(fallback) {
		return fallback, true
	}
	return "", false
}

// parseFileReady extracts the path from the engine's "File ready at '...'"
// line. The engine's console output may hard-wrap long paths, so line
// breaks and their indentation are removed before matching.
func parseFileReady(s string) string {
	m := fileReadyRe.FindStringSubmatch(wrapRe.ReplaceAllString(s, ""))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func moduleName(slug, token string) string {
	if len(token) > 8 {
		token = token[:8]
	}
	if token == "" {
		return "scene_" + slug
	}
	return "scene_" + slug + "_" + token
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
