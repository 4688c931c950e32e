// Package concat joins rendered clips into one video with the ffmpeg
// concat demuxer. Streams are copied, not re-encoded, so every input must
// share codec parameters.
package concat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasnoah/manimator/internal/config"
	"github.com/lucasnoah/manimator/internal/runner"
)

// ErrConcat marks an aggregation failure.
var ErrConcat = errors.New("concatenation failed")

// Aggregator concatenates artifacts through a CommandRunner.
type Aggregator struct {
	cmd runner.CommandRunner
	cfg *config.Config
}

// NewAggregator creates an Aggregator.
func NewAggregator(cmd runner.CommandRunner, cfg *config.Config) *Aggregator {
	return &Aggregator{cmd: cmd, cfg: cfg}
}

// BuildManifest renders the concat demuxer list for paths, in order.
// Paths are made absolute and single quotes are escaped.
func BuildManifest(paths []string) (string, error) {
	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", p, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return b.String(), nil
}

// Concat writes paths, in order, into output. The manifest is a temporary
// file removed on every path. Failures wrap ErrConcat and carry the tail of
// the tool's output.
func (a *Aggregator) Concat(ctx context.Context, paths []string, output string) error {
	if len(paths) == 0 {
		return fmt.Errorf("%w: no inputs", ErrConcat)
	}
	manifest, err := BuildManifest(paths)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConcat, err)
	}

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create output dir: %v", ErrConcat, err)
		}
	}

	f, err := os.CreateTemp("", "manimator-concat-*.txt")
	if err != nil {
		return fmt.Errorf("%w: create manifest: %v", ErrConcat, err)
	}
	listPath := f.Name()
	defer os.Remove(listPath)
	if _, err := f.WriteString(manifest); err != nil {
		f.Close()
		return fmt.Errorf("%w: write manifest: %v", ErrConcat, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close manifest: %v", ErrConcat, err)
	}

	if t := a.cfg.ConcatTimeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	res, err := a.cmd.Run(ctx, "", a.cfg.Concat.Command,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		output,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConcat, err)
	}
	if res.TimedOut {
		return fmt.Errorf("%w: timed out after %s", ErrConcat, a.cfg.ConcatTimeout())
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%w: %s exited %d: %s", ErrConcat, a.cfg.Concat.Command, res.ExitCode,
			strings.TrimSpace(runner.Tail(res.Combined, 2000)))
	}
	return nil
}
