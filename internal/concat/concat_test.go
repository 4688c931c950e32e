package concat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasnoah/manimator/internal/config"
	"github.com/lucasnoah/manimator/internal/runner"
)

type fakeFFmpeg struct {
	result   runner.Result
	err      error
	args     []string
	manifest string
	listPath string
}

func (f *fakeFFmpeg) Run(_ context.Context, _ string, name string, args ...string) (runner.Result, error) {
	f.args = append([]string{name}, args...)
	for i, a := range args {
		if a == "-i" && i+1 < len(args) {
			f.listPath = args[i+1]
			data, _ := os.ReadFile(f.listPath)
			f.manifest = string(data)
		}
	}
	return f.result, f.err
}

func TestBuildManifest(t *testing.T) {
	got, err := BuildManifest([]string{"/v/intro.mp4", "/v/it's here.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "file '/v/intro.mp4'\nfile '/v/it'\\''s here.mp4'\n", got)
}

func TestBuildManifest_RelativeMadeAbsolute(t *testing.T) {
	got, err := BuildManifest([]string{"clip.mp4"})
	require.NoError(t, err)
	wd, _ := os.Getwd()
	assert.Equal(t, "file '"+filepath.Join(wd, "clip.mp4")+"'\n", got)
}

func TestConcat_OrderAndArgs(t *testing.T) {
	ff := &fakeFFmpeg{}
	out := filepath.Join(t.TempDir(), "final", "final_output.mp4")
	agg := NewAggregator(ff, config.Default())

	err := agg.Concat(context.Background(), []string{"/v/a.mp4", "/v/b.mp4", "/v/c.mp4"}, out)
	require.NoError(t, err)

	assert.Equal(t, "file '/v/a.mp4'\nfile '/v/b.mp4'\nfile '/v/c.mp4'\n", ff.manifest)
	assert.Equal(t, []string{"ffmpeg", "-y", "-f", "concat", "-safe", "0", "-i", ff.listPath, "-c", "copy", out}, ff.args)

	_, statErr := os.Stat(ff.listPath)
	assert.True(t, os.IsNotExist(statErr), "manifest not removed")
	assert.DirExists(t, filepath.Dir(out))
}

func TestConcat_ToolFailure(t *testing.T) {
	ff := &fakeFFmpeg{result: runner.Result{ExitCode: 1, Combined: "Invalid data found when processing input"}}
	agg := NewAggregator(ff, config.Default())

	err := agg.Concat(context.Background(), []string{"/v/a.mp4"}, filepath.Join(t.TempDir(), "out.mp4"))
	require.ErrorIs(t, err, ErrConcat)
	assert.Contains(t, err.Error(), "Invalid data")

	_, statErr := os.Stat(ff.listPath)
	assert.True(t, os.IsNotExist(statErr), "manifest not removed after failure")
}

func TestConcat_StartFailure(t *testing.T) {
	ff := &fakeFFmpeg{err: errors.New("ffmpeg: not found")}
	agg := NewAggregator(ff, config.Default())

	err := agg.Concat(context.Background(), []string{"/v/a.mp4"}, filepath.Join(t.TempDir(), "out.mp4"))
	assert.ErrorIs(t, err, ErrConcat)
}

func TestConcat_NoInputs(t *testing.T) {
	agg := NewAggregator(&fakeFFmpeg{}, config.Default())
	err := agg.Concat(context.Background(), nil, "out.mp4")
	assert.ErrorIs(t, err, ErrConcat)
}
