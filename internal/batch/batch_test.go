package batch

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotscramble/redact/internal/detect"
	"github.com/dotscramble/redact/internal/effects"
	"github.com/dotscramble/redact/internal/pipeline"
	"github.com/dotscramble/redact/internal/region"
)

type stubDetector struct {
	boxes []region.Box
}

func (s *stubDetector) Detect(_ image.Image, _ detect.Mode) ([]region.Box, error) {
	return s.boxes, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestEngine(boxes []region.Box) *Engine {
	proc := pipeline.New(&stubDetector{boxes: boxes},
		effects.NewEngine(quietLogger()), nil, quietLogger())
	return NewEngine(proc, quietLogger())
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 40, 40))))
	return path
}

func writeCorrupt(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	return path
}

func defaultSettings() Settings {
	return Settings{
		Mode:   detect.FullFrame(),
		Effect: effects.BlackBar,
		Params: effects.DefaultParams(),
	}
}

func TestRun_IsolatesFailingFile(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	paths := []string{
		writePNG(t, inDir, "a.png"),
		writeCorrupt(t, inDir, "b.png"),
		writePNG(t, inDir, "c.png"),
	}

	var progress []int
	var failed []string
	e := newTestEngine([]region.Box{{Width: 40, Height: 40}})

	results, err := e.Run(context.Background(), paths, outDir, defaultSettings(),
		func(pos, total int, _ JobResult) {
			assert.Equal(t, 3, total)
			progress = append(progress, pos)
		},
		func(path string, err error) {
			require.Error(t, err)
			failed = append(failed, path)
		})

	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Error(t, results[1].Err)
	assert.True(t, results[2].Success)

	sort.Ints(progress)
	assert.Equal(t, []int{1, 3}, progress)
	assert.Equal(t, []string{paths[1]}, failed)

	// Successful outputs exist under derived names; the failed file left
	// nothing behind.
	assert.FileExists(t, filepath.Join(outDir, "processed_a.png"))
	assert.FileExists(t, filepath.Join(outDir, "processed_c.png"))
	assert.NoFileExists(t, filepath.Join(outDir, "processed_b.png"))
}

func TestRun_ZeroRegionsWritesUnchangedOutput(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	path := writePNG(t, inDir, "plain.png")

	e := newTestEngine(nil) // detector finds nothing
	results, err := e.Run(context.Background(), []string{path}, outDir,
		defaultSettings(), nil, nil)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Zero(t, results[0].RegionsProcessed)
	assert.FileExists(t, results[0].OutputPath)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	paths := []string{writePNG(t, inDir, "a.png"), writePNG(t, inDir, "b.png")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(nil)
	results, err := e.Run(ctx, paths, outDir, defaultSettings(), nil, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRun_CancellationLetsInFlightFileFinish(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	paths := []string{
		writePNG(t, inDir, "a.png"),
		writePNG(t, inDir, "b.png"),
		writePNG(t, inDir, "c.png"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCalls := 0
	e := newTestEngine([]region.Box{{Width: 40, Height: 40}})
	results, err := e.Run(ctx, paths, outDir, defaultSettings(),
		func(_, _ int, _ JobResult) {
			// Cancel while the run is under way; with one worker the
			// next file may already be scheduled but no further ones
			// start.
			cancel()
		},
		func(_ string, _ error) { errCalls++ })

	assert.ErrorIs(t, err, context.Canceled)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 2)

	// Every file that was started must have completed normally; a healthy
	// file is never failed just because the run was cancelled around it.
	for i, res := range results {
		assert.True(t, res.Success, "file %d", i)
		assert.NoError(t, res.Err, "file %d", i)
		assert.FileExists(t, res.OutputPath)
	}
	assert.Zero(t, errCalls)
	assert.NoFileExists(t, filepath.Join(outDir, "processed_c.png"))
}

func TestRun_ConcurrentWorkers(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	var paths []string
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		paths = append(paths, writePNG(t, inDir, name))
	}

	e := newTestEngine([]region.Box{{Width: 40, Height: 40}})
	s := defaultSettings()
	s.Workers = 4

	results, err := e.Run(context.Background(), paths, outDir, s, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, res := range results {
		assert.True(t, res.Success, "file %d", i)
		assert.Equal(t, paths[i], res.InputPath, "results keep input order")
	}
}

func TestValidateInputFiles(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "good.png")
	corrupt := writeCorrupt(t, dir, "corrupt.png")
	wrongExt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(wrongExt, []byte("text"), 0o644))

	e := newTestEngine(nil)
	valid, problems := e.ValidateInputFiles([]string{good, corrupt, wrongExt})

	assert.Equal(t, []string{good}, valid)
	require.Len(t, problems, 2)
	assert.Contains(t, problems[0], "corrupt.png")
	assert.Contains(t, problems[1], "unsupported format")
}
