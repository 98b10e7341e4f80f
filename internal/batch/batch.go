// Package batch runs the redaction pipeline over many files with bounded
// concurrency, per-file error isolation, and host callbacks for progress
// reporting.
//
// One failing file never aborts the run: its result records the error, the
// error callback fires, and processing continues. Cancelling the context is
// the only way to stop early, and yields results for the files that were
// started.
package batch

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dotscramble/redact/internal/codec"
	"github.com/dotscramble/redact/internal/detect"
	"github.com/dotscramble/redact/internal/effects"
)

// Redactor is the per-image operation the batch engine drives.
type Redactor interface {
	Redact(ctx context.Context, img image.Image, mode detect.Mode,
		kind effects.Kind, params effects.Params) (*image.NRGBA, int, error)
}

// Settings configures one batch run.
type Settings struct {
	Mode   detect.Mode
	Effect effects.Kind
	Params effects.Params

	// Workers bounds concurrent files. Values below 1 mean sequential.
	Workers int
}

// JobResult records the outcome for a single input file.
type JobResult struct {
	InputPath        string
	OutputPath       string
	RegionsProcessed int
	Success          bool
	Err              error
}

// ProgressFunc is called after each successfully processed file with the
// file's 1-based position in the input list, the total count, and its
// result. Failed files skip the progress callback; see ErrorFunc.
type ProgressFunc func(position, total int, result JobResult)

// ErrorFunc is called once per file that failed.
type ErrorFunc func(path string, err error)

// Engine processes batches of image files.
type Engine struct {
	redactor Redactor
	cache    *codec.Cache
	log      *logrus.Entry
}

// NewEngine creates a batch engine around a redactor.
func NewEngine(redactor Redactor, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		redactor: redactor,
		cache:    codec.NewCache(),
		log:      log.WithField("component", "batch"),
	}
}

// ValidateInputFiles splits paths into processable files and human-readable
// problem descriptions for the rest. Valid files are decoded during
// validation and cached, so the subsequent Run does not decode them twice.
func (e *Engine) ValidateInputFiles(paths []string) (valid []string, problems []string) {
	for _, path := range paths {
		if !codec.CanRead(path) {
			problems = append(problems, path+": unsupported format")
			continue
		}
		if _, err := e.cache.Load(path); err != nil {
			problems = append(problems, path+": "+err.Error())
			continue
		}
		valid = append(valid, path)
	}
	return valid, problems
}

// Run processes every path, writing outputs into outputDir under derived
// "processed_" names. It returns one JobResult per started file, in input
// order. The returned error is non-nil only for setup failures or context
// cancellation; per-file failures live in the results.
//
// Cancellation takes effect between files: files already in flight finish
// normally and appear in the results as successes.
func (e *Engine) Run(ctx context.Context, paths []string, outputDir string,
	s Settings, onProgress ProgressFunc, onError ErrorFunc) ([]JobResult, error) {

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}
	e.logRunStart(len(paths), s)

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	results := make([]JobResult, len(paths))
	started := make([]bool, len(paths))

	var cbMu sync.Mutex
	total := len(paths)

	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		i, path := i, path
		started[i] = true
		g.Go(func() error {
			res := e.processOne(ctx, path, outputDir, s)
			results[i] = res

			cbMu.Lock()
			defer cbMu.Unlock()
			if res.Success {
				if onProgress != nil {
					onProgress(i+1, total, res)
				}
			} else if onError != nil {
				onError(path, res.Err)
			}
			return nil
		})
	}
	_ = g.Wait()

	// Cancellation can leave a tail of never-started files; report only
	// the ones that ran.
	if ctx.Err() != nil {
		partial := results[:0:0]
		for i, res := range results {
			if started[i] {
				partial = append(partial, res)
			}
		}
		return partial, ctx.Err()
	}
	return results, nil
}

func (e *Engine) processOne(ctx context.Context, path, outputDir string, s Settings) JobResult {
	// Cancellation is honored between files only. The file in flight runs
	// to completion so it is never recorded as failed, and its output is
	// never half-written.
	ctx = context.WithoutCancel(ctx)

	res := JobResult{InputPath: path}
	defer e.cache.Evict(path)

	img, err := e.cache.Load(path)
	if err != nil {
		res.Err = err
		return res
	}

	out, n, err := e.redactor.Redact(ctx, img, s.Mode, s.Effect, s.Params)
	if err != nil {
		res.Err = err
		return res
	}

	outPath := filepath.Join(outputDir, codec.OutputName(path))
	if err := codec.Encode(out, outPath); err != nil {
		res.Err = err
		return res
	}

	res.OutputPath = outPath
	res.RegionsProcessed = n
	res.Success = true
	e.log.WithFields(logrus.Fields{
		"input":   path,
		"output":  outPath,
		"regions": n,
	}).Debug("file processed")
	return res
}
