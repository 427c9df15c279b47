package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/edi997/internal/ack"
)

// FileResult is the outcome of validating one file in a batch. Exactly one of
// Result and Err is set. Content holds the raw bytes whenever the file was read.
type FileResult struct {
	Path    string
	Content []byte
	Result  *ack.ValidationResult
	Err     error
}

// OK reports whether the file parsed and validated as valid.
func (r FileResult) OK() bool {
	return r.Err == nil && r.Result != nil && r.Result.IsValid
}

// ValidateBatch validates paths concurrently with at most batch.workers files in
// flight. Results are returned in input order. A failing file does not stop the
// others; only cancellation of ctx aborts the batch.
func (p *Pipeline) ValidateBatch(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))

	workers := p.cfg.Batch.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.validatePath(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	p.logger.WithFields(logrus.Fields{
		"files":   len(paths),
		"failed":  failed,
		"workers": workers,
	}).Info("batch_complete")
	return results, nil
}

func (p *Pipeline) validatePath(path string) FileResult {
	data, err := p.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	res, err := p.ValidateBytes(data)
	return FileResult{Path: path, Content: data, Result: res, Err: err}
}
