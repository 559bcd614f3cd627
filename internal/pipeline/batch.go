package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one file of a batch.
type BatchItem struct {
	Path   string  `json:"path"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// RunBatch processes independent files with at most r.Workers in flight.
// A failing file never stops the others. Items come back in input order.
func (r *Runner) RunBatch(ctx context.Context, paths []string, opts Options) []BatchItem {
	items := make([]BatchItem, len(paths))
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		items[i].Path = path
		g.Go(func() error {
			res, err := r.Run(ctx, path, opts)
			items[i].Result = res
			items[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
		}
	}
	r.Log.Info("batch complete", "files", len(paths), "failed", failed, "workers", workers)
	return items
}
