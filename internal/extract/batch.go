// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdfmeta/pkg/types"
)

// Result is the outcome of one extraction in a batch.
type Result struct {
	File  File
	Table types.FieldTable
	Err   error
}

// ExtractAll extracts every file with at most limit extractions in flight
// and returns the results in input order. A failed file does not stop the
// others; cancelling ctx does. limit <= 0 means runtime.NumCPU().
func (e *Extractor) ExtractAll(ctx context.Context, files []File, limit int) []Result {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	results := make([]Result, len(files))
	for i, f := range files {
		g.Go(func() error {
			table, err := e.Extract(ctx, f)
			results[i] = Result{File: f, Table: table, Err: err}
			return nil
		})
	}
	g.Wait()
	return results
}
