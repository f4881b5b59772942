package cron

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
)

const (
	defaultSweepBatchSize  = 100
	defaultSweepMaxRentals = 5000
)

type pageFetcher func(ctx context.Context, afterID uuid.UUID, limit int) ([]models.Rental, error)

// sweepResult reports how far a paged sweep got.
type sweepResult struct {
	Visited int
	Capped  bool
}

// sweepRentals walks fetch page by page in id order, calling visit for each row
// until the pages run out or max rows were visited. Visit errors are collected
// and the sweep keeps going; a fetch error stops it. The last page allowed by
// max asks for one extra row, which is not visited, to tell whether rows were
// left behind.
func sweepRentals(ctx context.Context, batch, max int, fetch pageFetcher, visit func(models.Rental) error) (sweepResult, error) {
	if batch <= 0 {
		batch = defaultSweepBatchSize
	}
	if max <= 0 {
		max = defaultSweepMaxRentals
	}

	var (
		res     sweepResult
		errs    error
		afterID = uuid.Nil
	)
	for {
		if err := ctx.Err(); err != nil {
			return res, multierr.Append(errs, err)
		}
		limit, last := batch, false
		if remaining := max - res.Visited; remaining <= limit {
			limit, last = remaining, true
		}
		want := limit
		if last {
			want++
		}
		rows, err := fetch(ctx, afterID, want)
		if err != nil {
			return res, multierr.Append(errs, err)
		}
		if len(rows) > limit {
			res.Capped = true
			rows = rows[:limit]
		}
		for _, row := range rows {
			errs = multierr.Append(errs, visit(row))
			afterID = row.ID
			res.Visited++
		}
		if last || len(rows) < limit {
			return res, errs
		}
	}
}
