package screener

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/fundscreen/fundscreen/internal/domain"
	"github.com/fundscreen/fundscreen/internal/infrastructure/providers"
	"github.com/fundscreen/fundscreen/internal/metrics"
)

// enrichOpenInterest fills OpenInterest and OIValueUSD on the final rows with
// at most adapter.EnrichmentConcurrency() lookups in flight. A failed lookup
// leaves that row's fields nil and never disturbs its neighbors.
func enrichOpenInterest(ctx context.Context, adapter providers.Adapter, rows []*domain.ScreenerRow, reg *metrics.Registry) {
	if len(rows) == 0 {
		return
	}

	workers := adapter.EnrichmentConcurrency()
	if workers < 1 {
		workers = 1
	}
	if workers > len(rows) {
		workers = len(rows)
	}

	var next int64
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				i := int(atomic.AddInt64(&next, 1)) - 1
				if i >= len(rows) {
					return nil
				}
				row := rows[i]
				oi := adapter.FetchOpenInterest(ctx, row.Symbol)
				if oi == nil {
					reg.RecordEnrichmentFailure(adapter.Name())
					continue
				}
				row.OpenInterest = oi
				if row.MarkPrice != nil {
					v := *oi * *row.MarkPrice
					row.OIValueUSD = &v
				}
			}
		})
	}
	// Workers only return nil; Wait is just the join point.
	_ = g.Wait()
}
