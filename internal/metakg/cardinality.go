package metakg

import (
	"context"
	"log/slog"
)

// CardinalityProxy adapts a Catalog to edgemanager.OperationCounter: the
// edge manager's next() calls it synchronously from inside the cooperative
// query loop (spec §4.2), so it cannot surface a context or an error the
// way Catalog.Operations does. A lookup failure degrades to 0, which the
// edge manager treats as "no proxy available" rather than as a fatal error.
type CardinalityProxy struct {
	catalog Catalog
	ctx     context.Context
	logger  *slog.Logger
}

// NewCardinalityProxy binds catalog to the lifetime of a single query's ctx.
func NewCardinalityProxy(ctx context.Context, catalog Catalog) *CardinalityProxy {
	return &CardinalityProxy{
		catalog: catalog,
		ctx:     ctx,
		logger:  slog.Default().With("component", "metakg"),
	}
}

// CountOperations implements edgemanager.OperationCounter.
func (p *CardinalityProxy) CountOperations(subjectCategories, predicates, objectCategories []string) int {
	ops, err := p.catalog.Operations(p.ctx, subjectCategories, predicates, objectCategories)
	if err != nil {
		p.logger.Warn("metakg operation count unavailable", "error", err)
		return 0
	}
	return len(ops)
}
