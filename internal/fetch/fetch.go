// Package fetch is the only boundary where this engine calls out to the
// world: given one execution edge, it consults the cache, asks the MetaKG
// catalog which operations apply, fans those operations out to whatever API
// transport the caller injects, resolves identifiers on the results, and
// writes the merged record set back through the cache (spec.md §4.4, §4.5).
// HTTP fan-out mechanics themselves are out of scope (spec.md Non-goals);
// APICaller is the seam a concrete TRAPI transport plugs into.
package fetch

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/biograph/trapi-engine/internal/cache"
	"github.com/biograph/trapi-engine/internal/execplan"
	"github.com/biograph/trapi-engine/internal/metakg"
	"github.com/biograph/trapi-engine/internal/recordstore"
	"github.com/biograph/trapi-engine/internal/resolver"
)

// APICaller invokes one MetaKG operation against its backing API and
// returns the raw records it answered with. A single operation's failure
// is isolated by Handler.Fetch — it never cancels sibling operations.
type APICaller interface {
	Call(ctx context.Context, op metakg.Operation, inputCuries []string) ([]*recordstore.Record, error)
}

// Config tunes one Handler's fan-out and identity behavior.
type Config struct {
	// Concurrency bounds how many operations run at once per Fetch call.
	Concurrency int
	// RateLimit and RateBurst configure a per-API rate.Limiter, keyed by
	// Operation.APIName so one slow API cannot starve another's budget.
	RateLimit float64
	RateBurst int
	// IdentityFields names the record fields ComputeHash fingerprints.
	IdentityFields []string
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 5
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	return c
}

// Handler orchestrates one execution edge's fetch: cache lookup, MetaKG
// operation listing, fan-out, identifier resolution, and cache write-back.
type Handler struct {
	cache    *cache.Handler
	catalog  metakg.Catalog
	resolver resolver.Resolver
	caller   APICaller
	cfg      Config
	logger   *logrus.Logger

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

// New builds a Handler. cacheHandler may be cache.Disabled() to skip
// memoization entirely.
func New(cacheHandler *cache.Handler, catalog metakg.Catalog, res resolver.Resolver, caller APICaller, cfg Config, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		cache:    cacheHandler,
		catalog:  catalog,
		resolver: res,
		caller:   caller,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch returns the record set for edge, consulting the cache first and
// populating it on a miss. It never returns an error for an individual
// API's failure — spec §5/§7e treat that as a zero-record outcome for that
// API, not for the whole edge — only for failures in the surrounding
// plumbing (cache I/O, MetaKG listing).
func (h *Handler) Fetch(ctx context.Context, edge *execplan.XEdge) ([]*recordstore.Record, error) {
	subj := edge.Graph.Subject(edge.QEdge)
	obj := edge.Graph.Object(edge.QEdge)
	inputCuries := inputCuriesFor(edge)

	ops, err := h.catalog.Operations(ctx, subj.Categories, edge.QEdge.Predicates, obj.Categories)
	if err != nil {
		return nil, fmt.Errorf("list metakg operations for edge %s: %w", edge.QEdge.ID, err)
	}

	key := cache.Key(cache.KeyInput{
		SubjectCategories: subj.Categories,
		Predicates:        edge.QEdge.Predicates,
		ObjectCategories:  obj.Categories,
		InputCuries:       inputCuries,
		OperationCount:    len(ops),
		OperationIDs:      metakg.IDs(ops),
	})

	if cached, hit, err := h.cache.Lookup(ctx, edge.QEdge.ID, key); err != nil {
		return nil, fmt.Errorf("cache lookup for edge %s: %w", edge.QEdge.ID, err)
	} else if hit {
		return cached, nil
	}

	records := h.callOperations(ctx, edge.QEdge.ID, ops, inputCuries)

	if err := h.resolveIdentifiers(ctx, records); err != nil {
		return nil, fmt.Errorf("resolve identifiers for edge %s: %w", edge.QEdge.ID, err)
	}
	for _, r := range records {
		r.ComputeHash(h.cfg.IdentityFields)
	}

	if err := h.cache.Store(ctx, key, records); err != nil {
		return nil, fmt.Errorf("cache store for edge %s: %w", edge.QEdge.ID, err)
	}

	for _, r := range records {
		r.TrapiQEdgeID = edge.QEdge.ID
	}
	return records, nil
}

// callOperations fans operations out concurrently, isolating each one's
// failure so it degrades to zero records instead of aborting the edge.
func (h *Handler) callOperations(ctx context.Context, qEdgeID string, ops []metakg.Operation, inputCuries []string) []*recordstore.Record {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Concurrency)

	var mu sync.Mutex
	var all []*recordstore.Record

	for _, op := range ops {
		op := op
		g.Go(func() error {
			limiter := h.limiterFor(op.APIName)
			if err := limiter.Wait(gctx); err != nil {
				return nil
			}
			recs, err := h.caller.Call(gctx, op, inputCuries)
			if err != nil {
				h.logger.WithFields(logrus.Fields{
					"qEdgeID": qEdgeID,
					"api":     op.APIName,
					"op":      op.ID,
				}).WithError(err).Warn("api call failed, treating as zero records")
				return nil
			}
			mu.Lock()
			all = append(all, recs...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait() // errors are swallowed per-operation above; Wait never returns non-nil here

	return all
}

func (h *Handler) limiterFor(api string) *rate.Limiter {
	h.limitersMu.Lock()
	defer h.limitersMu.Unlock()
	l, ok := h.limiters[api]
	if !ok {
		l = rate.NewLimiter(rate.Limit(h.cfg.RateLimit), h.cfg.RateBurst)
		h.limiters[api] = l
	}
	return l
}

func (h *Handler) resolveIdentifiers(ctx context.Context, records []*recordstore.Record) error {
	curies := make(map[string]struct{})
	for _, r := range records {
		curies[r.Subject.OriginalCurie] = struct{}{}
		curies[r.Object.OriginalCurie] = struct{}{}
	}
	if len(curies) == 0 {
		return nil
	}
	list := make([]string, 0, len(curies))
	for c := range curies {
		list = append(list, c)
	}

	resolved, err := h.resolver.Resolve(ctx, list)
	if err != nil {
		return err
	}
	for _, r := range records {
		if info, ok := resolved[r.Subject.OriginalCurie]; ok {
			infoCopy := info
			r.Subject.Normalized = &infoCopy
		}
		if info, ok := resolved[r.Object.OriginalCurie]; ok {
			infoCopy := info
			r.Object.Normalized = &infoCopy
		}
	}
	return nil
}

// inputCuriesFor returns the curies that should seed the fetch: the
// resolved set if the input node has already been bound by a prior edge,
// otherwise its client-supplied curies.
func inputCuriesFor(edge *execplan.XEdge) []string {
	node := edge.InputNode()
	if resolved := node.Resolved(); resolved != nil {
		return resolved
	}
	return node.Curies
}
