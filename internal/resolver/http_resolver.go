package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/biograph/trapi-engine/internal/biolink"
)

// HTTPResolver batches curies and resolves each batch against a live
// identifier-resolution service, running batches concurrently with
// sourcegraph/conc rather than the errgroup style internal/fetch uses — a
// deliberate idiom split, matching how the teacher reaches for different
// concurrency helpers in different packages.
type HTTPResolver struct {
	baseURL              string
	httpClient           *http.Client
	batchSize            int
	maxConcurrentBatches int
	logger               *slog.Logger
}

// HTTPResolverOption configures an HTTPResolver.
type HTTPResolverOption func(*HTTPResolver)

// WithBatchSize overrides the default curie batch size of 500.
func WithBatchSize(n int) HTTPResolverOption {
	return func(r *HTTPResolver) { r.batchSize = n }
}

// WithMaxConcurrentBatches overrides the default concurrency of 4 batches.
func WithMaxConcurrentBatches(n int) HTTPResolverOption {
	return func(r *HTTPResolver) { r.maxConcurrentBatches = n }
}

// WithHTTPClient overrides the default 10s-timeout client.
func WithHTTPClient(c *http.Client) HTTPResolverOption {
	return func(r *HTTPResolver) { r.httpClient = c }
}

// NewHTTPResolver returns a resolver posting batches to baseURL.
func NewHTTPResolver(baseURL string, opts ...HTTPResolverOption) *HTTPResolver {
	r := &HTTPResolver{
		baseURL:              baseURL,
		httpClient:           &http.Client{Timeout: 10 * time.Second},
		batchSize:            500,
		maxConcurrentBatches: 4,
		logger:               slog.Default().With("component", "resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve implements Resolver.
func (r *HTTPResolver) Resolve(ctx context.Context, curies []string) (map[string]biolink.EquivalentInfo, error) {
	if len(curies) == 0 {
		return map[string]biolink.EquivalentInfo{}, nil
	}

	batches := chunk(curies, r.batchSize)
	p := pool.NewWithResults[map[string]biolink.EquivalentInfo]().
		WithContext(ctx).
		WithMaxGoroutines(r.maxConcurrentBatches).
		WithCancelOnError()

	for _, batch := range batches {
		batch := batch
		p.Go(func(ctx context.Context) (map[string]biolink.EquivalentInfo, error) {
			return r.resolveBatch(ctx, batch)
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, fmt.Errorf("resolve identifiers: %w", err)
	}

	merged := make(map[string]biolink.EquivalentInfo, len(curies))
	for _, batchResult := range results {
		for curie, info := range batchResult {
			merged[curie] = info
		}
	}
	r.logger.Debug("resolved curie batch", "requested", len(curies), "resolved", len(merged))
	return merged, nil
}

func (r *HTTPResolver) resolveBatch(ctx context.Context, curies []string) (map[string]biolink.EquivalentInfo, error) {
	body, err := json.Marshal(map[string][]string{"curies": curies})
	if err != nil {
		return nil, fmt.Errorf("marshal resolve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build resolve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolve request returned status %d", resp.StatusCode)
	}

	var out map[string]biolink.EquivalentInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode resolve response: %w", err)
	}
	return out, nil
}
