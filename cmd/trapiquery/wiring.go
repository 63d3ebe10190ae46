package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"golang.org/x/term"

	"github.com/biograph/trapi-engine/internal/audit"
	"github.com/biograph/trapi-engine/internal/biolink"
	"github.com/biograph/trapi-engine/internal/cache"
	"github.com/biograph/trapi-engine/internal/config"
	"github.com/biograph/trapi-engine/internal/dump"
	"github.com/biograph/trapi-engine/internal/fetch"
	"github.com/biograph/trapi-engine/internal/kg"
	"github.com/biograph/trapi-engine/internal/metakg"
	"github.com/biograph/trapi-engine/internal/resolver"
	"github.com/biograph/trapi-engine/internal/trapi"
)

// passthroughResolver is the no-op Resolver used when the operator has
// configured neither an HTTP nor a SQLite resolver backend: identifiers are
// left unnormalized rather than failing the query.
type passthroughResolver struct{}

func (passthroughResolver) Resolve(ctx context.Context, curies []string) (map[string]biolink.EquivalentInfo, error) {
	return map[string]biolink.EquivalentInfo{}, nil
}

// engineDeps bundles everything buildEngine wires up, so callers can close
// the pieces that need closing.
type engineDeps struct {
	engine    *trapi.Engine
	catalog   *metakg.Neo4jCatalog
	auditSink *audit.Sink
	dumper    *dump.Dumper
	closeFns  []func()
}

func (d *engineDeps) Close() {
	for i := len(d.closeFns) - 1; i >= 0; i-- {
		d.closeFns[i]()
	}
}

// buildEngine wires every internal/trapi.Engine dependency from cfg,
// mirroring the teacher's cmd/crisk initNeo4j/initRedis/initPostgres helpers
// one boundary client at a time.
func buildEngine(ctx context.Context, cfg *config.Config) (*engineDeps, error) {
	deps := &engineDeps{}

	cacheHandler, closeCache, err := buildCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeCache != nil {
		deps.closeFns = append(deps.closeFns, closeCache)
	}

	catalog, err := metakg.NewNeo4jCatalog(ctx, cfg.MetaKG.URI, cfg.MetaKG.User, cfg.MetaKG.Password, cfg.MetaKG.Database)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("build metakg catalog: %w", err)
	}
	deps.catalog = catalog
	deps.closeFns = append(deps.closeFns, func() { catalog.Close(ctx) })

	res, closeRes, err := buildResolver(ctx, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	if closeRes != nil {
		deps.closeFns = append(deps.closeFns, closeRes)
	}

	caller := newHTTPAPICaller(cfg.Fetch.Endpoints)
	fetchCfg := fetch.Config{
		Concurrency:    cfg.Fetch.Concurrency,
		RateLimit:      cfg.Fetch.RateLimit,
		RateBurst:      cfg.Fetch.RateBurst,
		IdentityFields: cfg.Fetch.IdentityFields,
	}
	fetchHandler := fetch.New(cacheHandler, catalog, res, caller, fetchCfg, logger)

	dumpDirection := dump.Direction(cfg.Dump.Direction)
	dumper, err := dump.Open(cfg.Dump.Path, dumpDirection)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("open record dump: %w", err)
	}
	deps.dumper = dumper
	deps.closeFns = append(deps.closeFns, func() { dumper.Close() })

	auditSink, err := audit.NewSink(ctx, cfg.Audit.DSN)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("build audit sink: %w", err)
	}
	deps.auditSink = auditSink
	deps.closeFns = append(deps.closeFns, auditSink.Close)

	curated := make(kg.CuratedSources, len(cfg.Fetch.CuratedSources))
	for _, api := range cfg.Fetch.CuratedSources {
		curated[api] = struct{}{}
	}

	deps.engine = trapi.New(catalog, fetchHandler, dumper, auditSink, curated, logger)
	return deps, nil
}

// buildCache constructs the Redis-backed cache.Handler, prompting for a
// password on an interactive terminal if the operator enabled caching but
// left CACHE_PASSWORD unset — the same secret-hygiene idiom the teacher's
// CLI commands use before talking to a credentialed backend.
func buildCache(ctx context.Context, cfg *config.Config) (*cache.Handler, func(), error) {
	if !cfg.Cache.Enabled || cfg.Cache.Addr() == "" {
		return cache.Disabled(), nil, nil
	}

	password := cfg.Cache.Password
	if password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "cache password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, nil, fmt.Errorf("read cache password: %w", err)
		}
		password = string(raw)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Addr(),
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to cache at %s: %w", cfg.Cache.Addr(), err)
	}

	return cache.New(client, cfg.Cache.TTL), func() { client.Close() }, nil
}

// buildResolver picks the HTTP or SQLite identifier-resolution adapter per
// cfg, preferring HTTP when both are configured (internal/config's
// documented precedence), or the passthrough no-op when neither is.
func buildResolver(ctx context.Context, cfg *config.Config) (resolver.Resolver, func(), error) {
	if cfg.Resolver.BaseURL != "" {
		return resolver.NewHTTPResolver(cfg.Resolver.BaseURL), nil, nil
	}
	if cfg.Resolver.SQLitePath != "" {
		r, err := resolver.NewSQLiteResolver(ctx, cfg.Resolver.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("build sqlite resolver: %w", err)
		}
		return r, func() { r.Close() }, nil
	}
	return passthroughResolver{}, nil, nil
}
