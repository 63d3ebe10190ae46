package metakg

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jCatalog is the reference Catalog adapter: MetaKG operations are
// modeled as a small labeled subgraph, (:API)-[:SUPPORTS]->(:Operation),
// queried by endpoint category and predicate.
type Neo4jCatalog struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewNeo4jCatalog connects to uri and verifies connectivity before
// returning, failing fast on a bad configuration.
func NewNeo4jCatalog(ctx context.Context, uri, user, password, database string) (*Neo4jCatalog, error) {
	if uri == "" || user == "" {
		return nil, fmt.Errorf("metakg neo4j credentials missing: uri=%s, user=%s", uri, user)
	}
	if database == "" {
		database = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(uri,
		neo4j.BasicAuth(user, password, ""),
		func(cfg *neo4j.Config) {
			cfg.MaxConnectionPoolSize = 25
			cfg.ConnectionAcquisitionTimeout = 30 * time.Second
			cfg.SocketConnectTimeout = 5 * time.Second
		})
	if err != nil {
		return nil, fmt.Errorf("create metakg neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connect to metakg neo4j at %s: %w", uri, err)
	}

	logger := slog.Default().With("component", "metakg")
	logger.Info("metakg catalog connected", "uri", uri, "database", database)
	return &Neo4jCatalog{driver: driver, database: database, logger: logger}, nil
}

// Close releases the underlying driver.
func (c *Neo4jCatalog) Close(ctx context.Context) error {
	if err := c.driver.Close(ctx); err != nil {
		return fmt.Errorf("close metakg neo4j driver: %w", err)
	}
	return nil
}

const operationsQuery = `
MATCH (api:API)-[:SUPPORTS]->(op:Operation)
WHERE op.input_type IN $subjectCategories
  AND op.output_type IN $objectCategories
  AND (size($predicates) = 0 OR op.predicate IN $predicates)
RETURN op.input_type AS input_type, op.output_type AS output_type,
       op.predicate AS predicate, api.name AS api_name, api.smartapi_id AS smartapi_id
`

// Operations implements Catalog against the (:API)-[:SUPPORTS]->(:Operation)
// schema.
func (c *Neo4jCatalog) Operations(ctx context.Context, subjectCategories, predicates, objectCategories []string) ([]Operation, error) {
	result, err := neo4j.ExecuteQuery(ctx, c.driver, operationsQuery,
		map[string]any{
			"subjectCategories": subjectCategories,
			"objectCategories":  objectCategories,
			"predicates":        predicates,
		},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithReadersRouting(),
		neo4j.ExecuteQueryWithDatabase(c.database),
	)
	if err != nil {
		return nil, fmt.Errorf("metakg operations query: %w", err)
	}

	ops := make([]Operation, 0, len(result.Records))
	for _, record := range result.Records {
		m := record.AsMap()
		op := Operation{
			InputType:  stringField(m, "input_type"),
			OutputType: stringField(m, "output_type"),
			Predicate:  stringField(m, "predicate"),
			APIName:    stringField(m, "api_name"),
			SmartAPIID: stringField(m, "smartapi_id"),
		}
		op.ID = op.SmartAPIID + ":" + op.APIName + ":" + op.Predicate
		ops = append(ops, op)
	}
	c.logger.Debug("metakg operations resolved", "count", len(ops))
	return ops, nil
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
