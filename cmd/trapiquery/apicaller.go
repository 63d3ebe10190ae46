package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/biograph/trapi-engine/internal/biolink"
	"github.com/biograph/trapi-engine/internal/metakg"
	"github.com/biograph/trapi-engine/internal/recordstore"
	"github.com/biograph/trapi-engine/internal/trapi"
)

// httpAPICaller is the concrete internal/fetch.APICaller this CLI plugs into
// the engine: it issues one single-hop TRAPI /query POST per operation
// against that operation's registered base URL (spec.md Non-goals: the
// fan-out mechanics inside internal/fetch are the boundary; the wire
// protocol on the other side of that boundary is this).
type httpAPICaller struct {
	endpoints map[string]string
	client    *http.Client
}

func newHTTPAPICaller(endpoints map[string]string) *httpAPICaller {
	return &httpAPICaller{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Call implements fetch.APICaller.
func (c *httpAPICaller) Call(ctx context.Context, op metakg.Operation, inputCuries []string) ([]*recordstore.Record, error) {
	base, ok := c.endpoints[op.APIName]
	if !ok || base == "" {
		return nil, fmt.Errorf("no registered endpoint for api %q", op.APIName)
	}

	req := trapi.Request{Message: trapi.RequestMessage{QueryGraph: trapi.QueryGraph{
		Nodes: map[string]trapi.QueryNode{
			"input":  {Categories: []string{op.InputType}, IDs: inputCuries},
			"output": {Categories: []string{op.OutputType}},
		},
		Edges: map[string]trapi.QueryEdge{
			"e0": {Subject: "input", Object: "output", Predicates: []string{op.Predicate}},
		},
	}}}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request for %s: %w", op.APIName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", op.APIName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", op.APIName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", op.APIName, resp.StatusCode)
	}

	var trapiResp trapi.Response
	if err := json.NewDecoder(resp.Body).Decode(&trapiResp); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", op.APIName, err)
	}

	return recordsFromKnowledgeGraph(op, trapiResp.Message.KnowledgeGraph), nil
}

// recordsFromKnowledgeGraph flattens a downstream TRAPI response's
// knowledge_graph into this engine's own Record shape, tagging each with the
// contributing operation's API and SmartAPI identifiers.
func recordsFromKnowledgeGraph(op metakg.Operation, kg trapi.KnowledgeGraph) []*recordstore.Record {
	records := make([]*recordstore.Record, 0, len(kg.Edges))
	for _, e := range kg.Edges {
		var attrs []byte
		if len(e.Attributes) > 0 {
			if encoded, err := json.Marshal(map[string]interface{}{"retrieved_attributes": e.Attributes}); err == nil {
				attrs = encoded
			}
		}
		records = append(records, &recordstore.Record{
			Subject:    biolink.EndpointInfo{OriginalCurie: e.Subject},
			Object:     biolink.EndpointInfo{OriginalCurie: e.Object},
			Predicate:  e.Predicate,
			API:        op.APIName,
			Source:     op.SmartAPIID,
			Attributes: attrs,
		})
	}
	return records
}
