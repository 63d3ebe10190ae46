package trapi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/biograph/trapi-engine/internal/assembler"
	"github.com/biograph/trapi-engine/internal/audit"
	"github.com/biograph/trapi-engine/internal/dump"
	"github.com/biograph/trapi-engine/internal/edgemanager"
	qerrors "github.com/biograph/trapi-engine/internal/errors"
	"github.com/biograph/trapi-engine/internal/execplan"
	"github.com/biograph/trapi-engine/internal/fetch"
	"github.com/biograph/trapi-engine/internal/kg"
	"github.com/biograph/trapi-engine/internal/metakg"
	"github.com/biograph/trapi-engine/internal/recordstore"
)

// Engine drives a single TRAPI query from request to response: translate,
// run the cooperative edge-manager loop (spec.md §5), assemble results, and
// always emit an answer plus an execution-summary audit line (spec.md §7).
type Engine struct {
	catalog metakg.Catalog
	fetch   *fetch.Handler
	dumper  *dump.Dumper
	audit   *audit.Sink
	curated kg.CuratedSources
	logger  *logrus.Logger
}

// New builds an Engine. dumper may be nil or disabled; auditSink must be
// non-nil, and may be the disabled sink NewSink returns for an empty DSN.
func New(catalog metakg.Catalog, fetchHandler *fetch.Handler, dumper *dump.Dumper, auditSink *audit.Sink, curated kg.CuratedSources, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		catalog: catalog,
		fetch:   fetchHandler,
		dumper:  dumper,
		audit:   auditSink,
		curated: curated,
		logger:  logger,
	}
}

// Answer runs one query to completion. Only an invalid query graph
// propagates as an error (spec.md §7 "only query-graph validation breaches
// propagate"); every other failure mode is recovered into an empty-but-
// valid Response.
func (e *Engine) Answer(ctx context.Context, req Request) (*Response, error) {
	traceID := uuid.New().String()
	logger := e.logger.WithField("trace_id", traceID)
	summary := audit.Summary{TraceID: traceID, APITallies: make(map[string]audit.APITally)}
	var logs []LogEntry

	graph, err := buildQueryGraph(req.Message.QueryGraph)
	if err != nil {
		logger.WithError(err).Warn("invalid query graph")
		summary.ErrorName = qerrors.KindOf(err).String()
		e.recordSummary(ctx, summary)
		return nil, err
	}

	edges := execplan.Translate(graph)
	builder := kg.NewBuilder(e.curated)
	counter := metakg.NewCardinalityProxy(ctx, e.catalog)
	manager := edgemanager.New(graph, edges, recordstore.NewStore(),
		edgemanager.WithObserver(builder),
		edgemanager.WithOperationCounter(counter),
	)

	terminalEmpty := e.run(ctx, manager, logger, &summary, &logs)

	var results []assembler.Result
	if !terminalEmpty {
		results = assembler.Assemble(graph, manager.Edges())
	}
	curies, hashes := assembler.ReferencedCuriesAndHashes(results)
	builder.Prune(curies, hashes)

	summary.NodeCount = len(builder.Nodes())
	summary.EdgeCount = len(builder.Edges())
	summary.ResultCount = len(results)
	e.recordSummary(ctx, summary)

	return &Response{
		Workflow: []WorkflowStep{{ID: "lookup"}},
		Message: ResponseMessage{
			QueryGraph:     req.Message.QueryGraph,
			KnowledgeGraph: renderKnowledgeGraph(builder),
			Results:        renderResults(results),
		},
		Logs: logs,
	}, nil
}

// run drives the cooperative edge-selection loop until every edge has
// executed or one produces zero surviving records (spec.md §4.2, §5).
// Returns true on the terminal-empty short-circuit.
func (e *Engine) run(ctx context.Context, manager *edgemanager.Manager, logger *logrus.Entry, summary *audit.Summary, logs *[]LogEntry) bool {
	for manager.HasPending() {
		edge := manager.Next()
		if edge == nil {
			break
		}

		records, err := e.fetchEdge(ctx, edge, logger)
		if err != nil {
			logger.WithError(err).WithField("q_edge_id", edge.QEdge.ID).Warn("fetch failed, treating as zero records")
			records = nil
		}
		e.tally(summary, records)

		if len(records) == 0 {
			msg := fmt.Sprintf("edge %s produced zero records", edge.QEdge.ID)
			logger.Warn(msg)
			appendLog(logs, "WARNING", msg, map[string]string{"q_edge_id": edge.QEdge.ID})
		}

		if manager.StoreRecords(edge, records) {
			msg := fmt.Sprintf("edge %s terminated the query with zero surviving records", edge.QEdge.ID)
			logger.Warn(msg)
			appendLog(logs, "WARNING", msg, map[string]string{"q_edge_id": edge.QEdge.ID})
			return true
		}
	}
	return false
}

// fetchEdge replays a prior dump when the dumper is in read mode, otherwise
// fetches live and, when the dumper is in write mode, persists the result.
func (e *Engine) fetchEdge(ctx context.Context, edge *execplan.XEdge, logger *logrus.Entry) ([]*recordstore.Record, error) {
	if replayed, found, err := e.dumper.Replay(edge); err != nil {
		return nil, fmt.Errorf("replay dump for edge %s: %w", edge.QEdge.ID, err)
	} else if found {
		logger.WithField("q_edge_id", edge.QEdge.ID).Debug("replayed dumped records")
		return replayed, nil
	}

	records, err := e.fetch.Fetch(ctx, edge)
	if err != nil {
		return nil, err
	}
	if err := e.dumper.Record(edge, records); err != nil {
		logger.WithError(err).Warn("failed to persist record dump")
	}
	return records, nil
}

// tally counts each contributing API's records as a success. Because
// internal/fetch isolates per-operation failures internally (spec.md §4.4e),
// the engine only observes which APIs contributed records, not each
// individual call outcome; a fuller per-call tally would require widening
// the fetch boundary's contract.
func (e *Engine) tally(summary *audit.Summary, records []*recordstore.Record) {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.API] {
			continue
		}
		seen[r.API] = true
		t := summary.APITallies[r.API]
		t.Successes++
		summary.APITallies[r.API] = t
	}
}

func (e *Engine) recordSummary(ctx context.Context, summary audit.Summary) {
	if err := e.audit.Record(ctx, summary); err != nil {
		e.logger.WithError(err).Warn("failed to record execution summary")
	}
}

func appendLog(logs *[]LogEntry, level, message string, data interface{}) {
	*logs = append(*logs, LogEntry{
		Level:     level,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Message:   message,
		Data:      data,
	})
}
