package cache

import (
	"strings"
	"testing"

	"github.com/biograph/trapi-engine/internal/biolink"
	"github.com/biograph/trapi-engine/internal/recordstore"
)

func sampleRecords(n int) []*recordstore.Record {
	records := make([]*recordstore.Record, n)
	for i := range records {
		records[i] = &recordstore.Record{
			Subject:   biolink.EndpointInfo{OriginalCurie: "NCBIGene:3778"},
			Object:    biolink.EndpointInfo{OriginalCurie: "MONDO:0011122"},
			Predicate: "biolink:related_to",
			API:       "test-api",
			Hash:      "deadbeefcafef00d",
		}
	}
	return records
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	records := sampleRecords(5)
	chunks, err := EncodeChunks(records)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatalf("expected at least one chunk")
	}

	decoded, warnings := DecodeChunks(chunks)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(decoded) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(decoded))
	}
	for i, r := range decoded {
		if r.Hash != records[i].Hash || r.Subject.PrimaryCurie() != records[i].Subject.PrimaryCurie() {
			t.Fatalf("record %d did not round-trip: %+v", i, r)
		}
	}
}

func TestEncodeDecodeDropsBackReferenceOnEncode(t *testing.T) {
	records := sampleRecords(1)
	records[0].TrapiQEdgeID = "e01"
	chunks, err := EncodeChunks(records)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	decoded, _ := DecodeChunks(chunks)
	if decoded[0].TrapiQEdgeID != "" {
		t.Fatalf("expected TrapiQEdgeID to be dropped by encode, got %q", decoded[0].TrapiQEdgeID)
	}
}

func TestEncodeRespectsChunkSizeBound(t *testing.T) {
	records := sampleRecords(20000)
	chunks, err := EncodeChunks(records)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected the record set to span multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if len(c) > chunkSizeLimit {
			t.Fatalf("chunk %d exceeds size bound: %d bytes", i, len(c))
		}
	}
}

func TestDecodeSkipsMalformedTokenAndKeepsRest(t *testing.T) {
	records := sampleRecords(2)
	chunks, err := EncodeChunks(records)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	corrupted := chunks[0] + tokenDelimiter + "not-valid-base64!!"
	decoded, warnings := DecodeChunks([]string{corrupted})
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %d", len(warnings))
	}
	if len(decoded) != 2 {
		t.Fatalf("expected the 2 well-formed records to survive, got %d", len(decoded))
	}
}

func TestDecodeEmptyChunksReturnsNothing(t *testing.T) {
	decoded, warnings := DecodeChunks(nil)
	if decoded != nil || len(warnings) != 0 {
		t.Fatalf("expected nil/empty for no chunks")
	}
}

func TestEncodeTokensAreBase64URLSafe(t *testing.T) {
	chunks, err := EncodeChunks(sampleRecords(1))
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if strings.ContainsAny(chunks[0], "+/") {
		t.Fatalf("expected base64url alphabet, found standard base64 characters: %q", chunks[0])
	}
}
