package audit

import "testing"

func TestNewSinkWithEmptyDSNIsDisabled(t *testing.T) {
	s, err := NewSink(t.Context(), "")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if s.pool != nil {
		t.Fatal("expected disabled sink to have nil pool")
	}
}

func TestRecordOnDisabledSinkDoesNotError(t *testing.T) {
	s, err := NewSink(t.Context(), "")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	err = s.Record(t.Context(), Summary{
		TraceID:     "trace-1",
		NodeCount:   3,
		EdgeCount:   2,
		ResultCount: 1,
		APITallies:  map[string]APITally{"api-a": {Successes: 1}},
	})
	if err != nil {
		t.Fatalf("record on disabled sink should not error: %v", err)
	}
}

func TestEnsureSchemaOnDisabledSinkIsNoop(t *testing.T) {
	s, err := NewSink(t.Context(), "")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := s.EnsureSchema(t.Context()); err != nil {
		t.Fatalf("ensure schema on disabled sink should not error: %v", err)
	}
}

func TestCloseOnDisabledSinkDoesNotPanic(t *testing.T) {
	s, err := NewSink(t.Context(), "")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	s.Close()
}
