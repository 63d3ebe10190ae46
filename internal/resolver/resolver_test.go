package resolver

import "testing"

func TestChunkSplitsIntoEvenBatches(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	batches := chunk(items, 2)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 2 || len(batches[2]) != 1 {
		t.Fatalf("unexpected batch sizes: %v", batches)
	}
}

func TestChunkHandlesZeroSize(t *testing.T) {
	items := []string{"a", "b", "c"}
	batches := chunk(items, 0)
	if len(batches) != 1 || len(batches[0]) != 3 {
		t.Fatalf("expected single batch with all items, got %v", batches)
	}
}

func TestChunkHandlesEmptyInput(t *testing.T) {
	batches := chunk(nil, 5)
	if len(batches) != 0 {
		t.Fatalf("expected no batches for empty input, got %v", batches)
	}
}

func TestChunkPreservesOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	batches := chunk(items, 3)
	if batches[0][0] != "a" || batches[0][2] != "c" || batches[1][0] != "d" {
		t.Fatalf("order not preserved: %v", batches)
	}
}
