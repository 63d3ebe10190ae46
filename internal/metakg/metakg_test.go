package metakg

import (
	"context"
	"errors"
	"testing"
)

type fakeCatalog struct {
	ops []Operation
	err error
}

func (f *fakeCatalog) Operations(ctx context.Context, subjectCategories, predicates, objectCategories []string) ([]Operation, error) {
	return f.ops, f.err
}

func TestIDsPreservesOrder(t *testing.T) {
	ops := []Operation{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	ids := IDs(ops)
	for i, id := range []string{"a", "b", "c"} {
		if ids[i] != id {
			t.Fatalf("expected %s at position %d, got %s", id, i, ids[i])
		}
	}
}

func TestCardinalityProxyReturnsOperationCount(t *testing.T) {
	cat := &fakeCatalog{ops: []Operation{{ID: "x"}, {ID: "y"}}}
	proxy := NewCardinalityProxy(context.Background(), cat)
	if got := proxy.CountOperations([]string{"biolink:Gene"}, nil, []string{"biolink:Disease"}); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestCardinalityProxyDegradesToZeroOnError(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("connection reset")}
	proxy := NewCardinalityProxy(context.Background(), cat)
	if got := proxy.CountOperations(nil, nil, nil); got != 0 {
		t.Fatalf("expected 0 on error, got %d", got)
	}
}
