package biolink

import "testing"

func TestNormalizeCategories(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"protein gains gene", []string{"biolink:Protein"}, []string{"biolink:Protein", "biolink:Gene"}},
		{"gene untouched", []string{"biolink:Gene"}, []string{"biolink:Gene"}},
		{"dedupes", []string{"biolink:Gene", "biolink:Gene"}, []string{"biolink:Gene"}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCategories(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFingerprintFieldsStable(t *testing.T) {
	a := FingerprintFields([]string{"NCBIGene:3778", "biolink:related_to", "MONDO:0011122"})
	b := FingerprintFields([]string{"NCBIGene:3778", "biolink:related_to", "MONDO:0011122"})
	if a != b {
		t.Fatalf("expected stable hash, got %s != %s", a, b)
	}

	c := FingerprintFields([]string{"NCBIGene:3778", "biolink:related_to", "MONDO:9999999"})
	if a == c {
		t.Fatalf("expected different inputs to hash differently")
	}
}

func TestSortedCanonicalIgnoresOrder(t *testing.T) {
	a := SortedCanonical([]string{"biolink:Gene", "biolink:Protein"})
	b := SortedCanonical([]string{"biolink:Protein", "biolink:Gene"})
	if a != b {
		t.Fatalf("expected order-independent canonicalization, got %q != %q", a, b)
	}
}

func TestCuriePrefix(t *testing.T) {
	if Curie("NCBIGene:3778").Prefix() != "NCBIGene" {
		t.Fatalf("unexpected prefix")
	}
	if Curie("noprefix").Prefix() != "" {
		t.Fatalf("expected empty prefix")
	}
}

func TestNormalize(t *testing.T) {
	if Normalize(" ncbigene:3778 ") != "NCBIGENE:3778" {
		t.Fatalf("unexpected normalization: %q", Normalize(" ncbigene:3778 "))
	}
}
