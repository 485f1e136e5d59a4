package schema

import (
	"testing"

	"github.com/dmagro/cryo-go/internal/types"
)

func TestResolveFullSchemaIsCanonicalOrder(t *testing.T) {
	s, err := Resolve(types.Blocks, types.Binary, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Names()[0] != "block_number" {
		t.Fatalf("expected block_number first, got %v", s.Names())
	}
}

func TestResolveIsSubsequenceOfCanonical(t *testing.T) {
	full, _ := canonical(types.Logs)
	s, err := Resolve(types.Logs, types.Hex, []string{"data", "block_number", "address"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// subsequence check: indices in full must be strictly increasing
	lastIdx := -1
	for _, name := range s.Names() {
		idx := full.Index(name)
		if idx <= lastIdx {
			t.Fatalf("resolved schema %v is not a subsequence of canonical order %v", s.Names(), full.Names())
		}
		lastIdx = idx
	}
}

func TestResolveExcludeAll(t *testing.T) {
	full, _ := canonical(types.Blocks)
	if _, err := Resolve(types.Blocks, types.Binary, nil, full.Names()); err == nil {
		t.Fatalf("expected error when exclude removes every column")
	}
}

func TestResolveEmptyIncludeRejected(t *testing.T) {
	if _, err := Resolve(types.Blocks, types.Binary, []string{}, nil); err == nil {
		t.Fatalf("expected error: an explicitly empty include list must be rejected")
	}
	if _, err := Resolve(types.Blocks, types.Binary, []string{"not_a_real_column"}, nil); err == nil {
		t.Fatalf("expected error for unknown include column")
	}
}

func TestResolveNilIncludeMeansNoFilter(t *testing.T) {
	s, err := Resolve(types.Blocks, types.Binary, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	full, _ := canonical(types.Blocks)
	if len(s) != len(full) {
		t.Fatalf("nil include should keep the full schema, got %v", s.Names())
	}
}

func TestResolveUnknownExcludeColumn(t *testing.T) {
	if _, err := Resolve(types.Blocks, types.Binary, nil, []string{"not_a_real_column"}); err == nil {
		t.Fatalf("expected error for unknown exclude column")
	}
}

func TestDefaultSortColumnsExistInSchema(t *testing.T) {
	for _, dt := range []types.Datatype{types.Blocks, types.Transactions, types.Logs} {
		s, err := Resolve(dt, types.Binary, nil, nil)
		if err != nil {
			t.Fatalf("%v: %v", dt, err)
		}
		sortKeys, err := DefaultSort(dt)
		if err != nil {
			t.Fatalf("%v: %v", dt, err)
		}
		for _, key := range sortKeys {
			if !s.Has(key) {
				t.Fatalf("%v: default sort key %q missing from schema", dt, key)
			}
		}
	}
}
