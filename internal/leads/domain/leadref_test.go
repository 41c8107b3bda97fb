package domain

import (
	"strings"
	"testing"
)

func TestNewLeadRefFormat(t *testing.T) {
	ref := NewLeadRef()
	if !strings.HasPrefix(ref, "LD-") {
		t.Fatalf("expected LD- prefix, got %q", ref)
	}
	if parts := strings.Split(ref, "-"); len(parts) != 3 {
		t.Fatalf("expected three segments, got %q", ref)
	}
}

func TestNewLeadRefUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		ref := NewLeadRef()
		if _, ok := seen[ref]; ok {
			t.Fatalf("duplicate lead ref generated: %s", ref)
		}
		seen[ref] = struct{}{}
	}
}
