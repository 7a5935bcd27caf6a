package id

import (
	"strings"
	"testing"
)

func TestPrefixes(t *testing.T) {
	if got := Order(); !strings.HasPrefix(got, "ord-") {
		t.Fatalf("order id %q lacks ord- prefix", got)
	}
	if got := Transaction(); !strings.HasPrefix(got, "txn-") {
		t.Fatalf("transaction id %q lacks txn- prefix", got)
	}
}

func TestIDsSortByGenerationOrder(t *testing.T) {
	prev := Order()
	for i := 0; i < 100; i++ {
		next := Order()
		if next <= prev {
			t.Fatalf("id %q not after %q", next, prev)
		}
		prev = next
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Transaction()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
