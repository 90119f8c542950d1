package batch

import (
	"fmt"
	"testing"
)

func TestChunkCount(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 25, 30, 101} {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("id-%03d", i)
		}

		chunks := Chunk(ids, MaxInValues)
		want := (n + MaxInValues - 1) / MaxInValues
		if len(chunks) != want {
			t.Errorf("n=%d: got %d chunks, want %d", n, len(chunks), want)
		}

		// Union of chunks is exactly the input, no duplicates.
		seen := make(map[string]bool)
		for _, c := range chunks {
			if len(c) > MaxInValues {
				t.Errorf("n=%d: chunk of size %d exceeds limit", n, len(c))
			}
			for _, id := range c {
				if seen[id] {
					t.Errorf("n=%d: duplicate id %q across chunks", n, id)
				}
				seen[id] = true
			}
		}
		if len(seen) != n {
			t.Errorf("n=%d: union has %d ids, want %d", n, len(seen), n)
		}
	}
}

func TestChunkEmpty(t *testing.T) {
	if got := Chunk([]int(nil), 10); got != nil {
		t.Errorf("Chunk(nil) = %v, want nil", got)
	}
	if got := Chunk([]int{1}, 0); got != nil {
		t.Errorf("Chunk with size 0 = %v, want nil", got)
	}
}

func TestMergeSorted(t *testing.T) {
	chunks := [][]int{{30, 10}, {20}, {}, {5, 40}}
	got := MergeSorted(chunks, func(a, b int) bool { return a < b })
	want := []int{5, 10, 20, 30, 40}
	if len(got) != len(want) {
		t.Fatalf("merged length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("merged[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDedupeBy(t *testing.T) {
	items := []string{"a", "b", "a", "c", "b"}
	got := DedupeBy(items, func(s string) string { return s })
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("deduped length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("deduped[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
