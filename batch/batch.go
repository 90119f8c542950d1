// Package batch partitions id sets for Mongo $in queries, which we cap at
// 10 values per filter to keep parity with the document-store limit the
// mobile clients were written against.
package batch

import "sort"

// MaxInValues is the largest id set a single $in filter may carry.
const MaxInValues = 10

// Chunk splits ids into groups of at most size. A nil or empty input
// yields no chunks. size must be positive.
func Chunk[T any](ids []T, size int) [][]T {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// MergeSorted merges per-chunk result slices into one slice ordered by the
// given key. Ordering across chunks is not guaranteed by the store, so the
// caller must re-sort after any chunked multi-id query; this does both.
func MergeSorted[T any](chunks [][]T, less func(a, b T) bool) []T {
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	merged := make([]T, 0, total)
	for _, c := range chunks {
		merged = append(merged, c...)
	}
	sort.SliceStable(merged, func(i, j int) bool { return less(merged[i], merged[j]) })
	return merged
}

// DedupeBy drops later elements whose key was already seen, preserving
// first-occurrence order.
func DedupeBy[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := items[:0:0]
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
