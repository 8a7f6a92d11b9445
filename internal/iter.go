// Package internal holds helpers shared by the chip8 packages.
package internal

import (
	"cmp"
	"iter"
	"slices"
)

// Concat2 chains several key/value iterators into one.
// Keys are not de-duplicated; later sequences may repeat earlier keys.
func Concat2[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			if seq == nil {
				continue
			}
			for key, value := range seq {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}

// Sorted2 yields the pairs of seq ordered by key.
// When a key repeats, the last value wins.
func Sorted2[K cmp.Ordered, V any](seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		table := map[K]V{}
		for key, value := range seq {
			table[key] = value
		}

		keys := make([]K, 0, len(table))
		for key := range table {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		for _, key := range keys {
			if !yield(key, table[key]) {
				return
			}
		}
	}
}
