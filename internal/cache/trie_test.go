// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package cache

import (
	"slices"
	"testing"
)

func newTagTrie() *Trie {
	t := NewTrie()
	t.Insert("castle", 12)
	t.Insert("Cathedral", 30)
	t.Insert("cat", 3)
	t.Insert("bridge", 8)
	t.Insert("canal", 12)
	return t
}

func values(rs []TrieResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Value
	}
	return out
}

func TestTrie_Complete(t *testing.T) {
	trie := newTagTrie()

	tests := []struct {
		name   string
		prefix string
		limit  int
		want   []string
	}{
		{"weight then name", "ca", 0, []string{"Cathedral", "canal", "castle", "cat"}},
		{"case insensitive", "CAT", 0, []string{"Cathedral", "cat"}},
		{"limit", "ca", 2, []string{"Cathedral", "canal"}},
		{"empty prefix lists all", "", 0, []string{"Cathedral", "canal", "castle", "bridge", "cat"}},
		{"no match", "z", 0, nil},
		{"exact value", "bridge", 5, []string{"bridge"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := values(trie.Complete(tt.prefix, tt.limit))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Complete(%q, %d) = %v, want %v", tt.prefix, tt.limit, got, tt.want)
			}
		})
	}
}

func TestTrie_Insert(t *testing.T) {
	trie := NewTrie()

	if !trie.Insert("Mill", 2) {
		t.Error("first insert should report a new value")
	}
	if trie.Insert("mill", 5) {
		t.Error("re-insert in another case should not be new")
	}
	if trie.Insert("", 1) {
		t.Error("empty value should be ignored")
	}
	if trie.Len() != 1 {
		t.Errorf("Len() = %d, want 1", trie.Len())
	}

	got := trie.Complete("m", 0)
	if len(got) != 1 || got[0].Value != "Mill" || got[0].Weight != 7 {
		t.Errorf("Complete() = %+v, want [{Mill 7}]", got)
	}
}

func TestTrie_Contains(t *testing.T) {
	trie := newTagTrie()

	if !trie.Contains("CASTLE") {
		t.Error("Contains should ignore case")
	}
	if trie.Contains("cas") {
		t.Error("a prefix is not a value")
	}
	if trie.Contains("moat") {
		t.Error("unexpected value")
	}
}
