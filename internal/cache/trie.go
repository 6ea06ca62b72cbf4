// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package cache

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

type trieNode struct {
	children map[rune]*trieNode
	terminal bool
	value    string // original spelling, set on terminal nodes
	weight   int
}

// Trie is a case-insensitive prefix tree over weighted strings. Lookups cost
// O(len(prefix)) plus the size of the matching subtree.
type Trie struct {
	mu   sync.RWMutex
	root *trieNode
	size int
}

// TrieResult is one completion.
type TrieResult struct {
	Value  string
	Weight int
}

// NewTrie creates an empty Trie.
func NewTrie() *Trie {
	return &Trie{root: newTrieNode()}
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// Insert adds value with the given weight. Inserting a value again, in any
// case, adds to its weight and keeps the first spelling. Empty values are
// ignored. It reports whether value was new.
func (t *Trie) Insert(value string, weight int) bool {
	if value == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.root
	for _, ch := range strings.ToLower(value) {
		next := node.children[ch]
		if next == nil {
			next = newTrieNode()
			node.children[ch] = next
		}
		node = next
	}

	node.weight += weight
	if node.terminal {
		return false
	}
	node.terminal = true
	node.value = value
	t.size++
	return true
}

// Contains reports whether value was inserted, ignoring case.
func (t *Trie) Contains(value string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	node := t.find(value)
	return node != nil && node.terminal
}

// Complete returns the values starting with prefix, heaviest first and then
// alphabetically. A non-positive limit returns every match.
func (t *Trie) Complete(prefix string, limit int) []TrieResult {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.find(prefix)
	if node == nil {
		return nil
	}

	var out []TrieResult
	collect(node, &out)
	slices.SortFunc(out, func(a, b TrieResult) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of distinct values.
func (t *Trie) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

func (t *Trie) find(prefix string) *trieNode {
	node := t.root
	for _, ch := range strings.ToLower(prefix) {
		node = node.children[ch]
		if node == nil {
			return nil
		}
	}
	return node
}

func collect(node *trieNode, out *[]TrieResult) {
	if node.terminal {
		*out = append(*out, TrieResult{Value: node.value, Weight: node.weight})
	}
	for _, child := range node.children {
		collect(child, out)
	}
}
