// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

// Package vocabulary collects the record types and tags present in a corpus.
//
// A Tracker observes every feature during the first build pass. Freeze turns
// it into an immutable Frozen vocabulary that assigns each record type and
// tag a stable slot; aggregation arrays are laid out from those slots. The
// two passes are strictly ordered: asking a Frozen vocabulary about a value it
// never observed is a programming error and returns ErrFrozen.
package vocabulary

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// CombinationDelimiter joins tag names in combination keys ("a+b").
const CombinationDelimiter = "+"

var (
	// ErrFrozen is returned for values first seen after the vocabulary was frozen.
	ErrFrozen = errors.New("vocabulary is frozen")

	// ErrInvalidTag is returned for tags that cannot be used as keys.
	ErrInvalidTag = errors.New("invalid tag")
)

// ValidateTag rejects empty tags and tags containing the combination delimiter.
func ValidateTag(tag string) error {
	if strings.TrimSpace(tag) == "" {
		return fmt.Errorf("%w: empty tag", ErrInvalidTag)
	}
	if strings.Contains(tag, CombinationDelimiter) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidTag, tag, CombinationDelimiter)
	}
	return nil
}

// Tracker accumulates record types and tags. It is safe for concurrent use.
type Tracker struct {
	mu          sync.Mutex
	recordTypes map[string]struct{}
	tags        map[string]struct{}
	frozen      *Frozen
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		recordTypes: make(map[string]struct{}),
		tags:        make(map[string]struct{}),
	}
}

// Observe records recordType and tags. After Freeze it fails with ErrFrozen.
func (t *Tracker) Observe(recordType string, tags []string) error {
	if recordType == "" {
		return fmt.Errorf("empty record type")
	}
	for _, tag := range tags {
		if err := ValidateTag(tag); err != nil {
			return err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen != nil {
		return fmt.Errorf("%w: observe %q after freeze", ErrFrozen, recordType)
	}
	t.recordTypes[recordType] = struct{}{}
	for _, tag := range tags {
		t.tags[tag] = struct{}{}
	}
	return nil
}

// Freeze stops observation and returns the frozen vocabulary. Calling it
// again returns the same snapshot.
func (t *Tracker) Freeze() *Frozen {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen == nil {
		t.frozen = newFrozen(keys(t.recordTypes), keys(t.tags))
	}
	return t.frozen
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Frozen is an immutable vocabulary with dense slot numbers.
type Frozen struct {
	recordTypes []string
	tags        []string
	typeSlot    map[string]int
	tagSlot     map[string]int
}

// New builds a frozen vocabulary directly, for readers that load it from a file.
func New(recordTypes, tags []string) *Frozen {
	rt := slices.Clone(recordTypes)
	tg := slices.Clone(tags)
	slices.Sort(rt)
	slices.Sort(tg)
	return newFrozen(slices.Compact(rt), slices.Compact(tg))
}

func newFrozen(recordTypes, tags []string) *Frozen {
	f := &Frozen{
		recordTypes: recordTypes,
		tags:        tags,
		typeSlot:    make(map[string]int, len(recordTypes)),
		tagSlot:     make(map[string]int, len(tags)),
	}
	for i, rt := range recordTypes {
		f.typeSlot[rt] = i
	}
	for i, tag := range tags {
		f.tagSlot[tag] = i
	}
	return f
}

// RecordTypes returns the sorted record types.
func (f *Frozen) RecordTypes() []string { return slices.Clone(f.recordTypes) }

// Tags returns the sorted tags.
func (f *Frozen) Tags() []string { return slices.Clone(f.tags) }

// TypeSlot returns the slot of recordType.
func (f *Frozen) TypeSlot(recordType string) (int, bool) {
	i, ok := f.typeSlot[recordType]
	return i, ok
}

// TagSlot returns the slot of tag.
func (f *Frozen) TagSlot(tag string) (int, bool) {
	i, ok := f.tagSlot[tag]
	return i, ok
}

// HasRecordType reports whether recordType was observed.
func (f *Frozen) HasRecordType(recordType string) bool {
	_, ok := f.typeSlot[recordType]
	return ok
}

// HasTag reports whether tag was observed.
func (f *Frozen) HasTag(tag string) bool {
	_, ok := f.tagSlot[tag]
	return ok
}

// Require resolves the slots of a feature's record type and tags. Any value
// not observed before the freeze fails with ErrFrozen.
func (f *Frozen) Require(recordType string, tags []string) (typeSlot int, tagSlots []int, err error) {
	typeSlot, ok := f.typeSlot[recordType]
	if !ok {
		return 0, nil, fmt.Errorf("%w: record type %q was not observed", ErrFrozen, recordType)
	}
	tagSlots = make([]int, len(tags))
	for i, tag := range tags {
		slot, ok := f.tagSlot[tag]
		if !ok {
			return 0, nil, fmt.Errorf("%w: tag %q was not observed", ErrFrozen, tag)
		}
		tagSlots[i] = slot
	}
	return typeSlot, tagSlots, nil
}
