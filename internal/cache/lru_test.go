// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[int](3, time.Minute)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		got, found := c.Get(key)
		if !found {
			t.Errorf("Expected to find key '%s'", key)
		}
		if got != want {
			t.Errorf("Get(%q) = %d, want %d", key, got, want)
		}
	}

	if c.Len() != 3 {
		t.Errorf("Expected len 3, got %d", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[string](3, time.Minute)

	c.Add("a", "A")
	c.Add("b", "B")
	c.Add("c", "C")

	// Access 'a' to make it most recently used
	c.Get("a")

	// Add new item, should evict 'b' (least recently used)
	c.Add("d", "D")

	if _, found := c.Get("b"); found {
		t.Error("Expected 'b' to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, found := c.Get(key); !found {
			t.Errorf("Expected '%s' to be present", key)
		}
	}
}

func TestLRU_UpdateExisting(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Add("a", 1)
	c.Add("a", 2)
	if got, _ := c.Get("a"); got != 2 {
		t.Errorf("Get(a) = %d, want 2", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRU_TTLExpiration(t *testing.T) {
	c := NewLRU[int](10, 50*time.Millisecond)
	c.Add("a", 1)

	if _, found := c.Get("a"); !found {
		t.Error("Expected to find key 'a' immediately")
	}

	time.Sleep(60 * time.Millisecond)

	if _, found := c.Get("a"); found {
		t.Error("Expected 'a' to be expired")
	}
	if c.Contains("a") {
		t.Error("Contains() should be false after expiry")
	}
}

func TestLRU_CleanupExpired(t *testing.T) {
	c := NewLRU[int](10, 50*time.Millisecond)
	c.Add("a", 1)
	c.Add("b", 2)

	time.Sleep(60 * time.Millisecond)
	c.Add("c", 3)

	if removed := c.CleanupExpired(); removed != 2 {
		t.Errorf("CleanupExpired() = %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRU_RemoveAndClear(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)

	if !c.Remove("a") {
		t.Error("Remove(a) = false, want true")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true, want false")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	c.Add("c", 3)
	if _, found := c.Get("c"); !found {
		t.Error("cache unusable after Clear")
	}
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = (%d, %d, %d), want (2, 1, 1)", hits, misses, size)
	}
}

func TestLRU_Defaults(t *testing.T) {
	c := NewLRU[int](0, 0)
	if c.capacity != 512 || c.ttl != 10*time.Minute {
		t.Errorf("defaults = (%d, %v), want (512, 10m)", c.capacity, c.ttl)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int](100, time.Minute)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := strconv.Itoa(id*100 + j)
				c.Add(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}
