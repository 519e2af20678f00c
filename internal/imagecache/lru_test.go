package imagecache

import "testing"

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	cache := newLRUCache[string, int](2, nil)

	cache.put("a", 1)
	cache.put("b", 2)
	if evicted := cache.put("c", 3); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}

	if _, ok := cache.get("a"); ok {
		t.Fatal("expected oldest entry to be evicted")
	}
	if v, ok := cache.get("b"); !ok || v != 2 {
		t.Fatalf("expected b=2 to survive, got %d ok=%v", v, ok)
	}
	if v, ok := cache.get("c"); !ok || v != 3 {
		t.Fatalf("expected c=3 to survive, got %d ok=%v", v, ok)
	}
}

func TestLRUGetPromotes(t *testing.T) {
	cache := newLRUCache[string, int](2, nil)

	cache.put("a", 1)
	cache.put("b", 2)
	if _, ok := cache.get("a"); !ok {
		t.Fatal("expected a to be present")
	}
	cache.put("c", 3)

	if _, ok := cache.get("b"); ok {
		t.Fatal("expected b to be evicted after a was promoted")
	}
	if _, ok := cache.get("a"); !ok {
		t.Fatal("expected promoted entry to survive")
	}
}

func TestLRUOverwriteIsNotEviction(t *testing.T) {
	cache := newLRUCache[string, int](2, nil)

	cache.put("a", 1)
	if evicted := cache.put("a", 10); evicted != 0 {
		t.Fatalf("overwrite counted as eviction: %d", evicted)
	}
	if v, _ := cache.get("a"); v != 10 {
		t.Fatalf("expected overwritten value 10, got %d", v)
	}
	if cache.len() != 1 {
		t.Fatalf("expected single entry after overwrite, got %d", cache.len())
	}
}

func TestLRUOnEvictCallback(t *testing.T) {
	var evictedKeys []string
	cache := newLRUCache[string, int](1, func(key string, _ int) {
		evictedKeys = append(evictedKeys, key)
	})

	cache.put("a", 1)
	cache.put("b", 2)
	cache.put("b", 3) // overwrite also notifies for the replaced value

	if len(evictedKeys) != 2 || evictedKeys[0] != "a" || evictedKeys[1] != "b" {
		t.Fatalf("unexpected evict notifications: %v", evictedKeys)
	}
}

func TestLRUClear(t *testing.T) {
	cache := newLRUCache[string, int](4, nil)
	cache.put("a", 1)
	cache.put("b", 2)

	if count := cache.clear(); count != 2 {
		t.Fatalf("expected clear to report 2 entries, got %d", count)
	}
	if cache.len() != 0 {
		t.Fatalf("expected empty cache after clear, got %d", cache.len())
	}
	if _, ok := cache.get("a"); ok {
		t.Fatal("expected no entries after clear")
	}
}

func TestLRUMinimumCapacity(t *testing.T) {
	cache := newLRUCache[string, int](0, nil)
	cache.put("a", 1)
	cache.put("b", 2)
	if cache.len() != 1 {
		t.Fatalf("expected capacity clamp to 1, got len %d", cache.len())
	}
}
