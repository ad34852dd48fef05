package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache must miss")
	}

	c.Set("a", "1")
	if got, ok := c.Get("a"); !ok || got != "1" {
		t.Fatalf("expected hit with %q, got %q ok=%v", "1", got, ok)
	}

	c.Set("a", "2")
	if got, _ := c.Get("a"); got != "2" {
		t.Fatalf("overwrite lost: got %q", got)
	}
	if c.Size() != 1 {
		t.Fatalf("overwrite must not grow cache, size=%d", c.Size())
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry must be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry must survive")
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry must miss")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry must be dropped on read, size=%d", c.Size())
	}
}

func TestLRUCache_Purge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Purge()

	if c.Size() != 0 {
		t.Errorf("purge must empty the cache, size=%d", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("purged entry must miss")
	}
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager()

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop without StartCleanup must not block")
	}
}

func TestManager_DoubleStop(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](4, time.Minute))
	m.StartCleanup(10 * time.Millisecond)

	m.Stop()
	m.Stop() // must not panic on a closed channel
}

func TestManager_CleansRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](4, 5*time.Millisecond)
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(10 * time.Millisecond)
	defer m.Stop()

	time.Sleep(40 * time.Millisecond)

	if c.Size() != 0 {
		t.Errorf("expired entry must be cleaned, size=%d", c.Size())
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 3)

	if cleaned := c.CleanExpired(); cleaned != 2 {
		t.Errorf("CleanExpired = %d, want 2", cleaned)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry must survive cleanup")
	}
}
