package cache_test

import (
	"sync"
	"testing"

	"github.com/npcli/npcli/pkg/cache"
	"github.com/npcli/npcli/pkg/parser"
	"github.com/npcli/npcli/pkg/types"
)

func TestCacheNew(t *testing.T) {
	c := cache.New(10)
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
	if got := c.Capacity(); got != 10 {
		t.Fatalf("expected capacity 10, got %d", got)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	c := cache.New(0)
	if got := c.Capacity(); got != 256 {
		t.Fatalf("expected default capacity 256, got %d", got)
	}
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New(4)
	prog, err := parser.Parse("d.sum()")
	if err != nil {
		t.Fatal(err)
	}
	c.Set("d.sum()", prog)
	if got := c.Len(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
	got, ok := c.Get("d.sum()")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != prog {
		t.Fatal("expected same program pointer")
	}
}

func TestCacheMiss(t *testing.T) {
	c := cache.New(4)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := cache.New(3)
	for _, k := range []string{"a", "b", "c", "d"} {
		prog, _ := parser.Parse("1 + 1")
		c.Set(k, prog)
	}
	if got := c.Len(); got != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", got)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal(`expected "a" to be evicted (LRU)`)
	}
	if _, ok := c.Get("d"); !ok {
		t.Fatal(`expected most-recently-inserted "d" to survive`)
	}
}

func TestCacheGetPromotes(t *testing.T) {
	c := cache.New(2)
	p1, _ := parser.Parse("1")
	p2, _ := parser.Parse("2")
	p3, _ := parser.Parse("3")

	c.Set("one", p1)
	c.Set("two", p2)

	// Touch "one" so "two" becomes the eviction candidate.
	if _, ok := c.Get("one"); !ok {
		t.Fatal("expected hit on one")
	}
	c.Set("three", p3)

	if _, ok := c.Get("two"); ok {
		t.Fatal(`expected "two" to be evicted`)
	}
	if _, ok := c.Get("one"); !ok {
		t.Fatal(`expected promoted "one" to survive`)
	}
}

func TestCacheGetOrParse(t *testing.T) {
	c := cache.New(4)
	calls := 0
	parse := func() (*types.Program, error) {
		calls++
		return parser.Parse("d * 2")
	}

	first, err := c.GetOrParse("d * 2", parse)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.GetOrParse("d * 2", parse)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected parse to run once, ran %d times", calls)
	}
	if first != second {
		t.Fatal("expected cached program on second call")
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := cache.New(4)
	prog, _ := parser.Parse("1")
	c.Set("k", prog)

	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Invalidate")
	}

	c.Set("a", prog)
	c.Set("b", prog)
	c.Clear()
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache after Clear, got %d", got)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := cache.New(16)
	prog, _ := parser.Parse("1 + 1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("shared", prog)
				c.Get("shared")
			}
		}()
	}
	wg.Wait()

	if _, ok := c.Get("shared"); !ok {
		t.Fatal("expected entry to survive concurrent access")
	}
}
