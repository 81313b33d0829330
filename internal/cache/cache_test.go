// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) = hit, want miss")
	}

	c.Set("overview", 42)
	got, ok := c.Get("overview")
	if !ok {
		t.Fatal("Get after Set = miss, want hit")
	}
	if got.(int) != 42 {
		t.Errorf("Get = %v, want 42", got)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(time.Minute)
	c.SetWithTTL("online", 7, 20*time.Millisecond)

	if _, ok := c.Get("online"); !ok {
		t.Fatal("entry missing before expiry")
	}

	time.Sleep(50 * time.Millisecond)

	if _, ok := c.Get("online"); ok {
		t.Error("entry still cached after TTL")
	}

	stats := c.GetStats()
	if stats.Evictions == 0 {
		t.Error("expired read did not count as eviction")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry still present")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("unrelated entry lost on delete")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("entry survived Clear")
	}
	if keys := c.GetStats().TotalKeys; keys != 0 {
		t.Errorf("TotalKeys after Clear = %d, want 0", keys)
	}
}

func TestCache_HitRate(t *testing.T) {
	c := New(time.Minute)
	c.Set("k", "v")

	c.Get("k")       // hit
	c.Get("k")       // hit
	c.Get("missing") // miss

	rate := c.HitRate()
	want := 100.0 * 2.0 / 3.0
	if rate < want-0.01 || rate > want+0.01 {
		t.Errorf("HitRate = %.2f, want %.2f", rate, want)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", j%10)
				c.Set(key, n)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	stats := c.GetStats()
	if stats.TotalKeys != 10 {
		t.Errorf("TotalKeys = %d, want 10", stats.TotalKeys)
	}
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		Days  int
		Limit int
	}

	k1 := GenerateKey("overview", params{Days: 7, Limit: 10})
	k2 := GenerateKey("overview", params{Days: 7, Limit: 10})
	k3 := GenerateKey("overview", params{Days: 30, Limit: 10})

	if k1 != k2 {
		t.Errorf("identical params produced different keys: %q vs %q", k1, k2)
	}
	if k1 == k3 {
		t.Error("different params produced the same key")
	}
	if len(k1) == 0 || k1[:9] != "overview:" {
		t.Errorf("key %q does not carry the method prefix", k1)
	}
}
