// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package kv

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/playgrid/playgrid/internal/config"
)

func unmarshalRaw(raw json.RawMessage, v interface{}) error {
	return json.Unmarshal(raw, v)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(config.KVConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestStore_GetSet(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Get("missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get(missing) = %v, want ErrKeyNotFound", err)
	}

	if err := store.Set("greeting", []byte("hello")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get("greeting")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Get = %q, want hello", got)
	}

	if err := store.Delete("greeting"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get("greeting"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get after delete = %v, want ErrKeyNotFound", err)
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	store := newTestStore(t)

	if err := store.SetWithTTL("heartbeat:srv1", []byte("1"), 50*time.Millisecond); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}

	ok, err := store.Exists("heartbeat:srv1")
	if err != nil || !ok {
		t.Fatalf("Exists before expiry = %v, %v; want true", ok, err)
	}

	time.Sleep(100 * time.Millisecond)

	ok, err = store.Exists("heartbeat:srv1")
	if err != nil {
		t.Fatalf("Exists after expiry: %v", err)
	}
	if ok {
		t.Error("key still present after TTL expiry")
	}
}

func TestStore_IncrementWithTTL(t *testing.T) {
	store := newTestStore(t)

	for want := int64(1); want <= 3; want++ {
		got, err := store.IncrementWithTTL("counter:player_chat", time.Hour)
		if err != nil {
			t.Fatalf("IncrementWithTTL: %v", err)
		}
		if got != want {
			t.Errorf("increment #%d = %d, want %d", want, got, want)
		}
	}

	val, err := store.GetCounter("counter:player_chat")
	if err != nil {
		t.Fatalf("GetCounter: %v", err)
	}
	if val != 3 {
		t.Errorf("GetCounter = %d, want 3", val)
	}

	// Missing counters read as zero.
	val, err = store.GetCounter("counter:never_seen")
	if err != nil {
		t.Fatalf("GetCounter missing: %v", err)
	}
	if val != 0 {
		t.Errorf("GetCounter missing = %d, want 0", val)
	}
}

func TestStore_Counters(t *testing.T) {
	store := newTestStore(t)

	for _, key := range []string{"counter:player_chat", "counter:player_chat", "counter:shop_purchase"} {
		if _, err := store.IncrementWithTTL(key, time.Hour); err != nil {
			t.Fatalf("IncrementWithTTL(%s): %v", key, err)
		}
	}
	if err := store.Set("other:ignored", []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	counters, err := store.Counters("counter:")
	if err != nil {
		t.Fatalf("Counters: %v", err)
	}
	if len(counters) != 2 {
		t.Fatalf("Counters returned %d entries, want 2: %v", len(counters), counters)
	}
	if counters["player_chat"] != 2 {
		t.Errorf("player_chat = %d, want 2", counters["player_chat"])
	}
	if counters["shop_purchase"] != 1 {
		t.Errorf("shop_purchase = %d, want 1", counters["shop_purchase"])
	}
}

func TestStore_PushCapped(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		if err := store.PushCapped("recent", map[string]int{"seq": i}, 3); err != nil {
			t.Fatalf("PushCapped: %v", err)
		}
	}

	entries, err := store.List("recent", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ring holds %d entries, want 3", len(entries))
	}

	// Newest first: seq 4, 3, 2.
	var first map[string]int
	if err := unmarshalRaw(entries[0], &first); err != nil {
		t.Fatalf("unmarshal ring entry: %v", err)
	}
	if first["seq"] != 4 {
		t.Errorf("newest entry seq = %d, want 4", first["seq"])
	}

	limited, err := store.List("recent", 2)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited list holds %d entries, want 2", len(limited))
	}

	empty, err := store.List("missing-ring", 10)
	if err != nil {
		t.Fatalf("List missing: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("missing ring returned %d entries, want 0", len(empty))
	}
}

func TestStore_JSONRoundTrip(t *testing.T) {
	store := newTestStore(t)

	type snapshot struct {
		Online int     `json:"online"`
		Wealth float64 `json:"wealth"`
	}

	in := snapshot{Online: 42, Wealth: 12345.67}
	if err := store.SetJSON("cache:overview", in, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var out snapshot
	if err := store.GetJSON("cache:overview", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}

	var missing snapshot
	if err := store.GetJSON("cache:missing", &missing); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("GetJSON missing = %v, want ErrKeyNotFound", err)
	}
}
