package lib

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestCache_Expiration(t *testing.T) {
	logger := zerolog.Nop()
	cache := NewCache[string](time.Minute, &logger)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("default", "a")
	cache.SetWithTTL("short", "b", time.Second)

	if v, ok := cache.Get("short"); !ok || v != "b" {
		t.Fatalf("expected short entry before expiry, got %q %v", v, ok)
	}

	now = now.Add(2 * time.Second)

	if _, ok := cache.Get("short"); ok {
		t.Error("expected short entry to be expired")
	}
	if v, ok := cache.Get("default"); !ok || v != "a" {
		t.Errorf("expected default entry to survive, got %q %v", v, ok)
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 live entry, got %d", cache.Len())
	}

	now = now.Add(time.Hour)
	if cache.Len() != 0 {
		t.Errorf("expected all entries expired, got %d", cache.Len())
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	logger := zerolog.Nop()
	cache := NewCache[int](time.Minute, &logger)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Delete("a")

	if _, ok := cache.Get("a"); ok {
		t.Error("expected deleted key to be missing")
	}

	cache.Clear()
	if _, ok := cache.Get("b"); ok {
		t.Error("expected cleared cache to be empty")
	}
}
