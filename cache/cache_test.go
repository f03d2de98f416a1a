package cache

import (
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()

	if err := c.Set("k", "v", time.Minute); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get(k) = %q, %v; want v, true", got, ok)
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache()

	if _, ok := c.Get("absent"); ok {
		t.Error("expected a miss for an absent key")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()

	if err := c.Set("k", "v", time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache()

	if err := c.Set("k", "v", 0); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("k"); !ok {
		t.Error("zero TTL means no expiry")
	}
}
