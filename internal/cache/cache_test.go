package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New(time.Minute)

	c.Set("k", 123)

	v, ok := c.Get("k")

	if !ok {
		t.Fatalf("expected hit")
	}

	if v.(int) != 123 {
		t.Fatalf("v = %v, want 123", v)
	}
}

func TestMissOnUnknownKey(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get("nope")

	if ok {
		t.Fatalf("expected miss")
	}
}

func TestExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)

	c.Set("k", "v")

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k")

	if ok {
		t.Fatalf("entry should have expired")
	}
}

func TestInvalidate(t *testing.T) {
	c := New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be gone")
	}

	if _, ok := c.Get("b"); !ok {
		t.Fatalf("b should survive")
	}
}

func TestFlush(t *testing.T) {
	c := New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Flush()

	if _, ok := c.Get("a"); ok {
		t.Fatalf("flush should drop everything")
	}

	if _, ok := c.Get("b"); ok {
		t.Fatalf("flush should drop everything")
	}
}
