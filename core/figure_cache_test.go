package core

import (
	"bytes"
	"fmt"
	"testing"
)

func TestFigureCacheRoundTrip(t *testing.T) {
	c := newFigureCache(4)
	payload := []byte(`{"data":[],"layout":{}}`)
	c.Put("k1", payload)
	got, ok := c.Get("k1")
	if !ok {
		t.Fatal("entry not found after Put")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Get = %q, want %q", got, payload)
	}
}

func TestFigureCacheMiss(t *testing.T) {
	c := newFigureCache(4)
	if _, ok := c.Get("absent"); ok {
		t.Error("unexpected hit for absent key")
	}
}

func TestFigureCacheEvictsOldest(t *testing.T) {
	c := newFigureCache(3)
	for i := 0; i < 4; i++ {
		c.Put(fmt.Sprintf("k%d", i), []byte("v"))
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if _, ok := c.Get("k0"); ok {
		t.Error("oldest entry was not evicted")
	}
	if _, ok := c.Get("k3"); !ok {
		t.Error("newest entry missing")
	}
}

func TestFigureCacheOverwriteKeepsSize(t *testing.T) {
	c := newFigureCache(3)
	c.Put("k", []byte("a"))
	c.Put("k", []byte("b"))
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	got, _ := c.Get("k")
	if string(got) != "b" {
		t.Errorf("Get = %q, want b", got)
	}
}

func TestFigureCacheFlush(t *testing.T) {
	c := newFigureCache(3)
	c.Put("k1", []byte("a"))
	c.Put("k2", []byte("b"))
	c.Flush()
	if c.Len() != 0 {
		t.Errorf("Len after Flush = %d", c.Len())
	}
	// Cache keeps working after a flush.
	c.Put("k3", []byte("c"))
	if _, ok := c.Get("k3"); !ok {
		t.Error("Put after Flush not retrievable")
	}
}
