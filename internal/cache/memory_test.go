package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/tonegate/tonegate/internal/speech"
)

func TestMemoryRoundtrip(t *testing.T) {
	m := NewMemory(4, 0)
	defer m.Close()
	ctx := context.Background()

	if _, ok := m.Get(ctx, "missing"); ok {
		t.Fatal("hit on empty cache")
	}

	entry := &Entry{Key: "k1", Bytes: []byte("audio"), Format: speech.FormatMP3}
	if err := m.Put(ctx, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := m.Get(ctx, "k1")
	if !ok {
		t.Fatal("miss after Put")
	}
	if string(got.Bytes) != "audio" || got.Format != speech.FormatMP3 {
		t.Errorf("got %+v", got)
	}
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	m := NewMemory(2, 0)
	defer m.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("k%d", i)
		if err := m.Put(ctx, &Entry{Key: key, Bytes: []byte(key), Format: speech.FormatWAV}); err != nil {
			t.Fatal(err)
		}
	}

	if _, ok := m.Get(ctx, "k0"); ok {
		t.Error("oldest entry survived past capacity")
	}
	for _, key := range []string{"k1", "k2"} {
		if _, ok := m.Get(ctx, key); !ok {
			t.Errorf("entry %s evicted prematurely", key)
		}
	}
}
