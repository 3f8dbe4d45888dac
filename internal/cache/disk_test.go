package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tonegate/tonegate/internal/speech"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDisk(t *testing.T, dir string, opts DiskOptions) *Disk {
	t.Helper()
	opts.Dir = dir
	d, err := OpenDisk(context.Background(), opts, testLogger())
	if err != nil {
		t.Fatalf("OpenDisk: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDiskRoundtrip(t *testing.T) {
	d := openTestDisk(t, t.TempDir(), DiskOptions{})
	ctx := context.Background()

	if _, ok := d.Get(ctx, "missing"); ok {
		t.Fatal("hit on empty cache")
	}

	entry := &Entry{Key: "abc123", Bytes: []byte("encoded audio"), Format: speech.FormatMP3}
	if err := d.Put(ctx, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := d.Get(ctx, "abc123")
	if !ok {
		t.Fatal("miss after Put")
	}
	if string(got.Bytes) != "encoded audio" {
		t.Errorf("bytes = %q", got.Bytes)
	}
	if got.Format != speech.FormatMP3 {
		t.Errorf("format = %s", got.Format)
	}
}

func TestDiskSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := OpenDisk(ctx, DiskOptions{Dir: dir}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Put(ctx, &Entry{Key: "persist", Bytes: []byte("x"), Format: speech.FormatWAV}); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second := openTestDisk(t, dir, DiskOptions{})
	if _, ok := second.Get(ctx, "persist"); !ok {
		t.Error("entry lost across reopen")
	}
}

func TestDiskMissingFileTurnsIntoMiss(t *testing.T) {
	dir := t.TempDir()
	d := openTestDisk(t, dir, DiskOptions{})
	ctx := context.Background()

	if err := d.Put(ctx, &Entry{Key: "gone", Bytes: []byte("x"), Format: speech.FormatWAV}); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "gone.wav")); err != nil {
		t.Fatal(err)
	}

	if _, ok := d.Get(ctx, "gone"); ok {
		t.Fatal("hit with the artifact file deleted")
	}
	// The stale index row is dropped too.
	if _, ok := d.Get(ctx, "gone"); ok {
		t.Fatal("stale row survived")
	}
}

func TestDiskPruneByAge(t *testing.T) {
	d := openTestDisk(t, t.TempDir(), DiskOptions{MaxAge: time.Hour})
	ctx := context.Background()

	now := time.Now()
	d.clock = func() time.Time { return now }

	if err := d.Put(ctx, &Entry{Key: "old", Bytes: []byte("x"), Format: speech.FormatWAV}); err != nil {
		t.Fatal(err)
	}

	d.clock = func() time.Time { return now.Add(30 * time.Minute) }
	if err := d.Put(ctx, &Entry{Key: "fresh", Bytes: []byte("y"), Format: speech.FormatWAV}); err != nil {
		t.Fatal(err)
	}

	d.clock = func() time.Time { return now.Add(90 * time.Minute) }
	if err := d.prune(ctx); err != nil {
		t.Fatalf("prune: %v", err)
	}

	if _, ok := d.Get(ctx, "old"); ok {
		t.Error("expired entry survived prune")
	}
	if _, ok := d.Get(ctx, "fresh"); !ok {
		t.Error("fresh entry pruned")
	}
}

func TestDiskPruneBySize(t *testing.T) {
	d := openTestDisk(t, t.TempDir(), DiskOptions{MaxBytes: 250})
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 4; i++ {
		d.clock = func() time.Time { return now.Add(time.Duration(i) * time.Minute) }
		entry := &Entry{
			Key:    fmt.Sprintf("k%d", i),
			Bytes:  make([]byte, 100),
			Format: speech.FormatPCM,
		}
		if err := d.Put(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}

	d.clock = func() time.Time { return now.Add(time.Hour) }
	if err := d.prune(ctx); err != nil {
		t.Fatalf("prune: %v", err)
	}

	// 400 bytes total, cap 250: the two oldest-access entries go.
	for _, key := range []string{"k0", "k1"} {
		if _, ok := d.Get(ctx, key); ok {
			t.Errorf("entry %s survived size prune", key)
		}
	}
	for _, key := range []string{"k2", "k3"} {
		if _, ok := d.Get(ctx, key); !ok {
			t.Errorf("entry %s evicted despite fitting under the cap", key)
		}
	}
}

func TestDiskPutOverwrites(t *testing.T) {
	d := openTestDisk(t, t.TempDir(), DiskOptions{})
	ctx := context.Background()

	if err := d.Put(ctx, &Entry{Key: "k", Bytes: []byte("one"), Format: speech.FormatWAV}); err != nil {
		t.Fatal(err)
	}
	if err := d.Put(ctx, &Entry{Key: "k", Bytes: []byte("two"), Format: speech.FormatWAV}); err != nil {
		t.Fatal(err)
	}

	got, ok := d.Get(ctx, "k")
	if !ok {
		t.Fatal("miss after overwrite")
	}
	if string(got.Bytes) != "two" {
		t.Errorf("bytes = %q, want two", got.Bytes)
	}
}
