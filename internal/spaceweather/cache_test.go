package spaceweather

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCacheRoundTripAndPrune(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 2)

	base := time.Unix(1_700_000_000, 0)
	for i := 0; i < 4; i++ {
		data := []byte(sampleCSV(17, 17+i))
		if err := c.Write(data, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("files after prune = %d, want 2", len(entries))
	}

	data, ts, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if want := base.Add(3 * time.Hour); !ts.Equal(want) {
		t.Errorf("timestamp = %v, want %v", ts, want)
	}
	if string(data) != sampleCSV(17, 20) {
		t.Errorf("data mismatch after decompression (%d bytes)", len(data))
	}
}

func TestCacheEmpty(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "missing"), 0)
	if _, _, err := c.LoadLatest(); err == nil {
		t.Fatal("expected error for empty cache, got nil")
	}
}

func TestCacheIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "sw_bad.csv.gz"), []byte("x"), 0644)

	c := NewCache(dir, 5)
	if err := c.Write([]byte("DATE\n"), time.Unix(1_700_000_000, 0)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, _, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if string(data) != "DATE\n" {
		t.Errorf("data = %q", data)
	}
}
