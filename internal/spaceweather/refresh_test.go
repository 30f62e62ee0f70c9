package spaceweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRefresh(t *testing.T) {
	body := sampleCSV(17, 20)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	cache := NewCache(t.TempDir(), 2)
	store := NewStore()

	ds, err := Refresh(context.Background(), NewFetcher(server.URL, testLogger), cache, store, testLogger)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if store.Get() != ds {
		t.Error("store does not hold the refreshed dataset")
	}
	if len(ds.Records) != 4 || ds.Source != server.URL {
		t.Errorf("dataset = %d records from %q", len(ds.Records), ds.Source)
	}

	cached, err := LoadCached(cache, testLogger)
	if err != nil {
		t.Fatalf("LoadCached: %v", err)
	}
	if cached.Source != "cache" || len(cached.Records) != 4 {
		t.Errorf("cached dataset = %d records from %q", len(cached.Records), cached.Source)
	}
}

func TestRefreshKeepsDatasetOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(header + "\n"))
	}))
	defer server.Close()

	store := NewStore()
	prev := testDataset(t)
	store.Set(prev)

	_, err := Refresh(context.Background(), NewFetcher(server.URL, testLogger), nil, store, testLogger)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("error = %v, want ErrEmpty", err)
	}
	if store.Get() != prev {
		t.Error("failed refresh replaced the dataset")
	}
}
