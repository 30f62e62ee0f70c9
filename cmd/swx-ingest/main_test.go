package main

import (
	"testing"
	"time"

	"github.com/star/msisgo/internal/spaceweather"
)

func TestFilterSince(t *testing.T) {
	day := func(d int) spaceweather.Record {
		return spaceweather.Record{Date: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)}
	}

	all := filterSince([]spaceweather.Record{day(1), day(2)}, time.Time{})
	if len(all) != 2 {
		t.Errorf("zero cutoff kept %d records, want 2", len(all))
	}

	got := filterSince([]spaceweather.Record{day(1), day(2), day(3)}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if len(got) != 2 || got[0].Date.Day() != 2 || got[1].Date.Day() != 3 {
		t.Errorf("filtered = %v", got)
	}
}
