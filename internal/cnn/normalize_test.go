package cnn

import (
	"testing"
	"time"
)

func floatPtr(f float64) *float64 { return &f }

func TestNormalizeItem(t *testing.T) {
	fetchedAt := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		item     indexItem
		wantDate string
		wantErr  bool
	}{
		{
			name:     "full timestamp",
			item:     indexItem{Score: floatPtr(42), Rating: "fear", Timestamp: "2026-08-30T16:00:00Z"},
			wantDate: "2026-08-30",
		},
		{
			name:     "timestamp with offset",
			item:     indexItem{Score: floatPtr(42), Timestamp: "2026-08-30T23:30:00-02:00"},
			wantDate: "2026-08-31",
		},
		{
			name:     "bare date only",
			item:     indexItem{Score: floatPtr(8.5), Rating: "extreme fear", Date: "2026-08-29"},
			wantDate: "2026-08-29",
		},
		{
			name:     "neither field falls back to fetch time",
			item:     indexItem{Score: floatPtr(55)},
			wantDate: "2026-08-31",
		},
		{
			name:    "missing score",
			item:    indexItem{Timestamp: "2026-08-30T16:00:00Z"},
			wantErr: true,
		},
		{
			name:    "malformed timestamp",
			item:    indexItem{Score: floatPtr(42), Timestamp: "yesterday"},
			wantErr: true,
		},
		{
			name:    "malformed date",
			item:    indexItem{Score: floatPtr(42), Date: "29-08-2026"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := normalizeItem("fear_and_greed", tt.item, fetchedAt)
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeItem error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if r.Date != tt.wantDate {
				t.Errorf("date: got %q, want %q", r.Date, tt.wantDate)
			}
			if r.Score != *tt.item.Score {
				t.Errorf("score: got %v, want %v", r.Score, *tt.item.Score)
			}
			if r.Source != "CNN" {
				t.Errorf("source: got %q, want CNN", r.Source)
			}
			if err := r.Validate(); err != nil {
				t.Errorf("normalized reading should validate: %v", err)
			}
		})
	}
}
