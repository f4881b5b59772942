package cron

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/lockerlend-backend/pkg/db/models"
)

func sortedRentals(n int) []models.Rental {
	rows := make([]models.Rental, n)
	for i := range rows {
		rows[i].ID = uuid.New()
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID.String() < rows[j].ID.String() })
	return rows
}

func sliceFetcher(rows []models.Rental, limits *[]int) pageFetcher {
	return func(_ context.Context, afterID uuid.UUID, limit int) ([]models.Rental, error) {
		*limits = append(*limits, limit)
		start := 0
		if afterID != uuid.Nil {
			start = sort.Search(len(rows), func(i int) bool { return rows[i].ID.String() > afterID.String() })
		}
		end := min(start+limit, len(rows))
		return rows[start:end], nil
	}
}

func TestSweepRentalsCapFlag(t *testing.T) {
	tests := []struct {
		name        string
		rows        int
		batch, max  int
		wantVisited int
		wantCapped  bool
	}{
		{"exactly max rows", 4, 2, 4, 4, false},
		{"more than max", 5, 2, 4, 4, true},
		{"fewer than max", 3, 2, 4, 3, false},
		{"max below batch", 3, 10, 2, 2, true},
		{"max below batch exact", 2, 10, 2, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var limits []int
			visited := 0
			res, err := sweepRentals(context.Background(), tt.batch, tt.max, sliceFetcher(sortedRentals(tt.rows), &limits), func(models.Rental) error {
				visited++
				return nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Visited != tt.wantVisited || visited != tt.wantVisited {
				t.Fatalf("expected %d visited, got res=%d calls=%d", tt.wantVisited, res.Visited, visited)
			}
			if res.Capped != tt.wantCapped {
				t.Fatalf("expected capped=%v, got %v (limits %v)", tt.wantCapped, res.Capped, limits)
			}
		})
	}
}

func TestSweepRentalsCollectsVisitErrors(t *testing.T) {
	var limits []int
	rows := sortedRentals(3)
	boom := errors.New("boom")
	res, err := sweepRentals(context.Background(), 2, 10, sliceFetcher(rows, &limits), func(r models.Rental) error {
		if r.ID == rows[1].ID {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected visit error, got %v", err)
	}
	if res.Visited != 3 {
		t.Fatalf("sweep should continue past a failed row, visited %d", res.Visited)
	}
}
