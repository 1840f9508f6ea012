// Package repository holds the most recently published ranking.
package repository

import (
	"context"
	"time"
)

// Entry represents a leaderboard row.
type Entry struct {
	// Rank is shared by rows with equal sort values; ranks are consecutive.
	Rank int
	// Position is the 1-based row number in the published order.
	Position int
	Name     string
	Rating   float64
	Votes    int
	Score    float64
	// Value is the sort key value the ranking was ordered by.
	Value float64
}

// Info describes a published ranking.
type Info struct {
	RunID       string
	Key         string
	Count       int
	PublishedAt time.Time
}

// Store provides read/write access to the ranking state.
type Store interface {
	// Publish replaces the current ranking and returns the new snapshot.
	// records must already be ordered by key.
	Publish(ctx context.Context, runID string, key SortKey, records []Record) (*Snapshot, error)

	// TopN returns the first n rows. With unique set, rows whose name was
	// already listed are skipped. Returns ErrInvalidLimit for n < 1.
	TopN(ctx context.Context, n int, unique bool) ([]Entry, error)

	// Rank returns the best row for name or ErrNotFound.
	Rank(ctx context.Context, name string) (Entry, error)

	// Count returns the number of rows in the current ranking.
	Count(ctx context.Context) int

	// Latest describes the current ranking or returns ErrEmpty.
	Latest(ctx context.Context) (Info, error)
}
