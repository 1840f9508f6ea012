package repository

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/okian/rankr/internal/domain/dedupe"
	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/pkg/metrics"
)

// Record and SortKey are the domain types a ranking is built from.
type (
	Record  = model.Record
	SortKey = model.SortKey
)

// Snapshot is an immutable published ranking. Readers load it with a
// single atomic read and never lock. A Snapshot stays valid after a later
// Publish replaces it as current.
type Snapshot struct {
	info     Info
	entries  []Entry
	byName   map[string]int // normalized name -> index of its best row
	maxLimit int
	foldCase bool
}

// SnapshotStore implements Store by swapping immutable snapshots.
type SnapshotStore struct {
	current  atomic.Pointer[Snapshot]
	maxLimit int
	foldCase bool
	now      func() time.Time
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalize(name string, foldCase bool) string {
	name = strings.TrimSpace(name)
	if foldCase {
		name = strings.ToLower(name)
	}
	return name
}

// Publish builds a ranked snapshot from records, makes it current and
// returns it.
func (s *SnapshotStore) Publish(ctx context.Context, runID string, key SortKey, records []Record) (*Snapshot, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("publish cancelled: %w", err)
	}
	for i := 1; i < len(records); i++ {
		if key.Before(records[i], records[i-1]) {
			return nil, fmt.Errorf("%w: position %d", ErrUnordered, i+1)
		}
	}

	entries := make([]Entry, len(records))
	byName := make(map[string]int, len(records))
	for i := range records {
		r := &records[i]
		entries[i] = Entry{
			Position: i + 1,
			Name:     r.Name,
			Rating:   r.Rating,
			Votes:    r.Votes,
			Score:    r.Score,
			Value:    key.Key.Value(*r),
		}
		n := normalize(r.Name, s.foldCase)
		if _, ok := byName[n]; !ok {
			byName[n] = i
		}
	}
	assignRanksWithTies(entries)

	snap := &Snapshot{
		info: Info{
			RunID:       runID,
			Key:         key.String(),
			Count:       len(entries),
			PublishedAt: s.now(),
		},
		entries:  entries,
		byName:   byName,
		maxLimit: s.maxLimit,
		foldCase: s.foldCase,
	}
	s.current.Store(snap)
	metrics.RecordSnapshotPublished(len(entries), metrics.Milliseconds(time.Since(start)))
	return snap, nil
}

// TopN returns up to n rows from the current ranking.
func (s *SnapshotStore) TopN(ctx context.Context, n int, unique bool) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(metrics.Milliseconds(time.Since(start)))
	}()

	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrEmpty
	}
	return snap.TopN(ctx, n, unique)
}

// Rank returns the best row for name.
func (s *SnapshotStore) Rank(ctx context.Context, name string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(metrics.Milliseconds(time.Since(start)))
	}()

	snap := s.current.Load()
	if snap == nil {
		return Entry{}, ErrEmpty
	}
	return snap.Rank(ctx, name)
}

// Count returns the number of rows in the current ranking.
func (s *SnapshotStore) Count(context.Context) int {
	snap := s.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entries)
}

// Latest describes the current ranking.
func (s *SnapshotStore) Latest(context.Context) (Info, error) {
	snap := s.current.Load()
	if snap == nil {
		return Info{}, ErrEmpty
	}
	return snap.info, nil
}

// Info describes the snapshot.
func (p *Snapshot) Info() Info { return p.info }

// TopN returns up to n rows of this snapshot. With unique set, rows whose
// name was already listed are skipped.
func (p *Snapshot) TopN(ctx context.Context, n int, unique bool) ([]Entry, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	if p.maxLimit > 0 && n > p.maxLimit {
		n = p.maxLimit
	}

	if !unique {
		n = min(n, len(p.entries))
		out := make([]Entry, n)
		copy(out, p.entries[:n])
		return out, nil
	}

	opts := []dedupe.Option{dedupe.WithTrimSpace()}
	if p.foldCase {
		opts = append(opts, dedupe.WithCaseInsensitive())
	}
	seen := dedupe.NewInMemoryDeduper(opts...)
	out := make([]Entry, 0, min(n, len(p.entries)))
	for i := range p.entries {
		if len(out) == n {
			break
		}
		if seen.SeenAndRecord(ctx, p.entries[i].Name) {
			metrics.RecordDuplicateName()
			continue
		}
		out = append(out, p.entries[i])
	}
	return out, nil
}

// Rank returns this snapshot's best row for name.
func (p *Snapshot) Rank(_ context.Context, name string) (Entry, error) {
	idx, ok := p.byName[normalize(name, p.foldCase)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p.entries[idx], nil
}

// assignRanksWithTies gives equal values the same rank and advances the
// rank by one per distinct value.
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Value != entries[i-1].Value {
			rank++
		}
		entries[i].Rank = rank
	}
}
