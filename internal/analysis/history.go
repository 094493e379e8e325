package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// History is the session history store: per-user, in-memory, append-only,
// newest first. Records are immutable once visible and live for the
// process lifetime; there is no update or delete.
//
// History is safe for concurrent use.
type History struct {
	mu     sync.RWMutex
	byUser map[string][]Record
}

// NewHistory constructs an empty History.
func NewHistory() *History {
	return &History{byUser: make(map[string][]Record)}
}

// Append completes the partial record with a fresh id and timestamp and
// inserts it at the head of the user's sequence. The insert happens as a
// whole under the store lock, so concurrent appends never interleave and
// timestamps are non-decreasing in insertion order.
func (h *History) Append(ctx context.Context, userID string, input RecordInput, result Result) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if userID == "" {
		return Record{}, fmt.Errorf("userID is required")
	}
	switch result.Kind {
	case KindBreed:
		if result.Breed == nil {
			return Record{}, fmt.Errorf("breed result missing data")
		}
	case KindBehavior:
		if result.Behavior == nil {
			return Record{}, fmt.Errorf("behavior result missing data")
		}
	default:
		return Record{}, fmt.Errorf("unknown result kind %q", result.Kind)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	record := Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Input:     input,
		Result:    result,
	}
	h.byUser[userID] = append([]Record{record}, h.byUser[userID]...)
	return record, nil
}

// List returns a newest-first snapshot of the user's records.
func (h *History) List(ctx context.Context, userID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	records := h.byUser[userID]
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

// LatestBreed returns the newest breed-and-age result for the user, if any.
func (h *History) LatestBreed(ctx context.Context, userID string) (BreedAndAgeResult, bool) {
	if ctx.Err() != nil {
		return BreedAndAgeResult{}, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, record := range h.byUser[userID] {
		if record.Result.Kind == KindBreed {
			return *record.Result.Breed, true
		}
	}
	return BreedAndAgeResult{}, false
}

// LatestBehavior returns the newest behavior result for the user, if any.
func (h *History) LatestBehavior(ctx context.Context, userID string) (BehaviorResult, bool) {
	if ctx.Err() != nil {
		return BehaviorResult{}, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, record := range h.byUser[userID] {
		if record.Result.Kind == KindBehavior {
			return *record.Result.Behavior, true
		}
	}
	return BehaviorResult{}, false
}
