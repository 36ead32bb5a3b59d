package usage

import (
	"context"
	"sync"
)

// MemoryRecorder keeps usage records in process memory. Suitable for tests
// and single-process deployments that scrape usage through Records.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

// Records returns a copy of everything recorded so far.
func (r *MemoryRecorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := make([]Record, len(r.records))
	copy(records, r.records)
	return records
}
