package vecstore

import (
	"cmp"
	"context"
	"maps"
	"math"
	"slices"
	"sync"
)

// Memory is an in-memory Index using brute-force cosine similarity. Scores
// are exact; a query scans every record matching the filter.
//
// It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ Index = (*Memory)(nil)

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]Record),
	}
}

// Upsert stores copies of records, replacing any with the same ID.
func (m *Memory) Upsert(_ context.Context, records []Record) error {
	if err := ValidateRecords(records, 0); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(records)
	return nil
}

// put stores copies of records. Callers hold m.mu.
func (m *Memory) put(records []Record) {
	for _, r := range records {
		m.records[r.ID] = Record{
			ID:       r.ID,
			Vector:   slices.Clone(r.Vector),
			Metadata: maps.Clone(r.Metadata),
		}
	}
}

// Query scores every record passing q.Filter. Ties are broken by ID so the
// order is stable across calls.
func (m *Memory) Query(_ context.Context, q Query) ([]Match, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.records))
	for id, r := range m.records {
		if !q.Filter.Matches(r.Metadata) {
			continue
		}
		matches = append(matches, Match{ID: id, Score: CosineSimilarity(q.Vector, r.Vector)})
	}

	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(matches) > q.TopK {
		matches = matches[:q.TopK]
	}
	if q.IncludeMetadata {
		for i := range matches {
			matches[i].Metadata = maps.Clone(m.records[matches[i].ID].Metadata)
		}
	}
	return matches, nil
}

// Delete removes records by ID.
func (m *Memory) Delete(_ context.Context, ids ...string) error {
	m.mu.Lock()
	for _, id := range ids {
		delete(m.records, id)
	}
	m.mu.Unlock()
	return nil
}

// Count returns the number of records.
func (m *Memory) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// Get returns a copy of the record with the given ID.
func (m *Memory) Get(id string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return Record{}, false
	}
	return Record{ID: r.ID, Vector: slices.Clone(r.Vector), Metadata: maps.Clone(r.Metadata)}, true
}

func (m *Memory) Close() error {
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. Vectors of different length or with zero norm score -1, the
// lowest possible value.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return -1
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return -1
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp floating point overshoot.
	return float32(max(-1, min(1, similarity)))
}
