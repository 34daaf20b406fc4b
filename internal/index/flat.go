package index

import (
	"sort"
	"sync"

	"github.com/incidentops/triage-engine/internal/models"
	"github.com/incidentops/triage-engine/internal/utils"
)

// FlatIndex is an exact nearest-neighbour store over fixed-dimension
// incident embeddings. Append-only: no update or delete path exists.
// Reads run concurrently; writes serialise and append atomically, so a
// query racing an insert sees either the pre- or post-insert state but
// never a partial entry.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	metadata  []entryMeta
}

type entryMeta struct {
	IncidentID string                   `json:"incident_id"`
	Meta       models.EmbeddingMetadata `json:"metadata"`
}

// NewFlatIndex creates an empty index with a fixed dimension.
func NewFlatIndex(dimension int) *FlatIndex {
	return &FlatIndex{dimension: dimension}
}

// Dimension returns the fixed embedding dimension.
func (x *FlatIndex) Dimension() int {
	return x.dimension
}

// Len returns the number of stored embeddings.
func (x *FlatIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Insert appends an embedding. The vector must match the index
// dimension or the insert fails with a DimensionMismatchError.
func (x *FlatIndex) Insert(emb models.IncidentEmbedding) error {
	if len(emb.Vector) != x.dimension {
		return &utils.DimensionMismatchError{Want: x.dimension, Got: len(emb.Vector)}
	}

	vec := append([]float64(nil), emb.Vector...)

	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = append(x.vectors, vec)
	x.metadata = append(x.metadata, entryMeta{IncidentID: emb.IncidentID, Meta: emb.Metadata})
	return nil
}

// Query returns up to topK nearest neighbours by squared Euclidean
// distance, ascending, with ties broken by insertion order. topK <= 0
// and an empty index both yield an empty result.
func (x *FlatIndex) Query(vector []float64, topK int) ([]models.SimilarIncidentMatch, error) {
	if len(vector) != x.dimension {
		return nil, &utils.DimensionMismatchError{Want: x.dimension, Got: len(vector)}
	}
	if topK <= 0 {
		return []models.SimilarIncidentMatch{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.vectors) == 0 {
		return []models.SimilarIncidentMatch{}, nil
	}

	type scored struct {
		pos      int
		distance float64
	}
	candidates := make([]scored, len(x.vectors))
	for i, stored := range x.vectors {
		candidates[i] = scored{pos: i, distance: squaredL2(vector, stored)}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].distance < candidates[b].distance
	})

	if topK > len(candidates) {
		topK = len(candidates)
	}

	matches := make([]models.SimilarIncidentMatch, 0, topK)
	for _, c := range candidates[:topK] {
		meta := x.metadata[c.pos]
		matches = append(matches, models.SimilarIncidentMatch{
			IncidentID: meta.IncidentID,
			RootCause:  meta.Meta.RootCause,
			Distance:   c.distance,
		})
	}
	return matches, nil
}

func squaredL2(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
