// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package similarity

import (
	"cmp"
	"context"
	"math"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/vitrine/internal/models"
)

// Edge is a directed neighbor relation with a cosine score in [0, 1].
type Edge struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Score float64 `json:"score"`
}

// Config controls index construction.
type Config struct {
	// TopK is the number of neighbors kept per item.
	TopK int

	// MaxFeatures caps the vocabulary size.
	MaxFeatures int

	// Workers bounds the neighbor computation fan-out. Zero uses GOMAXPROCS.
	Workers int
}

// DefaultConfig returns the default index configuration.
func DefaultConfig() Config {
	return Config{TopK: 20, MaxFeatures: 5000}
}

// Snapshot is an immutable neighbor table.
type Snapshot struct {
	version   uint64
	builtAt   time.Time
	vocabSize int
	neighbors map[string][]Edge
}

// Version returns the rebuild counter that produced the snapshot.
func (s *Snapshot) Version() uint64 { return s.version }

// BuiltAt returns when the snapshot was built.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Len returns the number of indexed items.
func (s *Snapshot) Len() int { return len(s.neighbors) }

// VocabularySize returns the number of features used.
func (s *Snapshot) VocabularySize() int { return s.vocabSize }

// Neighbors returns up to limit neighbors of itemID; limit <= 0 returns all
// kept neighbors.
func (s *Snapshot) Neighbors(itemID string, limit int) ([]Edge, error) {
	edges, ok := s.neighbors[itemID]
	if !ok {
		return nil, models.NewNotFoundError("item", itemID)
	}
	if limit > 0 && limit < len(edges) {
		edges = edges[:limit]
	}
	return edges, nil
}

// Index serves the current Snapshot and rebuilds it from catalog items.
type Index struct {
	cfg     Config
	current atomic.Pointer[Snapshot]
}

// NewIndex creates an index with an empty snapshot.
func NewIndex(cfg Config) *Index {
	if cfg.TopK <= 0 {
		cfg.TopK = 20
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = 5000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	idx := &Index{cfg: cfg}
	idx.current.Store(&Snapshot{neighbors: map[string][]Edge{}})
	return idx
}

// Snapshot returns the current snapshot.
func (idx *Index) Snapshot() *Snapshot { return idx.current.Load() }

// Neighbors returns the top neighbors of itemID from the current snapshot.
// Unknown items yield a NotFoundError.
func (idx *Index) Neighbors(itemID string, limit int) ([]Edge, error) {
	return idx.current.Load().Neighbors(itemID, limit)
}

// Rebuild computes a new snapshot from items and installs it. The same
// items always produce the same snapshot contents.
func (idx *Index) Rebuild(ctx context.Context, items []models.Item) (*Snapshot, error) {
	next, err := Build(ctx, idx.cfg, items)
	if err != nil {
		return nil, err
	}
	next.version = idx.current.Load().version + 1
	idx.current.Store(next)
	return next, nil
}

// entry is one non-zero component of a sparse vector.
type entry struct {
	term   int
	weight float64
}

// posting is one item's weight for a term.
type posting struct {
	item   int
	weight float64
}

// Build computes a snapshot without installing it.
func Build(ctx context.Context, cfg Config, items []models.Item) (*Snapshot, error) {
	if cfg.TopK <= 0 {
		cfg.TopK = 20
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = 5000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	docs := make([][]string, len(items))
	corpusFreq := make(map[string]int)
	for i := range items {
		docs[i] = Terms(items[i].Name + " " + items[i].CategoryPath())
		for _, t := range docs[i] {
			corpusFreq[t]++
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vocab := selectVocabulary(corpusFreq, cfg.MaxFeatures)
	vectors := vectorize(docs, vocab)

	postings := make([][]posting, len(vocab))
	for i, vec := range vectors {
		for _, e := range vec {
			postings[e.term] = append(postings[e.term], posting{item: i, weight: e.weight})
		}
	}

	neighbors := make([][]Edge, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			neighbors[i] = topNeighbors(i, items, vectors, postings, cfg.TopK)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		builtAt:   time.Now(),
		vocabSize: len(vocab),
		neighbors: make(map[string][]Edge, len(items)),
	}
	for i := range items {
		if _, dup := snap.neighbors[items[i].ID]; dup {
			continue
		}
		snap.neighbors[items[i].ID] = neighbors[i]
	}
	return snap, nil
}

// selectVocabulary keeps the max most frequent terms, ties by term.
func selectVocabulary(freq map[string]int, limit int) map[string]int {
	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	slices.SortFunc(terms, func(a, b string) int {
		if freq[a] != freq[b] {
			return cmp.Compare(freq[b], freq[a])
		}
		return cmp.Compare(a, b)
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	slices.Sort(terms)

	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	return vocab
}

// vectorize turns documents into L2-normalized TF-IDF vectors.
func vectorize(docs [][]string, vocab map[string]int) [][]entry {
	n := float64(len(docs))
	df := make([]int, len(vocab))
	counts := make([]map[int]int, len(docs))
	for i, doc := range docs {
		counts[i] = make(map[int]int)
		for _, t := range doc {
			if id, ok := vocab[t]; ok {
				if counts[i][id] == 0 {
					df[id]++
				}
				counts[i][id]++
			}
		}
	}

	idf := make([]float64, len(vocab))
	for t := range idf {
		idf[t] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	vectors := make([][]entry, len(docs))
	for i, c := range counts {
		vec := make([]entry, 0, len(c))
		for t, tf := range c {
			vec = append(vec, entry{term: t, weight: float64(tf) * idf[t]})
		}
		slices.SortFunc(vec, func(a, b entry) int { return cmp.Compare(a.term, b.term) })

		var norm float64
		for _, e := range vec {
			norm += e.weight * e.weight
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vec {
				vec[j].weight /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors
}

// topNeighbors scores item i against every item sharing a term with it.
func topNeighbors(i int, items []models.Item, vectors [][]entry, postings [][]posting, k int) []Edge {
	scores := make(map[int]float64)
	for _, e := range vectors[i] {
		for _, p := range postings[e.term] {
			if p.item == i {
				continue
			}
			scores[p.item] += e.weight * p.weight
		}
	}

	from := items[i].ID
	edges := make([]Edge, 0, len(scores))
	for j, s := range scores {
		to := items[j].ID
		if to == from || s <= 0 {
			continue
		}
		edges = append(edges, Edge{From: from, To: to, Score: min(s, 1)})
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.To, b.To)
	})
	if len(edges) > k {
		edges = edges[:k]
	}
	return edges
}
