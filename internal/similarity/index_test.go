// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package similarity

import (
	"context"
	"reflect"
	"testing"

	"github.com/tomtom215/vitrine/internal/models"
)

func testItems() []models.Item {
	return []models.Item{
		{ID: "E000000001", Name: "Wireless Bluetooth Earphones", MainCategory: "Electronics", SubCategory: "Headphones"},
		{ID: "E000000002", Name: "Wired Earphones with Mic", MainCategory: "Electronics", SubCategory: "Headphones"},
		{ID: "E000000003", Name: "Bluetooth Speaker", MainCategory: "Electronics", SubCategory: "Speakers"},
		{ID: "H000000001", Name: "Oak Coffee Table", MainCategory: "Home", SubCategory: "Home Furnishing"},
		{ID: "H000000002", Name: "Walnut Coffee Table", MainCategory: "Home", SubCategory: "Home Furnishing"},
		{ID: "W000000001", Name: "Zqx", MainCategory: "", SubCategory: ""},
	}
}

func TestRebuild_NeighborProperties(t *testing.T) {
	idx := NewIndex(Config{TopK: 3, MaxFeatures: 5000, Workers: 2})
	snap, err := idx.Rebuild(context.Background(), testItems())
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if snap.Len() != 6 {
		t.Errorf("Len() = %d, want 6", snap.Len())
	}

	for _, it := range testItems() {
		edges, err := idx.Neighbors(it.ID, 0)
		if err != nil {
			t.Fatalf("Neighbors(%s) error = %v", it.ID, err)
		}
		if len(edges) > 3 {
			t.Errorf("Neighbors(%s) returned %d edges, want <= 3", it.ID, len(edges))
		}
		for i, e := range edges {
			if e.From != it.ID {
				t.Errorf("edge From = %s, want %s", e.From, it.ID)
			}
			if e.To == it.ID {
				t.Errorf("self edge on %s", it.ID)
			}
			if e.Score < 0 || e.Score > 1 {
				t.Errorf("score %v out of [0,1]", e.Score)
			}
			if i > 0 {
				prev := edges[i-1]
				if prev.Score < e.Score || (prev.Score == e.Score && prev.To > e.To) {
					t.Errorf("edges not ordered: %+v before %+v", prev, e)
				}
			}
		}
	}

	edges, _ := idx.Neighbors("H000000001", 1)
	if len(edges) != 1 || edges[0].To != "H000000002" {
		t.Errorf("top neighbor of oak table = %+v, want walnut table", edges)
	}
	if edges, _ := idx.Neighbors("W000000001", 0); len(edges) != 0 {
		t.Errorf("item without shared terms has neighbors %+v", edges)
	}
}

func TestNeighbors_Unknown(t *testing.T) {
	idx := NewIndex(DefaultConfig())
	if _, err := idx.Rebuild(context.Background(), testItems()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	_, err := idx.Neighbors("UNKNOWNID01", 5)
	if !models.IsNotFound(err) {
		t.Errorf("Neighbors(unknown) error = %v, want NotFoundError", err)
	}
}

func TestRebuild_Idempotent(t *testing.T) {
	idx := NewIndex(DefaultConfig())
	first, err := idx.Rebuild(context.Background(), testItems())
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	second, err := idx.Rebuild(context.Background(), testItems())
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !reflect.DeepEqual(first.neighbors, second.neighbors) {
		t.Error("rebuilding the same items produced different neighbors")
	}
	if second.Version() != first.Version()+1 {
		t.Errorf("version = %d, want %d", second.Version(), first.Version()+1)
	}
}

func TestRebuild_CancelledKeepsSnapshot(t *testing.T) {
	idx := NewIndex(DefaultConfig())
	live, err := idx.Rebuild(context.Background(), testItems())
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := idx.Rebuild(ctx, testItems()[:2]); err == nil {
		t.Fatal("Rebuild() with cancelled context should fail")
	}
	if idx.Snapshot() != live {
		t.Error("cancelled rebuild replaced the live snapshot")
	}
}

func TestBuild_MaxFeatures(t *testing.T) {
	snap, err := Build(context.Background(), Config{TopK: 5, MaxFeatures: 3}, testItems())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if snap.VocabularySize() != 3 {
		t.Errorf("VocabularySize() = %d, want 3", snap.VocabularySize())
	}
}

func TestSelectVocabulary_TieBreak(t *testing.T) {
	vocab := selectVocabulary(map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}, 3)
	want := map[string]int{"a": 0, "b": 1, "c": 2}
	if !reflect.DeepEqual(vocab, want) {
		t.Errorf("selectVocabulary() = %v, want %v", vocab, want)
	}
}
