// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/vitrine/internal/config"
	"github.com/tomtom215/vitrine/internal/models"
)

func setupTestSource(t *testing.T) *DuckDBSource {
	t.Helper()

	src, err := OpenDuckDB(config.CatalogConfig{
		Path:      ":memory:",
		MaxMemory: "256MB",
		Threads:   1,
	})
	if err != nil {
		t.Fatalf("Failed to open catalog database: %v", err)
	}
	t.Cleanup(func() { src.Close() })
	return src
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

const productsCSV = `id,name,main_category,sub_category,image,link,ratings,no_of_ratings,discount_price,actual_price
B07ABCDE12,Wireless Earphones,Electronics,Headphones,http://img/1,http://p/1,4.2,"1,024","₹1,299","₹2,598"
B07ABCDE13,Oak Coffee Table,Home,Home Furnishing,,,4.6,88,,
not-an-id,Broken Row,Home,Home Furnishing,,,1.0,1,,
B07ABCDE12,Duplicate Earphones,Electronics,Headphones,,,1.0,1,,
`

func TestImportCSV(t *testing.T) {
	src := setupTestSource(t)
	ctx := context.Background()

	stats, err := src.ImportCSV(ctx, writeCSV(t, productsCSV))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("Total = %d, want 4", stats.Total)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
	if stats.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", stats.Inserted)
	}

	items, err := src.LoadItems(ctx)
	if err != nil {
		t.Fatalf("LoadItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	ear := items[0]
	if ear.ID != "B07ABCDE12" || ear.RatingCount != 1024 {
		t.Errorf("first item = %+v", ear)
	}
	if ear.Price != 1299 || ear.OriginalPrice != 2598 {
		t.Errorf("prices = %v/%v, want 1299/2598", ear.Price, ear.OriginalPrice)
	}
	if ear.DiscountRatio < 0.499 || ear.DiscountRatio > 0.501 {
		t.Errorf("DiscountRatio = %v, want 0.5", ear.DiscountRatio)
	}
	if items[1].Price != 0 || items[1].DiscountRatio != 0 {
		t.Errorf("unpriced item = %+v", items[1])
	}
}

func TestImportCSV_Reimport(t *testing.T) {
	src := setupTestSource(t)
	ctx := context.Background()
	path := writeCSV(t, productsCSV)

	if _, err := src.ImportCSV(ctx, path); err != nil {
		t.Fatalf("first ImportCSV() error = %v", err)
	}
	stats, err := src.ImportCSV(ctx, path)
	if err != nil {
		t.Fatalf("second ImportCSV() error = %v", err)
	}
	if stats.Inserted != 0 || stats.Ignored != 3 {
		t.Errorf("second import stats = %+v, want 0 inserted 3 ignored", stats)
	}
	if n, _ := src.Count(ctx); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestImportCSV_MissingColumns(t *testing.T) {
	src := setupTestSource(t)
	ctx := context.Background()

	if _, err := src.ImportCSV(ctx, writeCSV(t, "sku,title\nB07ABCDE12,x\n")); err == nil {
		t.Error("ImportCSV() should reject a header without id and name")
	}

	stats, err := src.ImportCSV(ctx, writeCSV(t, "id,name\nB07ABCDE99,Bare Item\n"))
	if err != nil {
		t.Fatalf("ImportCSV() minimal header error = %v", err)
	}
	if stats.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", stats.Inserted)
	}
}

func TestEnsureImported_MissingFile(t *testing.T) {
	src, err := OpenDuckDB(config.CatalogConfig{
		Path:      ":memory:",
		ImportCSV: filepath.Join(t.TempDir(), "absent.csv"),
	})
	if err != nil {
		t.Fatalf("OpenDuckDB() error = %v", err)
	}
	defer src.Close()

	if _, err := src.EnsureImported(context.Background()); err != nil {
		t.Errorf("EnsureImported() error = %v, want nil for absent file", err)
	}
}

func TestUpsertAndRefresh(t *testing.T) {
	src := setupTestSource(t)
	ctx := context.Background()

	err := src.Upsert(ctx, []models.Item{
		{ID: "B000000001", Name: "Lamp", SubCategory: "Home Furnishing", Rating: 4, Price: 30, OriginalPrice: 40},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := src.Upsert(ctx, []models.Item{{ID: "bad", Name: "x"}}); !models.IsValidation(err) {
		t.Errorf("Upsert(bad id) error = %v, want ValidationError", err)
	}

	h := NewHolder(nil)
	c, err := h.Refresh(ctx, src)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	it, ok := c.Get("B000000001")
	if !ok {
		t.Fatal("upserted item missing from snapshot")
	}
	if it.DiscountRatio != 0.25 {
		t.Errorf("DiscountRatio = %v, want 0.25", it.DiscountRatio)
	}
}
