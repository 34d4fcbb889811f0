// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/vitrine/internal/config"
	"github.com/tomtom215/vitrine/internal/logging"
	"github.com/tomtom215/vitrine/internal/metrics"
	"github.com/tomtom215/vitrine/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS products (
	id             VARCHAR PRIMARY KEY,
	name           VARCHAR NOT NULL,
	main_category  VARCHAR NOT NULL DEFAULT '',
	sub_category   VARCHAR NOT NULL DEFAULT '',
	image          VARCHAR,
	link           VARCHAR,
	ratings        DOUBLE,
	no_of_ratings  BIGINT,
	discount_price DOUBLE,
	actual_price   DOUBLE,
	discount_ratio DOUBLE
)`

// csvColumns lists the optional CSV columns, how each is cleaned and the
// value used when the column is absent. Prices and counts in exports carry
// currency symbols and separators.
var csvColumns = []struct {
	name    string
	clean   func(col string) string
	missing string
}{
	{"main_category", cleanText, "''"},
	{"sub_category", cleanText, "''"},
	{"image", cleanText, "NULL"},
	{"link", cleanText, "NULL"},
	{"ratings", cleanNumber, "NULL"},
	{"no_of_ratings", cleanCount, "NULL"},
	{"discount_price", cleanNumber, "NULL"},
	{"actual_price", cleanNumber, "NULL"},
	{"discount_ratio", cleanNumber, "NULL"},
}

func cleanText(col string) string {
	return fmt.Sprintf("COALESCE(TRIM(%s), '')", col)
}

func cleanNumber(col string) string {
	return fmt.Sprintf("TRY_CAST(NULLIF(regexp_replace(%s, '[^0-9.]', '', 'g'), '') AS DOUBLE)", col)
}

func cleanCount(col string) string {
	return "CAST(" + cleanNumber(col) + " AS BIGINT)"
}

// ImportStats summarizes one CSV import.
type ImportStats struct {
	Total    int64 // rows read from the file
	Skipped  int64 // rows with an invalid product ID or empty name
	Inserted int64 // rows written to the products table
	Ignored  int64 // valid rows whose ID already existed
}

// DuckDBSource stores the catalog in a DuckDB products table.
type DuckDBSource struct {
	conn *sql.DB
	cfg  config.CatalogConfig
}

// OpenDuckDB opens (or creates) the catalog database and ensures the schema.
func OpenDuckDB(cfg config.CatalogConfig) (*DuckDBSource, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	path := cfg.Path
	if path != "" && path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create catalog directory %s: %w", dir, err)
			}
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}
	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	s := &DuckDBSource{conn: conn, cfg: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		conn.Close() //nolint:errcheck // best-effort cleanup on error path
		return nil, fmt.Errorf("failed to create products table: %w", err)
	}

	return s, nil
}

// Conn returns the underlying connection pool.
func (s *DuckDBSource) Conn() *sql.DB { return s.conn }

// Ping checks that the database is reachable.
func (s *DuckDBSource) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close checkpoints the WAL and closes the database.
func (s *DuckDBSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint catalog before close")
	}
	return s.conn.Close()
}

// Count returns the number of stored products.
func (s *DuckDBSource) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// ImportCSV loads a product export into the products table. The file needs
// a header row with at least id and name; the other product columns are
// optional.
func (s *DuckDBSource) ImportCSV(ctx context.Context, path string) (stats ImportStats, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("import_csv", "products", time.Since(start), err) }()

	if _, err := os.Stat(path); err != nil {
		return stats, fmt.Errorf("catalog csv: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck // rollback after failure
		}
	}()

	stage := fmt.Sprintf(
		"CREATE TEMP TABLE products_staging AS SELECT row_number() OVER () AS csv_row, * FROM read_csv(%s, header = true, all_varchar = true)",
		quoteLiteral(path))
	if _, err = tx.ExecContext(ctx, stage); err != nil {
		return stats, fmt.Errorf("read csv: %w", err)
	}

	present, err := stagingColumns(ctx, tx)
	if err != nil {
		return stats, err
	}
	if !present["id"] || !present["name"] {
		err = fmt.Errorf("catalog csv %s: header must contain id and name", path)
		return stats, err
	}

	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM products_staging").Scan(&stats.Total); err != nil {
		return stats, fmt.Errorf("count staged rows: %w", err)
	}

	const validRow = `regexp_full_match(COALESCE(TRIM(id), ''), '^[A-Z0-9]{10}$') AND COALESCE(TRIM(name), '') <> ''`

	var valid int64
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM products_staging WHERE "+validRow).Scan(&valid); err != nil {
		return stats, fmt.Errorf("count valid rows: %w", err)
	}
	stats.Skipped = stats.Total - valid

	targets := []string{"id", "name"}
	exprs := []string{"TRIM(id)", "TRIM(name)"}
	for _, col := range csvColumns {
		targets = append(targets, col.name)
		if present[col.name] {
			exprs = append(exprs, col.clean(col.name))
		} else {
			exprs = append(exprs, col.missing)
		}
	}

	insert := fmt.Sprintf(`INSERT INTO products (%s)
SELECT DISTINCT ON (TRIM(id)) %s FROM products_staging WHERE %s
ORDER BY TRIM(id), csv_row
ON CONFLICT DO NOTHING`,
		strings.Join(targets, ", "), strings.Join(exprs, ", "), validRow)
	res, err := tx.ExecContext(ctx, insert)
	if err != nil {
		return stats, fmt.Errorf("insert products: %w", err)
	}
	if stats.Inserted, err = res.RowsAffected(); err != nil {
		return stats, fmt.Errorf("rows affected: %w", err)
	}
	stats.Ignored = valid - stats.Inserted

	const derive = `UPDATE products SET discount_ratio = (actual_price - discount_price) / actual_price
WHERE discount_ratio IS NULL AND discount_price > 0 AND actual_price > 0`
	if _, err = tx.ExecContext(ctx, derive); err != nil {
		return stats, fmt.Errorf("derive discount ratio: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DROP TABLE products_staging"); err != nil {
		return stats, fmt.Errorf("drop staging table: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit import: %w", err)
	}

	logging.Info().
		Str("path", path).
		Int64("total", stats.Total).
		Int64("inserted", stats.Inserted).
		Int64("skipped", stats.Skipped).
		Int64("ignored", stats.Ignored).
		Msg("Catalog CSV imported")
	return stats, nil
}

func stagingColumns(ctx context.Context, tx *sql.Tx) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT name FROM pragma_table_info('products_staging')")
	if err != nil {
		return nil, fmt.Errorf("inspect csv header: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		cols[strings.ToLower(strings.TrimSpace(name))] = true
	}
	return cols, rows.Err()
}

// Upsert writes items directly, replacing existing rows with the same ID.
func (s *DuckDBSource) Upsert(ctx context.Context, items []models.Item) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "products", time.Since(start), err) }()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck // rollback after failure
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO products
(id, name, main_category, sub_category, image, link, ratings, no_of_ratings, discount_price, actual_price, discount_ratio)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range items {
		it := &items[i]
		if !models.ItemIDPattern.MatchString(it.ID) {
			err = models.NewValidationError("id", fmt.Sprintf("invalid product id %q", it.ID))
			return err
		}
		ratio := it.DiscountRatio
		if ratio == 0 {
			ratio = models.DeriveDiscountRatio(it.Price, it.OriginalPrice)
		}
		if _, err = stmt.ExecContext(ctx, it.ID, it.Name, it.MainCategory, it.SubCategory, it.Image, it.Link,
			it.Rating, int64(it.RatingCount), it.Price, it.OriginalPrice, ratio); err != nil {
			return fmt.Errorf("upsert %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

// LoadItems reads every product.
func (s *DuckDBSource) LoadItems(ctx context.Context) (items []models.Item, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("load", "products", time.Since(start), err) }()

	rows, err := s.conn.QueryContext(ctx, `SELECT id, name, main_category, sub_category,
	COALESCE(image, ''), COALESCE(link, ''), ratings, no_of_ratings,
	discount_price, actual_price, discount_ratio
FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it                         models.Item
			rating, price, orig, ratio sql.NullFloat64
			ratingCount                sql.NullInt64
		)
		if err = rows.Scan(&it.ID, &it.Name, &it.MainCategory, &it.SubCategory, &it.Image, &it.Link,
			&rating, &ratingCount, &price, &orig, &ratio); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		it.Rating = rating.Float64
		it.RatingCount = int(ratingCount.Int64)
		it.Price = price.Float64
		it.OriginalPrice = orig.Float64
		it.DiscountRatio = ratio.Float64
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return items, nil
}

// EnsureImported imports the configured CSV when the products table is
// empty. An absent ImportCSV is not an error.
func (s *DuckDBSource) EnsureImported(ctx context.Context) (ImportStats, error) {
	if s.cfg.ImportCSV == "" {
		return ImportStats{}, nil
	}
	n, err := s.Count(ctx)
	if err != nil {
		return ImportStats{}, err
	}
	if n > 0 {
		logging.Debug().Int64("products", n).Msg("Catalog already populated, skipping CSV import")
		return ImportStats{}, nil
	}
	stats, err := s.ImportCSV(ctx, s.cfg.ImportCSV)
	if errors.Is(err, os.ErrNotExist) {
		logging.Warn().Str("path", s.cfg.ImportCSV).Msg("Catalog CSV not found, starting with empty catalog")
		return stats, nil
	}
	return stats, err
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
