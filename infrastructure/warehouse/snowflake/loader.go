// Package snowflake loads derived output sets into the warehouse. Each table
// is replaced wholesale inside one transaction: a DELETE of the previous
// snapshot followed by batched INSERTs, so readers never observe a partial
// load and a rerun against identical input leaves the table byte-identical.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"reviewpipe/domain/analytics"
	"reviewpipe/domain/catalog"
	"reviewpipe/domain/reviews"
)

// insertBatchSize caps rows per INSERT statement. Snowflake handles large
// multi-row inserts fine; the cap bounds statement size and placeholder count.
const insertBatchSize = 500

// Loader implements the warehouse port on a Snowflake connection.
type Loader struct {
	db     *sql.DB
	schema string
	logger *zap.Logger
}

// Open connects to Snowflake with the given DSN and returns a loader writing
// into the given schema.
func Open(dsn, schema string, logger *zap.Logger) (*Loader, error) {
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	return NewLoader(db, schema, logger), nil
}

// NewLoader creates a loader over an existing connection pool.
func NewLoader(db *sql.DB, schema string, logger *zap.Logger) *Loader {
	return &Loader{db: db, schema: schema, logger: logger}
}

// Close releases the underlying connection pool.
func (l *Loader) Close() error {
	return l.db.Close()
}

func (l *Loader) table(name string) string {
	if l.schema == "" {
		return name
	}
	return l.schema + "." + name
}

func (l *Loader) ReplaceReviews(ctx context.Context, rows []reviews.NormalizedReview) error {
	columns := []string{
		"review_key", "product_id", "rating", "verified", "review_date",
		"review_year", "body", "summary", "reviewer_id", "reviewer_name", "unix_time",
	}
	return l.replace(ctx, l.table("reviews"), columns, len(rows), func(i int) []any {
		r := rows[i]
		return []any{
			r.ReviewKey, r.ProductID, r.Rating, nullBool(r.Verified),
			r.ReviewDate.Format(reviews.DateLayout), r.ReviewYear,
			nullString(r.Body), nullString(r.Summary),
			nullString(r.ReviewerID), nullString(r.ReviewerName),
			nullInt(r.UnixTime),
		}
	})
}

func (l *Loader) ReplaceMetadata(ctx context.Context, rows []catalog.NormalizedMetadata) error {
	columns := []string{
		"meta_key", "product_id", "title", "brand", "features",
		"value", "image_url", "rank", "meta_date",
	}
	return l.replace(ctx, l.table("metadata"), columns, len(rows), func(i int) []any {
		m := rows[i]
		return []any{
			m.MetaKey, m.ProductID, nullString(m.Title), nullString(m.Brand),
			nullString(m.Features), nullString(m.Value), nullString(m.ImageURL),
			nullInt(m.Rank), nullDate(m.MetaDate),
		}
	})
}

func (l *Loader) ReplaceRatingSummary(ctx context.Context, rows []analytics.RatingSummary) error {
	columns := []string{"review_year", "brand", "avg_rating", "review_count"}
	return l.replace(ctx, l.table("brand_year_ratings"), columns, len(rows), func(i int) []any {
		s := rows[i]
		return []any{s.Year, s.Brand, s.Rating, s.ReviewCount}
	})
}

// replace swaps a table's contents for the given row set in one transaction.
func (l *Loader) replace(ctx context.Context, table string, columns []string, count int, values func(int) []any) error {
	start := time.Now()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	for offset := 0; offset < count; offset += insertBatchSize {
		end := offset + insertBatchSize
		if end > count {
			end = count
		}
		stmt, args := buildInsert(table, columns, end-offset, offset, values)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}

	l.logger.Info("Warehouse table replaced",
		zap.String("table", table),
		zap.Int("rows", count),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func buildInsert(table string, columns []string, batch, offset int, values func(int) []any) (string, []any) {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	tuples := make([]string, batch)
	args := make([]any, 0, batch*len(columns))
	for i := 0; i < batch; i++ {
		tuples[i] = placeholder
		args = append(args, values(offset+i)...)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ", "), strings.Join(tuples, ", "))
	return stmt, args
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func nullInt(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(catalog.DateLayout)
}
