package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/ports"
)

const seenTable = "seen_articles"

const schema = `CREATE TABLE IF NOT EXISTS seen_articles (
    url     TEXT PRIMARY KEY,
    title   TEXT NOT NULL,
    seen_at TIMESTAMPTZ NOT NULL,
    run_id  UUID
);
CREATE INDEX IF NOT EXISTS seen_articles_seen_at_idx ON seen_articles (seen_at);`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository keeps delivered articles in Postgres.
type PostgresRepository struct {
	db         *sql.DB
	maxAgeDays int
	now        func() time.Time
	logger     *slog.Logger
}

var _ ports.HistoryStore = (*PostgresRepository)(nil)

// OpenPostgres connects with the lib/pq driver and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB, maxAgeDays int, log *slog.Logger) *PostgresRepository {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &PostgresRepository{db: db, maxAgeDays: maxAgeDays, now: time.Now, logger: log}
}

// EnsureSchema creates the history table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Load drops expired rows, then returns what remains.
func (r *PostgresRepository) Load(ctx context.Context) (ports.HistorySnapshot, error) {
	snap := ports.HistorySnapshot{URLs: map[string]struct{}{}}
	if _, err := r.Prune(ctx); err != nil {
		return snap, err
	}

	query, args, err := loadQuery(r.cutoff())
	if err != nil {
		return snap, fmt.Errorf("build load query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return snap, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var url, title string
		if err := rows.Scan(&url, &title); err != nil {
			return snap, fmt.Errorf("scan history row: %w", err)
		}
		snap.URLs[url] = struct{}{}
		snap.Titles = append(snap.Titles, title)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("rows iteration: %w", err)
	}

	r.logger.Debug("history loaded", "records", len(snap.URLs))
	return snap, nil
}

// Record inserts articles whose URL is not stored yet. Existing rows keep their first seen_at.
func (r *PostgresRepository) Record(ctx context.Context, articles []domain.Article) error {
	urls := make([]string, 0, len(articles))
	for _, a := range articles {
		if a.URL != "" {
			urls = append(urls, a.URL)
		}
	}
	if len(urls) == 0 {
		return nil
	}

	known, err := r.Known(ctx, urls)
	if err != nil {
		return err
	}

	fresh := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if a.URL == "" || known[a.URL] {
			continue
		}
		known[a.URL] = true
		fresh = append(fresh, a)
	}
	if len(fresh) == 0 {
		return nil
	}

	query, args, err := insertQuery(fresh, r.now().UTC(), ports.RunIDFromContext(ctx))
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	r.logger.Info("history recorded", "added", len(fresh))
	return nil
}

// Known returns the subset of urls already stored.
func (r *PostgresRepository) Known(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(urls) == 0 {
		return result, nil
	}

	query, args, err := knownQuery(urls)
	if err != nil {
		return nil, fmt.Errorf("build known query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query known: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		result[url] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// Prune deletes rows older than the retention window.
func (r *PostgresRepository) Prune(ctx context.Context) (int, error) {
	query, args, err := pruneQuery(r.cutoff())
	if err != nil {
		return 0, fmt.Errorf("build prune: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		r.logger.Info("history pruned", "removed", n)
	}
	return int(n), nil
}

// Stats summarizes the rows inside the retention window.
func (r *PostgresRepository) Stats(ctx context.Context) (ports.HistoryStats, error) {
	query, args, err := statsQuery(r.cutoff())
	if err != nil {
		return ports.HistoryStats{}, fmt.Errorf("build stats query: %w", err)
	}

	var (
		count          int
		oldest, newest sql.NullTime
	)
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count, &oldest, &newest); err != nil {
		return ports.HistoryStats{}, fmt.Errorf("query stats: %w", err)
	}
	stats := ports.HistoryStats{Records: count}
	if oldest.Valid {
		stats.Oldest = oldest.Time.UTC()
	}
	if newest.Valid {
		stats.Newest = newest.Time.UTC()
	}
	return stats, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) cutoff() time.Time {
	return r.now().UTC().Add(-time.Duration(r.maxAgeDays) * 24 * time.Hour)
}

func loadQuery(cutoff time.Time) (string, []any, error) {
	return psql.Select("url", "title").
		From(seenTable).
		Where(sq.GtOrEq{"seen_at": cutoff}).
		OrderBy("seen_at").
		ToSql()
}

func knownQuery(urls []string) (string, []any, error) {
	return psql.Select("url").
		From(seenTable).
		Where(sq.Expr("url = ANY(?)", pq.StringArray(urls))).
		ToSql()
}

func insertQuery(articles []domain.Article, seenAt time.Time, runID string) (string, []any, error) {
	b := psql.Insert(seenTable).Columns("url", "title", "seen_at", "run_id")
	run := sql.NullString{String: runID, Valid: runID != ""}
	for _, a := range articles {
		b = b.Values(a.URL, a.Title, seenAt, run)
	}
	return b.Suffix("ON CONFLICT (url) DO NOTHING").ToSql()
}

func pruneQuery(cutoff time.Time) (string, []any, error) {
	return psql.Delete(seenTable).Where(sq.Lt{"seen_at": cutoff}).ToSql()
}

func statsQuery(cutoff time.Time) (string, []any, error) {
	return psql.Select("count(*)", "min(seen_at)", "max(seen_at)").
		From(seenTable).
		Where(sq.GtOrEq{"seen_at": cutoff}).
		ToSql()
}
