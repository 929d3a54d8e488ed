package storage

import (
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"

	"AINewsBrief/internal/domain"
)

var cutoff = time.Date(2025, time.October, 9, 8, 0, 0, 0, time.UTC)

func TestLoadQuery(t *testing.T) {
	t.Parallel()

	query, args, err := loadQuery(cutoff)
	if err != nil {
		t.Fatalf("loadQuery: %v", err)
	}
	want := "SELECT url, title FROM seen_articles WHERE seen_at >= $1 ORDER BY seen_at"
	if query != want {
		t.Fatalf("unexpected query:\n got %s\nwant %s", query, want)
	}
	if len(args) != 1 || args[0] != cutoff {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestKnownQueryUsesArray(t *testing.T) {
	t.Parallel()

	query, args, err := knownQuery([]string{"https://a", "https://b"})
	if err != nil {
		t.Fatalf("knownQuery: %v", err)
	}
	if query != "SELECT url FROM seen_articles WHERE url = ANY($1)" {
		t.Fatalf("unexpected query: %s", query)
	}
	arr, ok := args[0].(pq.StringArray)
	if !ok || len(arr) != 2 {
		t.Fatalf("expected pq.StringArray argument, got %T", args[0])
	}
}

func TestInsertQuery(t *testing.T) {
	t.Parallel()

	seenAt := cutoff.Add(30 * 24 * time.Hour)
	articles := []domain.Article{
		{URL: "https://a", Title: "A"},
		{URL: "https://b", Title: "B"},
	}

	query, args, err := insertQuery(articles, seenAt, "7c9e6679-7425-40de-944b-e07fc1f90ae7")
	if err != nil {
		t.Fatalf("insertQuery: %v", err)
	}
	want := "INSERT INTO seen_articles (url,title,seen_at,run_id) VALUES ($1,$2,$3,$4),($5,$6,$7,$8) ON CONFLICT (url) DO NOTHING"
	if query != want {
		t.Fatalf("unexpected query:\n got %s\nwant %s", query, want)
	}
	if len(args) != 8 || args[4] != "https://b" || args[2] != seenAt {
		t.Fatalf("unexpected args: %v", args)
	}
	if run, ok := args[3].(sql.NullString); !ok || !run.Valid {
		t.Fatalf("run id should be a valid NullString, got %#v", args[3])
	}
}

func TestInsertQueryWithoutRunID(t *testing.T) {
	t.Parallel()

	_, args, err := insertQuery([]domain.Article{{URL: "https://a", Title: "A"}}, cutoff, "")
	if err != nil {
		t.Fatalf("insertQuery: %v", err)
	}
	if run := args[3].(sql.NullString); run.Valid {
		t.Fatalf("missing run id should be stored as NULL")
	}
}

func TestPruneAndStatsQueries(t *testing.T) {
	t.Parallel()

	query, args, err := pruneQuery(cutoff)
	if err != nil || query != "DELETE FROM seen_articles WHERE seen_at < $1" || args[0] != cutoff {
		t.Fatalf("unexpected prune query %q %v %v", query, args, err)
	}

	query, _, err = statsQuery(cutoff)
	if err != nil || query != "SELECT count(*), min(seen_at), max(seen_at) FROM seen_articles WHERE seen_at >= $1" {
		t.Fatalf("unexpected stats query %q %v", query, err)
	}
}

func TestCutoffUsesRetention(t *testing.T) {
	t.Parallel()

	r := NewPostgresRepository(nil, 30, nil)
	r.now = func() time.Time { return cutoff.Add(30 * 24 * time.Hour) }
	if !r.cutoff().Equal(cutoff) {
		t.Fatalf("unexpected cutoff: %v", r.cutoff())
	}
}
