package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"AINewsBrief/internal/scanner"
)

func TestIsAIRelated(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"Show HN: an AI pair programmer":   true,
		"OpenAI ships a new API":           true,
		"Fine-tuning Llama on a laptop":    true,
		"The CEO said the plan failed":     false,
		"Rust 2.0 released":                false,
		"Why Mainframes still matter":      false,
		"Notes on artificial intelligence": true,
		"A history of the paint industry":  false,
	}
	for text, want := range cases {
		if got := isAIRelated(text); got != want {
			t.Fatalf("isAIRelated(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestHackerNewsScannerScan(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/v0/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1, 2, 3, 4, 5, 6, 7, 8, 9]`))
	})
	mux.HandleFunc("/v0/item/", func(w http.ResponseWriter, r *http.Request) {
		var id int
		fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/v0/item/"), "%d.json", &id)
		switch id {
		case 1:
			fmt.Fprintf(w, `{"id":1,"type":"story","title":"Claude gets a new tool API","text":"<p>Details &amp; more</p>","time":%d,"score":300,"descendants":120}`, now.Unix())
		case 2:
			fmt.Fprintf(w, `{"id":2,"type":"story","title":"A new database engine","time":%d}`, now.Unix())
		case 3:
			fmt.Fprintf(w, `{"id":3,"type":"job","title":"Hiring AI engineers","time":%d}`, now.Unix())
		case 4:
			fmt.Fprintf(w, `{"id":4,"type":"story","title":"LLM inference tricks","time":%d}`, now.Add(-72*time.Hour).Unix())
		case 5:
			w.WriteHeader(http.StatusInternalServerError)
		case 6:
			fmt.Fprintf(w, `{"id":6,"type":"story","title":"Mistral releases weights","url":"%s/page","time":%d}`, server.URL, now.Unix())
		default:
			fmt.Fprintf(w, `{"id":%d,"type":"story","title":"GPT story %d","time":%d}`, id, id, now.Unix())
		}
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><nav>menu</nav><article>
<h1>Weights</h1>
<p>Open weights for everyone.</p>
</article></body></html>`))
	})

	sc := NewHackerNewsScanner(server.Client(), "")
	sc.limiter = rate.NewLimiter(rate.Inf, 1)

	articles, err := sc.Scan(context.Background(), scanner.Request{
		Since:      now.Add(-24 * time.Hour),
		Limit:      2,
		Categories: []scanner.Category{{Name: "HackerNews", URL: server.URL + "/v0"}},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected limit of 2 stories, got %d", len(articles))
	}

	first := articles[0]
	if first.URL != "https://news.ycombinator.com/item?id=1" || first.Source != "HackerNews" {
		t.Fatalf("unexpected first story: %+v", first)
	}
	if first.Content != "Details & more\n\n[HN Score: 300, Comments: 120]" {
		t.Fatalf("unexpected content: %q", first.Content)
	}

	second := articles[1]
	if second.Title != "Mistral releases weights" {
		t.Fatalf("expected the linked story second, got %q", second.Title)
	}
	if second.Content != "Weights Open weights for everyone." {
		t.Fatalf("linked page content not extracted: %q", second.Content)
	}
}

func TestHNContentCap(t *testing.T) {
	t.Parallel()

	got := hnContent(&hnItem{Title: "t"}, strings.Repeat("a", 5000))
	if len([]rune(got)) != maxHackerNewsContent {
		t.Fatalf("content should be capped at %d, got %d", maxHackerNewsContent, len(got))
	}
}
