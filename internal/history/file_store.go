package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/ports"
)

const fileVersion = 1

type fileDocument struct {
	Version  int          `json:"version"`
	Articles []fileRecord `json:"articles"`
}

type fileRecord struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	SeenAt string `json:"seen_at"`
}

// FileStore keeps delivered articles in a single JSON document.
type FileStore struct {
	path       string
	maxAgeDays int
	now        func() time.Time
	logger     *slog.Logger
}

var _ ports.HistoryStore = (*FileStore)(nil)

// NewFileStore wires the history file; records older than maxAgeDays are pruned on every access.
func NewFileStore(path string, maxAgeDays int, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &FileStore{path: path, maxAgeDays: maxAgeDays, now: time.Now, logger: log}
}

// Load returns URLs and titles delivered inside the retention window.
// Missing and corrupt files both yield an empty snapshot.
func (s *FileStore) Load(ctx context.Context) (ports.HistorySnapshot, error) {
	records := s.read()

	snap := ports.HistorySnapshot{URLs: make(map[string]struct{}, len(records))}
	for _, r := range records {
		snap.URLs[r.URL] = struct{}{}
		snap.Titles = append(snap.Titles, r.Title)
	}

	s.logger.Debug("history loaded", "path", s.path, "records", len(records))
	return snap, nil
}

// Record appends articles whose URL is not already stored and rewrites the file atomically.
func (s *FileStore) Record(ctx context.Context, articles []domain.Article) error {
	records := s.read()

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[r.URL] = struct{}{}
	}

	now := s.now().UTC()
	added := 0
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		records = append(records, domain.HistoryRecord{URL: a.URL, Title: a.Title, SeenAt: now})
		added++
	}

	if err := s.write(records); err != nil {
		return err
	}
	s.logger.Info("history recorded", "added", added, "total", len(records))
	return nil
}

// Prune rewrites the file without expired records and reports how many were dropped.
func (s *FileStore) Prune(ctx context.Context) (int, error) {
	all, err := s.readAll()
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	kept := s.retain(all)
	if err := s.write(kept); err != nil {
		return 0, err
	}
	return len(all) - len(kept), nil
}

// Stats summarizes the records inside the retention window.
func (s *FileStore) Stats(ctx context.Context) (ports.HistoryStats, error) {
	records := s.read()
	stats := ports.HistoryStats{Records: len(records)}
	for i, r := range records {
		if i == 0 || r.SeenAt.Before(stats.Oldest) {
			stats.Oldest = r.SeenAt
		}
		if i == 0 || r.SeenAt.After(stats.Newest) {
			stats.Newest = r.SeenAt
		}
	}
	return stats, nil
}

func (s *FileStore) read() []domain.HistoryRecord {
	all, err := s.readAll()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("history unreadable, starting empty", "path", s.path, "error", err)
		}
		return nil
	}
	return s.retain(all)
}

func (s *FileStore) readAll() ([]domain.HistoryRecord, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	records := make([]domain.HistoryRecord, 0, len(doc.Articles))
	for _, r := range doc.Articles {
		seenAt, err := time.Parse(time.RFC3339Nano, r.SeenAt)
		if err != nil || r.URL == "" {
			continue
		}
		records = append(records, domain.HistoryRecord{URL: r.URL, Title: r.Title, SeenAt: seenAt.UTC()})
	}
	return records, nil
}

func (s *FileStore) retain(records []domain.HistoryRecord) []domain.HistoryRecord {
	cutoff := s.now().UTC().Add(-time.Duration(s.maxAgeDays) * 24 * time.Hour)
	kept := records[:0:0]
	for _, r := range records {
		if r.SeenAt.After(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

func (s *FileStore) write(records []domain.HistoryRecord) error {
	doc := fileDocument{Version: fileVersion, Articles: make([]fileRecord, 0, len(records))}
	for _, r := range records {
		doc.Articles = append(doc.Articles, fileRecord{
			URL:    r.URL,
			Title:  r.Title,
			SeenAt: r.SeenAt.UTC().Format(time.RFC3339),
		})
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
