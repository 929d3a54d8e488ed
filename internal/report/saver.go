package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"AINewsBrief/internal/ports"
)

// Saver writes one Markdown file per day, replacing an earlier run's file for the same date.
type Saver struct {
	Dir string
}

var _ ports.ReportSaver = Saver{}

// Save writes content to <Dir>/ai-news-brief-YYYY-MM-DD.md and returns the path.
func (s Saver) Save(content string, day time.Time) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, FileName(day))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// FileName returns the report file name for day.
func FileName(day time.Time) string {
	return fmt.Sprintf("ai-news-brief-%s.md", day.Format("2006-01-02"))
}
