package scanner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"AINewsBrief/internal/domain"
)

// Category describes a concrete endpoint provided by config: a feed, a subreddit, a repository.
type Category struct {
	Name  string
	URL   string
	Label string
}

// Request carries all parameters required to execute a scan.
type Request struct {
	Since      time.Time
	SiteName   string
	Categories []Category
	Limit      int
	Priority   int
	Options    map[string]string
}

// Option returns a trimmed option value or def when it is absent.
func (r Request) Option(key, def string) string {
	if v, ok := r.Options[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// IntOption parses an integer option, falling back to def.
func (r Request) IntOption(key string, def int) int {
	v, err := strconv.Atoi(r.Option(key, ""))
	if err != nil {
		return def
	}
	return v
}

// Tags splits the comma separated "tags" option.
func (r Request) Tags() []string {
	raw := r.Option("tags", "")
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Scanner captures a single fetch strategy (RSS, Reddit, arXiv, etc.).
// Scan may return the articles it did collect together with an error for the endpoints that failed.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Article, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
