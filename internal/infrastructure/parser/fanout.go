package parser

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/scanner"
)

// scanEach runs fn for every category with at most workers in flight.
// Results keep category order; failures are joined and never stop siblings.
func scanEach(ctx context.Context, cats []scanner.Category, workers int, fn func(context.Context, scanner.Category) ([]domain.Article, error)) ([]domain.Article, error) {
	results := make([][]domain.Article, len(cats))
	errs := make([]error, len(cats))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, cat := range cats {
		g.Go(func() error {
			articles, err := fn(ctx, cat)
			results[i] = articles
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", cat.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.Article
	for _, r := range results {
		out = append(out, r...)
	}
	return out, errors.Join(errs...)
}

func priorityOrDefault(p int) int {
	if p <= 0 {
		return domain.DefaultPriority
	}
	return p
}
