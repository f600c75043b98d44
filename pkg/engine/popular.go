package engine

import (
	"context"

	"github.com/matzehuels/depstatus/pkg/deps"
)

// GetPopularRepositories returns popular repositories, excluding the
// configured block-list.
func (e *Engine) GetPopularRepositories(ctx context.Context) ([]deps.Repository, error) {
	repos, err := e.popularRepos.Get(ctx, singleton{})
	if err != nil {
		return nil, err
	}
	out := make([]deps.Repository, 0, len(repos))
	for _, r := range repos {
		if !e.blocked[r.Path] {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetPopularPackages returns the most downloaded crates.
func (e *Engine) GetPopularPackages(ctx context.Context) ([]deps.PackagePath, error) {
	return e.popularPackages.Get(ctx, singleton{})
}
