// internal/stats/languages.go
package stats

import "github-wrapped/internal/model"

// AggregateLanguages sums repository byte sizes per primary language.
// Forks and repositories without a detected language are excluded.
func AggregateLanguages(repos []model.RepositoryStats) map[string]int64 {
	languages := make(map[string]int64)
	for _, repo := range repos {
		if repo.IsFork || repo.Language == nil || *repo.Language == "" {
			continue
		}
		languages[*repo.Language] += int64(repo.Size)
	}
	return languages
}
