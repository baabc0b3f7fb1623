// internal/github/client_test.go
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "github-wrapped/internal/errors"
)

// setupTestClient creates a httptest server and a client pointing to it.
func setupTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	// We can pass an empty token because we are not authenticating to the real GitHub.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := NewClient("", logger)

	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.gh.BaseURL = baseURL
	client.graphQLURL = server.URL + "/graphql"

	return client
}

func TestClient_GetUser(t *testing.T) {
	t.Run("translates profile fields", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/octocat", r.URL.Path)
			fmt.Fprintln(w, `{
				"id": 583231, "login": "octocat", "name": "The Octocat",
				"avatar_url": "https://example.com/a.png", "company": "GitHub",
				"public_repos": 8, "followers": 5000, "following": 9
			}`)
		})
		client := setupTestClient(t, handler)

		user, err := client.GetUser(context.Background(), "octocat")

		require.NoError(t, err)
		assert.Equal(t, int64(583231), user.ID)
		assert.Equal(t, "octocat", user.Login)
		require.NotNil(t, user.Name)
		assert.Equal(t, "The Octocat", *user.Name)
		assert.Nil(t, user.Bio)
		assert.Equal(t, 5000, user.Followers)
	})

	t.Run("unknown handle yields NotFoundError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintln(w, `{"message": "Not Found"}`)
		})
		client := setupTestClient(t, handler)

		_, err := client.GetUser(context.Background(), "ghost-user-does-not-exist")

		require.Error(t, err)
		assert.True(t, custom_errors.IsNotFound(err))
		assert.Contains(t, err.Error(), "ghost-user-does-not-exist")
	})

	t.Run("server errors propagate without NotFound translation", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		client := setupTestClient(t, handler)

		_, err := client.GetUser(context.Background(), "octocat")

		require.Error(t, err)
		assert.False(t, custom_errors.IsNotFound(err))
	})
}

func repoJSON(name, language string, year int, fork bool) string {
	return fmt.Sprintf(`{
		"name": %q, "language": %q, "stargazers_count": 3, "forks_count": 1,
		"size": 1000, "fork": %t,
		"created_at": "%d-03-01T00:00:00Z", "updated_at": "%d-06-01T00:00:00Z"
	}`, name, language, fork, year, year)
}

func TestClient_ListRepositoriesForYear(t *testing.T) {
	t.Run("pages through all results and filters by creation year", func(t *testing.T) {
		var pagesServed int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/octocat/repos", r.URL.Path)
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			atomic.AddInt32(&pagesServed, 1)

			if r.URL.Query().Get("page") == "2" {
				fmt.Fprintf(w, "[%s, %s]",
					repoJSON("late", "Go", 2025, false),
					repoJSON("old", "Go", 2024, false))
				return
			}

			// A full page with a next link.
			repos := make([]string, 100)
			for i := range repos {
				repos[i] = repoJSON(fmt.Sprintf("repo-%d", i), "TypeScript", 2025, false)
			}
			w.Header().Set("Link", `</users/octocat/repos?page=2&per_page=100>; rel="next"`)
			fmt.Fprintf(w, "[%s]", strings.Join(repos, ","))
		})
		client := setupTestClient(t, handler)

		repos, err := client.ListRepositoriesForYear(context.Background(), "octocat", 2025)

		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&pagesServed))
		assert.Len(t, repos, 101, "the 2024 repository must be filtered out")
		assert.Equal(t, "repo-0", repos[0].Name)
		require.NotNil(t, repos[0].Language)
		assert.Equal(t, "TypeScript", *repos[0].Language)
		assert.Equal(t, 1000, repos[0].Size)
	})

	t.Run("stops after a short page", func(t *testing.T) {
		var pagesServed int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&pagesServed, 1)
			fmt.Fprintf(w, "[%s]", repoJSON("only", "Go", 2025, true))
		})
		client := setupTestClient(t, handler)

		repos, err := client.ListRepositoriesForYear(context.Background(), "octocat", 2025)

		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&pagesServed))
		require.Len(t, repos, 1)
		assert.True(t, repos[0].IsFork, "forks are kept here; derivation excludes them later")
	})

	t.Run("empty listing yields no repositories", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, `[]`)
		})
		client := setupTestClient(t, handler)

		repos, err := client.ListRepositoriesForYear(context.Background(), "octocat", 2025)

		require.NoError(t, err)
		assert.Empty(t, repos)
	})
}

func TestClient_GetContributionStats(t *testing.T) {
	t.Run("parses the contribution calendar", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/graphql", r.URL.Path)

			var req graphQLRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "octocat", req.Variables["username"])
			assert.Equal(t, "2025-01-01T00:00:00Z", req.Variables["from"])
			assert.Equal(t, "2025-12-31T23:59:59Z", req.Variables["to"])

			fmt.Fprintln(w, `{"data": {"user": {"contributionsCollection": {
				"totalCommitContributions": 847,
				"contributionCalendar": {"totalContributions": 900, "weeks": [
					{"contributionDays": [
						{"contributionCount": 3, "date": "2025-01-01"},
						{"contributionCount": 0, "date": "2025-01-02"}
					]},
					{"contributionDays": [
						{"contributionCount": 7, "date": "2025-01-08"}
					]}
				]}
			}}}}`)
		})
		client := setupTestClient(t, handler)

		contributions, err := client.GetContributionStats(context.Background(), "octocat", 2025)

		require.NoError(t, err)
		assert.Equal(t, 847, contributions.TotalCommits)
		assert.Equal(t, map[string]int{
			"2025-01-01": 3,
			"2025-01-02": 0,
			"2025-01-08": 7,
		}, contributions.Calendar)
		assert.Empty(t, contributions.CommitHours)
	})

	t.Run("degrades to a zero aggregate on server failure", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		client := setupTestClient(t, handler)

		contributions, err := client.GetContributionStats(context.Background(), "octocat", 2025)

		require.Error(t, err)
		assert.True(t, custom_errors.IsDegraded(err))
		assert.Equal(t, 0, contributions.TotalCommits)
		assert.Empty(t, contributions.Calendar)
	})

	t.Run("degrades on a GraphQL-level error", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, `{"errors": [{"message": "rate limited"}]}`)
		})
		client := setupTestClient(t, handler)

		contributions, err := client.GetContributionStats(context.Background(), "octocat", 2025)

		require.Error(t, err)
		assert.True(t, custom_errors.IsDegraded(err))
		assert.Contains(t, err.Error(), "rate limited")
		assert.Empty(t, contributions.Calendar)
	})
}

func TestClient_SearchCounts(t *testing.T) {
	t.Run("uses author, type and created filters", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search/issues", r.URL.Path)
			q := r.URL.Query().Get("q")
			assert.Contains(t, q, "author:octocat")
			assert.Contains(t, q, "type:pr")
			assert.Contains(t, q, "created:2025-01-01..2025-12-31")
			fmt.Fprintln(w, `{"total_count": 142, "incomplete_results": false, "items": []}`)
		})
		client := setupTestClient(t, handler)

		count, err := client.GetPullRequestCount(context.Background(), "octocat", 2025)

		require.NoError(t, err)
		assert.Equal(t, 142, count)
	})

	t.Run("issue count uses the issue type", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Query().Get("q"), "type:issue")
			fmt.Fprintln(w, `{"total_count": 9, "incomplete_results": false, "items": []}`)
		})
		client := setupTestClient(t, handler)

		count, err := client.GetIssueCount(context.Background(), "octocat", 2025)

		require.NoError(t, err)
		assert.Equal(t, 9, count)
	})

	t.Run("degrades to zero on failure", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"message": "rate limit exceeded"}`)
		})
		client := setupTestClient(t, handler)

		count, err := client.GetPullRequestCount(context.Background(), "octocat", 2025)

		require.Error(t, err)
		assert.True(t, custom_errors.IsDegraded(err))
		assert.Equal(t, 0, count)
	})
}
