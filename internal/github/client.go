// internal/github/client.go
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "github-wrapped/internal/errors"
	"github-wrapped/internal/model"
)

const (
	// Max page size the repositories endpoint allows.
	perPage = 100

	defaultGraphQLURL = "https://api.github.com/graphql"
)

// Client is a wrapper around the go-github client. It is a pure I/O
// boundary: no caching, no store access.
type Client struct {
	gh         *github.Client
	httpClient *http.Client
	graphQLURL string
	logger     *slog.Logger
}

// NewClient creates and configures a new Client instance.
// The provided token is used to create an authenticated http.Client; an
// empty token yields an unauthenticated client subject to lower rate limits.
func NewClient(token string, logger *slog.Logger) *Client {
	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		gh:         github.NewClient(httpClient),
		httpClient: httpClient,
		graphQLURL: defaultGraphQLURL,
		logger:     logger,
	}
}

// GetUser fetches a user's profile and translates it to our internal model.
// A missing or inaccessible handle is reported as a NotFoundError; this is
// the only fatal failure mode of the adapter.
func (c *Client) GetUser(ctx context.Context, handle string) (*model.GitHubUser, error) {
	user, _, err := c.gh.Users.Get(ctx, handle)
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return nil, &custom_errors.NotFoundError{Handle: handle}
		}
		return nil, fmt.Errorf("fetching user %q: %w", handle, err)
	}
	return toInternalUser(user), nil
}

// ListRepositoriesForYear fetches all repositories owned by handle, keeping
// only those created in the target year. It handles API pagination
// transparently.
func (c *Client) ListRepositoriesForYear(ctx context.Context, handle string, year int) ([]model.RepositoryStats, error) {
	var repos []model.RepositoryStats

	opts := &github.RepositoryListByUserOptions{
		Sort:      "updated",
		Direction: "desc",
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	for {
		c.logger.Debug("Fetching repositories page", "handle", handle, "page", opts.Page)

		page, resp, err := c.gh.Repositories.ListByUser(ctx, handle, opts)
		if err != nil {
			return nil, fmt.Errorf("listing repositories for %q: %w", handle, err)
		}

		for _, repo := range page {
			if repo.GetCreatedAt().Year() != year {
				continue
			}
			repos = append(repos, toInternalRepository(repo))
		}

		if len(page) < perPage || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}

// contributionsQuery fetches the contribution calendar for a date range via
// the GraphQL API, which has no REST equivalent.
const contributionsQuery = `
query($username: String!, $from: DateTime!, $to: DateTime!) {
  user(login: $username) {
    contributionsCollection(from: $from, to: $to) {
      totalCommitContributions
      contributionCalendar {
        totalContributions
        weeks {
          contributionDays {
            contributionCount
            date
          }
        }
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type contributionsResponse struct {
	Data struct {
		User struct {
			ContributionsCollection struct {
				TotalCommitContributions int `json:"totalCommitContributions"`
				ContributionCalendar     struct {
					TotalContributions int `json:"totalContributions"`
					Weeks              []struct {
						ContributionDays []struct {
							ContributionCount int    `json:"contributionCount"`
							Date              string `json:"date"`
						} `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GetContributionStats fetches the commit total and contribution calendar
// for the target year. Failures are non-fatal to the aggregate pipeline: the
// zero-valued aggregate is returned together with a DegradedDataWarning.
func (c *Client) GetContributionStats(ctx context.Context, handle string, year int) (model.ContributionStats, error) {
	zero := model.ContributionStats{
		Calendar:    map[string]int{},
		CommitHours: []int{},
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	body, err := json.Marshal(graphQLRequest{
		Query: contributionsQuery,
		Variables: map[string]any{
			"username": handle,
			"from":     from.Format(time.RFC3339),
			"to":       to.Format(time.RFC3339),
		},
	})
	if err != nil {
		return zero, &custom_errors.DegradedDataWarning{Source: "contributions", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphQLURL, bytes.NewReader(body))
	if err != nil {
		return zero, &custom_errors.DegradedDataWarning{Source: "contributions", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, &custom_errors.DegradedDataWarning{Source: "contributions", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zero, &custom_errors.DegradedDataWarning{
			Source: "contributions",
			Err:    fmt.Errorf("graphql status %d", resp.StatusCode),
		}
	}

	var parsed contributionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return zero, &custom_errors.DegradedDataWarning{Source: "contributions", Err: err}
	}
	if len(parsed.Errors) > 0 {
		return zero, &custom_errors.DegradedDataWarning{
			Source: "contributions",
			Err:    fmt.Errorf("graphql error: %s", parsed.Errors[0].Message),
		}
	}

	collection := parsed.Data.User.ContributionsCollection
	calendar := make(map[string]int)
	for _, week := range collection.ContributionCalendar.Weeks {
		for _, day := range week.ContributionDays {
			calendar[day.Date] = day.ContributionCount
		}
	}

	return model.ContributionStats{
		TotalCommits: collection.TotalCommitContributions,
		Calendar:     calendar,
		// Hour-of-day samples would need per-commit fetches; the calendar
		// query does not carry timing data.
		CommitHours: []int{},
	}, nil
}

// GetPullRequestCount returns the number of pull requests authored by handle
// in the target year. Failures degrade to zero.
func (c *Client) GetPullRequestCount(ctx context.Context, handle string, year int) (int, error) {
	return c.searchCount(ctx, "pull requests", handle, "pr", year)
}

// GetIssueCount returns the number of issues opened by handle in the target
// year. Failures degrade to zero.
func (c *Client) GetIssueCount(ctx context.Context, handle string, year int) (int, error) {
	return c.searchCount(ctx, "issues", handle, "issue", year)
}

func (c *Client) searchCount(ctx context.Context, source, handle, kind string, year int) (int, error) {
	query := fmt.Sprintf("author:%s type:%s created:%d-01-01..%d-12-31", handle, kind, year, year)

	result, _, err := c.gh.Search.Issues(ctx, query, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return 0, &custom_errors.DegradedDataWarning{Source: source, Err: err}
	}

	return result.GetTotal(), nil
}

// toInternalUser translates a github.User object to our internal model.
func toInternalUser(u *github.User) *model.GitHubUser {
	return &model.GitHubUser{
		ID:              u.GetID(),
		Login:           u.GetLogin(),
		Name:            u.Name,
		Email:           u.Email,
		AvatarURL:       u.GetAvatarURL(),
		Bio:             u.Bio,
		Company:         u.Company,
		Location:        u.Location,
		Blog:            u.Blog,
		TwitterUsername: u.TwitterUsername,
		PublicRepos:     u.GetPublicRepos(),
		Followers:       u.GetFollowers(),
		Following:       u.GetFollowing(),
	}
}

// toInternalRepository translates a github.Repository object to our internal
// model.RepositoryStats.
func toInternalRepository(r *github.Repository) model.RepositoryStats {
	return model.RepositoryStats{
		Name:      r.GetName(),
		Language:  r.Language,
		Stars:     r.GetStargazersCount(),
		Forks:     r.GetForksCount(),
		Size:      r.GetSize(),
		CreatedAt: r.GetCreatedAt().Time,
		UpdatedAt: r.GetUpdatedAt().Time,
		IsFork:    r.GetFork(),
	}
}
