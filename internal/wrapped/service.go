// internal/wrapped/service.go
package wrapped

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github-wrapped/internal/cache"
	custom_errors "github-wrapped/internal/errors"
	"github-wrapped/internal/model"
	"github-wrapped/internal/stats"
)

// PlatformAPI is the slice of the platform adapter the orchestrator drives.
type PlatformAPI interface {
	GetUser(ctx context.Context, handle string) (*model.GitHubUser, error)
	ListRepositoriesForYear(ctx context.Context, handle string, year int) ([]model.RepositoryStats, error)
	GetContributionStats(ctx context.Context, handle string, year int) (model.ContributionStats, error)
	GetPullRequestCount(ctx context.Context, handle string, year int) (int, error)
	GetIssueCount(ctx context.Context, handle string, year int) (int, error)
}

// SnapshotStore is the slice of the store the orchestrator drives.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, userID string, year int) (*model.Snapshot, error)
	UpsertSnapshot(ctx context.Context, snap *model.Snapshot) (*model.Snapshot, error)
}

// ClientFactory builds a platform client authenticated with the given token.
type ClientFactory func(token string) PlatformAPI

// Result is what a year-in-review read returns to the presentation layer.
type Result struct {
	Stats           *model.Snapshot `json:"stats"`
	Cached          bool            `json:"cached"`
	CacheAgeMinutes int             `json:"cacheAge,omitempty"`
}

// defaultAIInsights is the empty insights block new snapshots carry; it is
// filled in outside this core and passed through unmodified afterwards.
var defaultAIInsights = json.RawMessage(
	`{"personality_type":"","coding_style":"","fun_facts":[],"predictions":[]}`)

// Service computes, caches and serves year-in-review snapshots.
type Service struct {
	store         SnapshotStore
	newClient     ClientFactory
	fallbackToken string
	logger        *slog.Logger
	now           func() time.Time
	flight        singleflight.Group
}

// NewService creates a new Service instance. fallbackToken is the server
// credential used when a principal carries no platform token of its own.
func NewService(store SnapshotStore, newClient ClientFactory, fallbackToken string, logger *slog.Logger) *Service {
	return &Service{
		store:         store,
		newClient:     newClient,
		fallbackToken: fallbackToken,
		logger:        logger,
		now:           time.Now,
	}
}

// GetYearInReview returns the year-in-review snapshot for the given
// principal, serving a stored snapshot while it is fresh and rebuilding it
// from live platform data otherwise. username defaults to the principal's
// own handle and year to the current calendar year.
func (s *Service) GetYearInReview(ctx context.Context, principal *model.Principal, username string, year int) (*Result, error) {
	if principal == nil {
		return nil, custom_errors.ErrUnauthorized
	}

	handle := username
	if handle == "" {
		handle = principal.Login
	}
	if handle == "" {
		return nil, fmt.Errorf("%w: username is required", custom_errors.ErrInvalidArgument)
	}

	now := s.now()
	if year <= 0 {
		year = now.Year()
	}

	cached, err := s.store.GetSnapshot(ctx, principal.ID, year)
	if err != nil {
		// A broken cache read degrades to a live fetch.
		s.logger.Warn("Snapshot read failed, treating as cache miss", "user_id", principal.ID, "year", year, "error", err)
	}
	if cached != nil && cache.IsFresh(cached.UpdatedAt, now) {
		return &Result{
			Stats:           cached,
			Cached:          true,
			CacheAgeMinutes: cache.AgeMinutes(cached.UpdatedAt, now),
		}, nil
	}

	// Concurrent misses for the same key share one live build; the upsert
	// is last-writer-wins either way, this just avoids duplicate API calls.
	key := fmt.Sprintf("%s:%d", principal.ID, year)
	built, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.buildSnapshot(ctx, principal, handle, year)
	})
	if err != nil {
		return nil, err
	}

	return &Result{Stats: built.(*model.Snapshot), Cached: false}, nil
}

// buildSnapshot performs the live fetch, derivation and persistence for one
// cache miss. Persistence failure is tolerated: the freshly computed
// snapshot is returned either way.
func (s *Service) buildSnapshot(ctx context.Context, principal *model.Principal, handle string, year int) (*model.Snapshot, error) {
	logger := s.logger.With("user_id", principal.ID, "handle", handle, "year", year)
	logger.Info("Building snapshot from live platform data")

	token := principal.Token
	if token == "" {
		token = s.fallbackToken
	}
	client := s.newClient(token)

	var (
		repos         []model.RepositoryStats
		contributions model.ContributionStats
		prCount       int
		issueCount    int
	)

	// Profile and repository failures are fatal; the contribution aggregate
	// and the two search counts degrade to their zero values. The profile
	// lookup gates the pipeline: an unknown handle fails the whole read.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := client.GetUser(gctx, handle)
		return err
	})
	g.Go(func() error {
		var err error
		repos, err = client.ListRepositoriesForYear(gctx, handle, year)
		return err
	})
	g.Go(func() error {
		var err error
		contributions, err = client.GetContributionStats(gctx, handle, year)
		return s.tolerateDegraded(logger, err)
	})
	g.Go(func() error {
		var err error
		prCount, err = client.GetPullRequestCount(gctx, handle, year)
		return s.tolerateDegraded(logger, err)
	})
	g.Go(func() error {
		var err error
		issueCount, err = client.GetIssueCount(gctx, handle, year)
		return s.tolerateDegraded(logger, err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &model.Snapshot{
		UserID:       principal.ID,
		Year:         year,
		TotalCommits: contributions.TotalCommits,
		TotalRepos:   len(repos),
		TotalPRs:     prCount,
		TotalIssues:  issueCount,
		Languages:    stats.AggregateLanguages(repos),
		Calendar:     contributions.Calendar,
		CommitHours:  contributions.CommitHours,
		AIInsights:   defaultAIInsights,
	}
	for _, repo := range repos {
		snap.TotalStarsReceived += repo.Stars
		snap.TotalForks += repo.Forks
	}

	today := s.now().UTC().Format(stats.DateLayout)
	snap.Streak = stats.ComputeStreak(snap.Calendar, today)
	snap.Traits = stats.PersonalityTraits(snap)

	persisted, err := s.store.UpsertSnapshot(ctx, snap)
	if err != nil {
		logger.Error("Failed to persist snapshot, returning unpersisted result", "error", err)
		snap.CreatedAt = s.now()
		snap.UpdatedAt = snap.CreatedAt
		return snap, nil
	}

	return persisted, nil
}

// tolerateDegraded swallows degraded-data warnings so a flaky sub-fetch
// cannot fail the whole summary. Anything else propagates.
func (s *Service) tolerateDegraded(logger *slog.Logger, err error) error {
	if err == nil {
		return nil
	}
	if custom_errors.IsDegraded(err) {
		logger.Warn("Sub-fetch degraded to zero values", "warning", err)
		return nil
	}
	return err
}
