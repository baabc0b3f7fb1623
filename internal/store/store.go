// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github-wrapped/internal/model"
)

// Store provides durable access to snapshots, user profiles and the
// waitlist, backed by Postgres.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store on top of an existing connection pool.
func New(db *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

const snapshotColumns = `user_id, year, total_commits, total_repos, total_stars_received,
	total_forks, total_prs, total_issues, most_used_languages, contribution_calendar,
	commit_times, streak_data, personality_traits, ai_insights, created_at, updated_at`

// GetSnapshot reads the cached snapshot for a (user, year) key.
// An absent row is reported as (nil, nil), not as an error.
func (s *Store) GetSnapshot(ctx context.Context, userID string, year int) (*model.Snapshot, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM wrapped_stats WHERE user_id = $1 AND year = $2`,
		userID, year)

	var snap model.Snapshot
	err := row.Scan(
		&snap.UserID, &snap.Year, &snap.TotalCommits, &snap.TotalRepos, &snap.TotalStarsReceived,
		&snap.TotalForks, &snap.TotalPRs, &snap.TotalIssues, &snap.Languages, &snap.Calendar,
		&snap.CommitHours, &snap.Streak, &snap.Traits, &snap.AIInsights, &snap.CreatedAt, &snap.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot for %s/%d: %w", userID, year, err)
	}
	return &snap, nil
}

// UpsertSnapshot writes a snapshot, overwriting any existing row for the
// same (user, year) key. The returned snapshot carries the persisted
// timestamps.
func (s *Store) UpsertSnapshot(ctx context.Context, snap *model.Snapshot) (*model.Snapshot, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO wrapped_stats (
			user_id, year, total_commits, total_repos, total_stars_received,
			total_forks, total_prs, total_issues, most_used_languages, contribution_calendar,
			commit_times, streak_data, personality_traits, ai_insights
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, year) DO UPDATE SET
			total_commits = EXCLUDED.total_commits,
			total_repos = EXCLUDED.total_repos,
			total_stars_received = EXCLUDED.total_stars_received,
			total_forks = EXCLUDED.total_forks,
			total_prs = EXCLUDED.total_prs,
			total_issues = EXCLUDED.total_issues,
			most_used_languages = EXCLUDED.most_used_languages,
			contribution_calendar = EXCLUDED.contribution_calendar,
			commit_times = EXCLUDED.commit_times,
			streak_data = EXCLUDED.streak_data,
			personality_traits = EXCLUDED.personality_traits,
			ai_insights = EXCLUDED.ai_insights,
			updated_at = now()
		RETURNING created_at, updated_at`,
		snap.UserID, snap.Year, snap.TotalCommits, snap.TotalRepos, snap.TotalStarsReceived,
		snap.TotalForks, snap.TotalPRs, snap.TotalIssues, snap.Languages, snap.Calendar,
		snap.CommitHours, snap.Streak, snap.Traits, snap.AIInsights,
	)

	persisted := *snap
	if err := row.Scan(&persisted.CreatedAt, &persisted.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upserting snapshot for %s/%d: %w", snap.UserID, snap.Year, err)
	}
	return &persisted, nil
}

// ProfileLookupFn fetches profile fields from the platform when no stored
// row exists yet.
type ProfileLookupFn func(ctx context.Context) (*model.GitHubUser, error)

const profileColumns = `id, github_id, username, name, email, avatar_url, bio, company,
	location, blog, twitter_username, public_repos, followers, following, created_at, updated_at`

// GetOrCreateProfile reads the profile row for a principal, creating it from
// a platform lookup on first access. Concurrent first accesses race on the
// insert; ON CONFLICT DO NOTHING plus the re-read keeps the row unique.
func (s *Store) GetOrCreateProfile(ctx context.Context, principal *model.Principal, lookup ProfileLookupFn) (*model.UserProfile, error) {
	profile, err := s.getProfile(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	s.logger.Info("Profile not found in DB, creating new entry", "user_id", principal.ID)
	user, err := lookup(ctx)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO users (
			id, github_id, username, name, email, avatar_url, bio, company,
			location, blog, twitter_username, public_repos, followers, following
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`,
		principal.ID, user.ID, user.Login, user.Name, user.Email, user.AvatarURL, user.Bio, user.Company,
		user.Location, user.Blog, user.TwitterUsername, user.PublicRepos, user.Followers, user.Following,
	)
	if err != nil {
		return nil, fmt.Errorf("creating profile for %s: %w", principal.ID, err)
	}

	profile, err = s.getProfile(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile for %s missing after insert", principal.ID)
	}
	return profile, nil
}

func (s *Store) getProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM users WHERE id = $1`, userID)

	var p model.UserProfile
	err := row.Scan(
		&p.ID, &p.GithubID, &p.Username, &p.Name, &p.Email, &p.AvatarURL, &p.Bio, &p.Company,
		&p.Location, &p.Blog, &p.TwitterUsername, &p.PublicRepos, &p.Followers, &p.Following,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile for %s: %w", userID, err)
	}
	return &p, nil
}

// AddToWaitlist records an email for launch notifications. Re-submitting an
// existing email returns the original entry.
func (s *Store) AddToWaitlist(ctx context.Context, email string) (*model.WaitlistEntry, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO waitlist (id, email) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING`,
		uuid.NewString(), email)
	if err != nil {
		return nil, fmt.Errorf("adding %s to waitlist: %w", email, err)
	}

	row := s.db.QueryRow(ctx,
		`SELECT id, email, notified, created_at FROM waitlist WHERE email = $1`, email)

	var entry model.WaitlistEntry
	if err := row.Scan(&entry.ID, &entry.Email, &entry.Notified, &entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("reading waitlist entry for %s: %w", email, err)
	}
	return &entry, nil
}
