// internal/model/models.go
package model

import (
	"encoding/json"
	"time"
)

// GitHubUser represents a user's public profile as returned by the platform.
type GitHubUser struct {
	ID              int64   `json:"id"`
	Login           string  `json:"login"`
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	AvatarURL       string  `json:"avatar_url"`
	Bio             *string `json:"bio"`
	Company         *string `json:"company"`
	Location        *string `json:"location"`
	Blog            *string `json:"blog"`
	TwitterUsername *string `json:"twitter_username"`
	PublicRepos     int     `json:"public_repos"`
	Followers       int     `json:"followers"`
	Following       int     `json:"following"`
}

// UserProfile is the stored row for a signed-in user, created lazily on
// first authenticated access.
type UserProfile struct {
	ID              string    `json:"id"`
	GithubID        int64     `json:"github_id"`
	Username        string    `json:"username"`
	Name            *string   `json:"name"`
	Email           *string   `json:"email"`
	AvatarURL       string    `json:"avatar_url"`
	Bio             *string   `json:"bio"`
	Company         *string   `json:"company"`
	Location        *string   `json:"location"`
	Blog            *string   `json:"blog"`
	TwitterUsername *string   `json:"twitter_username"`
	PublicRepos     int       `json:"public_repos"`
	Followers       int       `json:"followers"`
	Following       int       `json:"following"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RepositoryStats holds the per-repository fields the aggregation pipeline
// consumes. It is never persisted on its own.
type RepositoryStats struct {
	Name      string    `json:"name"`
	Language  *string   `json:"language"`
	Stars     int       `json:"stars"`
	Forks     int       `json:"forks"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsFork    bool      `json:"is_fork"`
}

// ContributionStats is the contribution aggregate for one user and year.
type ContributionStats struct {
	TotalCommits int            `json:"total_commits"`
	Calendar     map[string]int `json:"calendar"`
	CommitHours  []int          `json:"commit_hours"`
}

// StreakRecord holds the streak metrics derived from a contribution calendar.
type StreakRecord struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
	TotalDays     int `json:"total_days"`
}

// Snapshot is the cached year-in-review summary for one (user, year) pair.
// UpdatedAt is the last-write timestamp the cache policy evaluates.
type Snapshot struct {
	UserID             string           `json:"user_id"`
	Year               int              `json:"year"`
	TotalCommits       int              `json:"total_commits"`
	TotalRepos         int              `json:"total_repos"`
	TotalStarsReceived int              `json:"total_stars_received"`
	TotalForks         int              `json:"total_forks"`
	TotalPRs           int              `json:"total_prs"`
	TotalIssues        int              `json:"total_issues"`
	Languages          map[string]int64 `json:"most_used_languages"`
	Calendar           map[string]int   `json:"contribution_calendar"`
	CommitHours        []int            `json:"commit_times"`
	Streak             StreakRecord     `json:"streak_data"`
	Traits             []string         `json:"personality_traits"`
	AIInsights         json.RawMessage  `json:"ai_insights,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Principal is a resolved signed-in identity, including the platform access
// token used for live fetches on its behalf.
type Principal struct {
	ID    string
	Login string
	Token string
}

// WaitlistEntry is a signup for launch notifications.
type WaitlistEntry struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Notified  bool      `json:"notified"`
	CreatedAt time.Time `json:"created_at"`
}
