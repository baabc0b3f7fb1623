// internal/identity/identity.go
package identity

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "github-wrapped/internal/errors"
	"github-wrapped/internal/model"
)

// Provider resolves the signed-in principal behind an incoming request.
type Provider interface {
	Resolve(r *http.Request) (*model.Principal, error)
}

// TokenProvider resolves principals from a bearer token by asking the
// platform who the token belongs to. baseURL is overridable for tests.
type TokenProvider struct {
	baseURL string
}

// NewTokenProvider creates a TokenProvider against the public GitHub API.
func NewTokenProvider() *TokenProvider {
	return &TokenProvider{}
}

// Resolve reads the Authorization header and looks up the authenticated
// user. A missing or rejected token yields ErrUnauthorized.
func (p *TokenProvider) Resolve(r *http.Request) (*model.Principal, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, custom_errors.ErrUnauthorized
	}

	ctx := r.Context()
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))
	if p.baseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(p.baseURL, p.baseURL)
		if err != nil {
			return nil, err
		}
	}

	user, err := p.authenticatedUser(ctx, gh)
	if err != nil {
		return nil, custom_errors.ErrUnauthorized
	}

	return &model.Principal{
		ID:    strconv.FormatInt(user.GetID(), 10),
		Login: user.GetLogin(),
		Token: token,
	}, nil
}

func (p *TokenProvider) authenticatedUser(ctx context.Context, gh *github.Client) (*github.User, error) {
	user, _, err := gh.Users.Get(ctx, "")
	return user, err
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
}
