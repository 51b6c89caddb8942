/*
PURPOSE:
  Minimal GitHub REST client: creates commit comments.

REQUIREMENTS:
  User-specified:
  - Post the report as a comment on the pushed commit.
  - No retries; a failed post ends the invocation.

  Implementation-discovered:
  - GitHub rejects comment bodies above 65536 characters; long reports are cut.
  - GitHub Enterprise Server exposes the API under GITHUB_API_URL.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Pipeline)

ERROR HANDLING:
  - Transport errors and non-2xx responses are returned as *APIError.

USAGE:
  c := github.NewClient(env.APIURL, env.Token, 30*time.Second)
  comment, err := c.CreateCommitComment(ctx, repo, sha, body)
*/

package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	apiVersion = "2022-11-28"

	// MaxCommentLength is GitHub's limit on comment bodies, in characters.
	MaxCommentLength = 65536
	truncatedNote    = "\n\n_Report truncated: GitHub limits comments to 65536 characters._\n"
)

// Repository identifies owner/name.
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string { return r.Owner + "/" + r.Name }

// ParseRepository parses GITHUB_REPOSITORY ("owner/name").
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, errors.Errorf("invalid repository %q, want owner/name", s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

// CommitComment is the subset of the API response we use.
type CommitComment struct {
	ID       int64  `json:"id"`
	HTMLURL  string `json:"html_url"`
	CommitID string `json:"commit_id"`
	Body     string `json:"body"`
}

// APIError is a failed GitHub API call.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("github api: %v", e.Err)
	}
	return fmt.Sprintf("github api: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

type Client struct {
	http *resty.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", apiVersion).
		SetHeader("User-Agent", "wpt-reporter/1.0")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &Client{http: client}
}

// CreateCommitComment comments body on commit sha of repo.
func (c *Client) CreateCommitComment(ctx context.Context, repo Repository, sha, body string) (*CommitComment, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"owner": repo.Owner,
			"repo":  repo.Name,
			"sha":   sha,
		}).
		SetBody(map[string]string{"body": Truncate(body, MaxCommentLength)}).
		Post("/repos/{owner}/{repo}/commits/{sha}/comments")
	if err != nil {
		return nil, &APIError{Err: err}
	}
	if resp.IsError() {
		var payload struct {
			Message string `json:"message"`
		}
		msg := resp.Status()
		if json.Unmarshal(resp.Body(), &payload) == nil && payload.Message != "" {
			msg = payload.Message
		}
		return nil, &APIError{Status: resp.StatusCode(), Message: msg}
	}

	var comment CommitComment
	if err := json.Unmarshal(resp.Body(), &comment); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal commit comment")
	}
	return &comment, nil
}

// Truncate shortens body to at most limit characters, ending with a note when cut.
func Truncate(body string, limit int) string {
	if utf8.RuneCountInString(body) <= limit {
		return body
	}
	keep := limit - utf8.RuneCountInString(truncatedNote)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(body)
	return string(runes[:keep]) + truncatedNote
}
