package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommitComment(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/octo/site/commits/0123abcd/comments", r.URL.Path)
		assert.Equal(t, "Bearer ghs_token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, apiVersion, r.Header.Get("X-GitHub-Api-Version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 42, "html_url": "https://github.com/octo/site/commit/0123abcd#commitcomment-42", "commit_id": "0123abcd"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "ghs_token", 5*time.Second)
	comment, err := c.CreateCommitComment(context.Background(), Repository{Owner: "octo", Name: "site"}, "0123abcd", "# WebPageTest report\n")
	require.NoError(t, err)

	assert.Equal(t, int64(42), comment.ID)
	assert.Equal(t, "0123abcd", comment.CommitID)
	assert.Contains(t, comment.HTMLURL, "commitcomment-42")
	assert.Equal(t, "# WebPageTest report\n", gotBody["body"])
}

func TestCreateCommitComment_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "Resource not accessible by integration"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ghs_token", 5*time.Second)
	_, err := c.CreateCommitComment(context.Background(), Repository{Owner: "octo", Name: "site"}, "abc", "body")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Resource not accessible by integration", apiErr.Message)
}

func TestParseRepository(t *testing.T) {
	repo, err := ParseRepository("octo/site")
	require.NoError(t, err)
	assert.Equal(t, Repository{Owner: "octo", Name: "site"}, repo)
	assert.Equal(t, "octo/site", repo.String())

	for _, bad := range []string{"", "octo", "/site", "octo/", "octo/site/extra"} {
		_, err := ParseRepository(bad)
		assert.Error(t, err, bad)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 100))

	long := strings.Repeat("é", 200)
	got := Truncate(long, 150)
	assert.Equal(t, 150, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, truncatedNote))
	assert.True(t, utf8.ValidString(got))
}
