// Package resolver turns a GitHub "blob" URL into fetchable raw content.
//
// GitHub has two URL schemes for the same file:
//
//	web view:    https://github.com/{owner}/{repo}/blob/{branch}/{path}
//	raw content: https://raw.githubusercontent.com/{owner}/{repo}/{branch}/{path}
//
// Users paste the first kind (it's what the browser shows); the service needs
// the second kind to GET the file body. Parsing and fetching are split into
// two steps so the parse result can be validated and reported on before any
// network I/O happens.
package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultRawBaseURL is GitHub's raw-content host. Tests override it with an
// httptest server URL.
const DefaultRawBaseURL = "https://raw.githubusercontent.com"

// blobURLPattern matches the GitHub web ("blob") URL shape. The host is fixed
// to github.com; other forges use the same path convention but serve raw
// content elsewhere, so we don't pretend to support them.
//
// Capture groups: owner, repo, branch, path (path may contain slashes).
var blobURLPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/blob/([^/]+)/(.+)$`)

// FileRef identifies one file in one GitHub repository at one branch.
// It is derived from user input and never persisted.
type FileRef struct {
	Owner    string
	Repo     string
	Branch   string
	Path     string // may contain slashes, e.g. "src/main/app.kt"
	FileName string // last segment of Path
}

// ParseBlobURL extracts a FileRef from a GitHub blob URL.
//
// A non-matching string returns (nil, false); pasting a random URL is an
// expected outcome, not an error, so there's no error value to inspect.
func ParseBlobURL(rawURL string) (*FileRef, bool) {
	m := blobURLPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return nil, false
	}

	path := m[4]
	segments := strings.Split(path, "/")

	return &FileRef{
		Owner:    m[1],
		Repo:     m[2],
		Branch:   m[3],
		Path:     path,
		FileName: segments[len(segments)-1],
	}, true
}

// RawURL builds the raw-content URL for a parsed file reference.
// The path is substituted verbatim, with no re-encoding, so the result is
// byte-for-byte what GitHub's "Raw" button links to.
func (f *FileRef) RawURL() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", DefaultRawBaseURL, f.Owner, f.Repo, f.Branch, f.Path)
}

// rawURLAt is RawURL against an arbitrary base, used by Fetcher so tests can
// point it at a local httptest server.
func (f *FileRef) rawURLAt(base string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", strings.TrimRight(base, "/"), f.Owner, f.Repo, f.Branch, f.Path)
}

// Fetcher retrieves raw file content over HTTP.
//
// DELIBERATE SIMPLIFICATIONS:
// One unauthenticated GET, no retries, no timeout beyond whatever the injected
// client carries. A transient GitHub hiccup surfaces as a failed analysis and
// the user retries by resubmitting; acceptable for an interactive tool, and
// documented here so nobody mistakes it for a guarantee.
type Fetcher struct {
	client  *http.Client
	baseURL string
}

// NewFetcher creates a Fetcher against the real GitHub raw-content host.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, baseURL: DefaultRawBaseURL}
}

// NewFetcherWithBaseURL creates a Fetcher against a custom base URL.
// Used by tests to substitute an httptest server for GitHub.
func NewFetcherWithBaseURL(client *http.Client, baseURL string) *Fetcher {
	f := NewFetcher(client)
	f.baseURL = baseURL
	return f
}

// Fetch GETs the raw content for ref and returns it as UTF-8 text.
//
// Network errors, non-2xx statuses and bodies that aren't valid UTF-8 all
// return an error; callers treat them uniformly as "content unavailable"
// and don't need to distinguish the cause.
func (f *Fetcher) Fetch(ctx context.Context, ref *FileRef) (string, error) {
	url := ref.rawURLAt(f.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("resolver: building request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolver: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("resolver: fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("resolver: reading body of %s: %w", url, err)
	}

	if !utf8.Valid(body) {
		return "", fmt.Errorf("resolver: %s: body is not valid UTF-8", url)
	}

	return string(body), nil
}
