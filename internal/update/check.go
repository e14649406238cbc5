// Package update checks GitHub Releases for a newer tatu version.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// Repo is the GitHub repository releases are published to.
const Repo = "garagon/tatu"

// Result holds the outcome of a version check.
type Result struct {
	Latest    string // e.g. "v0.4.0"
	Current   string
	UpdateURL string // "go install github.com/garagon/tatu/cmd/tatu@latest"
}

// NeedsUpdate reports whether Latest is a newer release than Current.
// Development builds and unparseable versions never need an update.
func (r *Result) NeedsUpdate() bool {
	latest, current := canonical(r.Latest), canonical(r.Current)
	if latest == "" || current == "" {
		return false
	}
	return semver.Compare(latest, current) > 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == "dev" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

type githubRelease struct {
	TagName string `json:"tag_name"`
}

// Checker queries the releases API. The zero value uses api.github.com.
type Checker struct {
	BaseURL string
	Client  *http.Client
}

const checkTimeout = 2 * time.Second

// CheckLatest looks up the latest release of Repo. It returns nil on any
// failure (timeout, network error, unexpected response) and for
// development builds; a version check never fails a command.
func CheckLatest(ctx context.Context, currentVersion string) *Result {
	if canonical(currentVersion) == "" {
		return nil
	}
	return (&Checker{}).Check(ctx, currentVersion, Repo)
}

// Check looks up the latest release of repo.
func (c *Checker) Check(ctx context.Context, currentVersion, repo string) *Result {
	base := c.BaseURL
	if base == "" {
		base = "https://api.github.com"
	}
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: checkTimeout}
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimSuffix(base, "/"), repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil || release.TagName == "" {
		return nil
	}

	return &Result{
		Latest:    release.TagName,
		Current:   currentVersion,
		UpdateURL: fmt.Sprintf("go install github.com/%s/cmd/tatu@latest", repo),
	}
}
