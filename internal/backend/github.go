package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/localnerve/chapterviewer/internal/types"
)

const defaultGitHubAPI = "https://api.github.com"

var fencedJSON = regexp.MustCompile("(?s)```json\n(.*?)\n```")

// GitHubIssues keeps each record kind in one open issue labelled
// "data-<kind>", with the record as a fenced JSON block in the body.
// Saves overwrite the whole body: last write wins.
type GitHubIssues struct {
	apiURL string
	repo   string
	token  string
	client HTTPDoer
}

type issue struct {
	Number int    `json:"number"`
	Body   string `json:"body"`
}

// NewGitHubIssues builds an issue-backed store for repo ("owner/name").
// An empty apiURL targets api.github.com.
func NewGitHubIssues(apiURL, repo, token string, client HTTPDoer) *GitHubIssues {
	if apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/"); apiURL == "" {
		apiURL = defaultGitHubAPI
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &GitHubIssues{
		apiURL: apiURL,
		repo:   strings.Trim(strings.TrimSpace(repo), "/"),
		token:  strings.TrimSpace(token),
		client: client,
	}
}

// Load implements KeyValue.
func (g *GitHubIssues) Load(ctx context.Context, kind types.Kind) (json.RawMessage, error) {
	found, err := g.find(ctx, kind)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, nil
	}
	m := fencedJSON.FindStringSubmatch(found.Body)
	if m == nil {
		return nil, nil
	}
	if !json.Valid([]byte(m[1])) {
		return nil, fmt.Errorf("issue #%d for %s holds invalid JSON", found.Number, kind)
	}
	return json.RawMessage(m[1]), nil
}

// Save implements KeyValue.
func (g *GitHubIssues) Save(ctx context.Context, kind types.Kind, data json.RawMessage) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return fmt.Errorf("format %s record: %w", kind, err)
	}
	title := "Data: " + kind.String()
	body := "```json\n" + pretty.String() + "\n```"

	found, err := g.find(ctx, kind)
	if err != nil {
		return err
	}
	if found != nil {
		target := fmt.Sprintf("%s/repos/%s/issues/%d", g.apiURL, g.repo, found.Number)
		return g.send(ctx, http.MethodPatch, target, map[string]any{"title": title, "body": body}, nil)
	}
	target := fmt.Sprintf("%s/repos/%s/issues", g.apiURL, g.repo)
	return g.send(ctx, http.MethodPost, target, map[string]any{
		"title":  title,
		"body":   body,
		"labels": []string{label(kind)},
	}, nil)
}

// Ping checks the repository is reachable with the configured token.
func (g *GitHubIssues) Ping(ctx context.Context) error {
	return g.send(ctx, http.MethodGet, fmt.Sprintf("%s/repos/%s", g.apiURL, g.repo), nil, nil)
}

func (g *GitHubIssues) find(ctx context.Context, kind types.Kind) (*issue, error) {
	q := url.Values{}
	q.Set("labels", label(kind))
	q.Set("state", "open")
	target := fmt.Sprintf("%s/repos/%s/issues?%s", g.apiURL, g.repo, q.Encode())

	var issues []issue
	if err := g.send(ctx, http.MethodGet, target, nil, &issues); err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, nil
	}
	return &issues[0], nil
}

func (g *GitHubIssues) send(ctx context.Context, method, target string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode issue request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build issue request: %w", err)
	}
	req.Header.Set("Authorization", "token "+g.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnavailable, method, target, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode issue response: %w", err)
	}
	return nil
}

func label(kind types.Kind) string {
	return "data-" + kind.String()
}
