package archive

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"sjsage522/paperworker/pkg/errors"

	"github.com/go-resty/resty/v2"
)

// GitHubStore keeps batches as files in a GitHub repository through the contents API
type GitHubStore struct {
	client *resty.Client
	owner  string
	repo   string
	branch string
	dir    string
}

var _ LogStore = (*GitHubStore)(nil)

// GitHubConfig holds the repository coordinates of a GitHubStore
type GitHubConfig struct {
	APIURL  string
	Token   string
	Owner   string
	Repo    string
	Branch  string
	Dir     string
	Timeout time.Duration
}

type contentFile struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

type putContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

// NewGitHubStore creates a store for the configured repository
func NewGitHubStore(cfg GitHubConfig) *GitHubStore {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "token "+cfg.Token).
		SetHeader("Accept", "application/vnd.github.v3+json")

	return &GitHubStore{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: cfg.Branch,
		dir:    cfg.Dir,
	}
}

func (s *GitHubStore) contentsPath(key string) string {
	segments := strings.Split(path.Join(s.dir, key), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(s.owner), url.PathEscape(s.repo), strings.Join(segments, "/"))
}

// get fetches the file metadata; a nil file means it does not exist
func (s *GitHubStore) get(ctx context.Context, key string) (*contentFile, error) {
	req := s.client.R().SetContext(ctx)
	if s.branch != "" {
		req.SetQueryParam("ref", s.branch)
	}

	resp, err := req.Get(s.contentsPath(key))
	if err != nil {
		return nil, errors.NewNetwork("archive", "get "+key, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, errors.NewStorage("archive", fmt.Sprintf("get %s: status %d", key, resp.StatusCode()), nil)
	}

	var file contentFile
	if err := json.Unmarshal(resp.Body(), &file); err != nil {
		return nil, errors.NewParsing("archive", "decode contents response", err)
	}
	return &file, nil
}

// Read returns the decoded file content
func (s *GitHubStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	file, err := s.get(ctx, key)
	if err != nil || file == nil {
		return nil, false, err
	}

	// The API wraps base64 content at 60 columns
	encoded := strings.NewReplacer("\n", "", "\r", "").Replace(file.Content)
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, errors.NewParsing("archive", "decode base64 content", err)
	}
	return content, true, nil
}

// Version returns the blob SHA of the file
func (s *GitHubStore) Version(ctx context.Context, key string) (string, error) {
	file, err := s.get(ctx, key)
	if err != nil || file == nil {
		return "", err
	}
	return file.SHA, nil
}

// Write commits content to the file, creating it when version is empty
func (s *GitHubStore) Write(ctx context.Context, key string, content []byte, version string, message string) error {
	body := putContentRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  s.branch,
		SHA:     version,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Put(s.contentsPath(key))
	if err != nil {
		return errors.NewNetwork("archive", "put "+key, err)
	}
	if resp.IsError() {
		return errors.NewStorage("archive", fmt.Sprintf("put %s: status %d: %s", key, resp.StatusCode(), resp.String()), nil)
	}
	return nil
}
