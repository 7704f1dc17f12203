// Package gitverify checks commit existence against a GitHub-compatible REST API.
package gitverify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ucic-governance-go/internal/models"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

var ErrUnsupportedRepository = errors.New("unsupported repository url")

// Client implements the oracle's GitVerifier.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	attempts uint
	delay    time.Duration
}

func NewClient(cfg models.GitConfig) (*Client, error) {
	httpClient, err := createHttpClient(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create http client: %w", err)
	}
	return newClient(cfg, httpClient), nil
}

func newClient(cfg models.GitConfig, httpClient *http.Client) *Client {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.APIURL, "/"),
		token:    cfg.Token,
		http:     httpClient,
		attempts: uint(attempts),
		delay:    cfg.RetryDelay,
	}
}

func createHttpClient(timeout time.Duration) (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 15 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   10 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// repoPath extracts "owner/name" from a repository url.
func repoPath(repoURL string) (string, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedRepository, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRepository, repoURL)
	}
	return parts[0] + "/" + strings.TrimSuffix(parts[1], ".git"), nil
}

// VerifyCommit reports whether commitID exists in repoURL. Server errors and rate
// limiting are retried with backoff; a definite answer or a client error is not.
func (c *Client) VerifyCommit(ctx context.Context, repoURL, commitID string) (bool, error) {
	path, err := repoPath(repoURL)
	if err != nil {
		return false, err
	}
	endpoint := fmt.Sprintf("%s/repos/%s/commits/%s", c.baseURL, path, url.PathEscape(commitID))

	var found bool
	err = retry.Do(func() error {
		ok, err := c.lookup(ctx, endpoint)
		if err != nil {
			return err
		}
		found = ok
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			zap.L().Warn("Retrying commit verification",
				zap.String("repo", repoURL),
				zap.String("commit", commitID),
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, fmt.Errorf("verifying %s@%s: %w", path, commitID, ctxErr)
	}
	if err != nil {
		return false, fmt.Errorf("verifying %s@%s: %w", path, commitID, err)
	}

	zap.L().Debug("Commit verified",
		zap.String("repo", path),
		zap.String("commit", commitID),
		zap.Bool("found", found))
	return found, nil
}

func (c *Client) lookup(ctx context.Context, endpoint string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, retry.Unrecoverable(err)
		}
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnprocessableEntity:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return false, fmt.Errorf("git api returned %s", resp.Status)
	default:
		return false, retry.Unrecoverable(fmt.Errorf("git api returned %s", resp.Status))
	}
}
