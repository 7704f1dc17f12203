package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

var commitPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,64}$`)

func validateRepoURL(repoURL string) error {
	u, err := url.Parse(repoURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidRepository, repoURL)
	}
	return nil
}

// validateRepository accepts an empty reference. A commit needs a repository.
func validateRepository(repoURL, commitID string) error {
	if repoURL == "" {
		if commitID != "" {
			return fmt.Errorf("%w: commit %s without repository", ErrInvalidRepository, commitID)
		}
		return nil
	}
	if err := validateRepoURL(repoURL); err != nil {
		return err
	}
	if commitID != "" && !commitPattern.MatchString(commitID) {
		return fmt.Errorf("%w: malformed commit id %q", ErrInvalidRepository, commitID)
	}
	return nil
}

func (o *Oracle) LinkGitRepository(contributor, repoURL string) error {
	if err := validateAddress(contributor); err != nil {
		return err
	}
	if err := validateRepoURL(repoURL); err != nil {
		return err
	}
	o.repos[contributor] = repoURL
	o.recordAction("link_repository", contributor, repoURL)
	return nil
}

func (o *Oracle) LinkedRepository(contributor string) (string, bool) {
	repo, ok := o.repos[contributor]
	return repo, ok
}

// VerifyGitCommit asks the injected verifier whether commitID exists in repoURL. It
// never touches oracle state and gives up after the configured timeout.
func (o *Oracle) VerifyGitCommit(ctx context.Context, repoURL, commitID string) (bool, error) {
	if o.git == nil {
		return false, ErrNoGitVerifier
	}
	if err := validateRepository(repoURL, commitID); err != nil {
		return false, err
	}
	if commitID == "" {
		return false, fmt.Errorf("%w: empty commit id", ErrInvalidRepository)
	}

	ctx, cancel := context.WithTimeout(ctx, o.params.GitTimeout)
	defer cancel()

	ok, err := o.git.VerifyCommit(ctx, repoURL, commitID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return false, fmt.Errorf("%w: %s@%s", ErrVerificationTimeout, repoURL, commitID)
		}
		return false, err
	}
	return ok, nil
}

func (o *Oracle) Params() Params {
	return o.params
}
