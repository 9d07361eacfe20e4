package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/siteship/internal/config"
	ferrors "git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/logfields"
	"git.home.luguber.info/inful/siteship/internal/retry"
)

const gitRemoteName = "origin"

// GitTool publishes a directory by committing it as the sole tree of a
// throwaway repository and force-pushing that branch to the remote.
type GitTool struct {
	cfg    config.GitConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewGitTool creates a GitTool from the git publish configuration.
func NewGitTool(cfg config.GitConfig, logger *slog.Logger) *GitTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitTool{cfg: cfg, logger: logger, now: time.Now}
}

func (g *GitTool) Name() string { return "git" }

func (g *GitTool) Publish(ctx context.Context, dir string) error {
	branch := plumbing.NewBranchReferenceName(g.cfg.Branch)

	// Staging may still hold metadata from an earlier git publish.
	if err := os.RemoveAll(filepath.Join(dir, git.GitDirName)); err != nil {
		return ferrors.FileSystemError("failed to reset git metadata").WithCause(err).WithContext("path", dir).Build()
	}

	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: branch},
	})
	if err != nil {
		return ferrors.GitError("failed to init repository").WithCause(err).Build()
	}

	w, err := repo.Worktree()
	if err != nil {
		return ferrors.GitError("failed to get worktree").WithCause(err).Build()
	}
	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return ferrors.GitError("failed to stage files").WithCause(err).Build()
	}

	hash, err := w.Commit(g.cfg.Message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  g.cfg.AuthorName,
			Email: g.cfg.AuthorEmail,
			When:  g.now(),
		},
	})
	if err != nil {
		return ferrors.GitError("failed to commit").WithCause(err).Build()
	}

	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: gitRemoteName,
		URLs: []string{g.cfg.Remote},
	}); err != nil {
		return ferrors.GitError("failed to configure remote").
			WithCause(err).
			WithContext("remote", g.cfg.Remote).
			Build()
	}

	auth, err := getAuthentication(g.cfg.Auth)
	if err != nil {
		return err
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("+%s:%s", branch, branch))
	push := func() error {
		err := repo.PushContext(ctx, &git.PushOptions{
			RemoteName: gitRemoteName,
			RefSpecs:   []gitconfig.RefSpec{refSpec},
			Auth:       auth,
			Force:      true,
		})
		if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return classifyPushError(err, g.cfg.Remote)
	}
	onRetry := func(attempt int, delay time.Duration, err error) {
		g.logger.Warn("Retrying git push",
			logfields.URL(g.cfg.Remote),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			logfields.Error(err))
	}
	if err := retry.FromGitConfig(g.cfg).Do(ctx, push, isPermanentPushError, onRetry); err != nil {
		return fmt.Errorf("failed to push %s: %w", g.cfg.Branch, err)
	}

	g.logger.Info("Pushed staging branch",
		logfields.URL(g.cfg.Remote),
		logfields.Branch(g.cfg.Branch),
		slog.String("commit", hash.String()))
	return nil
}

// classifyPushError sorts a push failure into auth failures, permanent git
// failures and transient failures worth retrying.
func classifyPushError(err error, remote string) *ferrors.ClassifiedError {
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
		return ferrors.AuthError("git authentication failed").WithCause(err).WithContext("remote", remote).Build()
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "auth") || strings.Contains(msg, "permission") || strings.Contains(msg, "denied") {
		return ferrors.AuthError("git authentication failed").WithCause(err).WithContext("remote", remote).Build()
	}

	b := ferrors.GitError("git push failed").WithCause(err).WithContext("remote", remote)
	if isTransientPushError(err, msg) {
		b = b.Retryable()
	}
	return b.Build()
}

func isTransientPushError(err error, msg string) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, transport.ErrRepositoryNotFound) {
		return false
	}
	if strings.Contains(msg, "not found") || strings.Contains(msg, "no such remote") || strings.Contains(msg, "unsupported protocol") {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return true
}

// isPermanentPushError reports errors a retry cannot fix.
func isPermanentPushError(err error) bool {
	classified, ok := ferrors.AsClassified(err)
	return !ok || !classified.CanRetry()
}

// getAuthentication maps auth configuration to a go-git transport method.
func getAuthentication(auth *config.AuthConfig) (transport.AuthMethod, error) {
	if auth.IsZero() {
		return nil, nil // No authentication needed for public or local remotes
	}
	switch auth.Type {
	case config.AuthTypeSSH:
		keyPath, err := sshKeyPath(auth.KeyPath)
		if err != nil {
			return nil, err
		}
		publicKeys, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, ferrors.AuthError("failed to load SSH key").WithCause(err).WithContext("path", keyPath).Build()
		}
		return publicKeys, nil

	case config.AuthTypeToken:
		if auth.Token == "" {
			return nil, ferrors.AuthError("token authentication requires a token").Build()
		}
		return &http.BasicAuth{
			Username: "token", // GitHub/GitLab accept any non-empty username with a token
			Password: auth.Token,
		}, nil

	case config.AuthTypeBasic:
		if auth.Username == "" || auth.Password == "" {
			return nil, ferrors.AuthError("basic authentication requires username and password").Build()
		}
		return &http.BasicAuth{
			Username: auth.Username,
			Password: auth.Password,
		}, nil

	default:
		return nil, ferrors.AuthError("unsupported authentication type").WithContext("type", string(auth.Type)).Build()
	}
}

// sshKeyPath returns keyPath, or the user's default RSA key when it is empty.
func sshKeyPath(keyPath string) (string, error) {
	if keyPath != "" {
		return keyPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ferrors.AuthError("cannot locate default SSH key").WithCause(err).Build()
	}
	return filepath.Join(home, ".ssh", "id_rsa"), nil
}
