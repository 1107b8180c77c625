package git

import (
	"context"
	"errors"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	httpauth "github.com/go-git/go-git/v5/plumbing/transport/http"
	sshauth "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	cryptossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/crystian/declincus/config"
	"github.com/crystian/declincus/faults"
	"github.com/crystian/declincus/internal/providers/repository/fsstore"
	"github.com/crystian/declincus/repository"
	"github.com/crystian/declincus/resource"
)

var _ repository.SpecRepository = (*GitSpecRepository)(nil)
var _ repository.Syncer = (*GitSpecRepository)(nil)

const defaultRemoteName = "origin"

// GitSpecRepository reads declarations out of a git clone. The local
// worktree is the source of truth between syncs; Sync fast-forwards it
// from the configured remote.
type GitSpecRepository struct {
	local  *fsstore.LocalSpecRepository
	source config.GitSource
}

func NewGitSpecRepository(source config.GitSource) (*GitSpecRepository, error) {
	if strings.TrimSpace(source.URL) == "" {
		return nil, validationError("git source url is required", nil)
	}
	if strings.TrimSpace(source.BaseDir) == "" {
		return nil, validationError("git source base-dir is required", nil)
	}

	return &GitSpecRepository{
		local:  fsstore.NewLocalSpecRepository(source.BaseDir),
		source: source,
	}, nil
}

func (r *GitSpecRepository) List(ctx context.Context) ([]string, error) {
	if _, err := r.openOrClone(ctx); err != nil {
		return nil, err
	}
	return r.local.List(ctx)
}

func (r *GitSpecRepository) Load(ctx context.Context, path string) ([]resource.Spec, error) {
	if _, err := r.openOrClone(ctx); err != nil {
		return nil, err
	}
	return r.local.Load(ctx, path)
}

func (r *GitSpecRepository) Sync(ctx context.Context) error {
	repo, err := r.openOrClone(ctx)
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return internalError("failed to open git worktree", err)
	}

	auth, err := r.authMethod()
	if err != nil {
		return err
	}

	pullOptions := &gogit.PullOptions{
		RemoteName: defaultRemoteName,
		Auth:       auth,
	}
	if r.source.Branch != "" {
		pullOptions.ReferenceName = plumbing.NewBranchReferenceName(r.source.Branch)
	}

	if err := worktree.PullContext(ctx, pullOptions); err != nil {
		if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return nil
		}
		return remoteError("failed to pull spec repository", err)
	}
	return nil
}

func (r *GitSpecRepository) openOrClone(ctx context.Context) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(r.source.BaseDir)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, internalError("failed to open spec repository", err)
	}

	auth, err := r.authMethod()
	if err != nil {
		return nil, err
	}

	cloneOptions := &gogit.CloneOptions{
		URL:  r.source.URL,
		Auth: auth,
	}
	if r.source.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(r.source.Branch)
		cloneOptions.SingleBranch = true
	}

	repo, err = gogit.PlainCloneContext(ctx, r.source.BaseDir, false, cloneOptions)
	if err != nil {
		return nil, remoteError("failed to clone spec repository "+r.source.URL, err)
	}
	return repo, nil
}

func (r *GitSpecRepository) authMethod() (transport.AuthMethod, error) {
	auth := r.source.Auth
	if auth == nil {
		return nil, nil
	}

	switch {
	case auth.BasicAuth != nil:
		return &httpauth.BasicAuth{
			Username: auth.BasicAuth.Username,
			Password: auth.BasicAuth.Password,
		}, nil

	case auth.SSH != nil:
		username := auth.SSH.User
		if username == "" {
			username = "git"
		}

		keys, err := sshauth.NewPublicKeysFromFile(username, auth.SSH.PrivateKeyFile, auth.SSH.Passphrase)
		if err != nil {
			return nil, validationError("failed to load git ssh key", err)
		}

		if auth.SSH.InsecureIgnoreHostKey {
			keys.HostKeyCallback = cryptossh.InsecureIgnoreHostKey()
		} else if auth.SSH.KnownHostsFile != "" {
			callback, err := knownhosts.New(auth.SSH.KnownHostsFile)
			if err != nil {
				return nil, validationError("failed to load known-hosts file", err)
			}
			keys.HostKeyCallback = callback
		}
		return keys, nil
	}

	return nil, validationError("git source auth configuration is invalid", nil)
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func remoteError(message string, cause error) error {
	return faults.NewTypedError(faults.RemoteError, message, cause)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
