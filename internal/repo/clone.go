package repo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/Hardhat-Enterprises/ddtinstall/internal/log"
	"github.com/go-git/go-git/v6"
)

// Cloner fetches the application repository into dir.
type Cloner interface {
	Clone(ctx context.Context, url, dir string) error
}

// GitCloner clones over HTTPS with go-git, so the host needs no git binary.
type GitCloner struct {
	// Progress receives the remote's sideband output. Nil discards it.
	Progress io.Writer
}

func NewGitCloner(progress io.Writer) *GitCloner {
	return &GitCloner{Progress: progress}
}

// Clone accepts an existing repository at dir as already cloned.
func (g *GitCloner) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, &git.CloneOptions{
		URL:      url,
		Progress: g.Progress,
	})
	if err == nil {
		log.Info("repository cloned", "url", url, "dir", dir)
		return nil
	}

	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		origin := originURL(dir)
		if origin != "" && origin != url {
			log.Warn("existing clone has a different origin", "dir", dir, "origin", origin, "want", url)
		} else {
			log.Info("repository already cloned, reusing it", "dir", dir)
		}
		return nil
	}

	return errdefs.WrapCustomError(errdefs.ErrTypeCloneFailed,
		fmt.Sprintf("failed to clone %s into %s", url, dir), err)
}

func originURL(dir string) string {
	r, err := git.PlainOpen(dir)
	if err != nil {
		return ""
	}
	remote, err := r.Remote("origin")
	if err != nil {
		return ""
	}
	if urls := remote.Config().URLs; len(urls) > 0 {
		return urls[0]
	}
	return ""
}
