package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const archiveAuthor = "ringtail"

// GitArchiver commits each snapshot as a file in a local repository. The
// repository is created when it does not exist yet.
type GitArchiver struct {
	mu   sync.Mutex
	dir  string
	repo *git.Repository
}

func NewGitArchiver(dir string) (*GitArchiver, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", dir, err)
	}
	return &GitArchiver{dir: dir, repo: repo}, nil
}

func (a *GitArchiver) Upload(ctx context.Context, name string, r io.Reader) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := filepath.Join(a.dir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	out, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	worktree, err := a.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := worktree.Add(filepath.ToSlash(name)); err != nil {
		return fmt.Errorf("failed to stage %s: %w", name, err)
	}

	// Same snapshot twice in one second leaves nothing to commit.
	status, err := worktree.Status()
	if err != nil {
		return err
	}
	if status.IsClean() {
		return nil
	}

	_, err = worktree.Commit("archive "+name, &git.CommitOptions{
		Author: &object.Signature{
			Name:  archiveAuthor,
			Email: archiveAuthor + "@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return nil
}
