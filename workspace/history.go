package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/ClassicalDude/swift-mcp-server/provider"
)

// history reads version control facts for dir. It returns nil when dir is
// not inside a git repository or the repository has no commits yet.
func history(ctx context.Context, dir string) (*provider.VCSHistory, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	last, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("walk log: %w", err)
	}
	defer iter.Close()

	commits := 0
	err = iter.ForEach(func(*object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk log: %w", err)
	}

	branch := "HEAD"
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}

	return &provider.VCSHistory{
		Branch:       branch,
		Commits:      commits,
		LastCommit:   head.Hash().String(),
		LastCommitAt: last.Committer.When.UTC(),
	}, nil
}
