// Package gitrepo locates the project root and checks .gitignore rules.
package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	gitgitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ErrNotRepository reports that no enclosing git work tree was found.
var ErrNotRepository = errors.New("not a git repository")

// FindRoot returns the work tree root enclosing dir.
func FindRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", fmt.Errorf("%w: %s", ErrNotRepository, abs)
		}
		return "", fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotRepository, abs, err)
	}
	return wt.Filesystem.Root(), nil
}

// ProjectRoot returns the enclosing work tree root, or dir itself outside git.
func ProjectRoot(dir string) (string, error) {
	root, err := FindRoot(dir)
	if errors.Is(err, ErrNotRepository) {
		return filepath.Abs(dir)
	}
	return root, err
}

// Ignored reports whether rel, relative to root, matches a .gitignore rule.
func Ignored(root, rel string) bool {
	rel = filepath.Clean(rel)
	patterns := readGitignorePatterns(root, dirsForRel(rel))
	if len(patterns) == 0 {
		return false
	}
	m := gitgitignore.NewMatcher(patterns)
	comps := []string{}
	if rel != "." && rel != "" {
		comps = strings.Split(filepath.ToSlash(rel), "/")
	}
	return m.Match(comps, false)
}

// dirsForRel returns the directories from "." down to the directory of rel.
func dirsForRel(rel string) []string {
	dirs := []string{"."}
	dir := filepath.Dir(rel)
	if dir == "." {
		return dirs
	}
	cur := ""
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		cur = filepath.Join(cur, part)
		dirs = append(dirs, cur)
	}
	return dirs
}

func readGitignorePatterns(root string, dirs []string) []gitgitignore.Pattern {
	var patterns []gitgitignore.Pattern
	for _, d := range dirs {
		b, err := os.ReadFile(filepath.Join(root, d, ".gitignore"))
		if err != nil {
			continue
		}
		var base []string
		if d != "." {
			base = strings.Split(filepath.ToSlash(d), "/")
		}
		for _, line := range strings.Split(string(b), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, gitgitignore.ParsePattern(line, base))
		}
	}
	return patterns
}
