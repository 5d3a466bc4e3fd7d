// Package gitops wraps the Git operations the assistant needs after applying
// changes: repository detection, staging, committing and pushing.
//
// Everything except a fallback push runs in-process on go-git.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/quocvuong92/helios/internal/constants"
	"github.com/quocvuong92/helios/internal/logging"
)

var (
	// ErrNotRepo is returned by operations that need an existing repository
	ErrNotRepo = errors.New("not a git repository")
	// ErrNoAuthor is returned by Commit when no author identity is configured
	ErrNoAuthor = errors.New("no git author configured (set git.author_name and git.author_email, or user.name and user.email)")
	// ErrEmptyMessage is returned by Commit for a blank message
	ErrEmptyMessage = errors.New("commit message is empty")
)

// GitError records the operation that failed
type GitError struct {
	Op  string
	Err error
}

func (e *GitError) Error() string { return fmt.Sprintf("git %s: %v", e.Op, e.Err) }
func (e *GitError) Unwrap() error { return e.Err }

// Git is the set of repository operations used by the CLI
type Git interface {
	IsRepo() bool
	InitRepo() error
	CurrentBranch() (string, error)
	Status() ([]FileChange, error)
	StagedDiff() (string, error)
	Stage(paths ...string) error
	AddAll() error
	Commit(message string) (string, error)
	Push(ctx context.Context, branch string) error
	CreateBranch(name string) error
}

// Options configures a Repo
type Options struct {
	AuthorName  string
	AuthorEmail string
	// Remote defaults to constants.DefaultRemote
	Remote string
}

// Repo implements Git on a working directory
type Repo struct {
	dir    string
	opts   Options
	repo   *git.Repository
	log    *logging.Logger
	gitBin string
}

var _ Git = (*Repo)(nil)

// New returns a Repo rooted at dir (or any of its parents once a .git
// directory exists). The repository is opened lazily.
func New(dir string, opts Options) *Repo {
	if opts.Remote == "" {
		opts.Remote = constants.DefaultRemote
	}
	return &Repo{
		dir:    dir,
		opts:   opts,
		log:    logging.DefaultLogger.With(logging.Fields{"component": "git"}),
		gitBin: "git",
	}
}

func (r *Repo) open() (*git.Repository, error) {
	if r.repo != nil {
		return r.repo, nil
	}
	repo, err := git.PlainOpenWithOptions(r.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrNotRepo
	}
	if err != nil {
		return nil, err
	}
	r.repo = repo
	return repo, nil
}

func (r *Repo) worktree(op string) (*git.Repository, *git.Worktree, error) {
	repo, err := r.open()
	if err != nil {
		return nil, nil, &GitError{Op: op, Err: err}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, nil, &GitError{Op: op, Err: err}
	}
	return repo, wt, nil
}

// IsRepo reports whether the directory is inside a Git work tree
func (r *Repo) IsRepo() bool {
	_, err := r.open()
	return err == nil
}

// InitRepo creates a repository in the directory with "main" as the
// initial branch.
func (r *Repo) InitRepo() error {
	repo, err := git.PlainInitWithOptions(r.dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	if err != nil {
		return &GitError{Op: "init", Err: err}
	}
	r.repo = repo
	r.log.Info("initialized repository", logging.Fields{"dir": r.dir})
	return nil
}

// CurrentBranch returns the checked-out branch name. An unborn branch (no
// commits yet) is reported by name; a detached HEAD as "HEAD".
func (r *Repo) CurrentBranch() (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", &GitError{Op: "branch", Err: err}
	}
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", &GitError{Op: "branch", Err: err}
	}
	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short(), nil
	}
	return "HEAD", nil
}

// FileChange is one entry of the working tree status
type FileChange struct {
	Path     string
	Staging  git.StatusCode
	Worktree git.StatusCode
}

// Staged reports whether the index differs from HEAD for this path
func (c FileChange) Staged() bool {
	return c.Staging != git.Unmodified && c.Staging != git.Untracked
}

// Unstaged reports whether the working tree differs from the index
func (c FileChange) Unstaged() bool {
	return c.Worktree != git.Unmodified
}

// Untracked reports whether the file is unknown to the index
func (c FileChange) Untracked() bool {
	return c.Staging == git.Untracked
}

// Status returns changed and untracked files sorted by path
func (r *Repo) Status() ([]FileChange, error) {
	_, wt, err := r.worktree("status")
	if err != nil {
		return nil, err
	}
	st, err := wt.Status()
	if err != nil {
		return nil, &GitError{Op: "status", Err: err}
	}

	changes := make([]FileChange, 0, len(st))
	for path, fs := range st {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		changes = append(changes, FileChange{Path: path, Staging: fs.Staging, Worktree: fs.Worktree})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// FormatStatus renders changes as short-format status lines ("XY path")
func FormatStatus(changes []FileChange) string {
	var sb strings.Builder
	for _, c := range changes {
		fmt.Fprintf(&sb, "%c%c %s\n", statusChar(c.Staging), statusChar(c.Worktree), c.Path)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func statusChar(c git.StatusCode) byte {
	if c == git.Unmodified {
		return ' '
	}
	return byte(c)
}

// Stage adds paths to the index. Relative paths are resolved against the
// Repo directory; paths outside the work tree are rejected. A path that no
// longer exists is staged as a removal.
func (r *Repo) Stage(paths ...string) error {
	_, wt, err := r.worktree("add")
	if err != nil {
		return err
	}
	root := wt.Filesystem.Root()

	for _, p := range paths {
		rel, err := r.relative(root, p)
		if err != nil {
			return &GitError{Op: "add", Err: err}
		}
		if _, statErr := os.Stat(filepath.Join(root, rel)); errors.Is(statErr, os.ErrNotExist) {
			_, err = wt.Remove(filepath.ToSlash(rel))
		} else {
			_, err = wt.Add(filepath.ToSlash(rel))
		}
		if err != nil {
			return &GitError{Op: "add", Err: fmt.Errorf("%s: %w", p, err)}
		}
	}
	r.log.Debug("staged paths", logging.Fields{"count": len(paths)})
	return nil
}

func (r *Repo) relative(root, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.dir, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the repository", p)
	}
	return rel, nil
}

// AddAll stages every change in the work tree, including removals and
// untracked files.
func (r *Repo) AddAll() error {
	_, wt, err := r.worktree("add")
	if err != nil {
		return err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return &GitError{Op: "add", Err: err}
	}
	return nil
}

// Commit records the index and returns the new commit hash.
func (r *Repo) Commit(message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", &GitError{Op: "commit", Err: ErrEmptyMessage}
	}
	repo, wt, err := r.worktree("commit")
	if err != nil {
		return "", err
	}
	sig, err := r.signature(repo)
	if err != nil {
		return "", &GitError{Op: "commit", Err: err}
	}

	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig})
	if err != nil {
		return "", &GitError{Op: "commit", Err: err}
	}
	r.log.Info("committed", logging.Fields{"hash": hash.String()})
	return hash.String(), nil
}

// signature prefers the configured author, then the repository and global
// user identity.
func (r *Repo) signature(repo *git.Repository) (*object.Signature, error) {
	name, email := r.opts.AuthorName, r.opts.AuthorEmail
	if name == "" || email == "" {
		if cfg, err := repo.ConfigScoped(gitconfig.GlobalScope); err == nil {
			if name == "" {
				name = cfg.User.Name
			}
			if email == "" {
				email = cfg.User.Email
			}
		}
	}
	if name == "" || email == "" {
		return nil, ErrNoAuthor
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}, nil
}

// Push sends branch to the configured remote. An up-to-date remote is not
// an error. When go-git cannot authenticate, the git binary is tried so
// credential helpers and ssh agents are honored.
func (r *Repo) Push(ctx context.Context, branch string) error {
	repo, err := r.open()
	if err != nil {
		return &GitError{Op: "push", Err: err}
	}
	ref := plumbing.NewBranchReferenceName(branch)
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: r.opts.Remote,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(ref + ":" + ref)},
	})
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
		r.log.Info("pushed", logging.Fields{"remote": r.opts.Remote, "branch": branch})
		return nil
	case needsNativePush(err):
		r.log.Debug("go-git push needs credentials, using git binary", logging.Fields{"error": err.Error()})
		return r.nativePush(ctx, branch)
	default:
		return &GitError{Op: "push", Err: err}
	}
}

func needsNativePush(err error) bool {
	return errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) ||
		errors.Is(err, transport.ErrInvalidAuthMethod)
}

func (r *Repo) nativePush(ctx context.Context, branch string) error {
	bin, err := exec.LookPath(r.gitBin)
	if err != nil {
		return &GitError{Op: "push", Err: transport.ErrAuthenticationRequired}
	}
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultGitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, "push", r.opts.Remote, branch)
	cmd.Dir = r.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &GitError{Op: "push", Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))}
	}
	return nil
}

// CreateBranch creates name at HEAD and checks it out, keeping local changes.
func (r *Repo) CreateBranch(name string) error {
	_, wt, err := r.worktree("checkout")
	if err != nil {
		return err
	}
	err = wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
		Keep:   true,
	})
	if err != nil {
		return &GitError{Op: "checkout", Err: err}
	}
	r.log.Info("created branch", logging.Fields{"branch": name})
	return nil
}
