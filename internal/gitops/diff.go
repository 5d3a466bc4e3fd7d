package gitops

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/quocvuong92/helios/internal/constants"
	"github.com/quocvuong92/helios/internal/textdiff"
)

type stagedFile struct {
	path          string
	before, after string
	inHead        bool
	inIndex       bool
	binary        bool
}

// StagedDiff renders the difference between HEAD and the index as a unified
// diff, like "git diff --cached". It is empty when nothing is staged.
func (r *Repo) StagedDiff() (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", &GitError{Op: "diff", Err: err}
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return "", &GitError{Op: "diff", Err: err}
	}
	tree, err := headTree(repo)
	if err != nil {
		return "", &GitError{Op: "diff", Err: err}
	}

	files := make(map[string]*stagedFile)
	for _, e := range idx.Entries {
		var headHash plumbing.Hash
		f := &stagedFile{path: e.Name, inIndex: true}
		if tree != nil {
			if hf, err := tree.File(e.Name); err == nil {
				if hf.Hash == e.Hash {
					continue
				}
				headHash = hf.Hash
				f.inHead = true
			}
		}
		if f.after, f.binary, err = blobText(repo, e.Hash); err != nil {
			return "", &GitError{Op: "diff", Err: err}
		}
		if f.inHead {
			old, bin, err := blobText(repo, headHash)
			if err != nil {
				return "", &GitError{Op: "diff", Err: err}
			}
			f.before, f.binary = old, f.binary || bin
		}
		files[e.Name] = f
	}

	if tree != nil {
		indexed := make(map[string]bool, len(idx.Entries))
		for _, e := range idx.Entries {
			indexed[e.Name] = true
		}
		err = tree.Files().ForEach(func(hf *object.File) error {
			if indexed[hf.Name] {
				return nil
			}
			old, bin, err := blobText(repo, hf.Hash)
			if err != nil {
				return err
			}
			files[hf.Name] = &stagedFile{path: hf.Name, before: old, inHead: true, binary: bin}
			return nil
		})
		if err != nil {
			return "", &GitError{Op: "diff", Err: err}
		}
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, p := range paths {
		sb.WriteString(files[p].render())
	}
	return sb.String(), nil
}

func (f *stagedFile) render() string {
	oldLabel, newLabel := "a/"+f.path, "b/"+f.path
	if !f.inHead {
		oldLabel = textdiff.DevNull
	}
	if !f.inIndex {
		newLabel = textdiff.DevNull
	}
	header := fmt.Sprintf("diff --git a/%s b/%s\n", f.path, f.path)
	if f.binary {
		return header + fmt.Sprintf("Binary files %s and %s differ\n", oldLabel, newLabel)
	}
	d := textdiff.Unified(oldLabel, newLabel, f.before, f.after, constants.DiffContextLines)
	if d.Empty() {
		// staged empty file
		return header + fmt.Sprintf("--- %s\n+++ %s\n", oldLabel, newLabel)
	}
	return header + d.Text
}

// headTree returns the tree of HEAD, or nil before the first commit
func headTree(repo *git.Repository) (*object.Tree, error) {
	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

func blobText(repo *git.Repository, h plumbing.Hash) (text string, binary bool, err error) {
	blob, err := repo.BlobObject(h)
	if err != nil {
		return "", false, err
	}
	rd, err := blob.Reader()
	if err != nil {
		return "", false, err
	}
	defer rd.Close()
	data, err := io.ReadAll(rd)
	if err != nil {
		return "", false, err
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", true, nil
	}
	return string(data), false, nil
}
