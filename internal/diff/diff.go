// Package diff turns unified diffs into code snippets that can be submitted
// for review, and highlights source for display.
package diff

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/sprite-ai/reviewdesk/internal/model"
)

// File represents a single file in a diff with its parsed fragments.
type File struct {
	OldName      string
	NewName      string
	IsNew        bool
	IsDeleted    bool
	IsRenamed    bool
	IsBinary     bool
	Fragments    []*gitdiff.TextFragment
	AddedLines   int
	DeletedLines int
}

// Name returns the display name for the file.
func (f *File) Name() string {
	if f.IsRenamed {
		return fmt.Sprintf("%s → %s", f.OldName, f.NewName)
	}
	if f.IsDeleted {
		return f.OldName
	}
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

// Path is the file's path after the change, used for language detection.
func (f *File) Path() string {
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

// AddedCode joins every added line, in order, into one snippet. Separate
// hunks are divided by a blank line.
func (f *File) AddedCode() string {
	var b strings.Builder
	for i, frag := range f.Fragments {
		if i > 0 && b.Len() > 0 {
			b.WriteByte('\n')
		}
		for _, line := range frag.Lines {
			if line.Op == gitdiff.OpAdd {
				b.WriteString(strings.TrimRight(line.Line, "\r\n"))
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// DiffSet holds the parsed diff for all files.
type DiffSet struct {
	Files []*File
	Raw   string // the raw unified diff text
}

// Stats returns aggregate statistics.
func (ds *DiffSet) Stats() (files, added, deleted int) {
	files = len(ds.Files)
	for _, f := range ds.Files {
		added += f.AddedLines
		deleted += f.DeletedLines
	}
	return
}

// Snippet is one reviewable unit extracted from a diff.
type Snippet struct {
	File     string
	Language model.Language
	Code     string
}

// Request converts the snippet into a review request.
func (s Snippet) Request() model.ReviewRequest {
	return model.ReviewRequest{Code: s.Code, Language: s.Language}
}

// Snippets returns the added code of each non-binary, non-deleted file whose
// language the review service supports. Files that cannot be reviewed are
// returned by name in skipped.
func (ds *DiffSet) Snippets() (snippets []Snippet, skipped []string) {
	for _, f := range ds.Files {
		if f.IsBinary || f.IsDeleted || f.AddedLines == 0 {
			skipped = append(skipped, f.Name())
			continue
		}

		lang, ok := LanguageForFile(f.Path())
		if !ok {
			skipped = append(skipped, f.Name())
			continue
		}

		snippets = append(snippets, Snippet{
			File:     f.Name(),
			Language: lang,
			Code:     f.AddedCode(),
		})
	}
	return snippets, skipped
}

// Parse reads a unified diff string and returns a DiffSet.
func Parse(raw string) (*DiffSet, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	ds := &DiffSet{Raw: raw}
	for _, f := range parsed {
		df := &File{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
			IsRenamed: f.IsRename,
			IsBinary:  f.IsBinary,
		}

		for _, frag := range f.TextFragments {
			df.Fragments = append(df.Fragments, frag)
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					df.AddedLines++
				case gitdiff.OpDelete:
					df.DeletedLines++
				}
			}
		}

		ds.Files = append(ds.Files, df)
	}

	return ds, nil
}

// GitDiff runs `git diff` in repoDir with the given arguments and returns the
// raw output.
func GitDiff(repoDir string, args ...string) (string, error) {
	cmdArgs := append([]string{"diff", "--no-color"}, args...)
	cmd := exec.Command("git", cmdArgs...)
	cmd.Dir = repoDir

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}

	return string(out), nil
}
