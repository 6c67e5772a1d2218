package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"testgen/internal/port"
)

// Walker lists repository files matching include globs. Hidden entries,
// excludes and paths ignored by the root .gitignore are skipped.
type Walker struct {
	includes   []string
	excludes   []string
	extensions map[string]bool // empty means any extension
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// NewTestFileWalker finds test files of every supported language.
func NewTestFileWalker(excludes []string) *Walker {
	w := NewWalker(AllTestPatterns(), excludes)
	w.extensions = make(map[string]bool, len(sourceExtensions))
	for _, ext := range sourceExtensions {
		w.extensions[ext] = true
	}
	return w
}

// Walk returns files under root, relative and slash separated, sorted by path.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	var files []port.FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	ignored, err := loadGitignore(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if isHidden(info.Name()) || w.shouldExclude(relPath+"/") ||
				(ignored != nil && ignored.MatchesPath(relPath+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if isHidden(info.Name()) || !w.hasExtension(relPath) {
			return nil
		}
		if ignored != nil && ignored.MatchesPath(relPath) {
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, port.FileInfo{
				Path:    relPath,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}

		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

func loadGitignore(root string) (*ignore.GitIgnore, error) {
	ignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(ignorePath); err == nil {
		ignored, err := ignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("error reading .gitignore file: %w", err)
		}
		return ignored, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error checking for .gitignore file: %w", err)
	}
	return nil, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func (w *Walker) hasExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// Reader reads files relative to a root directory.
type Reader struct {
	root string
}

func NewReader(root string) *Reader {
	return &Reader{root: root}
}

func (r *Reader) ReadFile(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}
	return ReadFile(path)
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// VerifyFiles drops duplicates and paths that are not existing regular files,
// keeping the original order. Relative paths are resolved against root.
func VerifyFiles(files []string, root string) []string {
	seen := make(map[string]bool, len(files))
	var out []string
	for _, f := range files {
		if seen[f] {
			continue
		}
		seen[f] = true

		path := f
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, f)
	}
	return out
}
