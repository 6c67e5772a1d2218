package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FuncToTest identifies the function tests are generated for.
// Line numbers are 0-based and inclusive. A negative container line means
// the function has no container.
type FuncToTest struct {
	FuncName           string
	RepoRoot           string
	FilePath           string // relative to RepoRoot
	FuncStartLine      int
	FuncEndLine        int
	ContainerStartLine int
	ContainerEndLine   int

	readFile func(path string) (string, error)

	fileLoaded       bool
	fileContent      string
	funcContent      *string
	containerContent *string
}

// NewFuncToTest validates the coordinates and normalizes absent container lines.
func NewFuncToTest(name, repoRoot, filePath string, funcStart, funcEnd, containerStart, containerEnd int) (*FuncToTest, error) {
	if funcStart < 0 || funcEnd < 0 {
		return nil, &InputError{Msg: fmt.Sprintf("invalid function lines %d-%d for %s", funcStart, funcEnd, name)}
	}
	if containerStart < 0 {
		containerStart = -1
	}
	if containerEnd < 0 {
		containerEnd = -1
	}
	return &FuncToTest{
		FuncName:           name,
		RepoRoot:           repoRoot,
		FilePath:           filePath,
		FuncStartLine:      funcStart,
		FuncEndLine:        funcEnd,
		ContainerStartLine: containerStart,
		ContainerEndLine:   containerEnd,
	}, nil
}

// WithReader replaces the file reader. Must be called before the first content access.
func (f *FuncToTest) WithReader(read func(path string) (string, error)) *FuncToTest {
	f.readFile = read
	return f
}

func (f *FuncToTest) AbsPath() string {
	return filepath.Join(f.RepoRoot, f.FilePath)
}

func (f *FuncToTest) HasContainer() bool {
	return f.ContainerStartLine >= 0 && f.ContainerEndLine >= 0
}

// FileContent reads the file on first access and caches it.
func (f *FuncToTest) FileContent() (string, error) {
	if f.fileLoaded {
		return f.fileContent, nil
	}
	read := f.readFile
	if read == nil {
		read = readFile
	}
	content, err := read(f.AbsPath())
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", f.FilePath, err)
	}
	f.fileContent = content
	f.fileLoaded = true
	return content, nil
}

// FuncContent is the inclusive line slice [FuncStartLine, FuncEndLine] of the file.
func (f *FuncToTest) FuncContent() (string, error) {
	if f.funcContent != nil {
		return *f.funcContent, nil
	}
	file, err := f.FileContent()
	if err != nil {
		return "", err
	}
	content := SliceLines(file, f.FuncStartLine, f.FuncEndLine)
	f.funcContent = &content
	return content, nil
}

// ContainerContent returns false when no container lines were given.
func (f *FuncToTest) ContainerContent() (string, bool, error) {
	if !f.HasContainer() {
		return "", false, nil
	}
	if f.containerContent != nil {
		return *f.containerContent, true, nil
	}
	file, err := f.FileContent()
	if err != nil {
		return "", false, err
	}
	content := SliceLines(file, f.ContainerStartLine, f.ContainerEndLine)
	f.containerContent = &content
	return content, true, nil
}

// ContainerContext wraps the container body as a Context, if there is one.
func (f *FuncToTest) ContainerContext() (Context, bool, error) {
	content, ok, err := f.ContainerContent()
	if err != nil || !ok {
		return Context{}, false, err
	}
	return Context{
		FilePath: f.FilePath,
		Content:  content,
		Range: Range{
			Start: Position{Line: f.ContainerStartLine},
			End:   Position{Line: f.ContainerEndLine},
		},
	}, true, nil
}

func (f *FuncToTest) String() string {
	return fmt.Sprintf("%s:L%d:%s", f.FilePath, f.FuncStartLine, f.FuncName)
}

// SliceLines joins lines [start, end] of text. Out-of-range bounds are clamped.
func SliceLines(text string, start, end int) string {
	lines := strings.Split(text, "\n")
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start:end+1], "\n")
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
