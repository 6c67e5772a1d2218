package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"testgen/internal/adapter/fs"
	"testgen/internal/domain"
	"testgen/internal/port"
)

// ReferenceFinder picks existing test files to use as style references.
type ReferenceFinder struct {
	walker   port.FileWalker
	llm      port.LLM
	budgeter *Budgeter
	maxFiles int
	logger   *zap.Logger
}

// NewReferenceFinder creates a reference finder proposing up to maxFiles files.
func NewReferenceFinder(walker port.FileWalker, llm port.LLM, budgeter *Budgeter, maxFiles int, logger *zap.Logger) *ReferenceFinder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxFiles <= 0 {
		maxFiles = 3
	}
	return &ReferenceFinder{
		walker:   walker,
		llm:      llm,
		budgeter: budgeter,
		maxFiles: maxFiles,
		logger:   logger,
	}
}

// Find returns existing test files of the repo ranked by the model. Paths are
// relative to the repo root; paths the model invents are dropped.
func (r *ReferenceFinder) Find(ctx context.Context, fn *domain.FuncToTest) ([]string, error) {
	files, err := r.walker.Walk(fn.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list test files: %w", err)
	}
	if len(files) == 0 {
		r.logger.Debug("No test files in repository", zap.String("root", fn.RepoRoot))
		return nil, nil
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	prompt, kept := FitTrailing(r.budgeter, paths, func(list []string) string {
		return fill(findReferenceTestsPrompt, map[string]string{
			"count":         strconv.Itoa(r.maxFiles),
			"function_name": fn.FuncName,
			"file_path":     fn.FilePath,
			"test_files":    strings.Join(list, "\n"),
		})
	})
	if len(kept) == 0 {
		r.logger.Warn("Test file list does not fit the budget")
		return nil, nil
	}

	var reply struct {
		Files []string `json:"files"`
	}
	if err := r.llm.CompleteJSON(ctx, port.UserMessage(prompt), &reply); err != nil {
		return nil, fmt.Errorf("failed to rank test files: %w", err)
	}

	verified := fs.VerifyFiles(reply.Files, fn.RepoRoot)
	if len(verified) > r.maxFiles {
		verified = verified[:r.maxFiles]
	}
	r.logger.Debug("Reference test files",
		zap.Strings("proposed", reply.Files),
		zap.Strings("verified", verified))
	return verified, nil
}
