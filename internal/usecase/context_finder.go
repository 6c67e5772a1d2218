package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"testgen/internal/adapter/analyzer"
	"testgen/internal/adapter/symbols"
	"testgen/internal/domain"
	"testgen/internal/port"
)

// ProgressFunc reports how many of total locations have been resolved.
type ProgressFunc func(processed, total int, current string)

// ContextFinderOptions tunes context discovery.
type ContextFinderOptions struct {
	ReferenceMatch        string // "identifier" or "substring"
	MaxRecommendedSymbols int    // 0 means no limit
}

// ContextFinder collects code fragments the function under test depends on.
type ContextFinder struct {
	symbols  port.SymbolService
	llm      port.LLM
	budgeter *Budgeter
	reader   port.FileReader
	opts     ContextFinderOptions
	logger   *zap.Logger
	progress ProgressFunc
}

// NewContextFinder creates a context finder. llm and budgeter are only needed
// for FindByRecommendation.
func NewContextFinder(symbolService port.SymbolService, llm port.LLM, budgeter *Budgeter, reader port.FileReader, opts ContextFinderOptions, logger *zap.Logger) *ContextFinder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextFinder{
		symbols:  symbolService,
		llm:      llm,
		budgeter: budgeter,
		reader:   reader,
		opts:     opts,
		logger:   logger,
	}
}

// SetProgress sets a callback for location resolution progress.
func (f *ContextFinder) SetProgress(fn ProgressFunc) {
	f.progress = fn
}

// FindBySymbols finds the symbols of the function's file that the function
// references, and the in-repo type definitions of symbols inside the function.
// For a name found by both passes the type definition wins.
func (f *ContextFinder) FindBySymbols(ctx context.Context, fn *domain.FuncToTest) (domain.SymbolContext, error) {
	tree, err := f.symbols.DocumentSymbols(ctx, fn.AbsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to get symbols of %s: %w", fn.FilePath, err)
	}

	matches := symbols.FindNodes(tree, fn.FuncName, fn.FuncStartLine)
	if len(matches) == 0 {
		f.logger.Info("Function not found in document symbols",
			zap.String("function", fn.FuncName),
			zap.String("file", fn.FilePath),
			zap.Int("line", fn.FuncStartLine))
		return domain.SymbolContext{}, nil
	}
	if len(matches) > 1 {
		f.logger.Debug("Multiple symbols match the function, using the first",
			zap.String("function", fn.FuncName),
			zap.Int("matches", len(matches)))
	}
	target := matches[0]

	referenced, err := f.findReferenced(fn, tree, target)
	if err != nil {
		return nil, err
	}
	typeDefs, err := f.findTypeDefs(ctx, fn, target.Node)
	if err != nil {
		return nil, err
	}

	result := domain.SymbolContext{}
	result.Merge(referenced)
	result.Merge(typeDefs)

	f.logger.Debug("Found symbol context",
		zap.String("function", fn.FuncName),
		zap.Int("referenced", len(referenced)),
		zap.Int("type_defs", len(typeDefs)))
	return result, nil
}

// findReferenced collects symbols of the same file, no deeper than the
// function itself, whose names the function body references.
func (f *ContextFinder) findReferenced(fn *domain.FuncToTest, tree []domain.SymbolNode, target symbols.Match) (domain.SymbolContext, error) {
	fileContent, err := fn.FileContent()
	if err != nil {
		return nil, err
	}
	body, err := fn.FuncContent()
	if err != nil {
		return nil, err
	}
	matcher := analyzer.NewReferenceMatcher(f.opts.ReferenceMatch, body)

	result := domain.SymbolContext{}
	symbols.Walk(tree, func(n domain.SymbolNode, depth int) bool {
		if depth > target.Depth {
			return false
		}
		if n.Name == target.Node.Name && n.Range == target.Node.Range {
			return false
		}
		if matcher.References(n.Name) {
			result[n.Name] = append(result[n.Name], domain.Context{
				FilePath: fn.FilePath,
				Content:  symbols.Content(n, fileContent),
				Range:    n.Range,
			})
		}
		return true
	})
	return result, nil
}

// findTypeDefs resolves the type definitions of every symbol nested in the
// function. Definitions outside the repo or in the function's own file are dropped.
func (f *ContextFinder) findTypeDefs(ctx context.Context, fn *domain.FuncToTest, node domain.SymbolNode) (domain.SymbolContext, error) {
	locations := newLocationIndex()
	var walkErr error
	symbols.Walk(node.Children, func(n domain.SymbolNode, _ int) bool {
		if walkErr != nil {
			return false
		}
		locs, err := f.symbols.FindTypeDefLocations(ctx, fn.AbsPath(), n.Range.Start.Line, n.Range.Start.Character)
		if err != nil {
			walkErr = fmt.Errorf("failed to find type definition of %s: %w", n.Name, err)
			return false
		}
		for _, loc := range locs {
			if !insideRepo(fn.RepoRoot, loc.AbsPath) || samePath(loc.AbsPath, fn.AbsPath()) {
				continue
			}
			locations.add(n.Name, loc)
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return f.resolve(ctx, fn.RepoRoot, locations)
}

// RecommendSymbols asks the model which symbols of the function still lack
// context, given what is already known. Known contexts are dropped from the
// end until the prompt fits the budget.
func (f *ContextFinder) RecommendSymbols(ctx context.Context, fn *domain.FuncToTest, known []domain.Context) ([]string, error) {
	body, err := fn.FuncContent()
	if err != nil {
		return nil, err
	}
	prompt, kept := FitTrailing(f.budgeter, known, func(contexts []domain.Context) string {
		return fill(recommendSymbolsPrompt, map[string]string{
			"function_name":    fn.FuncName,
			"file_path":        fn.FilePath,
			"function_content": body,
			"context_content":  joinContexts(contexts),
		})
	})
	if len(kept) < len(known) {
		f.logger.Debug("Dropped known contexts to fit the recommendation prompt",
			zap.Int("known", len(known)),
			zap.Int("kept", len(kept)))
	}

	var reply struct {
		KeySymbols []string `json:"key_symbols"`
	}
	if err := f.llm.CompleteJSON(ctx, port.UserMessage(prompt), &reply); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(reply.KeySymbols))
	var names []string
	for _, name := range reply.KeySymbols {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if limit := f.opts.MaxRecommendedSymbols; limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

// FindByRecommendation resolves the definitions and type definitions of the
// symbols the model recommends. A model failure is logged and yields no
// contexts; symbol service failures are returned.
func (f *ContextFinder) FindByRecommendation(ctx context.Context, fn *domain.FuncToTest, known []domain.Context) (domain.SymbolContext, error) {
	if f.llm == nil || f.budgeter == nil {
		return domain.SymbolContext{}, nil
	}
	names, err := f.RecommendSymbols(ctx, fn, known)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Warn("Symbol recommendation failed", zap.Error(err))
		return domain.SymbolContext{}, nil
	}
	if len(names) == 0 {
		return domain.SymbolContext{}, nil
	}
	f.logger.Debug("Recommended symbols", zap.Strings("symbols", names))

	fileContent, err := fn.FileContent()
	if err != nil {
		return nil, err
	}

	locations := newLocationIndex()
	for _, name := range names {
		token := analyzer.LastToken(name)
		for _, pos := range symbols.Locate(token, fileContent) {
			typeDefs, err := f.symbols.FindTypeDefLocations(ctx, fn.AbsPath(), pos.Line, pos.Character)
			if err != nil {
				return nil, fmt.Errorf("failed to find type definition of %s: %w", name, err)
			}
			defs, err := f.symbols.FindDefLocations(ctx, fn.AbsPath(), pos.Line, pos.Character)
			if err != nil {
				return nil, fmt.Errorf("failed to find definition of %s: %w", name, err)
			}
			for _, loc := range append(typeDefs, defs...) {
				if insideRepo(fn.RepoRoot, loc.AbsPath) {
					locations.add(name, loc)
				}
			}
		}
	}
	return f.resolve(ctx, fn.RepoRoot, locations)
}

// resolve turns each location into the content of the symbols starting on its line.
func (f *ContextFinder) resolve(ctx context.Context, repoRoot string, locations *locationIndex) (domain.SymbolContext, error) {
	total := locations.size()
	processed := 0
	files := make(map[string]string)
	trees := make(map[string][]domain.SymbolNode)

	result := domain.SymbolContext{}
	for _, name := range locations.names {
		contexts := domain.NewContextSet()
		for _, loc := range locations.byName[name] {
			if f.progress != nil {
				f.progress(processed, total, name)
			}
			processed++

			tree, ok := trees[loc.AbsPath]
			if !ok {
				var err error
				tree, err = f.symbols.DocumentSymbols(ctx, loc.AbsPath)
				if err != nil {
					return nil, fmt.Errorf("failed to get symbols of %s: %w", loc.AbsPath, err)
				}
				trees[loc.AbsPath] = tree
			}
			matches := symbols.FindNodes(tree, "", loc.Range.Start.Line)
			if len(matches) == 0 {
				continue
			}

			content, ok := files[loc.AbsPath]
			if !ok {
				var err error
				content, err = f.reader.ReadFile(loc.AbsPath)
				if err != nil {
					f.logger.Warn("Skipping unreadable definition file",
						zap.String("path", loc.AbsPath),
						zap.Error(err))
					continue
				}
				files[loc.AbsPath] = content
			}

			rel, err := filepath.Rel(repoRoot, loc.AbsPath)
			if err != nil {
				rel = loc.AbsPath
			}
			for _, m := range matches {
				contexts.Add(domain.Context{
					FilePath: filepath.ToSlash(rel),
					Content:  symbols.Content(m.Node, content),
					Range:    m.Node.Range,
				})
			}
		}
		if contexts.Len() > 0 {
			result[name] = contexts.Items()
		}
	}
	if f.progress != nil && total > 0 {
		f.progress(total, total, "")
	}
	return result, nil
}

// locationIndex groups deduplicated locations by symbol name in insertion order.
type locationIndex struct {
	names  []string
	byName map[string][]domain.Location
	seen   map[string]map[string]bool
}

func newLocationIndex() *locationIndex {
	return &locationIndex{
		byName: make(map[string][]domain.Location),
		seen:   make(map[string]map[string]bool),
	}
}

func (x *locationIndex) add(name string, loc domain.Location) {
	keys, ok := x.seen[name]
	if !ok {
		keys = make(map[string]bool)
		x.seen[name] = keys
		x.names = append(x.names, name)
	}
	if keys[loc.Key()] {
		return
	}
	keys[loc.Key()] = true
	x.byName[name] = append(x.byName[name], loc)
}

func (x *locationIndex) size() int {
	n := 0
	for _, locs := range x.byName {
		n += len(locs)
	}
	return n
}

// insideRepo reports whether path lies under root.
func insideRepo(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
