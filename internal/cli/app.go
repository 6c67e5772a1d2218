package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"testgen/config"
	"testgen/internal/adapter/analyzer"
	"testgen/internal/adapter/cache"
	"testgen/internal/adapter/chatmark"
	"testgen/internal/adapter/fs"
	"testgen/internal/adapter/ide"
	"testgen/internal/adapter/llm"
	"testgen/internal/adapter/store"
	"testgen/internal/domain"
	"testgen/internal/port"
	"testgen/internal/usecase"
)

// app holds the components one command run needs.
type app struct {
	cfg     *config.Config
	root    string
	logger  *zap.Logger
	ide     *ide.Client
	symbols port.SymbolService
	llm     *llm.Client
	counter port.TokenCounter
	models  *analyzer.ModelTable
	store   *store.BoltStore // nil when the state database is unavailable
	cache   *cache.LocalCache
	reader  *fs.Reader
	lang    chatmark.Lang
	printer *chatmark.Printer
}

// newApp connects to the IDE bridge and the model and opens the workflow state.
func newApp(ctx context.Context) (*app, error) {
	cfg := GetConfig()
	root := GetRootDir()
	logger := GetLogger()

	baseURL, err := cfg.IDEURL()
	if err != nil {
		return nil, err
	}
	ideClient := ide.NewClient(baseURL, cfg.IDE.Timeout, logger)

	model, err := llm.NewClient(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	a := &app{
		cfg:     cfg,
		root:    root,
		logger:  logger,
		ide:     ideClient,
		llm:     model,
		counter: analyzer.NewCounter(cfg.LLM.Model, cfg.Budget.Encoding, logger),
		models:  analyzer.NewModelTable(cfg.Budget.ContextSizes, cfg.Budget.DefaultContextSize),
		reader:  fs.NewReader(root),
	}

	if err := config.EnsureWorkflowDir(root, cfg); err != nil {
		return nil, fmt.Errorf("failed to create workflow directory: %w", err)
	}
	a.cache, err = cache.OpenLocalCache(config.LocalCacheDir(root, cfg), cfg.Workflow.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}
	a.store = openStore(root, cfg, logger)

	var symbolService port.SymbolService = ideClient
	if cfg.Context.SymbolCache && a.store != nil {
		symbolService = store.NewPersistentSymbolService(symbolService, a.store, logger)
	}
	a.symbols = cache.NewCachedSymbolService(symbolService, cache.NewSymbolCache(1024, 30*time.Minute))

	a.lang = a.resolveLang(ctx)
	a.printer = chatmark.NewPrinter(os.Stdout, logger, ideClient)
	return a, nil
}

// openStore opens the state database. A locked or corrupt database only
// disables symbol caching and proposal history.
func openStore(root string, cfg *config.Config, logger *zap.Logger) *store.BoltStore {
	st, err := store.NewBoltStore(config.StoreDBPath(root, cfg))
	if err != nil {
		logger.Warn("State database unavailable", zap.Error(err))
		return nil
	}
	result, err := st.Migrate()
	if err != nil {
		logger.Warn("State database migration failed", zap.Error(err))
		st.Close()
		return nil
	}
	if result.ClearedCaches {
		logger.Info("State database migrated",
			zap.Int("from", result.OldVersion),
			zap.Int("to", result.NewVersion),
			zap.String("reason", result.Reason))
	}
	return st
}

func (a *app) resolveLang(ctx context.Context) chatmark.Lang {
	if langFlag != "" {
		return chatmark.ParseLang(langFlag)
	}
	code, err := a.ide.Language(ctx)
	if err != nil {
		a.logger.Debug("IDE language unavailable", zap.Error(err))
		return chatmark.LangEN
	}
	return chatmark.ParseLang(code)
}

// chatLanguage is the configured answer language, following the message
// language unless configured otherwise.
func (a *app) chatLanguage() string {
	if a.cfg.Workflow.ChatLanguage == "" || a.cfg.Workflow.ChatLanguage == "English" {
		return a.lang.ChatLanguage()
	}
	return a.cfg.Workflow.ChatLanguage
}

func (a *app) budgeter(factor float64) *usecase.Budgeter {
	return usecase.NewBudgeter(a.counter, a.models.Budget(a.llm.ModelName(), factor))
}

func (a *app) contextFinder() *usecase.ContextFinder {
	return usecase.NewContextFinder(a.symbols, a.llm, a.budgeter(a.cfg.Budget.RecommendFactor), a.reader,
		usecase.ContextFinderOptions{
			ReferenceMatch:        a.cfg.Context.ReferenceMatch,
			MaxRecommendedSymbols: a.cfg.Context.MaxRecommendedSymbols,
		}, a.logger)
}

func (a *app) referenceFinder() *usecase.ReferenceFinder {
	return usecase.NewReferenceFinder(fs.NewTestFileWalker(nil), a.llm,
		a.budgeter(a.cfg.Budget.ReferenceFactor), a.cfg.Context.MaxReferenceFiles, a.logger)
}

func (a *app) proposer() *usecase.Proposer {
	return usecase.NewProposer(a.llm, a.budgeter(a.cfg.Budget.ProposeFactor), a.cfg.LLM.JSONMode, a.chatLanguage(), a.logger)
}

func (a *app) writer() *usecase.Writer {
	return usecase.NewWriter(a.llm, a.budgeter(a.cfg.Budget.WriteFactor), a.reader, a.cfg.LLM.Stream, a.chatLanguage(), a.logger)
}

// showStep prints a step with optional details. A failed write is logged,
// not returned.
func (a *app) showStep(ctx context.Context, title, details string) {
	err := a.printer.Run(ctx, title, func(step *chatmark.Step) error {
		if details != "" {
			step.Printf("%s\n", details)
		}
		return nil
	})
	if err != nil {
		a.logger.Warn("Printing step failed", zap.String("step", title), zap.Error(err))
	}
}

// history returns the proposal store, or nil when there is none.
func (a *app) history() usecase.ProposalRecorder {
	if a.store == nil {
		return nil
	}
	return a.store
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Closing state database failed", zap.Error(err))
		}
	}
}

// parseFunc parses the positional function argument against the repo root.
func (a *app) parseFunc(input string) (*domain.FuncToTest, error) {
	fn, err := ParseUnitTestInput(input, a.root)
	if err != nil {
		return nil, err
	}
	return fn.WithReader(a.reader.ReadFile), nil
}
