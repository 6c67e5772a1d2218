package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"testgen/internal/adapter/chatmark"
	"testgen/internal/adapter/fs"
	"testgen/internal/adapter/store"
	"testgen/internal/domain"
	"testgen/internal/port"
)

// RequirementsKey is the local cache key of the user's customized requirements.
const RequirementsKey = "user_requirements"

// ProposalRecorder keeps a history of proposed test cases.
type ProposalRecorder interface {
	PutProposal(p store.Proposal) (string, error)
}

// Applier shows generated content to the user as a diff against a file.
type Applier interface {
	DiffApply(ctx context.Context, filePath, content string) (bool, error)
}

// WorkflowDeps wires the workflow. History and Applier are optional.
type WorkflowDeps struct {
	Finder     *ContextFinder
	References *ReferenceFinder
	Proposer   *Proposer
	Writer     *Writer
	Selector   port.Selector
	Cache      port.KeyValueCache
	History    ProposalRecorder
	Applier    Applier
	Printer    *chatmark.Printer
	Lang       chatmark.Lang
	Logger     *zap.Logger
}

// RunOptions tunes a single run.
type RunOptions struct {
	Recommend bool   // ask the model for additional symbols
	ApplyTo   string // file to apply the generated code to, relative to the repo root
	Input     string // raw command input, recorded with the proposals
}

// Workflow runs the unit test generation pipeline for one function.
type Workflow struct {
	deps   WorkflowDeps
	logger *zap.Logger
}

// NewWorkflow creates a workflow.
func NewWorkflow(deps WorkflowDeps) *Workflow {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{deps: deps, logger: logger}
}

// UserPrompt is the request the proposals answer.
func UserPrompt(fn *domain.FuncToTest) string {
	return fmt.Sprintf("Help me write unit tests for the `%s` function", fn.FuncName)
}

// Run analyzes the function, lets the user pick test cases and writes the tests.
// Budget overruns and cancellations are reported in the outcome; any other
// failure is returned as an error.
func (w *Workflow) Run(ctx context.Context, fn *domain.FuncToTest, opts RunOptions) (domain.Outcome, error) {
	outcome, err := w.run(ctx, fn, opts)
	if err != nil {
		return domain.OutcomeFromError(err)
	}
	return outcome, nil
}

func (w *Workflow) run(ctx context.Context, fn *domain.FuncToTest, opts RunOptions) (domain.Outcome, error) {
	lang := w.deps.Lang

	var (
		contexts   []domain.Context
		references []string
		cases      []string
	)
	err := w.deps.Printer.Run(ctx, lang.T(chatmark.MsgAnalyzing), func(step *chatmark.Step) error {
		step.Printf("\n%s\n", lang.T(chatmark.MsgAnalyzingContext))
		var err error
		contexts, err = w.Contexts(ctx, fn, opts.Recommend)
		if err != nil {
			return err
		}

		step.Printf("\n%s\n", lang.T(chatmark.MsgFindingReferences))
		references = w.findReferences(ctx, fn)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		step.Printf("\n%s\n", lang.T(chatmark.MsgProposingCases))
		cases, err = w.deps.Proposer.Propose(ctx, ProposeRequest{
			UserPrompt: UserPrompt(fn),
			Func:       fn,
			Contexts:   contexts,
		})
		return err
	})
	if err != nil {
		return domain.Outcome{}, err
	}
	w.recordProposal(fn, cases, opts.Input)

	sel, err := w.selectCases(ctx, fn, cases, references)
	if err != nil {
		return domain.Outcome{}, err
	}

	if err := w.printSummary(ctx, sel, contexts); err != nil {
		return domain.Outcome{}, err
	}

	out := w.deps.Printer.Writer()
	fmt.Fprintln(out)
	text, err := w.deps.Writer.Write(ctx, WriteRequest{
		Func:           fn,
		Cases:          sel.Cases,
		ReferenceFiles: sel.ReferenceFiles,
		Contexts:       contexts,
		Requirements:   sel.Requirements,
	}, out)
	if err != nil {
		return domain.Outcome{}, err
	}
	fmt.Fprintln(out)

	code := ExtractCode(text)
	if opts.ApplyTo != "" && w.deps.Applier != nil {
		if err := w.apply(ctx, fn, opts.ApplyTo, code); err != nil {
			return domain.Outcome{}, err
		}
	}
	return domain.Outcome{Status: domain.OutcomeOK, Code: code}, nil
}

// Contexts returns the deduplicated contexts for the function: the static
// symbol context, then, if recommend is set, what the model still asks for.
// Recommended contexts replace static ones of the same symbol.
func (w *Workflow) Contexts(ctx context.Context, fn *domain.FuncToTest, recommend bool) ([]domain.Context, error) {
	found, err := w.deps.Finder.FindBySymbols(ctx, fn)
	if err != nil {
		return nil, err
	}

	if recommend {
		known := domain.NewContextSet()
		container, ok, err := fn.ContainerContext()
		if err != nil {
			return nil, err
		}
		if ok {
			known.Add(container)
		}
		known.Add(found.Contexts().Items()...)

		recommended, err := w.deps.Finder.FindByRecommendation(ctx, fn, known.Items())
		if err != nil {
			return nil, err
		}
		found.Merge(recommended)
	}
	return found.Contexts().Items(), nil
}

func (w *Workflow) findReferences(ctx context.Context, fn *domain.FuncToTest) []string {
	if w.deps.References == nil {
		return nil
	}
	files, err := w.deps.References.Find(ctx, fn)
	if err != nil {
		w.logger.Warn("Finding reference test files failed", zap.Error(err))
		return nil
	}
	if len(files) > 1 {
		files = files[:1]
	}
	return files
}

func (w *Workflow) recordProposal(fn *domain.FuncToTest, cases []string, input string) {
	if w.deps.History == nil || len(cases) == 0 {
		return
	}
	id, err := w.deps.History.PutProposal(store.Proposal{
		Function: fn.FuncName,
		FilePath: fn.FilePath,
		Input:    input,
		Cases:    cases,
	})
	if err != nil {
		w.logger.Warn("Recording proposal failed", zap.Error(err))
		return
	}
	w.logger.Debug("Recorded proposal", zap.String("id", id))
}

func (w *Workflow) selectCases(ctx context.Context, fn *domain.FuncToTest, cases, references []string) (port.Selection, error) {
	var requirements string
	if w.deps.Cache != nil {
		requirements, _ = w.deps.Cache.Get(RequirementsKey)
	}

	sel, err := w.deps.Selector.Select(ctx, port.SelectionRequest{
		Cases:          cases,
		ReferenceFiles: references,
		Requirements:   requirements,
	})
	if err != nil {
		return port.Selection{}, err
	}
	if len(sel.Cases) == 0 {
		return port.Selection{}, &domain.CancelledError{Msg: w.deps.Lang.T(chatmark.MsgNoCaseSelected)}
	}

	sel.ReferenceFiles = fs.VerifyFiles(sel.ReferenceFiles, fn.RepoRoot)
	sel.Requirements = strings.TrimSpace(sel.Requirements)

	if w.deps.Cache != nil {
		if err := w.deps.Cache.Set(RequirementsKey, sel.Requirements); err != nil {
			w.logger.Warn("Saving requirements failed", zap.Error(err))
		}
	}
	return sel, nil
}

func (w *Workflow) printSummary(ctx context.Context, sel port.Selection, contexts []domain.Context) error {
	lang := w.deps.Lang
	return w.deps.Printer.Run(ctx, lang.T(chatmark.MsgSummaryTitle), func(step *chatmark.Step) error {
		step.Printf("%s\n", lang.T(chatmark.MsgSummaryCases))
		width := len(strconv.Itoa(len(sel.Cases)))
		for i, c := range sel.Cases {
			step.Printf("%*d. %s\n", width, i+1, c)
		}

		if len(sel.ReferenceFiles) == 0 {
			step.Printf("%s\n", lang.T(chatmark.MsgNoReference))
		} else {
			step.Printf("%s\n", lang.T(chatmark.MsgUseReferences))
			for _, f := range sel.ReferenceFiles {
				step.Printf("- %s\n", f)
			}
		}

		step.Printf("%s\n", lang.T(chatmark.MsgSummaryRequirements))
		if sel.Requirements == "" {
			step.Printf("%s\n", lang.T(chatmark.MsgNoRequirements))
		} else {
			step.Printf("%s\n", sel.Requirements)
		}

		if len(contexts) > 0 {
			step.Printf("%s\n", lang.T(chatmark.MsgAdditionalContext))
			for _, c := range contexts {
				step.Printf("- %s\n", ContextLabel(c))
			}
		}
		return nil
	})
}

// ContextLabel renders a context as path:start-end with 1-based lines.
func ContextLabel(c domain.Context) string {
	return fmt.Sprintf("%s:%d-%d", c.FilePath, c.Range.Start.Line+1, c.Range.End.Line+1)
}

func (w *Workflow) apply(ctx context.Context, fn *domain.FuncToTest, target, code string) error {
	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(fn.RepoRoot, path)
	}
	if _, err := w.deps.Applier.DiffApply(ctx, path, code); err != nil {
		return fmt.Errorf("failed to apply tests to %s: %w", target, err)
	}
	fmt.Fprintf(w.deps.Printer.Writer(), "\n%s %s\n", w.deps.Lang.T(chatmark.MsgApplied), target)
	return nil
}
