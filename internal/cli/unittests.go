package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"testgen/internal/adapter/chatmark"
	"testgen/internal/adapter/selector"
	"testgen/internal/domain"
	"testgen/internal/port"
	"testgen/internal/usecase"
)

var (
	utCases        string
	utAddCases     []string
	utReferences   []string
	utRequirements string
	utYes          bool
	utApply        string
	utNoRecommend  bool
)

var unitTestsCmd = &cobra.Command{
	Use:   "unit-tests <input>",
	Short: "Propose, select and write unit tests for a function",
	Long: `Analyze a function, propose test cases, let you pick them and write the tests.

Without selection flags the cases are picked interactively when a terminal is
attached. Any of --cases, --yes or --add-case answers without prompting.

Examples:
  testgen unit-tests "calc/calc.go:::Sum:::10:::12:::-1:::-1"
  testgen unit-tests "calc/calc.go:::Sum:::10:::12:::-1:::-1" --cases 1,3 --requirements "use testify"
  testgen unit-tests "calc/calc.go:::Sum:::10:::12:::-1:::-1" --yes --apply calc/calc_test.go`,
	Args: cobra.ExactArgs(1),
	RunE: runUnitTests,
}

func init() {
	rootCmd.AddCommand(unitTestsCmd)
	unitTestsCmd.Flags().StringVar(&utCases, "cases", "", "proposed cases to write, e.g. 1,3,5-6")
	unitTestsCmd.Flags().StringArrayVar(&utAddCases, "add-case", nil, "extra test case description (repeatable)")
	unitTestsCmd.Flags().StringArrayVar(&utReferences, "reference", nil, "reference test file replacing the proposed one (repeatable)")
	unitTestsCmd.Flags().StringVar(&utRequirements, "requirements", "", "customized requirements for the tests")
	unitTestsCmd.Flags().BoolVarP(&utYes, "yes", "y", false, "write every proposed case")
	unitTestsCmd.Flags().StringVar(&utApply, "apply", "", "apply the generated code to this file through the IDE")
	unitTestsCmd.Flags().BoolVar(&utNoRecommend, "no-recommend", false, "skip asking the model for additional symbols")
}

func runUnitTests(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	fn, err := a.parseFunc(args[0])
	if err != nil {
		return err
	}

	sel, err := buildSelector(cmd, a.lang)
	if err != nil {
		return err
	}

	finder := a.contextFinder()
	if term.IsTerminal(int(os.Stderr.Fd())) {
		finder.SetProgress(newProgress("Resolving symbols"))
	}

	workflow := usecase.NewWorkflow(usecase.WorkflowDeps{
		Finder:     finder,
		References: a.referenceFinder(),
		Proposer:   a.proposer(),
		Writer:     a.writer(),
		Selector:   sel,
		Cache:      a.cache,
		History:    a.history(),
		Applier:    a.ide,
		Printer:    a.printer,
		Lang:       a.lang,
		Logger:     a.logger,
	})

	outcome, err := workflow.Run(ctx, fn, usecase.RunOptions{
		Recommend: a.cfg.Context.Recommend && !utNoRecommend,
		ApplyTo:   utApply,
		Input:     args[0],
	})
	if err != nil {
		if isConnectionError(err) {
			a.showStep(ctx, a.lang.T(chatmark.MsgConnectionError), err.Error())
		}
		return err
	}
	return reportOutcome(ctx, a, fn, outcome)
}

// buildSelector answers from flags when any selection flag is set, prompts
// on a terminal, and otherwise selects every proposed case.
func buildSelector(cmd *cobra.Command, lang chatmark.Lang) (port.Selector, error) {
	flags := cmd.Flags()
	static := flags.Changed("cases") || flags.Changed("yes") || flags.Changed("add-case")
	if !static && selector.IsInteractive() {
		return selector.NewSurveySelector(lang), nil
	}

	s := &selector.StaticSelector{All: utYes || !static, AddCases: utAddCases}
	if utCases != "" {
		indices, err := selector.ParseIndices(utCases)
		if err != nil {
			return nil, err
		}
		s.Indices = indices
		s.All = utYes
	}
	if flags.Changed("reference") {
		s.ReferenceFiles = utReferences
	}
	if flags.Changed("requirements") {
		s.Requirements = &utRequirements
	}
	return s, nil
}

// reportOutcome prints budget overruns and cancellations as steps. Only a
// budget overrun fails the command.
func reportOutcome(ctx context.Context, a *app, fn *domain.FuncToTest, outcome domain.Outcome) error {
	switch outcome.Status {
	case domain.OutcomeBudgetExceeded:
		err := &domain.BudgetExceededError{Target: outcome.Target, Tokens: outcome.Tokens, Budget: outcome.Budget}
		a.showStep(ctx, a.lang.T(chatmark.MsgBudgetExceeded),
			fmt.Sprintf("\nToken budget exceeded while generating tests for <%s>. (%d/%d)", fn, outcome.Tokens, outcome.Budget))
		return err
	case domain.OutcomeCancelled:
		a.showStep(ctx, outcome.Message, "")
	}
	return nil
}

func isConnectionError(err error) bool {
	var netErr net.Error
	var urlErr *url.Error
	var opErr *net.OpError
	return errors.As(err, &opErr) || errors.As(err, &urlErr) || (errors.As(err, &netErr) && netErr.Timeout())
}
