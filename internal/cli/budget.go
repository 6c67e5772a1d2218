package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"testgen/internal/adapter/fs"
	"testgen/internal/usecase"
)

var (
	budgetCases      []string
	budgetReferences []string
	budgetRecommend  bool
)

var budgetCmd = &cobra.Command{
	Use:   "budget <input>",
	Short: "Show how the prompts for a function fit the model's budget",
	Long: `Count the tokens of every propose and write prompt variant for a function
and show which variant would be sent. The model is only called with --recommend.

Examples:
  testgen budget "calc/calc.go:::Sum:::10:::12:::-1:::-1"
  testgen budget "calc/calc.go:::Sum:::10:::12:::-1:::-1" --reference calc/calc_test.go`,
	Args: cobra.ExactArgs(1),
	RunE: runBudget,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.Flags().StringArrayVar(&budgetCases, "case", nil, "test case used in the write prompt (repeatable)")
	budgetCmd.Flags().StringArrayVar(&budgetReferences, "reference", nil, "reference test file used in the write prompt (repeatable)")
	budgetCmd.Flags().BoolVar(&budgetRecommend, "recommend", false, "include contexts recommended by the model")
}

func runBudget(cmd *cobra.Command, args []string) error {
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
	contexts, err := a.contexts(ctx, fn, budgetRecommend)
	if err != nil {
		return err
	}

	cases := budgetCases
	if len(cases) == 0 {
		cases = []string{"happy path: example test case"}
	}

	proposeVariants, err := a.proposer().Variants(usecase.ProposeRequest{
		UserPrompt: usecase.UserPrompt(fn),
		Func:       fn,
		Contexts:   contexts,
	})
	if err != nil {
		return err
	}
	writeVariants, err := a.writer().Variants(usecase.WriteRequest{
		Func:           fn,
		Cases:          cases,
		ReferenceFiles: fs.VerifyFiles(budgetReferences, a.root),
		Contexts:       contexts,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Model: %s (context size %d)\n", a.llm.ModelName(), a.models.ContextSize(a.llm.ModelName()))
	fmt.Printf("Contexts: %d\n\n", len(contexts))
	printVariants("propose", a.budgeter(a.cfg.Budget.ProposeFactor), proposeVariants)
	fmt.Println()
	printVariants("write", a.budgeter(a.cfg.Budget.WriteFactor), writeVariants)
	return nil
}

func printVariants(stage string, b *usecase.Budgeter, variants []usecase.PromptVariant) {
	fmt.Printf("%s (budget %d)\n", stage, b.Budget())

	chosen := -1
	counts := b.CountAll(variants)
	for i, c := range counts {
		if c.Fits {
			chosen = i
			break
		}
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, c := range counts {
		mark := " "
		if i == chosen {
			mark = green("*")
		}
		tokens := fmt.Sprint(c.Tokens)
		if !c.Fits {
			tokens = red(tokens)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", mark, c.Name, tokens)
	}
	w.Flush()
	if chosen < 0 {
		fmt.Println(red("  no variant fits"))
	}
}
