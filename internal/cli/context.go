package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"testgen/internal/domain"
	"testgen/internal/usecase"
)

var (
	contextJSON      bool
	contextRecommend bool
)

var contextCmd = &cobra.Command{
	Use:   "context <input>",
	Short: "Print the code context gathered for a function",
	Long: `Print the symbols the function references and the type definitions it uses,
as they would be given to the model.

Examples:
  testgen context "calc/calc.go:::Sum:::10:::12:::-1:::-1"
  testgen context "calc/calc.go:::Sum:::10:::12:::-1:::-1" --recommend --json`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output as JSON")
	contextCmd.Flags().BoolVar(&contextRecommend, "recommend", false, "also ask the model for additional symbols")
}

func runContext(cmd *cobra.Command, args []string) error {
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

	contexts, err := a.contexts(ctx, fn, contextRecommend)
	if err != nil {
		return err
	}

	if contextJSON {
		output, _ := json.MarshalIndent(contexts, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	if len(contexts) == 0 {
		fmt.Println("No context found.")
		return nil
	}
	fmt.Printf("Found %d contexts for %s\n\n", len(contexts), fn)
	for i, c := range contexts {
		fmt.Printf("--- [%d] %s ---\n", i+1, usecase.ContextLabel(c))
		fmt.Println(c.Content)
		fmt.Println()
	}
	return nil
}

// contexts gathers the function's contexts, with a progress bar on a terminal.
func (a *app) contexts(ctx context.Context, fn *domain.FuncToTest, recommend bool) ([]domain.Context, error) {
	finder := a.contextFinder()
	if term.IsTerminal(int(os.Stderr.Fd())) {
		finder.SetProgress(newProgress("Resolving symbols"))
	}
	return usecase.NewWorkflow(usecase.WorkflowDeps{Finder: finder, Logger: a.logger}).Contexts(ctx, fn, recommend)
}
