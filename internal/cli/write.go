package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"testgen/internal/adapter/fs"
	"testgen/internal/adapter/selector"
	"testgen/internal/domain"
	"testgen/internal/port"
	"testgen/internal/usecase"
)

var (
	writeCases        []string
	writeFromProposal string
	writePick         string
	writeReferences   []string
	writeRequirements string
	writeNoRecommend  bool
)

var writeCmd = &cobra.Command{
	Use:   "write [input]",
	Short: "Write tests for given test cases",
	Long: `Write tests for test cases given on the command line or taken from a stored
proposal. With --from-proposal the input defaults to the one the proposal was made for.

Examples:
  testgen write "calc/calc.go:::Sum:::10:::12:::-1:::-1" --case "returns 0 for an empty slice"
  testgen write --from-proposal 0b7c... --pick 1,2 --reference calc/total_test.go`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWrite,
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringArrayVar(&writeCases, "case", nil, "test case description (repeatable)")
	writeCmd.Flags().StringVar(&writeFromProposal, "from-proposal", "", "take the cases from a stored proposal")
	writeCmd.Flags().StringVar(&writePick, "pick", "", "cases of the proposal to write, e.g. 1,3 (default all)")
	writeCmd.Flags().StringArrayVar(&writeReferences, "reference", nil, "reference test file (repeatable)")
	writeCmd.Flags().StringVar(&writeRequirements, "requirements", "", "customized requirements for the tests")
	writeCmd.Flags().BoolVar(&writeNoRecommend, "no-recommend", false, "skip asking the model for additional symbols")
}

func runWrite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	input := ""
	if len(args) > 0 {
		input = args[0]
	}
	cases := writeCases

	if writeFromProposal != "" {
		if a.store == nil {
			return fmt.Errorf("proposal history is unavailable")
		}
		proposal, err := a.store.GetProposal(writeFromProposal)
		if err != nil {
			return err
		}
		if input == "" {
			input = proposal.Input
		}
		picked := &selector.StaticSelector{All: writePick == ""}
		if writePick != "" {
			if picked.Indices, err = selector.ParseIndices(writePick); err != nil {
				return err
			}
		}
		sel, err := picked.Select(ctx, port.SelectionRequest{Cases: proposal.Cases})
		if err != nil {
			return err
		}
		cases = append(sel.Cases, cases...)
	}
	if input == "" {
		return &domain.InputError{Msg: "an input or --from-proposal is required"}
	}
	if len(cases) == 0 {
		return &domain.InputError{Msg: "no test case given: use --case or --from-proposal"}
	}

	fn, err := a.parseFunc(input)
	if err != nil {
		return err
	}
	contexts, err := a.contexts(ctx, fn, a.cfg.Context.Recommend && !writeNoRecommend)
	if err != nil {
		return err
	}

	_, err = a.writer().Write(ctx, usecase.WriteRequest{
		Func:           fn,
		Cases:          cases,
		ReferenceFiles: fs.VerifyFiles(writeReferences, a.root),
		Contexts:       contexts,
		Requirements:   writeRequirements,
	}, a.printer.Writer())
	fmt.Println()
	if err != nil {
		outcome, err := domain.OutcomeFromError(err)
		if err != nil {
			return err
		}
		return reportOutcome(ctx, a, fn, outcome)
	}
	return nil
}
