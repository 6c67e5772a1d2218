package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"testgen/internal/adapter/store"
	"testgen/internal/usecase"
)

var (
	proposeJSON        bool
	proposeNoRecommend bool
)

var proposeCmd = &cobra.Command{
	Use:   "propose <input>",
	Short: "Propose test cases for a function",
	Long: `Propose test cases without writing them. Proposals are kept in the workflow
history so they can be written later with "testgen write --from-proposal <id>".

Examples:
  testgen propose "calc/calc.go:::Sum:::10:::12:::-1:::-1"
  testgen propose "calc/calc.go:::Sum:::10:::12:::-1:::-1" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runPropose,
}

func init() {
	rootCmd.AddCommand(proposeCmd)
	proposeCmd.Flags().BoolVar(&proposeJSON, "json", false, "output as JSON")
	proposeCmd.Flags().BoolVar(&proposeNoRecommend, "no-recommend", false, "skip asking the model for additional symbols")
}

func runPropose(cmd *cobra.Command, args []string) error {
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

	contexts, err := a.contexts(ctx, fn, a.cfg.Context.Recommend && !proposeNoRecommend)
	if err != nil {
		return err
	}
	cases, err := a.proposer().Propose(ctx, usecase.ProposeRequest{
		UserPrompt: usecase.UserPrompt(fn),
		Func:       fn,
		Contexts:   contexts,
	})
	if err != nil {
		return err
	}

	proposal := store.Proposal{
		Function: fn.FuncName,
		FilePath: fn.FilePath,
		Input:    args[0],
		Cases:    cases,
	}
	if a.store != nil {
		proposal.ID, err = a.store.PutProposal(proposal)
		if err != nil {
			a.logger.Warn("Recording proposal failed", zap.Error(err))
		}
	}

	if proposeJSON {
		output, _ := json.MarshalIndent(proposal, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	fmt.Printf("Proposed %d test cases for %s\n\n", len(cases), fn)
	width := len(fmt.Sprint(len(cases)))
	for i, c := range cases {
		fmt.Printf("%*d. %s\n", width, i+1, c)
	}
	if proposal.ID != "" {
		fmt.Printf("\nProposal id: %s\n", proposal.ID)
	}
	return nil
}
