package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"testgen/config"
	"testgen/internal/adapter/store"
)

var proposalsJSON bool

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "List stored test case proposals",
	Args:  cobra.NoArgs,
	RunE:  runProposals,
}

func init() {
	rootCmd.AddCommand(proposalsCmd)
	proposalsCmd.Flags().BoolVar(&proposalsJSON, "json", false, "output as JSON")
}

func runProposals(cmd *cobra.Command, args []string) error {
	st, err := store.NewBoltStore(config.StoreDBPath(GetRootDir(), GetConfig()))
	if err != nil {
		return fmt.Errorf("failed to open proposal history: %w", err)
	}
	defer st.Close()

	proposals, err := st.ListProposals()
	if err != nil {
		return err
	}

	if proposalsJSON {
		output, _ := json.MarshalIndent(proposals, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	if len(proposals) == 0 {
		fmt.Println("No proposals recorded.")
		return nil
	}
	for _, p := range proposals {
		fmt.Printf("%s  %s  %s:%s (%d cases)\n",
			p.ID, p.CreatedAt.Format("2006-01-02 15:04"), p.FilePath, p.Function, len(p.Cases))
	}
	return nil
}
