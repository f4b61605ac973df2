package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchLimit uint64

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the collection for lines similar to the query",
	Long: `Embed the query text and return the most similar stored lines.

Examples:
  vectorium search "error handling in distributed systems"
  vectorium search --limit 3 "qdrant batching"`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Uint64Var(&searchLimit, "limit", 10, "maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	app, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()

	vector, err := app.lane.EmbedQuery(ctx, args[0])
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}

	results, err := app.store.Query(ctx, vector, searchLimit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%2d. [%.4f] %s\n    %s\n", i+1, r.Score, r.Payload.Title, r.Payload.Preview)
	}
	return nil
}
