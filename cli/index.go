package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	knowledgex "github.com/tanpawarit/Chative-Support-Router/agent/knowledge"
)

func IndexCmd() *cobra.Command {
	var query string
	var k int

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the knowledge base index and optionally search it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			index, err := loadKnowledge(cmd.Context())
			if err != nil {
				return err
			}
			defer index.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %d chunks\n", index.Chunks())
			if strings.TrimSpace(query) == "" {
				return nil
			}
			return printMatches(cmd, index, query, k)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "retrieve the top chunks for this query")
	cmd.Flags().IntVarP(&k, "k", "k", 3, "number of chunks to show")
	return cmd
}

func printMatches(cmd *cobra.Command, index *knowledgex.Index, query string, k int) error {
	docs, err := index.Retrieve(cmd.Context(), query, k)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, doc := range docs {
		fmt.Fprintf(out, "\n[%d] %s\n%s\n", i+1, doc.Source, doc.Content)
	}
	return nil
}
