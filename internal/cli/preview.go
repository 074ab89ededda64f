package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hrflow/internal/wizard"
)

var previewScope string

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show what a sync would create or update, without writing",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		store, err := newFeatureStore()
		if err != nil {
			return fmt.Errorf("open feature store: %w", err)
		}
		defer store.Close()

		proposal, err := newDiffer(store, logger).Propose(cmd.Context(), previewScope)
		if err != nil {
			return err
		}
		return printProposal(proposal)
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewScope, "scope", "", "limit the diff to one module")
}

func printProposal(p *wizard.Proposal) error {
	if flagFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tCODE\tMODULE\tNAME")
	for _, item := range p.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Tag, item.Key, item.Group, item.Label)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d new, %d updated, %d unchanged\n",
		p.Summary.New, p.Summary.Updated, p.Summary.Unchanged)
	return nil
}
