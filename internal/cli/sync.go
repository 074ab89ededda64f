package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"hrflow/internal/feature"
	"hrflow/internal/wizard"
)

var (
	syncScope   string
	syncCodes   []string
	syncRelease string
	syncAll     bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Apply registry additions and updates to the feature store",
	Long: `Diffs the registry against the stored features and commits the
selected items. By default only new features are written; --all also
applies updates, --codes restricts the run to the named feature codes.
Per-item failures are reported but do not abort the run.`,
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

		proposal, err := newDiffer(store, logger).Propose(cmd.Context(), syncScope)
		if err != nil {
			return err
		}

		items := selectItems(proposal, syncCodes, syncAll)
		if len(items) == 0 {
			fmt.Println("nothing to sync")
			return nil
		}

		exec := &wizard.Executor{
			Writer: &feature.SyncWriter{Store: store, ReleaseID: syncRelease},
			Logger: logger,
		}
		result, err := exec.Run(cmd.Context(), items)
		if err != nil {
			return fmt.Errorf("sync could not start: %w", err)
		}
		return printResult(result)
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncScope, "scope", "", "limit the diff to one module")
	syncCmd.Flags().StringSliceVar(&syncCodes, "codes", nil, "only sync these feature codes")
	syncCmd.Flags().StringVar(&syncRelease, "release", "", "link written features to this release id")
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "also apply updates to existing features")
}

// selectItems mirrors the wizard's default selection: new features are in,
// unchanged ones never are, updates only with --all. An explicit --codes
// list narrows the set further.
func selectItems(p *wizard.Proposal, codes []string, includeUpdates bool) []wizard.Item {
	wanted := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			wanted[c] = struct{}{}
		}
	}
	out := make([]wizard.Item, 0, len(p.Items))
	for _, item := range p.Items {
		switch item.Tag {
		case wizard.TagNew:
		case wizard.TagUpdated:
			if !includeUpdates {
				continue
			}
		default:
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[item.Key]; !ok {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// printResult reports the outcome. Per-item failures exit 0: the run
// itself completed, best effort.
func printResult(r *wizard.Result) error {
	if flagFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Printf("created %d, updated %d, skipped %d\n", r.Created, r.Updated, r.Skipped)
	for _, e := range r.Errors {
		fmt.Fprintf(os.Stderr, "  failed %s: %s\n", e.Label, e.Message)
	}
	return nil
}
