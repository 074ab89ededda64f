// Package cli implements syncctl, the headless registry sync tool. It
// drives the same diff and commit path as the gateway's sync wizard.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hrflow/internal/oracle/registrydiff"
	"hrflow/internal/registry"
	"hrflow/internal/store/featurestore"
)

var (
	flagRegistry string
	flagFormat   string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:          "syncctl",
	Short:        "Reconcile the feature registry with the stored feature records",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch flagFormat {
		case "text", "json":
			return nil
		default:
			return fmt.Errorf("unsupported format %q (want text or json)", flagFormat)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRegistry, "registry", "registry/features.yaml", "feature registry file")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(syncCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func newFeatureStore() (*featurestore.Store, error) {
	_ = godotenv.Load()
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		return featurestore.NewPostgres(dsn)
	}
	return featurestore.New("tmp/features.json"), nil
}

func newDiffer(store *featurestore.Store, logger *zap.Logger) *registrydiff.Differ {
	return registrydiff.New(func() (*registry.Registry, error) {
		return registry.Load(flagRegistry)
	}, store, logger)
}
