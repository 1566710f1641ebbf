package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/timmy/ordermonitor/internal/config"
	"github.com/timmy/ordermonitor/internal/domain"
)

var validateKind string

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a drop file against the schema and business rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		return validateFile(cmd, cfg, args[0])
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateKind, "kind", "", "payload kind (transaction or cancellation); derived from the file name if empty")
}

func validateFile(cmd *cobra.Command, cfg *config.Config, path string) error {
	kind, err := domain.ParseKind(validateKind)
	if err != nil {
		return err
	}
	if kind == "" {
		if kind, err = domain.KindForFileName(filepath.Base(path)); err != nil {
			return fmt.Errorf("%w; pass --kind", err)
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	validator, err := newValidator(cfg)
	if err != nil {
		return err
	}

	_, res, err := validator.Parse(kind, content)
	if err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("invalid %s: %s", kind.DisplayName(), res.Reason)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid %s\n", path, kind.DisplayName())
	return nil
}
