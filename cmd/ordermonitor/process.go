package main

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process <file>...",
	Short: "Process drop files once, without watching",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := buildApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}

		var result *multierror.Error
		for _, path := range args {
			outcome, err := a.monitor.ProcessFile(cmd.Context(), path)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", path, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, outcome)
			if !outcome.Succeeded() {
				result = multierror.Append(result, fmt.Errorf("%s: %s", path, outcome))
			}
		}

		if err := a.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		return result.ErrorOrNil()
	},
}
