package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute every pipeline once and print the results as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadConfig(v)
			if err != nil {
				return err
			}
			a, err := newApp(doc)
			if err != nil {
				return err
			}
			defer a.Close()

			run := a.executor.Execute(cmdContext(cmd))

			var out any = run.Results
			if full, _ := cmd.Flags().GetBool("full"); full {
				out = run
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			if run.Err != nil {
				return fmt.Errorf("run %s: %w", run.ID, run.Err)
			}
			return nil
		},
	}
	cmd.Flags().Bool("full", false, "print the whole run record instead of only the results")
	return cmd
}
