package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded executions, or show one with --id",
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
			if a.store == nil {
				return errors.New("run history is disabled (set store.type in the config)")
			}

			ctx := cmdContext(cmd)
			out := cmd.OutOrStdout()
			if id, _ := cmd.Flags().GetString("id"); id != "" {
				run, err := a.store.GetRun(ctx, id)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}

			runs, err := a.store.ListRuns(ctx, v.GetInt("limit"))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tPIPELINES\tRESULTS\tSTATUS")
			for _, r := range runs {
				status := "ok"
				if r.Failed {
					status = "failed"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					r.ID, r.StartedAt.Format(time.RFC3339), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
					r.Pipelines, r.Results, status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("id", "", "show a single run by id")
	cmd.Flags().Int("limit", v.GetInt("limit"), "maximum number of runs to list")
	_ = v.BindPFlag("limit", cmd.Flags().Lookup("limit"))
	return cmd
}
