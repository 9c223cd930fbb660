package main

import (
	"fmt"
	"path/filepath"

	"github.com/DaianCosta/pipehttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newValidateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the pipeline definition file without sending requests",
		Long: `Validate the pipeline definition file for syntax errors and structural
correctness. This command checks:
- JSON or YAML syntax validity
- Required fields (pipelines, backends, method, url)
- Supported HTTP methods
URL reachability and header values are left to the transport.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadConfig(v)
			if err != nil {
				return err
			}
			path := doc.Pipelines.Path
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Validating pipelines in: %s\n", path)

			pipelines, err := pipehttp.LoadPipelines(path)
			if err != nil {
				_, _ = fmt.Fprintf(out, "❌ %v\n", err)
				return fmt.Errorf("validation failed: %w", err)
			}
			backends := 0
			for i, p := range pipelines {
				backends += len(p.Backends)
				name := p.Name
				if name == "" {
					name = fmt.Sprintf("#%d", i)
				}
				_, _ = fmt.Fprintf(out, "✅ %s: %s, %d backend(s)\n", name, p.Mode(), len(p.Backends))
			}
			_, _ = fmt.Fprintf(out, "\n%d pipeline(s), %d backend(s) valid\n", len(pipelines), backends)
			return nil
		},
	}
}
