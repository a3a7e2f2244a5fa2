package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jigsawreveal/internal/assets"
	"jigsawreveal/internal/preflight"
	"jigsawreveal/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var assetPath string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, directories and decoration assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			search := assets.Join(append(append([]string{}, cfg.Paths.AssetDirs...), strings.TrimSpace(assetPath))...)
			results := preflight.RunAll(contextOrBackground(cmd), cfg, search)

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, f := range failed {
					names = append(names, f.Name)
				}
				return services.Wrap(services.ErrConfiguration, "doctor", "preflight",
					fmt.Sprintf("%d checks failed: %s", len(failed), strings.Join(names, ", ")), nil)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
	cmd.Flags().StringVar(&assetPath, "asset-path", "", "Extra comma-separated asset directories to search")
	return cmd
}
