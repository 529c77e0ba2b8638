package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/advsynth/internal/infrastructure"
)

func newRunCmd(root *rootFlags) *cobra.Command {
	var batchPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Audit a batch, mine hard examples, and generate adversarial variants",
		Long: "run executes the full pipeline on one batch and prints the run result as JSON.\n" +
			"Runs are registered in the database when database.enabled is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			batch, err := readBatch(batchPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			infra, err := infrastructure.NewWithWriter(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())

			if err := infra.Start(); err != nil {
				return err
			}
			if err := infra.Lifecycle.WaitForStartup(); err != nil {
				return fmt.Errorf("startup: %w", err)
			}

			orch, _, err := infra.Pipeline(cfg, infra.Runs(cfg))
			if err != nil {
				return err
			}

			res, err := orch.Run(cmd.Context(), batch)
			if res != nil {
				if werr := writeJSON(cmd.OutOrStdout(), res); werr != nil {
					return werr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&batchPath, "batch", "b", "", "Batch JSON file, or - for stdin (required)")
	_ = cmd.MarkFlagRequired("batch")
	return cmd
}
