package main

import (
	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/advsynth/internal/sampler"
	"github.com/JaimeStill/advsynth/internal/uncertainty"
)

type auditReport struct {
	Labels      []string          `json:"labels"`
	Scores      []float64         `json:"scores"`
	MeanEntropy float64           `json:"mean_entropy"`
	Selection   sampler.Selection `json:"selection"`
}

func newAuditCmd(root *rootFlags) *cobra.Command {
	var batchPath string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Score a batch by predictive entropy and show which examples would be mined",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			batch, err := readBatch(batchPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			est, err := uncertainty.New(&cfg.Audit)
			if err != nil {
				return err
			}
			smp, err := sampler.New(&cfg.Selection)
			if err != nil {
				return err
			}

			_, scores, err := est.Estimate(cmd.Context(), batch.Inputs)
			if err != nil {
				return err
			}
			sel, err := smp.SelectBatch(scores)
			if err != nil {
				return err
			}

			report := auditReport{
				Labels:    batch.Labels,
				Scores:    scores,
				Selection: sel,
			}
			if len(scores) > 0 {
				report.MeanEntropy, _ = stats.Mean(scores)
			}

			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVarP(&batchPath, "batch", "b", "", "Batch JSON file, or - for stdin (required)")
	_ = cmd.MarkFlagRequired("batch")
	return cmd
}
