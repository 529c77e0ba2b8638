package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/advsynth/internal/prompts"
)

func newPromptsCmd(root *rootFlags) *cobra.Command {
	var (
		class string
		n     int
	)

	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Generate adversarial prompts for a class label",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("count") {
				n = cfg.Generation.VariantsPerImage
			}

			engine := prompts.NewEngine(cfg.Generation.Seed, cfg.Generation.Policy())
			set, err := engine.Generate(class, n)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), set)
		},
	}

	cmd.Flags().StringVar(&class, "class", "", "Class label to render into each prompt (required)")
	cmd.Flags().IntVarP(&n, "count", "n", 0, "Number of prompts (default generation.variants_per_image)")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}
