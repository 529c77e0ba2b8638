package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/advsynth/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	config string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "advsynth",
		Short: "Adversarial data synthesis for image classifiers",
		Long: "advsynth scores a batch of classifier outputs by predictive entropy, mines the\n" +
			"hardest examples, and generates text-to-image variants of them under\n" +
			"adverse weather, lighting, and camera conditions.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}

	cmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Config file (default ./config.toml when present)")

	cmd.AddCommand(
		newRunCmd(flags),
		newAuditCmd(flags),
		newPromptsCmd(flags),
		newServeCmd(flags),
	)
	return cmd
}

func (f *rootFlags) load() (*config.Config, error) {
	return config.Load(f.config)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
