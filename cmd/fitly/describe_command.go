package main

import (
	"encoding/json"

	"github.com/raushankrgupta/fitly-outfits/config"
	"github.com/raushankrgupta/fitly-outfits/models"
	"github.com/raushankrgupta/fitly-outfits/utils"
	"github.com/spf13/cobra"
)

func newDescribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <image-url>",
		Short: "Describe a garment photo and print the model prompt it yields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			describer, err := utils.NewGeminiDescriber(cmd.Context(), config.GeminiAPIKey, config.GeminiModel, logger.Named("gemini"))
			if err != nil {
				return err
			}
			defer describer.Close()

			desc := describer.DescribeGarment(cmd.Context(), args[0])
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{
				"gender":           desc.Gender,
				"description":      desc.Outfit,
				"modelDescription": models.ModelPromptFor(desc),
			})
		},
	}
}
