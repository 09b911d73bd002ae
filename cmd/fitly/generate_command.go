package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/raushankrgupta/fitly-outfits/app"
	"github.com/raushankrgupta/fitly-outfits/models"
	"github.com/raushankrgupta/fitly-outfits/pipeline"
	"github.com/raushankrgupta/fitly-outfits/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var file string
	var email string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate outfits for a batch of garments and print the NDJSON stream",
		Long: `Reads a JSON batch, either {"images": [...]} or a bare array of garments,
runs it through the generation pipeline and writes one record per garment to stdout.
Results are kept in memory only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open batch file: %w", err)
				}
				defer f.Close()
				in = f
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read batch: %w", err)
			}
			items, err := parseGarmentInputs(data)
			if err != nil {
				return err
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			mem := store.NewMemoryStore()
			user, err := mem.UpsertGoogleUser(cmd.Context(), models.User{Name: "cli", Email: email})
			if err != nil {
				return err
			}
			batches, err := app.NewBatchRunner(mem, logger)
			if err != nil {
				return err
			}

			summary, err := batches.Run(cmd.Context(), user.ID.Hex(), items, pipeline.NewEmitter(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			logger.Info("batch finished",
				zap.String("collection_id", summary.CollectionID.Hex()),
				zap.Int("succeeded", summary.Succeeded),
				zap.Int("failed", summary.Failed))
			if summary.Succeeded == 0 {
				return errors.New("no outfit was generated")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Batch JSON file (default stdin)")
	cmd.Flags().StringVar(&email, "email", "cli@fitly.local", "Owner of the generated collection")
	return cmd
}

// parseGarmentInputs accepts either a generate request body or a bare array of garments.
func parseGarmentInputs(data []byte) ([]models.GarmentInput, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, pipeline.ErrNoImages
	}
	var items []models.GarmentInput
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
	} else {
		var req struct {
			Images []models.GarmentInput `json:"images"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
		items = req.Images
	}
	if len(items) == 0 {
		return nil, pipeline.ErrNoImages
	}
	return items, nil
}
