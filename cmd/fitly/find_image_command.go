package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/raushankrgupta/fitly-outfits/importer"
	"github.com/spf13/cobra"
)

func newFindImageCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "find-image <product-url>...",
		Short: "Print the product photo found on each shop page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			finder := importer.NewImageFinder(&http.Client{Timeout: 30 * time.Second})
			var failed int
			for _, u := range args {
				img, err := finder.FindImage(cmd.Context(), u)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", u, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", u, img)
			}
			if failed == len(args) {
				return fmt.Errorf("no product image found")
			}
			return nil
		},
	}
}
