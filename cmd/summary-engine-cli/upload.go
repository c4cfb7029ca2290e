// Package main provides the upload command.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// newUploadCmd creates the upload subcommand.
func newUploadCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a PDF for extraction and summarization",
		Long: `Upload sends a PDF to the summary engine. The server stores the bytes,
queues the document for text extraction, and returns its ID immediately;
use status or watch to follow the pipeline's progress.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "plain_text" && mode != "markdown" {
				return fmt.Errorf("invalid mode %q: must be plain_text or markdown", mode)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			client := newAPIClient(serverURL)
			result, err := client.Upload(ctx, args[0], mode)
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			printSuccess("Uploaded %s", args[0])
			fmt.Printf("  file_id: %s\n", result.FileID)
			fmt.Printf("  status:  %s\n", result.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "plain_text", "extraction mode: plain_text or markdown")

	return cmd
}
