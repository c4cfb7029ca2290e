// Package main provides the summary engine CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	serverURL  string
	outputJSON bool
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "summary-engine-cli",
	Short: "Summary Engine CLI for uploading PDFs and tracking their summaries",
	Long: `Summary Engine CLI provides commands for driving the summarization pipeline.

Use this tool to:
- Upload PDFs for text extraction and summarization
- Check the processing status of a document
- List all known documents
- Watch a document until its summary is ready

All commands support --json for automation.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "summary engine API base URL")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newWatchCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
