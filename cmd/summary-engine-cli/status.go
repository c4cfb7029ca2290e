// Package main provides the status and list commands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// newStatusCmd creates the status subcommand.
func newStatusCmd() *cobra.Command {
	var showText bool

	cmd := &cobra.Command{
		Use:   "status <document-id>",
		Short: "Show the processing status of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client := newAPIClient(serverURL)
			doc, err := client.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}

			printDocument(doc, showText)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showText, "text", false, "include the extracted text in the output")

	return cmd
}

// newListCmd creates the list subcommand.
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all known documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client := newAPIClient(serverURL)
			list, err := client.List(ctx)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			if list.Count == 0 {
				fmt.Println("No documents found.")
				return nil
			}

			for _, doc := range list.Documents {
				fmt.Printf("%s  %-14s  %s\n", doc.FileID, renderStatus(doc.Status), doc.Filename)
			}
			fmt.Printf("\n%d document(s)\n", list.Count)
			return nil
		},
	}
}
