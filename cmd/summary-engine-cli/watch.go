// Package main provides the watch command.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// newWatchCmd creates the watch subcommand.
func newWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <document-id>",
		Short: "Poll a document until its summary is ready or it errors",
		Long: `Watch polls the document's status until the pipeline reaches summary_ready
or error. A transient error status does not stop the watch: the pipeline
retries, so watch keeps polling until the timeout when the status may still
advance.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			client := newAPIClient(serverURL)
			var last string

			for {
				doc, err := client.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("watch: %w", err)
				}

				if doc.Status != last {
					last = doc.Status
					if !outputJSON {
						fmt.Printf("%s  %s\n", time.Now().Format(time.TimeOnly), renderStatus(doc.Status))
					}
				}

				if doc.Status == "summary_ready" {
					if outputJSON {
						enc := json.NewEncoder(os.Stdout)
						enc.SetIndent("", "  ")
						return enc.Encode(doc)
					}
					printSuccess("Summary ready")
					fmt.Printf("\n%s\n", doc.Summary)
					return nil
				}

				select {
				case <-ctx.Done():
					return fmt.Errorf("watch: timed out after %s in status %s", timeout, last)
				case <-time.After(interval):
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "give up after this long")

	return cmd
}
