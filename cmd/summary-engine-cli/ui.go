// Package main provides output utilities for the summary engine CLI.
package main

import (
	"fmt"

	"github.com/fatih/color"
)

// printSuccess prints a green success line.
func printSuccess(format string, args ...interface{}) {
	color.New(color.FgGreen).Printf("✓ %s\n", fmt.Sprintf(format, args...))
}

// renderStatus colors a pipeline status for terminal output.
func renderStatus(status string) string {
	switch status {
	case "uploaded":
		return color.New(color.FgCyan).Sprint(status)
	case "text_ready":
		return color.New(color.FgYellow).Sprint(status)
	case "summary_ready":
		return color.New(color.FgGreen).Sprint(status)
	case "error":
		return color.New(color.FgRed).Sprint(status)
	default:
		return status
	}
}

// printDocument prints one document record in human-readable form.
func printDocument(doc *document, showText bool) {
	fmt.Printf("file_id:         %s\n", doc.FileID)
	fmt.Printf("filename:        %s\n", doc.Filename)
	fmt.Printf("status:          %s\n", renderStatus(doc.Status))
	fmt.Printf("extraction_mode: %s\n", doc.ExtractionMode)
	if doc.Error != "" {
		fmt.Printf("error:           %s\n", color.New(color.FgRed).Sprint(doc.Error))
	}
	if doc.UpdatedAt != "" {
		fmt.Printf("updated_at:      %s\n", doc.UpdatedAt)
	}
	if showText && doc.Text != "" {
		fmt.Printf("\n--- text ---\n%s\n", doc.Text)
	}
	if doc.Summary != "" {
		fmt.Printf("\n--- summary ---\n%s\n", doc.Summary)
	}
}
