// Command archsketch turns natural-language architecture descriptions into
// diagrams.
//
// Usage:
//
//	archsketch serve                  Start the web UI and API
//	archsketch design "..."           One-shot diagram generation
//	archsketch render spec.json      Render a saved spec without the model
//	archsketch templates              List built-in templates
//	archsketch version                Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "archsketch",
		Short: "AI-powered architecture diagram generator",
		Long: `archsketch turns plain-English architecture descriptions into diagrams.

An AI model designs the architecture as a structured spec, a rule-based
linter validates it, and the renderer produces DOT, Mermaid, PNG or SVG
output. An image engine can instead draw the whole diagram with an image
generation model.

Examples:

    archsketch serve --addr :8080
    archsketch design "serverless API with Lambda, API Gateway and DynamoDB"
    archsketch render diagram.json --format svg -o diagram.svg`,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newDesignCmd(),
		newRenderCmd(),
		newTemplatesCmd(),
		newGalleryCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("archsketch %s\n", getVersion())
		},
	}
}
