package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	archsketch "github.com/archsketch/archsketch"
	"github.com/archsketch/archsketch/internal/lint"
	"github.com/archsketch/archsketch/internal/render"
)

func newRenderCmd() *cobra.Command {
	var (
		format      string
		outputFile  string
		graphvizBin string
		skipLint    bool
	)

	cmd := &cobra.Command{
		Use:   "render <spec-file>",
		Short: "Render a saved diagram spec",
		Long: `Render turns a diagram spec file (JSON or YAML) into a diagram without
calling the model. The spec is linted first; rendering is refused while
error-severity findings remain.

Examples:
    archsketch render diagram.spec.json
    archsketch render diagram.spec.yaml --format svg -o diagram.svg
    archsketch render diagram.spec.json --format mermaid`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], format, outputFile, graphvizBin, skipLint)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "dot", "Output format: dot, mermaid, png or svg")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&graphvizBin, "graphviz", "", "Graphviz dot binary for png/svg output")
	cmd.Flags().BoolVar(&skipLint, "skip-lint", false, "Render even when the spec fails validation")

	return cmd
}

func runRender(specPath, format, outputFile, graphvizBin string, skipLint bool) error {
	spec, err := render.LoadSpec(specPath)
	if err != nil {
		return err
	}

	renderFormat, err := archsketch.ParseRenderFormat(format)
	if err != nil {
		return err
	}

	result := lint.Lint(spec, lint.Options{})
	for _, issue := range result.Issues {
		fmt.Fprintf(os.Stderr, "%s: [%s] %s\n", issue.Severity, issue.Rule, issue.Message)
		if issue.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "  suggestion: %s\n", issue.Suggestion)
		}
	}
	if !result.Success && !skipLint {
		return fmt.Errorf("spec failed validation with %d error(s)", len(result.Errors()))
	}

	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		out = f
	}

	gen := &render.Generator{GraphvizBin: graphvizBin}
	if err := gen.Generate(context.Background(), spec, renderFormat, out); err != nil {
		return fmt.Errorf("rendering diagram: %w", err)
	}

	if outputFile != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", outputFile)
	}
	return nil
}
