// Command design runs one-shot AI-assisted diagram generation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	archsketch "github.com/archsketch/archsketch"
	"github.com/archsketch/archsketch/internal/catalog"
	"github.com/archsketch/archsketch/internal/designer"
	"github.com/archsketch/archsketch/internal/imagegen"
	"github.com/archsketch/archsketch/internal/providers"
	"github.com/archsketch/archsketch/internal/render"
)

func newDesignCmd() *cobra.Command {
	var opts designOptions

	cmd := &cobra.Command{
		Use:   "design [description]",
		Short: "AI-assisted diagram generation",
		Long: `Design sends an architecture description to the AI model, validates the
returned spec with the linter, and renders the diagram.

The model's spec goes through up to --max-lint-cycles generate/lint
rounds; lint findings are fed back so the model can repair the spec.

With --engine image the model instead writes a detailed drawing prompt
and an image generation model draws the diagram.

Examples:
    archsketch design "Create a serverless API with Lambda and API Gateway"
    archsketch design --template "Data Pipeline (AWS)" --format svg
    archsketch design --engine image "microservices platform on Kubernetes"`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.description = strings.Join(args, " ")
			return runDesign(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", ".", "Output directory for generated files")
	cmd.Flags().StringVarP(&opts.archType, "type", "t", "", "Architecture type (cloud, microservices, serverless, data, ml, event-driven, devops, network)")
	cmd.Flags().StringVarP(&opts.cloud, "cloud", "c", "", "Cloud provider (AWS, GCP, Azure, Generic)")
	cmd.Flags().StringVar(&opts.components, "components", "", "Specific components to include")
	cmd.Flags().StringVarP(&opts.engine, "engine", "e", "diagram", "Engine: 'diagram' or 'image'")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "png", "Diagram format: dot, mermaid, png or svg")
	cmd.Flags().StringVar(&opts.template, "template", "", "Start from a built-in template")
	cmd.Flags().IntVarP(&opts.maxLintCycles, "max-lint-cycles", "l", designer.DefaultMaxLintCycles, "Maximum lint/fix cycles")
	cmd.Flags().BoolVarP(&opts.stream, "stream", "s", false, "Stream model output")
	cmd.Flags().StringVar(&opts.provider, "provider", "gemini", "Text model provider: 'gemini' or 'openai'")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name (provider default when empty)")
	cmd.Flags().StringVar(&opts.graphvizBin, "graphviz", "", "Graphviz dot binary for png/svg output")

	return cmd
}

type designOptions struct {
	description   string
	outputDir     string
	archType      string
	cloud         string
	components    string
	engine        string
	format        string
	template      string
	maxLintCycles int
	stream        bool
	provider      string
	model         string
	graphvizBin   string
}

func runDesign(opts designOptions) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	req := archsketch.DesignRequest{
		Description:      opts.description,
		ArchitectureType: opts.archType,
		CloudProvider:    opts.cloud,
		Components:       opts.components,
	}
	if opts.template != "" {
		tmpl, ok := catalog.Builtin().Get(opts.template)
		if !ok {
			return fmt.Errorf("unknown template: %s (see 'archsketch templates')", opts.template)
		}
		if req.Description == "" {
			req.Description = tmpl.Description
		}
		if req.ArchitectureType == "" {
			req.ArchitectureType = tmpl.ArchitectureType
		}
		if req.CloudProvider == "" {
			req.CloudProvider = tmpl.CloudProvider
		}
		if req.Components == "" {
			req.Components = tmpl.Components
		}
	}
	if req.Description == "" {
		return fmt.Errorf("a description or --template is required")
	}

	engine, err := archsketch.ParseEngine(opts.engine)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	provider, err := newProvider(ctx, opts.provider)
	if err != nil {
		return err
	}

	var streamHandler providers.StreamHandler
	if opts.stream {
		streamHandler = func(text string) {
			fmt.Print(text)
		}
	}

	design, err := designer.New(designer.Config{
		Provider:      provider,
		Model:         opts.model,
		MaxLintCycles: opts.maxLintCycles,
		StreamHandler: streamHandler,
	})
	if err != nil {
		return err
	}

	if engine == archsketch.EngineImage {
		return runDesignImage(ctx, design, req, opts)
	}
	return runDesignDiagram(ctx, design, req, opts)
}

func runDesignDiagram(ctx context.Context, design *designer.Designer, req archsketch.DesignRequest, opts designOptions) error {
	format, err := archsketch.ParseRenderFormat(opts.format)
	if err != nil {
		return err
	}

	fmt.Println("Designing architecture...")
	result, err := design.Design(ctx, req)
	if err != nil {
		return fmt.Errorf("design failed: %w", err)
	}
	if opts.stream {
		fmt.Println()
	}

	gen := &render.Generator{GraphvizBin: opts.graphvizBin}
	diagramPath := filepath.Join(opts.outputDir, "diagram."+format.Ext())
	out, err := os.Create(diagramPath)
	if err != nil {
		return err
	}
	if err := gen.Generate(ctx, &result.Spec, format, out); err != nil {
		_ = out.Close()
		return fmt.Errorf("rendering diagram: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	specJSON, err := json.MarshalIndent(result.Spec, "", "  ")
	if err != nil {
		return err
	}
	specPath := filepath.Join(opts.outputDir, "diagram.spec.json")
	if err := os.WriteFile(specPath, specJSON, 0644); err != nil {
		return err
	}

	fmt.Println("\n--- Design Summary ---")
	fmt.Printf("Title: %s\n", result.Spec.Title)
	fmt.Printf("Nodes: %d, edges: %d\n", len(result.Spec.Nodes), len(result.Spec.Edges))
	fmt.Printf("Lint cycles: %d\n", result.LintCycles)
	fmt.Printf("Lint passed: %v\n", result.LintPassed)
	fmt.Printf("Tokens: %d\n", result.Usage.Total)
	if result.Description != "" {
		fmt.Printf("\n%s\n", result.Description)
	}
	for _, bp := range result.BestPractices {
		fmt.Printf("  * %s\n", bp)
	}
	fmt.Printf("\nWrote %s\n", diagramPath)
	fmt.Printf("Wrote %s\n", specPath)

	return nil
}

func runDesignImage(ctx context.Context, design *designer.Designer, req archsketch.DesignRequest, opts designOptions) error {
	fmt.Println("Synthesizing image prompt...")
	imagePrompt, usage, err := design.ImagePrompt(ctx, req)
	if err != nil {
		return fmt.Errorf("prompt synthesis failed: %w", err)
	}
	if opts.stream {
		fmt.Println()
	}

	gen, err := imagegen.New(ctx, imagegen.Config{})
	if err != nil {
		return err
	}

	fmt.Println("Generating image...")
	data, err := gen.Generate(ctx, imagePrompt)
	if err != nil {
		return fmt.Errorf("image generation failed: %w", err)
	}

	imagePath := filepath.Join(opts.outputDir, "diagram.png")
	if err := os.WriteFile(imagePath, data, 0644); err != nil {
		return err
	}
	promptPath := filepath.Join(opts.outputDir, "diagram.prompt.txt")
	if err := os.WriteFile(promptPath, []byte(imagePrompt), 0644); err != nil {
		return err
	}

	fmt.Println("\n--- Design Summary ---")
	fmt.Printf("Tokens: %d\n", usage.Total)
	fmt.Printf("Wrote %s\n", imagePath)
	fmt.Printf("Wrote %s\n", promptPath)

	return nil
}
