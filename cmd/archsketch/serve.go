package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/archsketch/archsketch/internal/catalog"
	"github.com/archsketch/archsketch/internal/designer"
	"github.com/archsketch/archsketch/internal/gallery"
	"github.com/archsketch/archsketch/internal/imagegen"
	"github.com/archsketch/archsketch/internal/render"
	"github.com/archsketch/archsketch/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		addr          string
		dataDir       string
		providerName  string
		model         string
		imageModel    string
		maxLintCycles int
		templatesPath string
		graphvizBin   string
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and JSON API",
		Long: `Serve starts the HTTP server hosting the web UI and the JSON API.

The diagram engine needs a text model API key (GEMINI_API_KEY or
OPENAI_API_KEY depending on --provider). The image engine additionally
needs GEMINI_API_KEY; without it the image engine reports unavailable
and the rest of the server still works.

Examples:
    archsketch serve
    archsketch serve --addr :9000 --provider openai
    archsketch serve --data-dir /var/lib/archsketch --templates extra.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(serveOptions{
				addr:          addr,
				dataDir:       dataDir,
				provider:      providerName,
				model:         model,
				imageModel:    imageModel,
				maxLintCycles: maxLintCycles,
				templatesPath: templatesPath,
				graphvizBin:   graphvizBin,
				verbose:       verbose,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("ARCHSKETCH_ADDR", ":8080"), "Listen address")
	cmd.Flags().StringVar(&dataDir, "data-dir", envOr("ARCHSKETCH_DATA_DIR", "outputs"), "Directory for the artifact gallery")
	cmd.Flags().StringVar(&providerName, "provider", envOr("ARCHSKETCH_PROVIDER", "gemini"), "Text model provider: 'gemini' or 'openai'")
	cmd.Flags().StringVar(&model, "model", os.Getenv("ARCHSKETCH_MODEL"), "Text model name (provider default when empty)")
	cmd.Flags().StringVar(&imageModel, "image-model", os.Getenv("ARCHSKETCH_IMAGE_MODEL"), "Image model name (default "+imagegen.DefaultModel+")")
	cmd.Flags().IntVar(&maxLintCycles, "max-lint-cycles", designer.DefaultMaxLintCycles, "Maximum generate/lint repair cycles")
	cmd.Flags().StringVar(&templatesPath, "templates", os.Getenv("ARCHSKETCH_TEMPLATES"), "YAML overlay extending the built-in templates")
	cmd.Flags().StringVar(&graphvizBin, "graphviz", "", "Graphviz dot binary for png/svg output (default: dot on PATH)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	return cmd
}

type serveOptions struct {
	addr          string
	dataDir       string
	provider      string
	model         string
	imageModel    string
	maxLintCycles int
	templatesPath string
	graphvizBin   string
	verbose       bool
}

func runServe(opts serveOptions) error {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cat, err := catalog.Load(opts.templatesPath)
	if err != nil {
		return err
	}

	store, err := gallery.Open(opts.dataDir)
	if err != nil {
		return fmt.Errorf("opening gallery: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	provider, err := newProvider(ctx, opts.provider)
	if err != nil {
		return err
	}

	design, err := designer.New(designer.Config{
		Provider:      provider,
		Model:         opts.model,
		MaxLintCycles: opts.maxLintCycles,
	})
	if err != nil {
		return err
	}

	// The image engine is optional; serve the rest without it.
	var imageGen server.ImageGenerator
	if gen, err := imagegen.New(ctx, imagegen.Config{Model: opts.imageModel}); err != nil {
		logger.Warn("image engine disabled", zap.Error(err))
	} else {
		imageGen = gen
	}

	srv := server.New(server.Config{
		Catalog:  cat,
		Designer: design,
		ImageGen: imageGen,
		Renderer: &render.Generator{GraphvizBin: opts.graphvizBin},
		Gallery:  store,
		Logger:   logger,
	})

	logger.Info("starting archsketch",
		zap.String("provider", opts.provider),
		zap.String("data_dir", opts.dataDir),
		zap.Int("templates", cat.Len()),
	)
	return srv.Run(ctx, opts.addr)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config = zap.NewDevelopmentConfig()
	}
	return config.Build()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
