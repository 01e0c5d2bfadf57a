// Package server exposes the web UI and JSON API over HTTP.
package server

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	archsketch "github.com/archsketch/archsketch"
	"github.com/archsketch/archsketch/internal/catalog"
	"github.com/archsketch/archsketch/internal/gallery"
	"github.com/archsketch/archsketch/internal/render"
)

//go:embed static
var staticFS embed.FS

// Designer generates diagram specs and image prompts from a request.
// *designer.Designer implements it.
type Designer interface {
	Design(ctx context.Context, req archsketch.DesignRequest) (*archsketch.DesignResult, error)
	ImagePrompt(ctx context.Context, req archsketch.DesignRequest) (string, archsketch.TokenUsage, error)
}

// ImageGenerator draws a diagram image from a prompt.
// *imagegen.Generator implements it.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Config wires the server's collaborators.
type Config struct {
	Catalog  *catalog.Catalog
	Designer Designer
	// ImageGen may be nil; the image engine then reports unavailable.
	ImageGen ImageGenerator
	Renderer *render.Generator
	Gallery  *gallery.Store
	Logger   *zap.Logger
}

// Server handles HTTP requests.
type Server struct {
	catalog  *catalog.Catalog
	designer Designer
	imageGen ImageGenerator
	renderer *render.Generator
	gallery  *gallery.Store
	logger   *zap.Logger
	engine   *gin.Engine
}

// New builds the server and its routes.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		catalog:  config.Catalog,
		designer: config.Designer,
		imageGen: config.ImageGen,
		renderer: config.Renderer,
		gallery:  config.Gallery,
		logger:   logger,
	}

	gin.SetMode(gin.ReleaseMode)
	registerValidators()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/templates", s.handleListTemplates)
		api.GET("/templates/:name", s.handleGetTemplate)

		api.POST("/diagrams", s.handleGenerate)
		api.GET("/diagrams", s.handleListArtifacts)
		api.GET("/diagrams/:id", s.handleGetArtifact)
		api.GET("/diagrams/:id/artifact", s.handleDownloadArtifact)
		api.DELETE("/diagrams/:id", s.handleDeleteArtifact)
		api.DELETE("/diagrams", s.handleClearArtifacts)

		api.POST("/render", s.handleRender)
	}

	static, _ := fs.Sub(staticFS, "static")
	r.StaticFS("/ui", http.FS(static))
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/ui/")
	})

	s.engine = r
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the server on addr and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("server listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// registerValidators adds the domain value checks used in binding tags.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("archtype", oneOfValues(archsketch.ArchitectureTypes))
	_ = v.RegisterValidation("cloudprovider", oneOfValues(archsketch.CloudProviders))
}

func oneOfValues(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	}
}

// requestLogger logs each request with zap.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
