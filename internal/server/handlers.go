package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	archsketch "github.com/archsketch/archsketch"
	"github.com/archsketch/archsketch/internal/gallery"
	"github.com/archsketch/archsketch/internal/lint"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": s.catalog.All()})
}

func (s *Server) handleGetTemplate(c *gin.Context) {
	tmpl, ok := s.catalog.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// generateRequest is the POST /api/diagrams body. Validation runs through
// gin's binding (go-playground/validator).
type generateRequest struct {
	Description      string `json:"description" binding:"required_without=Template"`
	ArchitectureType string `json:"architecture_type" binding:"omitempty,archtype"`
	CloudProvider    string `json:"cloud_provider" binding:"omitempty,cloudprovider"`
	Components       string `json:"components"`
	Engine           string `json:"engine" binding:"omitempty,oneof=diagram image"`
	Format           string `json:"format" binding:"omitempty,oneof=dot mermaid png svg"`
	// Template prefills missing fields from a catalog template.
	Template string `json:"template"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Template != "" {
		tmpl, ok := s.catalog.Get(req.Template)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown template %q", req.Template)})
			return
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

	engine, _ := archsketch.ParseEngine(req.Engine)
	design := archsketch.DesignRequest{
		Description:      req.Description,
		ArchitectureType: req.ArchitectureType,
		CloudProvider:    req.CloudProvider,
		Components:       req.Components,
	}

	switch engine {
	case archsketch.EngineImage:
		s.generateImage(c, design)
	default:
		s.generateDiagram(c, design, req.Format)
	}
}

func (s *Server) generateDiagram(c *gin.Context, req archsketch.DesignRequest, format string) {
	if s.designer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "diagram designer not configured"})
		return
	}

	renderFormat := archsketch.FormatDOT
	if format != "" {
		renderFormat, _ = archsketch.ParseRenderFormat(format)
	}

	result, err := s.designer.Design(c.Request.Context(), req)
	if err != nil {
		s.logger.Warn("design failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	data, err := s.renderer.GenerateBytes(c.Request.Context(), &result.Spec, renderFormat)
	if err != nil {
		s.logger.Warn("render failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	specJSON, err := json.Marshal(result.Spec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	art, err := s.gallery.Save(gallery.SaveInput{
		Title:       result.Spec.Title,
		Engine:      archsketch.EngineDiagram,
		Format:      renderFormat.Ext(),
		ContentType: renderFormat.ContentType(),
		Data:        data,
		SpecJSON:    specJSON,
		Description: result.Description,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := archsketch.GenerateResult{
		Success:  true,
		Engine:   archsketch.EngineDiagram,
		Artifact: art,
		Design:   result,
	}
	if !result.LintPassed {
		lintResult := lint.Lint(&result.Spec, lint.Options{})
		for _, issue := range lintResult.Errors() {
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %s", issue.Rule, issue.Message))
		}
	}

	c.JSON(http.StatusCreated, out)
}

func (s *Server) generateImage(c *gin.Context, req archsketch.DesignRequest) {
	if s.designer == nil || s.imageGen == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image engine not configured"})
		return
	}

	imagePrompt, usage, err := s.designer.ImagePrompt(c.Request.Context(), req)
	if err != nil {
		s.logger.Warn("image prompt synthesis failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	data, err := s.imageGen.Generate(c.Request.Context(), imagePrompt)
	if err != nil {
		s.logger.Warn("image generation failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	art, err := s.gallery.Save(gallery.SaveInput{
		Title:       req.Description,
		Engine:      archsketch.EngineImage,
		Format:      "png",
		ContentType: "image/png",
		Data:        data,
		Prompt:      imagePrompt,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, archsketch.GenerateResult{
		Success:     true,
		Engine:      archsketch.EngineImage,
		Artifact:    art,
		ImagePrompt: imagePrompt,
		Design:      &archsketch.DesignResult{Usage: usage},
	})
}

func (s *Server) handleListArtifacts(c *gin.Context) {
	artifacts, err := s.gallery.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"artifacts": artifacts})
}

func (s *Server) handleGetArtifact(c *gin.Context) {
	art, err := s.gallery.Get(c.Param("id"))
	if err != nil {
		s.artifactError(c, err)
		return
	}
	c.JSON(http.StatusOK, art)
}

func (s *Server) handleDownloadArtifact(c *gin.Context) {
	data, art, err := s.gallery.Data(c.Param("id"))
	if err != nil {
		s.artifactError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "architecture_diagram."+art.Format))
	c.Data(http.StatusOK, art.ContentType, data)
}

func (s *Server) handleDeleteArtifact(c *gin.Context) {
	if err := s.gallery.Delete(c.Param("id")); err != nil {
		s.artifactError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleClearArtifacts(c *gin.Context) {
	if err := s.gallery.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// renderRequest is the POST /api/render body: render a spec without calling
// the model.
type renderRequest struct {
	Spec   archsketch.DiagramSpec `json:"spec" binding:"required"`
	Format string                 `json:"format" binding:"omitempty,oneof=dot mermaid png svg"`
}

func (s *Server) handleRender(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lintResult := lint.Lint(&req.Spec, lint.Options{})
	if !lintResult.Success {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "spec failed validation",
			"issues": lintResult.Issues,
		})
		return
	}

	format := archsketch.FormatDOT
	if req.Format != "" {
		format, _ = archsketch.ParseRenderFormat(req.Format)
	}

	data, err := s.renderer.GenerateBytes(c.Request.Context(), &req.Spec, format)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, format.ContentType(), data)
}

func (s *Server) artifactError(c *gin.Context, err error) {
	if errors.Is(err, gallery.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
