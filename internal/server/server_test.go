package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	archsketch "github.com/archsketch/archsketch"
	"github.com/archsketch/archsketch/internal/catalog"
	"github.com/archsketch/archsketch/internal/gallery"
	"github.com/archsketch/archsketch/internal/render"
)

type fakeDesigner struct {
	result   *archsketch.DesignResult
	prompt   string
	err      error
	lastReq  archsketch.DesignRequest
	designed int
	prompted int
}

func (f *fakeDesigner) Design(ctx context.Context, req archsketch.DesignRequest) (*archsketch.DesignResult, error) {
	f.lastReq = req
	f.designed++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeDesigner) ImagePrompt(ctx context.Context, req archsketch.DesignRequest) (string, archsketch.TokenUsage, error) {
	f.lastReq = req
	f.prompted++
	if f.err != nil {
		return "", archsketch.TokenUsage{}, f.err
	}
	return f.prompt, archsketch.TokenUsage{Prompt: 10, Completion: 5, Total: 15}, nil
}

type fakeImageGen struct {
	data []byte
	err  error
}

func (f *fakeImageGen) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func designResult() *archsketch.DesignResult {
	return &archsketch.DesignResult{
		Spec: archsketch.DiagramSpec{
			Title: "Web Service",
			Nodes: []archsketch.DiagramNode{
				{ID: "lb", Label: "Load Balancer", Service: "ELB"},
				{ID: "api", Label: "API", Service: "ECS"},
			},
			Edges: []archsketch.DiagramEdge{{From: "lb", To: "api"}},
		},
		Description:   "A load balancer fronting an API service.",
		BestPractices: []string{"Enable health checks"},
		LintPassed:    true,
	}
}

func newTestServer(t *testing.T, config Config) *Server {
	t.Helper()
	if config.Catalog == nil {
		config.Catalog = catalog.Builtin()
	}
	if config.Renderer == nil {
		config.Renderer = &render.Generator{}
	}
	if config.Gallery == nil {
		store, err := gallery.Open(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		config.Gallery = store
	}
	return New(config)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, Config{})
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListTemplates(t *testing.T) {
	srv := newTestServer(t, Config{})
	rec := doJSON(t, srv, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Templates []catalog.Template `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Templates, catalog.Builtin().Len())
}

func TestGetTemplate(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := doJSON(t, srv, http.MethodGet, "/api/templates/Data%20Pipeline%20(AWS)", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tmpl catalog.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tmpl))
	assert.Equal(t, "Data Pipeline (AWS)", tmpl.Name)
	assert.NotEmpty(t, tmpl.Description)

	rec = doJSON(t, srv, http.MethodGet, "/api/templates/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateDiagram(t *testing.T) {
	fake := &fakeDesigner{result: designResult()}
	srv := newTestServer(t, Config{Designer: fake})

	rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
		"description":       "load balancer and api",
		"architecture_type": "cloud",
		"cloud_provider":    "AWS",
		"engine":            "diagram",
		"format":            "dot",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out archsketch.GenerateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, archsketch.EngineDiagram, out.Engine)
	require.NotNil(t, out.Artifact)
	assert.Equal(t, "dot", out.Artifact.Format)
	require.NotNil(t, out.Design)
	assert.Equal(t, "Web Service", out.Design.Spec.Title)
	assert.Empty(t, out.Errors)

	assert.Equal(t, 1, fake.designed)
	assert.Equal(t, "AWS", fake.lastReq.CloudProvider)

	// The artifact is downloadable and contains DOT source.
	rec = doJSON(t, srv, http.MethodGet, "/api/diagrams/"+out.Artifact.ID+"/artifact", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "digraph")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "architecture_diagram.dot")
}

func TestGenerateDiagramTemplatePrefill(t *testing.T) {
	fake := &fakeDesigner{result: designResult()}
	srv := newTestServer(t, Config{Designer: fake})

	rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
		"template": "Data Pipeline (AWS)",
		"format":   "mermaid",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tmpl, ok := catalog.Builtin().Get("Data Pipeline (AWS)")
	require.True(t, ok)
	assert.Equal(t, tmpl.Description, fake.lastReq.Description)
	assert.Equal(t, tmpl.CloudProvider, fake.lastReq.CloudProvider)
}

func TestGenerateUnknownTemplate(t *testing.T) {
	srv := newTestServer(t, Config{Designer: &fakeDesigner{result: designResult()}})
	rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
		"template": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateValidation(t *testing.T) {
	srv := newTestServer(t, Config{Designer: &fakeDesigner{result: designResult()}})

	// Missing description without a template.
	rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Bad enum values.
	rec = doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
		"description": "something",
		"engine":      "quantum",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateDesignerUnavailable(t *testing.T) {
	srv := newTestServer(t, Config{})
	rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
		"description": "something",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerateDesignerError(t *testing.T) {
	srv := newTestServer(t, Config{Designer: &fakeDesigner{err: errors.New("model unavailable")}})
	rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
		"description": "something",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "model unavailable")
}

func TestGenerateDiagramLintWarnings(t *testing.T) {
	result := designResult()
	result.LintPassed = false
	result.Spec.Edges = append(result.Spec.Edges, archsketch.DiagramEdge{From: "lb", To: "ghost"})
	srv := newTestServer(t, Config{Designer: &fakeDesigner{result: result}})

	rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
		"description": "something",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out archsketch.GenerateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Errors)
	assert.Contains(t, strings.Join(out.Errors, "\n"), "ghost")
}

func TestGenerateImage(t *testing.T) {
	fake := &fakeDesigner{prompt: "isometric diagram of a web service"}
	imageGen := &fakeImageGen{data: []byte("png-bytes")}
	srv := newTestServer(t, Config{Designer: fake, ImageGen: imageGen})

	rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
		"description": "a web service",
		"engine":      "image",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out archsketch.GenerateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, archsketch.EngineImage, out.Engine)
	assert.Equal(t, "isometric diagram of a web service", out.ImagePrompt)
	require.NotNil(t, out.Artifact)
	assert.Equal(t, "png", out.Artifact.Format)
	assert.Equal(t, 1, fake.prompted)
	assert.Equal(t, 0, fake.designed)
}

func TestGenerateImageUnconfigured(t *testing.T) {
	srv := newTestServer(t, Config{Designer: &fakeDesigner{prompt: "p"}})
	rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
		"description": "a web service",
		"engine":      "image",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerateImageGeneratorError(t *testing.T) {
	srv := newTestServer(t, Config{
		Designer: &fakeDesigner{prompt: "p"},
		ImageGen: &fakeImageGen{err: errors.New("quota exceeded")},
	})
	rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
		"description": "a web service",
		"engine":      "image",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestArtifactLifecycle(t *testing.T) {
	srv := newTestServer(t, Config{Designer: &fakeDesigner{result: designResult()}})

	rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
		"description": "something",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var out archsketch.GenerateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	id := out.Artifact.ID

	rec = doJSON(t, srv, http.MethodGet, "/api/diagrams", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Artifacts []archsketch.Artifact `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Artifacts, 1)
	assert.Equal(t, id, list.Artifacts[0].ID)

	rec = doJSON(t, srv, http.MethodGet, "/api/diagrams/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/diagrams/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/diagrams/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearArtifacts(t *testing.T) {
	srv := newTestServer(t, Config{Designer: &fakeDesigner{result: designResult()}})

	for range 2 {
		rec := doJSON(t, srv, http.MethodPost, "/api/diagrams", map[string]any{
			"description": "something",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, srv, http.MethodDelete, "/api/diagrams", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/diagrams", nil)
	var list struct {
		Artifacts []archsketch.Artifact `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Artifacts)
}

func TestRenderEndpoint(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := doJSON(t, srv, http.MethodPost, "/api/render", map[string]any{
		"spec":   designResult().Spec,
		"format": "mermaid",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "flowchart")
}

func TestRenderEndpointLintFailure(t *testing.T) {
	srv := newTestServer(t, Config{})

	spec := designResult().Spec
	spec.Edges = append(spec.Edges, archsketch.DiagramEdge{From: "lb", To: "ghost"})

	rec := doJSON(t, srv, http.MethodPost, "/api/render", map[string]any{"spec": spec})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "issues")
}

func TestStaticUI(t *testing.T) {
	srv := newTestServer(t, Config{})

	rec := doJSON(t, srv, http.MethodGet, "/ui/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Architecture Diagram Generator")

	rec = doJSON(t, srv, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
}
