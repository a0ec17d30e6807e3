// Package httpapi exposes validation, normalization, generation and
// reporting over JSON HTTP endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/joelkehle/circuit-architect/internal/catalog"
	"github.com/joelkehle/circuit-architect/internal/generation"
	"github.com/joelkehle/circuit-architect/internal/llmjson"
	"github.com/joelkehle/circuit-architect/internal/logging"
	"github.com/joelkehle/circuit-architect/internal/report"
	"github.com/joelkehle/circuit-architect/internal/solution"
	"github.com/joelkehle/circuit-architect/internal/store"
	"github.com/joelkehle/circuit-architect/internal/topology"
)

const maxBodyBytes = 4 << 20

type Store interface {
	CreateProject(ctx context.Context, name, brief string) (store.Project, error)
	GetProject(ctx context.Context, id string) (store.Project, error)
	ListProjects(ctx context.Context) ([]store.Project, error)
	SaveTopology(ctx context.Context, projectID string, t topology.Topology) error
	GetTopology(ctx context.Context, projectID string) (topology.Topology, error)
	SaveSolutions(ctx context.Context, projectID string, sols []solution.DesignSolution) error
	ListSolutions(ctx context.Context, projectID string) ([]solution.DesignSolution, error)
	GetSolution(ctx context.Context, projectID, solutionID string) (solution.DesignSolution, error)
	Ping(ctx context.Context) error
}

type Generator interface {
	Generate(ctx context.Context, req generation.Request) (generation.Result, error)
	ModelName() string
}

type PDFRenderer interface {
	Render(ctx context.Context, sol solution.DesignSolution) ([]byte, error)
}

type Deps struct {
	Store   Store
	Catalog *catalog.Catalog
	// Generator may be nil when no provider is configured.
	Generator Generator
	PDF       PDFRenderer
	Logger    *logging.Logger
	Now       func() time.Time
}

type Server struct {
	store   Store
	catalog *catalog.Catalog
	gen     Generator
	pdf     PDFRenderer
	log     *logging.Logger
	now     func() time.Time
}

func NewServer(d Deps) http.Handler {
	s := &Server{store: d.Store, catalog: d.Catalog, gen: d.Generator, pdf: d.PDF, log: d.Logger, now: d.Now}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/v1/catalog", s.handleCatalog)
	mux.HandleFunc("/v1/validate", s.handleValidate)
	mux.HandleFunc("/v1/solutions/normalize", s.handleNormalize)
	mux.HandleFunc("/v1/projects", s.handleProjects)
	mux.HandleFunc("/v1/projects/{id}", s.handleProject)
	mux.HandleFunc("/v1/projects/{id}/topology", s.handleTopology)
	mux.HandleFunc("/v1/projects/{id}/generate", s.handleGenerate)
	mux.HandleFunc("/v1/projects/{id}/solutions", s.handleSolutions)
	mux.HandleFunc("/v1/projects/{id}/solutions/{sid}/report", s.handleReport)
	return requestLogger(s.log, mux)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	ae := apiError(err)
	body := map[string]any{
		"code":      ae.Code,
		"message":   ae.Message,
		"transient": ae.Transient,
	}
	if len(ae.Issues) > 0 {
		body["issues"] = ae.Issues
	}
	writeJSON(w, ae.Status, map[string]any{"ok": false, "error": body})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(blob))) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	blob, err := readBody(w, r)
	if err == nil {
		err = json.Unmarshal(blob, dst)
	}
	if err != nil {
		writeError(w, validationJSONError(err))
		return false
	}
	return true
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	status := map[string]any{
		"ok":              true,
		"catalog_modules": s.catalog.Len(),
		"generation":      s.gen != nil,
	}
	if s.gen != nil {
		status["model"] = s.gen.ModelName()
	}
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			status["ok"] = false
			status["store_error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	modules := s.catalog.Modules()
	if c := strings.TrimSpace(r.URL.Query().Get("category")); c != "" {
		modules = s.catalog.ByCategory(catalog.ParseCategory(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": modules})
}

type validateResponse struct {
	OK         bool             `json:"ok"`
	Issues     []topology.Issue `json:"issues"`
	Summary    topology.Summary `json:"summary"`
	CanProceed bool             `json:"canProceed"`
}

func newValidateResponse(issues []topology.Issue) validateResponse {
	return validateResponse{
		OK:         true,
		Issues:     issues,
		Summary:    topology.Summarize(issues),
		CanProceed: !topology.HasErrors(issues),
	}
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var t topology.Topology
	if !decodeBody(w, r, &t) {
		return
	}
	writeJSON(w, http.StatusOK, newValidateResponse(topology.Validate(t, s.catalog)))
}

// handleNormalize accepts either raw model text or an already decoded
// value and returns normalized solutions.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Text        *string         `json:"text"`
		Value       json.RawMessage `json:"value"`
		Assumptions []string        `json:"assumptions"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	var raw any
	var err error
	switch {
	case req.Text != nil:
		raw, err = llmjson.Decode(*req.Text)
	case len(req.Value) > 0:
		raw, err = llmjson.ParseWithRepair(string(req.Value))
	default:
		writeError(w, newError(CodeValidation, "text or value is required", false))
		return
	}
	if err != nil {
		s.log.Warn("normalize_parse_error", "error", err)
		writeError(w, err)
		return
	}
	sols := solution.NormalizeBatch(raw, req.Assumptions, s.now().UTC())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "solutions": sols})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Name  string `json:"name"`
			Brief string `json:"brief"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, newError(CodeValidation, "name is required", false))
			return
		}
		p, err := s.store.CreateProject(r.Context(), req.Name, req.Brief)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "project": p})
	case http.MethodGet:
		projects, err := s.store.ListProjects(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	p, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": p})
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		t, err := s.store.GetTopology(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"topology": t})
	case http.MethodPut:
		var t topology.Topology
		if !decodeBody(w, r, &t) {
			return
		}
		if err := s.store.SaveTopology(r.Context(), id, t); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newValidateResponse(topology.Validate(t, s.catalog)))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	if s.gen == nil {
		writeError(w, newError(CodeUnavailable, "no model provider configured", false))
		return
	}
	var req struct {
		Brief          string   `json:"brief"`
		Count          int      `json:"count"`
		Assumptions    []string `json:"assumptions"`
		IgnoreTopology bool     `json:"ignoreTopology"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	ctx := r.Context()
	id := r.PathValue("id")
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	genReq := generation.Request{ProjectID: p.ID, Brief: req.Brief, Count: req.Count, Assumptions: req.Assumptions}
	if strings.TrimSpace(genReq.Brief) == "" {
		genReq.Brief = p.Brief
	}
	if strings.TrimSpace(genReq.Brief) == "" {
		writeError(w, newError(CodeValidation, "brief is required", false))
		return
	}
	if !req.IgnoreTopology {
		t, err := s.store.GetTopology(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(t.Nodes) > 0 {
			genReq.Topology = &t
		}
	}

	res, err := s.gen.Generate(ctx, genReq)
	if err != nil {
		s.log.Warn("generation_failed", "project_id", id, "attempts", res.Attempts, "error", err)
		ae := apiError(err)
		if errors.Is(err, generation.ErrTopologyInvalid) {
			ae.Issues = res.Issues
		}
		writeError(w, ae)
		return
	}
	if err := s.store.SaveSolutions(ctx, id, res.Solutions); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"solutions": res.Solutions,
		"attempts":  res.Attempts,
		"issues":    res.Issues,
		"model":     res.Model,
	})
}

func (s *Server) handleSolutions(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	sols, err := s.store.ListSolutions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"solutions": sols})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	sol, err := s.store.GetSolution(r.Context(), r.PathValue("id"), r.PathValue("sid"))
	if err != nil {
		writeError(w, err)
		return
	}
	switch format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))); format {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, report.Markdown(sol))
	case "html":
		doc, err := report.Document(sol)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, doc)
	case "pdf":
		if s.pdf == nil {
			writeError(w, newError(CodeUnavailable, "pdf rendering not configured", false))
			return
		}
		pdf, err := s.pdf.Render(r.Context(), sol)
		if err != nil {
			s.log.Error("pdf_render_failed", "solution_id", sol.ID, "error", err)
			writeError(w, newError(CodeUnavailable, "pdf rendering failed: "+err.Error(), true))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": sol.ID + ".pdf"}))
		_, _ = w.Write(pdf)
	default:
		writeError(w, newError(CodeValidation, "unknown format "+format, false))
	}
}
