package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/circuit-architect/internal/generation"
	"github.com/joelkehle/circuit-architect/internal/llmjson"
	"github.com/joelkehle/circuit-architect/internal/solution"
	"github.com/joelkehle/circuit-architect/internal/store"
	"github.com/joelkehle/circuit-architect/internal/topology"
)

var testNow = time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)

type fakeGenerator struct {
	reqs []generation.Request
	res  generation.Result
	err  error
}

func (f *fakeGenerator) Generate(_ context.Context, req generation.Request) (generation.Result, error) {
	f.reqs = append(f.reqs, req)
	return f.res, f.err
}

func (f *fakeGenerator) ModelName() string { return "fake-model" }

type fakePDF struct{ err error }

func (f fakePDF) Render(context.Context, solution.DesignSolution) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func newServerForTest(t *testing.T, gen Generator) (http.Handler, *store.SQLiteStore) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"), store.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	deps := Deps{Store: st, PDF: fakePDF{}, Now: func() time.Time { return testNow }}
	if gen != nil {
		deps.Generator = gen
	}
	return NewServer(deps), st
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		blob, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(blob)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, rr)
	assert.Equal(t, false, body["ok"])
	return body["error"].(map[string]any)["code"].(string)
}

func createProject(t *testing.T, h http.Handler, brief string) string {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/v1/projects", map[string]any{"name": "Sensor node", "brief": brief})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode(t, rr)["project"].(map[string]any)["id"].(string)
}

func TestHealthAndCatalog(t *testing.T) {
	h, _ := newServerForTest(t, &fakeGenerator{})

	rr := doJSON(t, h, http.MethodGet, "/v1/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "fake-model", body["model"])

	rr = doJSON(t, h, http.MethodGet, "/v1/catalog?category=power", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	modules := decode(t, rr)["modules"].([]any)
	require.NotEmpty(t, modules)
	for _, m := range modules {
		assert.Equal(t, "power", m.(map[string]any)["category"])
	}

	rr = doJSON(t, h, http.MethodPost, "/v1/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestValidateEndpoint(t *testing.T) {
	h, _ := newServerForTest(t, nil)
	topo := topology.Topology{
		Nodes: []topology.Node{{ID: "usb", ModuleID: "power_usb_5v"}, {ID: "buck", ModuleID: "power_buck_3v3"}},
		Connections: []topology.Connection{{
			ID:   "c1",
			From: topology.Endpoint{NodeID: "usb", PortID: "pwr_5v_out"},
			To:   topology.Endpoint{NodeID: "buck", PortID: "vin_5v"},
		}},
	}
	rr := doJSON(t, h, http.MethodPost, "/v1/validate", topo)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, []any{}, body["issues"])
	assert.Equal(t, true, body["canProceed"])

	topo.Connections[0].To.NodeID = "ghost"
	rr = doJSON(t, h, http.MethodPost, "/v1/validate", topo)
	body = decode(t, rr)
	assert.Equal(t, false, body["canProceed"])
	issues := body["issues"].([]any)
	require.Len(t, issues, 1)
	assert.Equal(t, "c1:missing-node", issues[0].(map[string]any)["id"])

	rr = doJSON(t, h, http.MethodPost, "/v1/validate", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, CodeValidation, errorCode(t, rr))
}

func TestNormalizeEndpoint(t *testing.T) {
	h, _ := newServerForTest(t, nil)

	rr := doJSON(t, h, http.MethodPost, "/v1/solutions/normalize", map[string]any{
		"text":        "Sure:\n```json\n[{\"name\": \"A\", \"risk\": \"high\",}]\n```",
		"assumptions": []string{"shared"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	sols := decode(t, rr)["solutions"].([]any)
	require.Len(t, sols, 1)
	sol := sols[0].(map[string]any)
	assert.Equal(t, "A", sol["name"])
	assert.Equal(t, "high", sol["riskLevel"])
	assert.Equal(t, []any{"shared"}, sol["assumptions"])
	assert.Equal(t, "2026-02-17T00:00:00Z", sol["generatedAt"])

	rr = doJSON(t, h, http.MethodPost, "/v1/solutions/normalize", map[string]any{"value": map[string]any{"solutions": []any{map[string]any{}}}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "solution-1", decode(t, rr)["solutions"].([]any)[0].(map[string]any)["id"])

	rr = doJSON(t, h, http.MethodPost, "/v1/solutions/normalize", map[string]any{"text": "no json here"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "could not interpret AI response", body["error"].(map[string]any)["message"])

	rr = doJSON(t, h, http.MethodPost, "/v1/solutions/normalize", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProjectTopologyRoundTrip(t *testing.T) {
	h, _ := newServerForTest(t, nil)
	id := createProject(t, h, "battery powered")

	rr := doJSON(t, h, http.MethodGet, "/v1/projects", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["projects"].([]any), 1)

	rr = doJSON(t, h, http.MethodGet, "/v1/projects/"+id, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	topo := topology.Topology{
		Nodes: []topology.Node{{ID: "mcu", ModuleID: "mcu_esp32_s3"}, {ID: "bme", ModuleID: "sensor_bme280"}},
		Connections: []topology.Connection{{
			ID:   "i2c",
			From: topology.Endpoint{NodeID: "mcu", PortID: "i2c0"},
			To:   topology.Endpoint{NodeID: "bme", PortID: "i2c"},
		}},
	}
	rr = doJSON(t, h, http.MethodPut, "/v1/projects/"+id+"/topology", topo)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode(t, rr)
	assert.Equal(t, true, body["canProceed"])
	issues := body["issues"].([]any)
	require.Len(t, issues, 1)
	assert.Equal(t, "topology:i2c-pullup-missing", issues[0].(map[string]any)["id"])

	rr = doJSON(t, h, http.MethodGet, "/v1/projects/"+id+"/topology", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	nodes := decode(t, rr)["topology"].(map[string]any)["nodes"].([]any)
	assert.Len(t, nodes, 2)

	rr = doJSON(t, h, http.MethodGet, "/v1/projects/missing/topology", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, CodeNotFound, errorCode(t, rr))

	rr = doJSON(t, h, http.MethodPost, "/v1/projects", map[string]any{"brief": "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGenerateStoresSolutionsAndServesReports(t *testing.T) {
	sols := solution.NormalizeBatch([]any{map[string]any{"id": "lite", "name": "Lite", "riskLevel": "low"}}, nil, testNow)
	gen := &fakeGenerator{res: generation.Result{Solutions: sols, Attempts: 2, Issues: []topology.Issue{}, Model: "fake-model"}}
	h, _ := newServerForTest(t, gen)
	id := createProject(t, h, "stored brief")

	rr := doJSON(t, h, http.MethodPost, "/v1/projects/"+id+"/generate", map[string]any{"count": 2})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode(t, rr)
	assert.EqualValues(t, 2, body["attempts"])
	require.Len(t, gen.reqs, 1)
	assert.Equal(t, "stored brief", gen.reqs[0].Brief)
	assert.Equal(t, 2, gen.reqs[0].Count)
	assert.Nil(t, gen.reqs[0].Topology)

	rr = doJSON(t, h, http.MethodGet, "/v1/projects/"+id+"/solutions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["solutions"].([]any), 1)

	rr = doJSON(t, h, http.MethodGet, "/v1/projects/"+id+"/solutions/lite/report", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "# Lite"))

	rr = doJSON(t, h, http.MethodGet, "/v1/projects/"+id+"/solutions/lite/report?format=html", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "<h1>Lite</h1>")

	rr = doJSON(t, h, http.MethodGet, "/v1/projects/"+id+"/solutions/lite/report?format=pdf", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "lite.pdf")

	rr = doJSON(t, h, http.MethodGet, "/v1/projects/"+id+"/solutions/lite/report?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/v1/projects/"+id+"/solutions/nope/report", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGeneratePassesStoredTopology(t *testing.T) {
	gen := &fakeGenerator{res: generation.Result{Solutions: []solution.DesignSolution{}}}
	h, _ := newServerForTest(t, gen)
	id := createProject(t, h, "b")
	topo := topology.Topology{Nodes: []topology.Node{{ID: "usb", ModuleID: "power_usb_5v"}}}
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPut, "/v1/projects/"+id+"/topology", topo).Code)

	rr := doJSON(t, h, http.MethodPost, "/v1/projects/"+id+"/generate", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NotNil(t, gen.reqs[0].Topology)
	assert.Len(t, gen.reqs[0].Topology.Nodes, 1)

	rr = doJSON(t, h, http.MethodPost, "/v1/projects/"+id+"/generate", map[string]any{"ignoreTopology": true})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, gen.reqs[1].Topology)
}

func TestGenerateErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		issues []topology.Issue
		status int
		code   string
	}{
		{name: "parse", err: &llmjson.ParseError{Message: "x"}, status: http.StatusUnprocessableEntity, code: CodeUnprocessable},
		{name: "topology", err: generation.ErrTopologyInvalid, issues: []topology.Issue{{ID: "c1:missing-node", Severity: topology.SeverityError}}, status: http.StatusBadRequest, code: CodeValidation},
		{name: "rate limited", err: errors.New("status code: 429"), status: http.StatusServiceUnavailable, code: CodeUnavailable},
		{name: "other", err: errors.New("boom"), status: http.StatusInternalServerError, code: CodeInternal},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{err: tc.err, res: generation.Result{Issues: tc.issues}}
			h, _ := newServerForTest(t, gen)
			id := createProject(t, h, "b")
			rr := doJSON(t, h, http.MethodPost, "/v1/projects/"+id+"/generate", nil)
			assert.Equal(t, tc.status, rr.Code)
			body := decode(t, rr)
			errBody := body["error"].(map[string]any)
			assert.Equal(t, tc.code, errBody["code"])
			if tc.issues != nil {
				assert.Len(t, errBody["issues"], 1)
			}
		})
	}
}

func TestGenerateWithoutProvider(t *testing.T) {
	h, _ := newServerForTest(t, nil)
	id := createProject(t, h, "b")
	rr := doJSON(t, h, http.MethodPost, "/v1/projects/"+id+"/generate", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, CodeUnavailable, errorCode(t, rr))
}

func TestGenerateRequiresBrief(t *testing.T) {
	h, _ := newServerForTest(t, &fakeGenerator{})
	id := createProject(t, h, "")
	rr := doJSON(t, h, http.MethodPost, "/v1/projects/"+id+"/generate", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
