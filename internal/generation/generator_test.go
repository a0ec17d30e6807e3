package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joelkehle/circuit-architect/internal/llmjson"
	"github.com/joelkehle/circuit-architect/internal/logging"
	"github.com/joelkehle/circuit-architect/internal/solution"
	"github.com/joelkehle/circuit-architect/internal/topology"
)

type fakeCaller struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (f *fakeCaller) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", nil
}

func (f *fakeCaller) ModelName() string { return "test-model" }

type fakeStructured struct {
	value any
	err   error
	calls int
}

func (f *fakeStructured) GenerateStructured(context.Context, string) (any, error) {
	f.calls++
	return f.value, f.err
}

func (f *fakeStructured) ModelName() string { return "structured-model" }

var fixedNow = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func newTestGenerator(t *testing.T, opts Options) (*Generator, *[]time.Duration) {
	t.Helper()
	var slept []time.Duration
	opts.Now = func() time.Time { return fixedNow }
	opts.Sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	g, err := New(opts)
	require.NoError(t, err)
	return g, &slept
}

const twoSolutions = "Here you go:\n```json\n{\"assumptions\": [\"indoor\"], \"solutions\": [{\"name\": \"Lite\", \"risk\": \"LOW\",}, {\"name\": \"Pro\"}]}\n```"

func TestGenerateExtractsRepairsAndNormalizes(t *testing.T) {
	caller := &fakeCaller{responses: []string{twoSolutions}}
	g, _ := newTestGenerator(t, Options{Caller: caller})

	res, err := g.Generate(context.Background(), Request{ProjectID: "p1", Brief: "A BLE thermometer"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "test-model", res.Model)
	assert.Equal(t, []topology.Issue{}, res.Issues)
	require.Len(t, res.Solutions, 2)
	assert.Equal(t, "Lite", res.Solutions[0].Name)
	assert.Equal(t, solution.LevelLow, res.Solutions[0].RiskLevel)
	assert.Equal(t, []string{"indoor"}, res.Solutions[1].Assumptions)
	assert.Equal(t, fixedNow, res.Solutions[0].GeneratedAt)

	require.Len(t, caller.prompts, 1)
	assert.Contains(t, caller.prompts[0], "A BLE thermometer")
	assert.Contains(t, caller.prompts[0], "mcu_esp32_s3")
}

func TestGenerateRetriesOnParseError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	caller := &fakeCaller{responses: []string{"I cannot help with that", `{"solutions": [{"name": "A"}]}`}}
	g, slept := newTestGenerator(t, Options{Caller: caller, Logger: logging.NewWithCore(core)})

	res, err := g.Generate(context.Background(), Request{Brief: "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Len(t, caller.prompts, 2)
	assert.Empty(t, *slept)
	assert.Equal(t, 1, logs.FilterMessage("llm_attempt_json_error").Len())
}

func TestGenerateFailsAfterMaxAttempts(t *testing.T) {
	caller := &fakeCaller{responses: []string{"nope", "{bad", "[1,"}}
	g, _ := newTestGenerator(t, Options{Caller: caller, MaxAttempts: 3})

	res, err := g.Generate(context.Background(), Request{Brief: "x"})
	require.Error(t, err)
	assert.Equal(t, 3, res.Attempts)
	var perr *llmjson.ParseError
	assert.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, llmjson.ErrUnparseable)
}

func TestGenerateEmptyBatchIsRetried(t *testing.T) {
	caller := &fakeCaller{responses: []string{`{"solutions": []}`, `[{"name": "B"}]`}}
	g, _ := newTestGenerator(t, Options{Caller: caller})
	res, err := g.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "B", res.Solutions[0].Name)
}

func TestGenerateTransientTransportErrorBacksOff(t *testing.T) {
	caller := &fakeCaller{
		errs:      []error{errors.New("status code: 529 overloaded"), errors.New("status 429")},
		responses: []string{"", "", `[{"name": "C"}]`},
	}
	g, slept := newTestGenerator(t, Options{Caller: caller})
	res, err := g.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestGenerateClientErrorIsTerminal(t *testing.T) {
	caller := &fakeCaller{errs: []error{errors.New("status 401 unauthorized")}}
	g, slept := newTestGenerator(t, Options{Caller: caller})
	res, err := g.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport failure")
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, *slept)
}

func TestGenerateTopologyGate(t *testing.T) {
	caller := &fakeCaller{responses: []string{`[{"name": "A"}]`}}
	g, _ := newTestGenerator(t, Options{Caller: caller})

	bad := &topology.Topology{
		Nodes: []topology.Node{{ID: "usb", ModuleID: "power_usb_5v"}, {ID: "bme", ModuleID: "sensor_bme280"}},
		Connections: []topology.Connection{{
			ID:   "c1",
			From: topology.Endpoint{NodeID: "usb", PortID: "pwr_5v_out"},
			To:   topology.Endpoint{NodeID: "bme", PortID: "vdd_3v3"},
		}},
	}
	res, err := g.Generate(context.Background(), Request{Topology: bad})
	require.ErrorIs(t, err, ErrTopologyInvalid)
	assert.Equal(t, 0, res.Attempts)
	assert.True(t, topology.HasErrors(res.Issues))
	assert.Empty(t, caller.prompts)

	good := &topology.Topology{
		Nodes: []topology.Node{{ID: "usb", ModuleID: "power_usb_5v"}, {ID: "buck", ModuleID: "power_buck_3v3", Label: "Buck"}},
		Connections: []topology.Connection{{
			From: topology.Endpoint{NodeID: "usb", PortID: "pwr_5v_out"},
			To:   topology.Endpoint{NodeID: "buck", PortID: "vin_5v"},
		}},
	}
	res, err = g.Generate(context.Background(), Request{Topology: good})
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	require.Len(t, caller.prompts, 1)
	assert.Contains(t, caller.prompts[0], "usb.pwr_5v_out -> buck.vin_5v")
}

func TestGenerateStructuredBypassesRepair(t *testing.T) {
	s := &fakeStructured{value: map[string]any{"solutions": []any{map[string]any{"name": "S"}}}}
	g, _ := newTestGenerator(t, Options{Structured: s, Caller: &fakeCaller{}})
	res, err := g.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "structured-model", res.Model)
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, "S", res.Solutions[0].Name)
}

func TestGenerateCanceledContext(t *testing.T) {
	g, _ := newTestGenerator(t, Options{Caller: &fakeCaller{}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, Request{})
	require.Error(t, err)
}

func TestNewRequiresCaller(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrNoCaller)
}

func TestUniqueIDs(t *testing.T) {
	sols := []solution.DesignSolution{{ID: "a"}, {ID: "a"}, {ID: "a-2"}, {ID: "b"}}
	uniqueIDs(sols)
	ids := make([]string, len(sols))
	for i, s := range sols {
		ids[i] = s.ID
	}
	assert.Equal(t, "a,a-2,a-2-2,b", strings.Join(ids, ","))
}

func TestPromptListsCountAndAssumptions(t *testing.T) {
	p := buildPrompt(Request{Brief: "  drone  ", Count: 2, Assumptions: []string{"FCC part 15"}}, nil)
	assert.Contains(t, p, "Propose 2 distinct design solutions")
	assert.Contains(t, p, "- FCC part 15")
	assert.NotContains(t, p, "MODULE CATALOG")
}
