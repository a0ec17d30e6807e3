// Package generation turns a product brief into normalized design solutions
// by calling a model provider and running its response through extraction,
// repair and normalization.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/joelkehle/circuit-architect/internal/catalog"
	"github.com/joelkehle/circuit-architect/internal/llm"
	"github.com/joelkehle/circuit-architect/internal/llmjson"
	"github.com/joelkehle/circuit-architect/internal/logging"
	"github.com/joelkehle/circuit-architect/internal/solution"
	"github.com/joelkehle/circuit-architect/internal/topology"
)

const DefaultMaxAttempts = 3

var (
	ErrTopologyInvalid = errors.New("topology has blocking validation errors")
	ErrNoCaller        = errors.New("no model provider configured")
)

type Request struct {
	ProjectID   string
	Brief       string
	Count       int
	Assumptions []string
	Topology    *topology.Topology
}

type Result struct {
	Solutions []solution.DesignSolution `json:"solutions"`
	Attempts  int                       `json:"attempts"`
	Issues    []topology.Issue          `json:"issues"`
	Model     string                    `json:"model"`
}

type Options struct {
	// Exactly one of Caller and Structured is used; Structured wins.
	Caller      llm.Caller
	Structured  llm.StructuredCaller
	Catalog     *catalog.Catalog
	Limiter     *rate.Limiter
	Logger      *logging.Logger
	MaxAttempts int
	Now         func() time.Time
	Sleep       func(ctx context.Context, d time.Duration) error
}

type Generator struct {
	caller      llm.Caller
	structured  llm.StructuredCaller
	catalog     *catalog.Catalog
	limiter     *rate.Limiter
	log         *logging.Logger
	tracer      trace.Tracer
	maxAttempts int
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func New(opts Options) (*Generator, error) {
	if opts.Caller == nil && opts.Structured == nil {
		return nil, ErrNoCaller
	}
	g := &Generator{
		caller:      opts.Caller,
		structured:  opts.Structured,
		catalog:     opts.Catalog,
		limiter:     opts.Limiter,
		log:         opts.Logger,
		tracer:      otel.Tracer("github.com/joelkehle/circuit-architect/internal/generation"),
		maxAttempts: opts.MaxAttempts,
		now:         opts.Now,
		sleep:       opts.Sleep,
	}
	if g.catalog == nil {
		g.catalog = catalog.Default()
	}
	if g.limiter == nil {
		g.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if g.log == nil {
		g.log = logging.Nop()
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = DefaultMaxAttempts
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.sleep == nil {
		g.sleep = sleepCtx
	}
	return g, nil
}

func (g *Generator) ModelName() string {
	if g.structured != nil {
		return g.structured.ModelName()
	}
	return g.caller.ModelName()
}

func (g *Generator) Catalog() *catalog.Catalog { return g.catalog }

// Generate validates the optional topology, then asks the provider for
// solutions. A response that cannot be interpreted triggers a fresh call,
// up to the configured attempt limit.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	ctx, span := g.tracer.Start(ctx, "generation.Generate", trace.WithAttributes(
		attribute.String("project.id", req.ProjectID),
		attribute.String("llm.model", g.ModelName()),
	))
	defer span.End()

	res := Result{Issues: []topology.Issue{}, Model: g.ModelName()}
	log := g.log.With("project_id", req.ProjectID, "model", res.Model)

	if req.Topology != nil {
		res.Issues = g.validate(ctx, *req.Topology)
		if topology.HasErrors(res.Issues) {
			sum := topology.Summarize(res.Issues)
			log.Warn("generation_topology_invalid", "errors", sum.Errors, "warnings", sum.Warnings)
			err := fmt.Errorf("%w: %d error(s)", ErrTopologyInvalid, sum.Errors)
			fail(span, err)
			return res, err
		}
	}

	prompt := buildPrompt(req, g.catalog)
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		res.Attempts = attempt
		start := time.Now()
		log.Info("llm_attempt_start", "attempt", attempt)

		if err := g.limiter.Wait(ctx); err != nil {
			fail(span, err)
			return res, fmt.Errorf("rate limiter: %w", err)
		}

		raw, err := g.call(ctx, prompt, attempt)
		var perr *llmjson.ParseError
		switch {
		case errors.As(err, &perr):
			log.Warn("llm_attempt_json_error", "attempt", attempt, "elapsed_ms", time.Since(start).Milliseconds(), "error", perr.Message)
			if attempt < g.maxAttempts {
				continue
			}
			fail(span, err)
			return res, fmt.Errorf("generation failed after %d attempts: %w", attempt, err)
		case err != nil:
			class := llm.ClassifyTransportError(err)
			log.Warn("llm_attempt_transport_error", "attempt", attempt, "class", class.String(), "elapsed_ms", time.Since(start).Milliseconds(), "error", err)
			if class.Transient() && attempt < g.maxAttempts {
				if serr := g.sleep(ctx, llm.BackoffDelay(attempt)); serr != nil {
					fail(span, serr)
					return res, serr
				}
				continue
			}
			fail(span, err)
			return res, fmt.Errorf("generation transport failure: %w", err)
		}

		sols := g.normalize(ctx, raw, req.Assumptions)
		if len(sols) == 0 {
			log.Warn("llm_attempt_empty", "attempt", attempt, "elapsed_ms", time.Since(start).Milliseconds())
			if attempt < g.maxAttempts {
				continue
			}
			err := &llmjson.ParseError{Message: "response contained no solutions", Err: llmjson.ErrUnparseable}
			fail(span, err)
			return res, fmt.Errorf("generation failed after %d attempts: %w", attempt, err)
		}
		res.Solutions = sols
		log.Info("llm_attempt_success", "attempt", attempt, "elapsed_ms", time.Since(start).Milliseconds(), "solutions", len(sols))
		span.SetAttributes(attribute.Int("generation.attempts", attempt), attribute.Int("generation.solutions", len(sols)))
		return res, nil
	}
	return res, fmt.Errorf("generation failed after %d attempts", g.maxAttempts)
}

func (g *Generator) validate(ctx context.Context, t topology.Topology) []topology.Issue {
	_, span := g.tracer.Start(ctx, "generation.validate")
	defer span.End()
	issues := topology.Validate(t, g.catalog)
	span.SetAttributes(attribute.Int("topology.issues", len(issues)))
	return issues
}

// call returns the decoded response value. Text responses are extracted and
// repaired here; structured responses arrive decoded.
func (g *Generator) call(ctx context.Context, prompt string, attempt int) (any, error) {
	ctx, span := g.tracer.Start(ctx, "generation.call", trace.WithAttributes(attribute.Int("attempt", attempt)))
	defer span.End()

	if g.structured != nil {
		v, err := g.structured.GenerateStructured(ctx, prompt)
		if err != nil {
			fail(span, err)
		}
		return v, err
	}
	text, err := g.caller.GenerateJSON(ctx, prompt)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("response.chars", len(text)))
	v, err := llmjson.Decode(text)
	if err != nil {
		fail(span, err)
	}
	return v, err
}

func (g *Generator) normalize(ctx context.Context, raw any, assumptions []string) []solution.DesignSolution {
	_, span := g.tracer.Start(ctx, "generation.normalize")
	defer span.End()
	sols := solution.NormalizeBatch(raw, assumptions, g.now().UTC())
	uniqueIDs(sols)
	return sols
}

// uniqueIDs suffixes repeated solution ids so each one can be addressed
// within the batch.
func uniqueIDs(sols []solution.DesignSolution) {
	seen := make(map[string]int, len(sols))
	for i := range sols {
		id := sols[i].ID
		seen[id]++
		if seen[id] == 1 {
			continue
		}
		for {
			candidate := id + "-" + strconv.Itoa(seen[id])
			if _, taken := seen[candidate]; !taken {
				sols[i].ID = candidate
				seen[candidate] = 1
				break
			}
			seen[id]++
		}
	}
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
